package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/auth"
	"github.com/pwronski/go-taskboard/internal/models"
	"github.com/pwronski/go-taskboard/internal/storage"
)

type authServiceImpl struct {
	logger zerolog.Logger
	users  storage.UserStore
	tokens *auth.TokenManager
}

func NewAuthService(
	logger zerolog.Logger,
	users storage.UserStore,
	tokens *auth.TokenManager,
) AuthService {
	return &authServiceImpl{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	user := models.User{
		Email:     params.Email,
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to create user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", created.ID).
		Msg("registered user")

	created.Password = ""
	return &created, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user, err := s.users.FindUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Indistinguishable from a password mismatch on purpose.
			s.logger.Error().
				Str("email", params.Email).
				Msg("user not found")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("failed to select user by email")
		return nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("passwords do not match")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")

	user.Password = ""
	return &LoginResult{
		Token:          token,
		TokenExpiresAt: expiresAt,
		User:           user,
	}, nil
}

func (s *authServiceImpl) Authenticate(token string) (auth.Identity, error) {
	identity, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return identity, nil
}
