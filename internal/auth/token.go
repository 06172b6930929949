package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pwronski/go-taskboard/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the claims snapshot carried by a verified token. It reflects
// the user record as it was at issuance time, not a live lookup: a role or
// email change lands in new tokens only.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Claims is the JWT payload of an identity token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed identity tokens.
type TokenManager struct {
	issuer     string
	signingKey []byte
	ttl        time.Duration
}

func NewTokenManager(issuer string, signingKey []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{
		issuer:     issuer,
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// Generate issues a signed token embedding the user's id, email and role.
func (m *TokenManager) Generate(user models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, issuer and expiry of the given token
// and returns the identity embedded in its claims. Any failure, from a
// malformed token to an expired one, surfaces as ErrInvalidToken.
func (m *TokenManager) Parse(token string) (Identity, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.signingKey, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(*Claims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
