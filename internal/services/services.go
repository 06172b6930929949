package services

import (
	"context"
	"errors"
	"time"

	"github.com/pwronski/go-taskboard/internal/auth"
	"github.com/pwronski/go-taskboard/internal/models"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTaskNotFound       = errors.New("task not found")
	ErrEmptyTitle         = errors.New("title is required")
	ErrAccessDenied       = errors.New("access denied")
)

type AuthService interface {
	// Register creates a user with the given email and password and the
	// default "user" role. The password is stored as a one-way verifier,
	// never as plaintext, and the returned record never carries it.
	//
	// It returns ErrUserAlreadyExists if the email is already taken.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login authenticates the user by email and password and issues a
	// signed identity token embedding id, email and role.
	//
	// An unknown email and a password mismatch both return
	// ErrInvalidCredentials so callers cannot probe for accounts.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Authenticate verifies a bearer token and returns the identity
	// embedded in its claims. The identity is a snapshot taken at
	// issuance time, not a fresh read of the user record.
	//
	// It returns ErrInvalidToken for a missing, malformed, mis-signed
	// or expired token.
	Authenticate(token string) (auth.Identity, error)
}

type TaskService interface {
	// ListOwn returns the identity's tasks, newest first.
	ListOwn(ctx context.Context, identity auth.Identity) ([]models.Task, error)

	// ListAll returns every task, newest first. It returns
	// ErrAccessDenied unless the identity may read all tasks.
	ListAll(ctx context.Context, identity auth.Identity) ([]models.Task, error)

	// Create stores a new task owned by the identity. It returns
	// ErrEmptyTitle if the title is blank.
	Create(ctx context.Context, identity auth.Identity, params CreateTaskParams) (*models.Task, error)

	// Update applies the non-nil patch fields to the task. It returns
	// ErrTaskNotFound for absent ids and for tasks the identity may not
	// touch, so existence never leaks to non-owners.
	Update(ctx context.Context, identity auth.Identity, id int64, patch UpdateTaskParams) (*models.Task, error)

	// Delete removes the task and returns the deleted record, under the
	// same visibility rule as Update.
	Delete(ctx context.Context, identity auth.Identity, id int64) (*models.Task, error)
}

type RegisterParams struct {
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token          string
	TokenExpiresAt time.Time
	User           models.User
}

type CreateTaskParams struct {
	Title       string
	Description string
}

type UpdateTaskParams struct {
	Title       *string
	Description *string
	Completed   *bool
}
