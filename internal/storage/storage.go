package storage

import (
	"context"
	"errors"

	"github.com/pwronski/go-taskboard/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// TaskPatch carries the fields of a partial task update.
// Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// UserStore captures the persistence operations the auth service needs.
type UserStore interface {
	// CreateUser inserts a new user. It returns ErrAlreadyExists if the
	// email is already taken.
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// FindUserByEmail fetches a user by exact email, including the
	// password hash. It returns ErrNotFound if no such user exists.
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

// TaskStore captures the persistence operations the task service needs.
// Both implementations (postgres, file snapshot) honor identical external
// behavior: creation-time descending order, empty-string description
// defaults, and the same sentinel errors.
type TaskStore interface {
	// CreateTask inserts the task and assigns it a monotonic id.
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// ListTasks returns tasks ordered by creation time descending.
	// An empty ownerID returns every task.
	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)

	// GetTask fetches a task by id. It returns ErrNotFound if absent.
	GetTask(ctx context.Context, id int64) (models.Task, error)

	// UpdateTask applies the non-nil patch fields to the task and stamps
	// updated_at. It returns ErrNotFound if the task is absent.
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (models.Task, error)

	// DeleteTask removes the task and returns the deleted record.
	// It returns ErrNotFound if the task is absent.
	DeleteTask(ctx context.Context, id int64) (models.Task, error)
}
