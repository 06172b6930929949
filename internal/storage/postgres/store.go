package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/models"
	"github.com/pwronski/go-taskboard/internal/storage"
)

var (
	_ storage.UserStore = (*Store)(nil)
	_ storage.TaskStore = (*Store)(nil)
)

// Store provides Postgres-backed persistence for users and tasks.
type Store struct {
	logger zerolog.Logger
	pool   *pgxpool.Pool
}

func NewStore(logger zerolog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{
		logger: logger,
		pool:   pool,
	}
}

// Migrate creates the users and tasks tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    owner_id UUID NOT NULL REFERENCES users (id),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ
)`,
	}
	for _, stmt := range stmts {
		_, err := s.pool.Exec(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	s.logger.Debug().Msg("applied migrations")
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   password,
                   role,
                   created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := s.pool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.Password,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return models.User{}, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("inserted user")

	return user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	user := models.User{Email: email}

	const selectUserByEmailQuery = `
SELECT id,
       password,
       role,
       created_at
FROM users
WHERE email = $1
`
	err := s.pool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Password,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select user by email")
		return models.User{}, err
	}

	return user, nil
}

func (s *Store) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	const insertTaskQuery = `
INSERT INTO tasks (owner_id,
                   title,
                   description,
                   completed,
                   created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err := s.pool.QueryRow(
		ctx,
		insertTaskQuery,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Completed,
		task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return models.Task{}, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")

	return task, nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	// $1 = '' disables the owner filter: the admin read-all path.
	const selectTasksQuery = `
SELECT id,
       owner_id,
       title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE $1 = '' OR owner_id::TEXT = $1
ORDER BY created_at DESC, id DESC
`
	rows, err := s.pool.Query(ctx, selectTasksQuery, ownerID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var task models.Task
		err = rows.Scan(
			&task.ID,
			&task.OwnerID,
			&task.Title,
			&task.Description,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	task := models.Task{ID: id}

	const selectTaskQuery = `
SELECT owner_id,
       title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	err := s.pool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
	).Scan(
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select task")
		return models.Task{}, err
	}
	return task, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, patch storage.TaskPatch) (models.Task, error) {
	task := models.Task{ID: id}

	// COALESCE keeps untouched columns as they are. No transaction wraps
	// the update, so concurrent patches to the same task interleave at
	// column granularity.
	const updateTaskQuery = `
UPDATE tasks
SET title = COALESCE($2, title),
    description = COALESCE($3, description),
    completed = COALESCE($4, completed),
    updated_at = $5
WHERE id = $1
RETURNING owner_id, title, description, completed, created_at, updated_at
`
	err := s.pool.QueryRow(
		ctx,
		updateTaskQuery,
		task.ID,
		patch.Title,
		patch.Description,
		patch.Completed,
		time.Now(),
	).Scan(
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to update task")
		return models.Task{}, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task")

	return task, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) (models.Task, error) {
	task := models.Task{ID: id}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
RETURNING owner_id, title, description, completed, created_at, updated_at
`
	err := s.pool.QueryRow(
		ctx,
		deleteTaskQuery,
		task.ID,
	).Scan(
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to delete task")
		return models.Task{}, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("deleted task")

	return task, nil
}
