package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/auth"
	"github.com/pwronski/go-taskboard/internal/models"
	"github.com/pwronski/go-taskboard/internal/storage"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	tasks  storage.TaskStore
}

func NewTaskService(
	logger zerolog.Logger,
	tasks storage.TaskStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		tasks:  tasks,
	}
}

func (s *taskServiceImpl) ListOwn(ctx context.Context, identity auth.Identity) ([]models.Task, error) {
	tasks, err := s.tasks.ListTasks(ctx, identity.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", identity.UserID).
			Msg("failed to list own tasks")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", identity.UserID).
		Int("count", len(tasks)).
		Msg("listed own tasks")

	return tasks, nil
}

func (s *taskServiceImpl) ListAll(ctx context.Context, identity auth.Identity) ([]models.Task, error) {
	if !auth.Allow(identity, auth.ActionReadAll, "") {
		s.logger.Warn().
			Str("user_id", identity.UserID).
			Str("role", identity.Role).
			Msg("read-all denied")
		return nil, ErrAccessDenied
	}

	tasks, err := s.tasks.ListTasks(ctx, "")
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list all tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("listed all tasks")

	return tasks, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, identity auth.Identity, params CreateTaskParams) (*models.Task, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrEmptyTitle
	}

	task := models.Task{
		OwnerID:     identity.UserID,
		Title:       params.Title,
		Description: params.Description,
		Completed:   false,
		CreatedAt:   time.Now(),
	}

	created, err := s.tasks.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", created.ID).
		Str("owner_id", created.OwnerID).
		Msg("created task")
	return &created, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, identity auth.Identity, id int64, patch UpdateTaskParams) (*models.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrEmptyTitle
	}

	if err := s.authorize(ctx, identity, auth.ActionUpdate, id); err != nil {
		return nil, err
	}

	updated, err := s.tasks.UpdateTask(ctx, id, storage.TaskPatch{
		Title:       patch.Title,
		Description: patch.Description,
		Completed:   patch.Completed,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", updated.ID).
		Msg("updated task")
	return &updated, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, identity auth.Identity, id int64) (*models.Task, error) {
	if err := s.authorize(ctx, identity, auth.ActionDelete, id); err != nil {
		return nil, err
	}

	deleted, err := s.tasks.DeleteTask(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", deleted.ID).
		Msg("deleted task")
	return &deleted, nil
}

// authorize fetches the task and checks the policy. A task that exists but
// belongs to someone else yields ErrTaskNotFound, same as an absent one, so
// non-owners cannot tell the difference.
func (s *taskServiceImpl) authorize(ctx context.Context, identity auth.Identity, action auth.Action, id int64) error {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task")
		return err
	}

	if !auth.Allow(identity, action, task.OwnerID) {
		s.logger.Warn().
			Str("user_id", identity.UserID).
			Int64("task_id", id).
			Str("action", string(action)).
			Msg("denied, hiding task")
		return ErrTaskNotFound
	}
	return nil
}
