package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/models"
	"github.com/pwronski/go-taskboard/internal/storage"
)

var (
	_ storage.UserStore = (*Store)(nil)
	_ storage.TaskStore = (*Store)(nil)
)

const (
	tasksFileName = "tasks.json"
	usersFileName = "users.json"
)

// Store persists users and tasks as pretty-printed JSON snapshots on disk.
// Every mutation reads the whole collection, changes it in memory, and
// writes the whole collection back, leaving unrelated records untouched.
// A missing or unreadable file is treated as an empty collection. The mutex
// serializes read-modify-write cycles within this process only; writers in
// other processes can still race and lose updates.
type Store struct {
	logger zerolog.Logger

	mu        sync.Mutex
	tasksPath string
	usersPath string
}

// userRecord is the on-disk user shape. Unlike the API model it carries
// the password hash.
type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewStore(logger zerolog.Logger, dir string) *Store {
	return &Store{
		logger:    logger,
		tasksPath: filepath.Join(dir, tasksFileName),
		usersPath: filepath.Join(dir, usersFileName),
	}
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.readUsers()
	for _, existing := range users {
		if existing.Email == user.Email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}

	users = append(users, userRecord{
		ID:        user.ID,
		Email:     user.Email,
		Password:  user.Password,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
	err := s.writeSnapshot(s.usersPath, users)
	if err != nil {
		return models.User{}, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("wrote user")

	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.readUsers() {
		if record.Email == email {
			return models.User{
				ID:        record.ID,
				Email:     record.Email,
				Password:  record.Password,
				Role:      record.Role,
				CreatedAt: record.CreatedAt,
			}, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.readTasks()
	task.ID = 1
	if len(tasks) > 0 {
		task.ID = tasks[len(tasks)-1].ID + 1
	}

	tasks = append(tasks, task)
	err := s.writeSnapshot(s.tasksPath, tasks)
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("wrote task")

	return task, nil
}

func (s *Store) ListTasks(_ context.Context, ownerID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.readTasks()
	tasks := make([]models.Task, 0, len(all))
	for _, task := range all {
		if ownerID == "" || task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

func (s *Store) GetTask(_ context.Context, id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.readTasks() {
		if task.ID == id {
			return task, nil
		}
	}
	return models.Task{}, storage.ErrNotFound
}

func (s *Store) UpdateTask(_ context.Context, id int64, patch storage.TaskPatch) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.readTasks()
	for i, task := range tasks {
		if task.ID != id {
			continue
		}

		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Completed != nil {
			task.Completed = *patch.Completed
		}
		now := time.Now()
		task.UpdatedAt = &now

		tasks[i] = task
		err := s.writeSnapshot(s.tasksPath, tasks)
		if err != nil {
			return models.Task{}, err
		}
		s.logger.Debug().
			Int64("task_id", task.ID).
			Msg("updated task")

		return task, nil
	}
	return models.Task{}, storage.ErrNotFound
}

func (s *Store) DeleteTask(_ context.Context, id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.readTasks()
	for i, task := range tasks {
		if task.ID != id {
			continue
		}

		tasks = append(tasks[:i], tasks[i+1:]...)
		err := s.writeSnapshot(s.tasksPath, tasks)
		if err != nil {
			return models.Task{}, err
		}
		s.logger.Debug().
			Int64("task_id", task.ID).
			Msg("deleted task")

		return task, nil
	}
	return models.Task{}, storage.ErrNotFound
}

func (s *Store) readTasks() []models.Task {
	var tasks []models.Task
	if !s.readSnapshot(s.tasksPath, &tasks) {
		return nil
	}
	return tasks
}

func (s *Store) readUsers() []userRecord {
	var users []userRecord
	if !s.readSnapshot(s.usersPath, &users) {
		return nil
	}
	return users
}

// readSnapshot loads the whole collection at path into out. A missing or
// corrupt file reads as an empty collection rather than an error.
func (s *Store) readSnapshot(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("path", path).
			Msg("snapshot is corrupt, treating as empty")
		return false
	}
	return true
}

func (s *Store) writeSnapshot(path string, records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to write snapshot")
		return err
	}
	return nil
}
