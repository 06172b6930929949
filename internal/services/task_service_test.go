package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pwronski/go-taskboard/internal/auth"
	"github.com/pwronski/go-taskboard/internal/models"
	"github.com/pwronski/go-taskboard/internal/storage/file"
)

var (
	testOwner    = auth.Identity{UserID: "u1", Email: "a@x.com", Role: models.RoleUser}
	testStranger = auth.Identity{UserID: "u2", Email: "b@x.com", Role: models.RoleUser}
	testAdmin    = auth.Identity{UserID: "u3", Email: "admin@x.com", Role: models.RoleAdmin}
)

func newTestTaskService(t *testing.T) TaskService {
	t.Helper()
	store := file.NewStore(zerolog.Nop(), t.TempDir())
	return NewTaskService(zerolog.Nop(), store)
}

func TestCreateDefaults(t *testing.T) {
	svc := newTestTaskService(t)

	task, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.OwnerID != testOwner.UserID {
		t.Fatalf("owner mismatch: %+v", task)
	}
	if task.Description != "" || task.Completed {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if task.UpdatedAt != nil {
		t.Fatalf("fresh task already has updated_at: %+v", task)
	}
}

func TestCreateEmptyTitle(t *testing.T) {
	svc := newTestTaskService(t)

	for _, title := range []string{"", "   "} {
		_, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: title})
		if !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
}

func TestUpdatePatchOnlyCompleted(t *testing.T) {
	svc := newTestTaskService(t)

	created, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "T", Description: "D"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := true
	updated, err := svc.Update(context.Background(), testOwner, created.ID, UpdateTaskParams{Completed: &completed})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed {
		t.Fatal("completed not applied")
	}
	if updated.Title != "T" || updated.Description != "D" {
		t.Fatalf("patch touched other fields: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("updated_at not stamped")
	}
}

func TestUpdateEmptyTitleRejected(t *testing.T) {
	svc := newTestTaskService(t)

	created, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "  "
	_, err = svc.Update(context.Background(), testOwner, created.ID, UpdateTaskParams{Title: &title})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

// A task someone else owns must look exactly like a missing task.
func TestForeignTaskHidden(t *testing.T) {
	svc := newTestTaskService(t)

	created, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := true
	_, err = svc.Update(context.Background(), testStranger, created.ID, UpdateTaskParams{Completed: &completed})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("stranger update: expected ErrTaskNotFound, got %v", err)
	}

	_, err = svc.Delete(context.Background(), testStranger, created.ID)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("stranger delete: expected ErrTaskNotFound, got %v", err)
	}

	// The owner still sees the task untouched.
	tasks, err := svc.ListOwn(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Completed {
		t.Fatalf("task changed by denied request: %+v", tasks)
	}
}

func TestAdminBypassesOwnership(t *testing.T) {
	svc := newTestTaskService(t)

	created, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "T"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := true
	updated, err := svc.Update(context.Background(), testAdmin, created.ID, UpdateTaskParams{Completed: &completed})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if !updated.Completed {
		t.Fatalf("admin update not applied: %+v", updated)
	}

	deleted, err := svc.Delete(context.Background(), testAdmin, created.ID)
	if err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("deleted wrong task: %+v", deleted)
	}
}

func TestAbsentTaskNotFoundForEveryone(t *testing.T) {
	svc := newTestTaskService(t)

	for _, identity := range []auth.Identity{testOwner, testAdmin} {
		_, err := svc.Update(context.Background(), identity, 42, UpdateTaskParams{})
		if !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("update as %s: expected ErrTaskNotFound, got %v", identity.Role, err)
		}
		_, err = svc.Delete(context.Background(), identity, 42)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("delete as %s: expected ErrTaskNotFound, got %v", identity.Role, err)
		}
	}
}

func TestListOwnScopesToOwner(t *testing.T) {
	svc := newTestTaskService(t)

	if _, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "mine"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), testStranger, CreateTaskParams{Title: "theirs"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := svc.ListOwn(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "mine" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	svc := newTestTaskService(t)

	if _, err := svc.Create(context.Background(), testOwner, CreateTaskParams{Title: "one"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), testStranger, CreateTaskParams{Title: "two"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.ListAll(context.Background(), testOwner)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	tasks, err := svc.ListAll(context.Background(), testAdmin)
	if err != nil {
		t.Fatalf("admin list all: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
}
