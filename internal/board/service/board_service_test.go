package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"task-board/backend/internal/board/domain"
	"task-board/backend/internal/policy/engine"
)

func newService(t *testing.T) (*BoardService, *memBoardRepo) {
	t.Helper()
	pol, err := engine.NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	repo := newMemBoardRepo()
	return NewBoardService(repo, pol), repo
}

func TestCreateTask_Defaults(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.CreateTask(context.Background(), "E001", &domain.Task{ColumnID: "daily", Title: "Check logs", CreatedBy: "E999", Completed: true})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Errorf("generated id %q is not a uuid", got.ID)
	}
	if got.CreatedBy != "E001" {
		t.Errorf("CreatedBy = %q, want the caller", got.CreatedBy)
	}
	if got.Priority != domain.DefaultPriority || got.Completed || got.Tags == nil {
		t.Errorf("task = %+v", got)
	}
}

func TestCreateTask_KeepsClientID(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.CreateTask(context.Background(), "E001", &domain.Task{ID: "task-1", ColumnID: "daily", Title: "x"})
	if err != nil || got.ID != "task-1" {
		t.Fatalf("CreateTask = %+v, %v", got, err)
	}
	if _, err := svc.CreateTask(context.Background(), "E001", &domain.Task{ID: "task-1", ColumnID: "daily", Title: "x"}); !errors.Is(err, domain.ErrTaskExists) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestUpdateTask_OwnerOnly(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	if _, err := svc.CreateTask(ctx, "E001", &domain.Task{ID: "t1", ColumnID: "daily", Title: "old"}); err != nil {
		t.Fatal(err)
	}
	title := "new"

	if _, err := svc.UpdateTask(ctx, "E002", "t1", domain.TaskPatch{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner err = %v, want ErrForbidden", err)
	}
	if stored, _ := repo.GetTask(ctx, "t1"); stored.Title != "old" {
		t.Fatal("forbidden update changed the task")
	}

	got, err := svc.UpdateTask(ctx, "E001", "t1", domain.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if got.Title != "new" || got.CreatedBy != "E001" {
		t.Errorf("task = %+v", got)
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.CreateTask(ctx, "E001", &domain.Task{ID: "t1", ColumnID: "daily", Title: "x"})
	blank := " "
	title := "y"

	if _, err := svc.UpdateTask(ctx, "E001", "t1", domain.TaskPatch{}); !errors.Is(err, domain.ErrEmptyPatch) {
		t.Errorf("empty patch err = %v", err)
	}
	if _, err := svc.UpdateTask(ctx, "E001", "missing", domain.TaskPatch{Title: &title}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("missing task err = %v", err)
	}
	if _, err := svc.UpdateTask(ctx, "E001", "t1", domain.TaskPatch{Title: &blank}); !errors.Is(err, domain.ErrInvalidTask) {
		t.Errorf("blank title err = %v", err)
	}
}

func TestDeleteTask_OwnerOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.CreateTask(ctx, "E001", &domain.Task{ID: "t1", ColumnID: "daily", Title: "x"})

	if err := svc.DeleteTask(ctx, "E002", "t1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner err = %v", err)
	}
	if err := svc.DeleteTask(ctx, "E001", "t1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.DeleteTask(ctx, "E001", "t1"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestGetBoard(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	b, err := svc.GetBoard(ctx)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if len(b.Columns) != 2 || b.Tasks == nil || len(b.Tasks) != 0 {
		t.Errorf("board = %+v", b)
	}
	_, _ = svc.CreateTask(ctx, "E001", &domain.Task{ID: "t1", ColumnID: "daily", Title: "x"})
	b, _ = svc.GetBoard(ctx)
	if len(b.Tasks) != 1 {
		t.Errorf("tasks = %d", len(b.Tasks))
	}
}
