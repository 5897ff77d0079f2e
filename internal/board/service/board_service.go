// Package service implements board reads and owner-checked task writes.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"task-board/backend/internal/board/domain"
	"task-board/backend/internal/board/repository"
	"task-board/backend/internal/policy/engine"
)

// ErrForbidden is returned when the ownership policy denies a modification.
var ErrForbidden = errors.New("only the creator may modify this task")

// Board is the full board snapshot served to clients.
type Board struct {
	Columns []*domain.Column
	Tasks   []*domain.Task
}

// BoardService serves the board and enforces "creator may modify own records".
type BoardService struct {
	repo   repository.Repository
	policy engine.Evaluator
}

// NewBoardService returns a BoardService.
func NewBoardService(repo repository.Repository, policy engine.Evaluator) *BoardService {
	return &BoardService{repo: repo, policy: policy}
}

// GetBoard returns every column and task.
func (s *BoardService) GetBoard(ctx context.Context) (*Board, error) {
	cols, err := s.repo.ListColumns(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		cols = []*domain.Column{}
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return &Board{Columns: cols, Tasks: tasks}, nil
}

// CreateTask stores t owned by accountID. An empty id is replaced with a UUID; an empty priority
// becomes DefaultPriority. Any client-supplied owner is ignored.
func (s *BoardService) CreateTask(ctx context.Context, accountID string, t *domain.Task) (*domain.Task, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = domain.DefaultPriority
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Completed = false
	t.CreatedBy = accountID
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask applies patch to the task if accountID created it.
func (s *BoardService) UpdateTask(ctx context.Context, accountID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}
	t, err := s.authorize(ctx, accountID, id, engine.ActionUpdate)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.ColumnID) == "" {
		return nil, domain.ErrInvalidTask
	}
	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes the task if accountID created it.
func (s *BoardService) DeleteTask(ctx context.Context, accountID, id string) error {
	if _, err := s.authorize(ctx, accountID, id, engine.ActionDelete); err != nil {
		return err
	}
	return s.repo.DeleteTask(ctx, id)
}

func (s *BoardService) authorize(ctx context.Context, accountID, id, action string) (*domain.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrTaskNotFound
	}
	ok, err := s.policy.CanModify(ctx, engine.OwnershipInput{AccountID: accountID, Action: action, OwnerID: t.CreatedBy})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return t, nil
}
