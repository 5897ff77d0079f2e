package repository

import (
	"context"

	"task-board/backend/internal/board/domain"
)

// Repository persists board columns and tasks.
type Repository interface {
	ListColumns(ctx context.Context) ([]*domain.Column, error)
	ListTasks(ctx context.Context) ([]*domain.Task, error)
	// GetTask returns nil, nil when the task does not exist.
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	CreateTask(ctx context.Context, t *domain.Task) error
	UpdateTask(ctx context.Context, t *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}
