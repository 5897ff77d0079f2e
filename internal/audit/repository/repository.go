package repository

import (
	"context"

	"task-board/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByAccount returns the newest entries for accountID, at most limit.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.AuditLog, error)
}
