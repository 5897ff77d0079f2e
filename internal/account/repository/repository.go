package repository

import (
	"context"

	"task-board/backend/internal/account/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	// GetByID returns the account for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// UpdateCredential replaces the password hash and must-change flag. Returns domain.ErrAccountNotFound if no row matched.
	UpdateCredential(ctx context.Context, id, passwordHash string, mustChange bool) error
	// ListWithoutPassword returns accounts whose password hash is empty.
	ListWithoutPassword(ctx context.Context) ([]*domain.Account, error)
}
