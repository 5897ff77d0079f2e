package service

import (
	"errors"
	"fmt"

	accountdomain "task-board/backend/internal/account/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	ErrMissingFields           = errors.New("required fields are missing")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountLocked           = errors.New("account temporarily locked")
	ErrPasswordPolicy          = errors.New("new password does not meet the password policy")
	ErrCurrentPasswordMismatch = errors.New("current password is incorrect")
	ErrAccountNotFound         = accountdomain.ErrAccountNotFound
)

// LockedError carries lockout details. errors.Is(err, ErrAccountLocked) holds for it.
type LockedError struct {
	RemainingSeconds int
	MaxFailures      int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: retry in %ds", ErrAccountLocked, e.RemainingSeconds)
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}
