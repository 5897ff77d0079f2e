package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrAccountNotFound is returned when an update targets an account id that does not exist.
var ErrAccountNotFound = errors.New("account not found")

// Account is a user of the board, keyed by an externally assigned employee id.
type Account struct {
	ID                 string
	DisplayName        string
	PasswordHash       string // bcrypt; empty until a temporary password is assigned
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPassword reports whether a credential has been assigned.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(a.DisplayName) == "" {
		return errors.New("display name is required")
	}
	return nil
}
