// Package session tracks the single active session token per account.
//
// A registry entry supersedes any earlier entry for the same account, so a token that verifies
// correctly can still be rejected because a later login replaced it. A token whose account has no
// entry at all (logged out, revoked, or lost on restart) is reported separately from a replaced one.
package session

import (
	"context"
	"errors"
	"time"

	"task-board/backend/internal/security"
)

// ErrRegistryUnavailable wraps backend failures. The auth gate treats it as an internal error, never as an accept.
var ErrRegistryUnavailable = errors.New("session registry unavailable")

// Registry records the currently active token per account. Implementations store only a digest of the token.
type Registry interface {
	// SetActive makes token the account's only active session. replaced reports whether an earlier entry existed.
	SetActive(ctx context.Context, accountID, token string) (replaced bool, err error)
	// Check reports whether the account has no entry, an entry for another token, or token itself.
	Check(ctx context.Context, accountID, token string) (State, error)
	// Revoke removes the account's entry. No-op if absent.
	Revoke(ctx context.Context, accountID string) error
}

// State is the registry's view of one token.
type State int

const (
	// Absent means the account has no active session.
	Absent State = iota
	// Replaced means the account's active session belongs to a different token.
	Replaced
	// Active means token is the account's active session.
	Active
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Replaced:
		return "replaced"
	case Active:
		return "active"
	}
	return "unknown"
}

// Entry is an immutable snapshot of a registry record.
type Entry struct {
	TokenHash string
	IssuedAt  time.Time
}

// stateOf classifies token against a stored digest. An empty digest counts as no entry.
func stateOf(found bool, token, storedHash string) State {
	if !found || storedHash == "" {
		return Absent
	}
	if security.TokenHashEqual(token, storedHash) {
		return Active
	}
	return Replaced
}
