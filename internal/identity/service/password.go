package service

import (
	"context"
	"strings"
	"unicode/utf8"

	accountdomain "task-board/backend/internal/account/domain"
	"task-board/backend/internal/security"
	"task-board/backend/internal/telemetry"
)

// TemporaryCredential is a freshly issued first-login password for one account.
// It is handed to the administrator once and never stored in plaintext.
type TemporaryCredential struct {
	AccountID string
	Password  string
}

// ChangePassword replaces the account's password and starts a new session for it.
// Checks run in order: fields present, policy, account exists, lock, current password.
// On success the must-change flag is cleared and the returned result carries a token that
// supersedes any other session of the account.
func (s *AuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) (*LoginResult, error) {
	id = strings.TrimSpace(id)
	if id == "" || currentPassword == "" || newPassword == "" {
		return nil, ErrMissingFields
	}
	if utf8.RuneCountInString(newPassword) < s.minLength || newPassword == currentPassword {
		return nil, ErrPasswordPolicy
	}

	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	if err := s.checkLock(ctx, id); err != nil {
		return nil, err
	}
	if !s.verify(acc, currentPassword) {
		s.recordFailure(ctx, id, true, "change_password")
		return nil, ErrCurrentPasswordMismatch
	}

	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateCredential(ctx, acc.ID, hash, false); err != nil {
		return nil, err
	}
	s.throttle.Reset(id)

	res, err := s.startSession(ctx, User{ID: acc.ID, Name: acc.DisplayName})
	if err != nil {
		return nil, err
	}
	s.metrics.PasswordChanged(ctx)
	s.logAuth(ctx, acc.ID, telemetry.EventPasswordChanged, map[string]any{
		"wasTemporary":    acc.MustChangePassword,
		"sessionReplaced": res.SessionReplaced,
	})
	return res, nil
}

// CreateAccount inserts an account without a credential. BootstrapTemporaryPasswords assigns one later.
func (s *AuthService) CreateAccount(ctx context.Context, id, displayName string) error {
	return s.accounts.Create(ctx, &accountdomain.Account{
		ID:          strings.TrimSpace(id),
		DisplayName: strings.TrimSpace(displayName),
	})
}

// BootstrapTemporaryPasswords assigns a random temporary password to every account that has none
// and flags it for a forced change. The plaintext passwords are returned once for the administrator.
func (s *AuthService) BootstrapTemporaryPasswords(ctx context.Context) ([]TemporaryCredential, error) {
	pending, err := s.accounts.ListWithoutPassword(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TemporaryCredential, 0, len(pending))
	for _, acc := range pending {
		plain, err := security.GenerateTemporaryPassword()
		if err != nil {
			return out, err
		}
		hash, err := s.hasher.Hash([]byte(plain))
		if err != nil {
			return out, err
		}
		if err := s.accounts.UpdateCredential(ctx, acc.ID, hash, true); err != nil {
			return out, err
		}
		out = append(out, TemporaryCredential{AccountID: acc.ID, Password: plain})
	}
	return out, nil
}
