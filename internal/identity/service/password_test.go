package service

import (
	"context"
	"errors"
	"testing"

	"task-board/backend/internal/security"
	"task-board/backend/internal/session"
)

func TestChangePassword_ValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	env.addAccount(t, "E001", "Kim", "temp123", true)
	ctx := context.Background()

	testCases := []struct {
		name              string
		id, current, next string
		want              error
	}{
		{"missing id", "", "temp123", "newpass1", ErrMissingFields},
		{"missing current", "E001", "", "newpass1", ErrMissingFields},
		{"missing new", "E001", "temp123", "", ErrMissingFields},
		{"too short beats unknown account", "E404", "temp123", "abc", ErrPasswordPolicy},
		{"same as current", "E001", "temp123", "temp123", ErrPasswordPolicy},
		{"unknown account", "E404", "temp123", "newpass1", ErrAccountNotFound},
		{"wrong current", "E001", "nope", "newpass1", ErrCurrentPasswordMismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.ChangePassword(ctx, tc.id, tc.current, tc.next)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestChangePassword_LengthCountsRunes(t *testing.T) {
	env := newTestEnv(t)
	env.addAccount(t, "E001", "Kim", "temp123", true)
	// five runes, more than six bytes
	if _, err := env.svc.ChangePassword(context.Background(), "E001", "temp123", "ééééé"); !errors.Is(err, ErrPasswordPolicy) {
		t.Errorf("err = %v, want ErrPasswordPolicy", err)
	}
	if _, err := env.svc.ChangePassword(context.Background(), "E001", "temp123", "éééééé"); err != nil {
		t.Errorf("six runes should pass: %v", err)
	}
}

func TestChangePassword_ForcedChangeIssuesSession(t *testing.T) {
	env := newTestEnv(t)
	env.addAccount(t, "E001", "Kim", "temp123", true)
	ctx := context.Background()

	res, err := env.svc.ChangePassword(ctx, "E001", "temp123", "newpass1")
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if res.Token == "" || res.MustChangePassword {
		t.Fatalf("result = %+v, want a session", res)
	}
	if st, _ := env.registry.Check(ctx, "E001", res.Token); st != session.Active {
		t.Errorf("new token: Check = %v, want active", st)
	}
	acc, _ := env.accounts.GetByID(ctx, "E001")
	if acc.MustChangePassword {
		t.Error("must-change flag should be cleared")
	}
	if !env.hasher.Matches(acc.PasswordHash, "newpass1") {
		t.Error("new password should be stored")
	}

	next, err := env.svc.Login(ctx, "E001", "newpass1")
	if err != nil || next.MustChangePassword || next.Token == "" {
		t.Fatalf("login with new password = %+v, %v", next, err)
	}
	if _, err := env.svc.Login(ctx, "E001", "temp123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("temporary password should no longer work: %v", err)
	}
}

func TestChangePassword_VoluntaryReplacesOtherSessions(t *testing.T) {
	env := newTestEnv(t)
	env.addAccount(t, "E002", "Lee", "secret1", false)
	ctx := context.Background()

	other, _ := env.svc.Login(ctx, "E002", "secret1")
	res, err := env.svc.ChangePassword(ctx, "E002", "secret1", "secret2")
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !res.SessionReplaced {
		t.Error("change should report the replaced session")
	}
	if st, _ := env.registry.Check(ctx, "E002", other.Token); st != session.Replaced {
		t.Errorf("older session: Check = %v, want replaced", st)
	}
}

func TestChangePassword_MismatchCountsTowardLock(t *testing.T) {
	env := newTestEnv(t)
	env.addAccount(t, "E002", "Lee", "secret1", false)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := env.svc.ChangePassword(ctx, "E002", "guess", "secret2"); !errors.Is(err, ErrCurrentPasswordMismatch) {
			t.Fatalf("attempt %d err = %v", i+1, err)
		}
	}
	if _, err := env.svc.ChangePassword(ctx, "E002", "secret1", "secret2"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("err = %v, want ErrAccountLocked", err)
	}
	if _, err := env.svc.Login(ctx, "E002", "secret1"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("login err = %v, want ErrAccountLocked", err)
	}
}

func TestBootstrapTemporaryPasswords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.svc.CreateAccount(ctx, "E001", "Kim"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := env.svc.CreateAccount(ctx, " E002 ", " Lee "); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	env.addAccount(t, "E003", "Park", "already", false)

	creds, err := env.svc.BootstrapTemporaryPasswords(ctx)
	if err != nil {
		t.Fatalf("BootstrapTemporaryPasswords: %v", err)
	}
	if len(creds) != 2 || creds[0].AccountID != "E001" || creds[1].AccountID != "E002" {
		t.Fatalf("creds = %+v", creds)
	}
	for _, c := range creds {
		if len(c.Password) != security.TemporaryPasswordLength {
			t.Errorf("password length = %d", len(c.Password))
		}
		res, err := env.svc.Login(ctx, c.AccountID, c.Password)
		if err != nil || !res.MustChangePassword {
			t.Errorf("login %s with temporary password = %+v, %v", c.AccountID, res, err)
		}
	}

	again, err := env.svc.BootstrapTemporaryPasswords(ctx)
	if err != nil || len(again) != 0 {
		t.Errorf("second bootstrap = %+v, %v; want nothing to do", again, err)
	}
}

func TestCreateAccount_Invalid(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.CreateAccount(context.Background(), "  ", "Kim"); err == nil {
		t.Error("blank id should be rejected")
	}
}
