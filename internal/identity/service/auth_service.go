package service

import (
	"context"
	"strings"
	"sync"
	"time"

	accountdomain "task-board/backend/internal/account/domain"
	"task-board/backend/internal/audit"
	auditdomain "task-board/backend/internal/audit/domain"
	"task-board/backend/internal/security"
	"task-board/backend/internal/session"
	"task-board/backend/internal/telemetry"
	"task-board/backend/internal/throttle"
)

// DefaultMinPasswordLength is the password policy used when Options leaves it unset.
const DefaultMinPasswordLength = 6

// User is the public view of an account returned to clients.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoginResult is the outcome of Login or ChangePassword.
// Token is empty when MustChangePassword is set: no session exists yet.
type LoginResult struct {
	User               User
	Token              string
	ExpiresAt          time.Time
	MustChangePassword bool
	SessionReplaced    bool
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	UpdateCredential(ctx context.Context, id, passwordHash string, mustChange bool) error
	Create(ctx context.Context, a *accountdomain.Account) error
	ListWithoutPassword(ctx context.Context) ([]*accountdomain.Account, error)
}

// LoginThrottle is the per-account failure counter.
type LoginThrottle interface {
	CheckLock(accountID string) throttle.LockStatus
	RecordFailure(accountID string) int
	Reset(accountID string)
	MaxFailures() int
}

// Options holds optional collaborators and policy. Nil Audit and Metrics disable them.
type Options struct {
	MinPasswordLength int
	Audit             audit.AuditLogger
	Metrics           *telemetry.Metrics
}

// AuthService implements login, logout, and the password lifecycle.
type AuthService struct {
	accounts  AccountRepo
	hasher    *security.Hasher
	tokens    *security.TokenCodec
	registry  session.Registry
	throttle  LoginThrottle
	audit     audit.AuditLogger
	metrics   *telemetry.Metrics
	minLength int

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	accounts AccountRepo,
	hasher *security.Hasher,
	tokens *security.TokenCodec,
	registry session.Registry,
	throttle LoginThrottle,
	opts Options,
) *AuthService {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = DefaultMinPasswordLength
	}
	return &AuthService{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		registry:  registry,
		throttle:  throttle,
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		minLength: opts.MinPasswordLength,
	}
}

// MaxFailures exposes the lockout threshold for error responses.
func (s *AuthService) MaxFailures() int {
	return s.throttle.MaxFailures()
}

// Login verifies id/password. A locked account is refused before the password is checked.
// Unknown ids and wrong passwords are indistinguishable to the caller and both count as failures.
// When the account must change its password, no token is issued and the registry is untouched.
func (s *AuthService) Login(ctx context.Context, id, password string) (*LoginResult, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		s.metrics.LoginAttempt(ctx, telemetry.OutcomeMissingFields)
		return nil, ErrMissingFields
	}
	if err := s.checkLock(ctx, id); err != nil {
		s.metrics.LoginAttempt(ctx, telemetry.OutcomeLocked)
		return nil, err
	}

	acc, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.verify(acc, password) {
		s.recordFailure(ctx, id, acc != nil, "login")
		s.metrics.LoginAttempt(ctx, telemetry.OutcomeInvalid)
		return nil, ErrInvalidCredentials
	}
	s.throttle.Reset(id)

	user := User{ID: acc.ID, Name: acc.DisplayName}
	if acc.MustChangePassword {
		s.metrics.LoginAttempt(ctx, telemetry.OutcomeMustChange)
		s.logAuth(ctx, acc.ID, telemetry.EventLoginSuccess, map[string]any{"mustChangePassword": true})
		return &LoginResult{User: user, MustChangePassword: true}, nil
	}

	res, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.LoginAttempt(ctx, telemetry.OutcomeSuccess)
	s.logAuth(ctx, acc.ID, telemetry.EventLoginSuccess, map[string]any{"sessionReplaced": res.SessionReplaced})
	return res, nil
}

// Logout revokes the account's active session. Revoking an absent entry is a no-op.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if err := s.registry.Revoke(ctx, accountID); err != nil {
		return err
	}
	s.logAuth(ctx, accountID, telemetry.EventLogout, nil)
	return nil
}

// startSession issues a token and makes it the account's only active session.
func (s *AuthService) startSession(ctx context.Context, user User) (*LoginResult, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	replaced, err := s.registry.SetActive(ctx, user.ID, token)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp, SessionReplaced: replaced}, nil
}

func (s *AuthService) checkLock(ctx context.Context, id string) error {
	st := s.throttle.CheckLock(id)
	if !st.Locked {
		return nil
	}
	s.logAuth(ctx, id, telemetry.EventLoginFailure, map[string]any{"reason": "locked", "remainingSeconds": st.RemainingSeconds()})
	return &LockedError{RemainingSeconds: st.RemainingSeconds(), MaxFailures: s.throttle.MaxFailures()}
}

// recordFailure counts a failed credential check and audits it; the attempt that reaches the threshold is also audited as a lockout.
func (s *AuthService) recordFailure(ctx context.Context, id string, known bool, op string) {
	n := s.throttle.RecordFailure(id)
	accountID := id
	if !known {
		accountID = ""
	}
	s.logAuth(ctx, accountID, telemetry.EventLoginFailure, map[string]any{"op": op, "attemptedId": id, "failures": n})
	if n == s.throttle.MaxFailures() {
		s.metrics.Lockout(ctx)
		s.logAuth(ctx, accountID, telemetry.EventAccountLocked, map[string]any{"attemptedId": id})
	}
}

// verify compares password with the account hash. For a missing account or empty hash it still runs
// one bcrypt comparison so response timing does not reveal which ids exist.
func (s *AuthService) verify(acc *accountdomain.Account, password string) bool {
	if acc == nil || !acc.HasPassword() {
		_ = s.hasher.Matches(s.dummy(), password)
		return false
	}
	return s.hasher.Matches(acc.PasswordHash, password)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash([]byte("task-board-dummy-credential"))
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AuthService) logAuth(ctx context.Context, accountID, event string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	md := ""
	if meta != nil {
		md = audit.Metadata(meta)
	}
	s.audit.LogEvent(ctx, accountID, event, auditdomain.ResourceAuth, md)
}
