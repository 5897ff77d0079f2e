package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	accountdomain "task-board/backend/internal/account/domain"
	"task-board/backend/internal/security"
	"task-board/backend/internal/session"
	"task-board/backend/internal/throttle"
)

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*accountdomain.Account
	getErr   error
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[string]*accountdomain.Account)}
}

func (r *memAccountRepo) GetByID(_ context.Context, id string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) UpdateCredential(_ context.Context, id, hash string, mustChange bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return accountdomain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.MustChangePassword = mustChange
	return nil
}

func (r *memAccountRepo) Create(_ context.Context, a *accountdomain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *memAccountRepo) ListWithoutPassword(context.Context) ([]*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*accountdomain.Account
	for _, a := range r.accounts {
		if a.PasswordHash == "" {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type auditEntry struct {
	accountID, action, resource, metadata string
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *memAudit) LogEvent(_ context.Context, accountID, action, resource, metadata string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{accountID, action, resource, metadata})
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.action
	}
	return out
}

type testEnv struct {
	svc      *AuthService
	accounts *memAccountRepo
	registry *session.MemoryRegistry
	throttle *throttle.Throttle
	tokens   *security.TokenCodec
	hasher   *security.Hasher
	audit    *memAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := security.NewTokenCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	env := &testEnv{
		accounts: newMemAccountRepo(),
		registry: session.NewMemoryRegistry(),
		throttle: throttle.New(10, 5*time.Minute),
		tokens:   tokens,
		hasher:   security.NewHasher(4),
		audit:    &memAudit{},
	}
	env.svc = NewAuthService(env.accounts, env.hasher, env.tokens, env.registry, env.throttle,
		Options{MinPasswordLength: 6, Audit: env.audit})
	return env
}

func (e *testEnv) addAccount(t *testing.T, id, name, password string, mustChange bool) {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = e.hasher.Hash([]byte(password))
		if err != nil {
			t.Fatalf("Hash: %v", err)
		}
	}
	e.accounts.accounts[id] = &accountdomain.Account{
		ID: id, DisplayName: name, PasswordHash: hash, MustChangePassword: mustChange,
	}
}
