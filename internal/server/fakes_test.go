package server

import (
	"context"
	"sort"
	"sync"

	accountdomain "task-board/backend/internal/account/domain"
	boarddomain "task-board/backend/internal/board/domain"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*accountdomain.Account
}

func (r *memAccounts) GetByID(_ context.Context, id string) (*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAccounts) UpdateCredential(_ context.Context, id, hash string, mustChange bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return accountdomain.ErrAccountNotFound
	}
	a.PasswordHash, a.MustChangePassword = hash, mustChange
	return nil
}

func (r *memAccounts) Create(_ context.Context, a *accountdomain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *memAccounts) ListWithoutPassword(context.Context) ([]*accountdomain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*accountdomain.Account
	for _, a := range r.accounts {
		if a.PasswordHash == "" {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memBoard struct {
	mu    sync.Mutex
	tasks map[string]*boarddomain.Task
}

func (r *memBoard) ListColumns(context.Context) ([]*boarddomain.Column, error) {
	return []*boarddomain.Column{{ID: "daily", Title: "매일 할일", Position: 0}}, nil
}

func (r *memBoard) ListTasks(context.Context) ([]*boarddomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*boarddomain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memBoard) GetTask(_ context.Context, id string) (*boarddomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memBoard) CreateTask(_ context.Context, t *boarddomain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return boarddomain.ErrTaskExists
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memBoard) UpdateTask(_ context.Context, t *boarddomain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return boarddomain.ErrTaskNotFound
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memBoard) DeleteTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return boarddomain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

type auditRecord struct {
	accountID, action, resource string
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditRecord
}

func (m *memAudit) LogEvent(_ context.Context, accountID, action, resource, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditRecord{accountID, action, resource})
}

func (m *memAudit) has(accountID, action, resource string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e == (auditRecord{accountID, action, resource}) {
			return true
		}
	}
	return false
}
