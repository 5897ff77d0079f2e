package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"task-board/backend/internal/security"
	"task-board/backend/internal/server/httpx"
	"task-board/backend/internal/session"
)

type auditRecord struct {
	accountID, action, resource, metadata string
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditRecord
}

func (m *memAudit) LogEvent(_ context.Context, accountID, action, resource, metadata string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditRecord{accountID, action, resource, metadata})
}

func (m *memAudit) all() []auditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]auditRecord(nil), m.entries...)
}

type failingRegistry struct{}

func (failingRegistry) SetActive(context.Context, string, string) (bool, error) {
	return false, session.ErrRegistryUnavailable
}

func (failingRegistry) Check(context.Context, string, string) (session.State, error) {
	return session.Absent, session.ErrRegistryUnavailable
}

func (failingRegistry) Revoke(context.Context, string) error {
	return session.ErrRegistryUnavailable
}

func newCodec(t *testing.T) *security.TokenCodec {
	t.Helper()
	c, err := security.NewTokenCodec("middleware-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return c
}

// login issues a token for id and registers it as the active session.
func login(t *testing.T, c *security.TokenCodec, reg session.Registry, id string) string {
	t.Helper()
	tok, _, err := c.Issue(id, "name-"+id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := reg.SetActive(context.Background(), id, tok); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	return tok
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var body httpx.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
