package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"task-board/backend/internal/logging"
	"task-board/backend/internal/server/httpx"
	"task-board/backend/internal/session"
)

func newBufferLogger() (*bytes.Buffer, logging.Logger) {
	var buf bytes.Buffer
	return &buf, logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
}

func TestRequestLogger_AssignsRequestIDAndLogs(t *testing.T) {
	buf, log := newBufferLogger()
	var seenID, seenIP string
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenIP = ClientIP(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if _, err := uuid.Parse(seenID); err != nil {
		t.Errorf("request id %q is not a uuid", seenID)
	}
	if rec.Header().Get(RequestIDHeader) != seenID {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seenID)
	}
	if seenIP != "203.0.113.7" {
		t.Errorf("client ip = %q", seenIP)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line: %v (%q)", err, buf.String())
	}
	if line["status"] != float64(http.StatusTeapot) || line["path"] != "/api/data" || line["request_id"] != seenID {
		t.Errorf("log line = %v", line)
	}
}

func TestRequestLogger_KeepsValidIncomingID(t *testing.T) {
	_, log := newBufferLogger()
	id := uuid.NewString()
	var seen string
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != id {
		t.Errorf("request id = %q, want %q", seen, id)
	}
}

func TestRequestLogger_ReportsAccountFromGate(t *testing.T) {
	buf, log := newBufferLogger()
	codec := newCodec(t)
	reg := session.NewMemoryRegistry()
	tok := login(t, codec, reg, "E001")
	h := Chain(okHandler(), RequestLogger(log), NewGate(codec, reg, nil).Require)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: httpx.SessionCookieName, Value: tok})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"account_id":"E001"`) {
		t.Errorf("log = %q, want account_id", buf.String())
	}
	if strings.Contains(buf.String(), tok) {
		t.Error("token leaked into the request log")
	}
}

func TestRecover(t *testing.T) {
	buf, log := newBufferLogger()
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestLogger(log), Recover(log, false))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != httpx.CodeInternal || body.Detail != "" {
		t.Errorf("body = %+v", body)
	}
	if !strings.Contains(buf.String(), "http handler panicked") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

func TestRecover_DevelopmentDetail(t *testing.T) {
	h := Recover(nil, true)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if body := decodeError(t, rec); !strings.Contains(body.Detail, "boom") {
		t.Errorf("detail = %q, want panic value", body.Detail)
	}
}

func TestRequestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := RequestClientIP(req); got != "192.0.2.1" {
		t.Errorf("remote addr ip = %q", got)
	}
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := RequestClientIP(req); got != "198.51.100.2" {
		t.Errorf("x-real-ip = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := RequestClientIP(req); got != "203.0.113.9" {
		t.Errorf("x-forwarded-for = %q", got)
	}
}
