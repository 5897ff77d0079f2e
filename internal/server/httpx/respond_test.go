package httpx

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusForbidden, CodeCSRFInvalid, "bad token")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != CodeCSRFInvalid || body["error"] != "bad token" {
		t.Errorf("body = %v", body)
	}
	for _, k := range []string{"clearCredential", "redirect", "lockout", "detail"} {
		if _, ok := body[k]; ok {
			t.Errorf("%s should be omitted", k)
		}
	}
}

func TestWriteLocked(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteLocked(rec, 42, 10)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "42" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	var body ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Code != CodeAccountLocked || body.Lockout == nil || body.Lockout.RemainingSeconds != 42 || body.Lockout.MaxFailures != 10 {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteInternal_DetailOnlyInDevelopment(t *testing.T) {
	err := errors.New("pq: relation missing")

	rec := httptest.NewRecorder()
	WriteInternal(rec, err, false)
	if strings.Contains(rec.Body.String(), "relation missing") {
		t.Error("production response leaked error detail")
	}

	rec = httptest.NewRecorder()
	WriteInternal(rec, err, true)
	var body ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Code != CodeInternal || body.Detail != err.Error() {
		t.Errorf("body = %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	type req struct {
		ID string `json:"id"`
	}
	testCases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"id":"E001"}`, false},
		{"unknown field", `{"id":"E001","admin":true}`, true},
		{"trailing data", `{"id":"E001"}{"id":"E002"}`, true},
		{"malformed", `{"id":`, true},
		{"empty", ``, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst req
			err := DecodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadJSON) {
				t.Errorf("err = %v, want ErrBadJSON", err)
			}
		})
	}
}

func TestSessionCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	rec := httptest.NewRecorder()
	exp := time.Now().Add(4 * time.Hour)
	SetSessionCookie(rec, r, "tok", exp)

	c := rec.Result().Cookies()[0]
	if c.Name != SessionCookieName || c.Value != "tok" || !c.HttpOnly || c.Secure || c.Path != "/" {
		t.Errorf("cookie = %+v", c)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v", c.SameSite)
	}
	if c.MaxAge < 4*3600-5 || c.MaxAge > 4*3600 {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, r)
	c = rec.Result().Cookies()[0]
	if c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cleared cookie = %+v", c)
	}
}

func TestIsSecure(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsSecure(r) {
		t.Error("plain request should not be secure")
	}
	r.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !IsSecure(r) {
		t.Error("forwarded https should be secure")
	}
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	if !IsSecure(r) {
		t.Error("TLS request should be secure")
	}
}
