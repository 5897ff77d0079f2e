package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"task-board/backend/internal/logging"
	"task-board/backend/internal/security"
	"task-board/backend/internal/server/httpx"
)

const (
	// CSRFCookieName holds the double-submit token. It is readable by scripts so the client can echo it.
	CSRFCookieName = "csrf_token"
	// CSRFHeaderName is the request header that must echo the cookie on state-changing requests.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenBytes = 32
)

// CSRF is a double-submit cookie guard.
type CSRF struct {
	exempt map[string]bool
	log    logging.Logger
}

// NewCSRF returns a guard. exempt lists "METHOD /path" entries that skip the check.
func NewCSRF(log logging.Logger, exempt ...string) *CSRF {
	if log == nil {
		log = logging.Nop()
	}
	m := make(map[string]bool, len(exempt))
	for _, e := range exempt {
		m[e] = true
	}
	return &CSRF{exempt: m, log: log}
}

// Protect rejects state-changing requests whose X-CSRF-Token header does not match the csrf_token cookie.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || c.exempt[r.Method+" "+r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		cookie, err := r.Cookie(CSRFCookieName)
		header := r.Header.Get(CSRFHeaderName)
		if err != nil || cookie.Value == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			c.log.Warn(r.Context(), "csrf: token missing or mismatched", "method", r.Method, "path", r.URL.Path)
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeCSRFInvalid, "Invalid or missing CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenHandler serves GET /api/csrf-token. A well-formed existing cookie is reused.
func (c *CSRF) TokenHandler(w http.ResponseWriter, r *http.Request) {
	token := ""
	if ck, err := r.Cookie(CSRFCookieName); err == nil && wellFormedCSRF(ck.Value) {
		token = ck.Value
	} else {
		t, err := security.GenerateURLToken(csrfTokenBytes)
		if err != nil {
			c.log.Error(r.Context(), "csrf: generate token", "error", err)
			httpx.WriteInternal(w, err, false)
			return
		}
		token = t
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   httpx.IsSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func wellFormedCSRF(v string) bool {
	b, err := base64.RawURLEncoding.DecodeString(v)
	return err == nil && len(b) == csrfTokenBytes
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
