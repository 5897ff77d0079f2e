// Package middleware holds the HTTP middleware chain: security headers, request logging and recovery,
// the anti-forgery guard, the auth gate, and the board audit hook.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"task-board/backend/internal/audit"
	auditdomain "task-board/backend/internal/audit/domain"
	"task-board/backend/internal/logging"
	"task-board/backend/internal/security"
	"task-board/backend/internal/server/httpx"
	"task-board/backend/internal/session"
	"task-board/backend/internal/telemetry"
)

const bearerPrefix = "bearer "

// CredentialState is the result of classifying a request's credential.
type CredentialState int

const (
	// StateNoCredential means neither the token cookie nor a bearer header was presented.
	StateNoCredential CredentialState = iota
	// StateInvalid means the token is malformed, forged, or expired.
	StateInvalid
	// StateRevoked means the token verifies but its account has no active session (logged out or revoked).
	StateRevoked
	// StateSuperseded means the token verifies but a later login replaced it.
	StateSuperseded
	// StateActive means the token verifies and is the account's active session.
	StateActive
)

// Classification is what the gate learned about a request.
type Classification struct {
	State    CredentialState
	Code     string
	Identity security.Identity
}

// Gate verifies session credentials and consults the session registry. It never writes the registry.
type Gate struct {
	tokens   *security.TokenCodec
	registry session.Registry
	metrics  *telemetry.Metrics
	audit    audit.AuditLogger
	log      logging.Logger
	detail   bool
}

// GateOption configures optional Gate collaborators.
type GateOption func(*Gate)

// WithGateMetrics counts rejections by code.
func WithGateMetrics(m *telemetry.Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

// WithGateAudit records superseded-session rejections.
func WithGateAudit(a audit.AuditLogger) GateOption {
	return func(g *Gate) { g.audit = a }
}

// WithErrorDetail includes internal error text in 500 responses (development).
func WithErrorDetail(on bool) GateOption {
	return func(g *Gate) { g.detail = on }
}

// NewGate returns a Gate. log may be nil.
func NewGate(tokens *security.TokenCodec, registry session.Registry, log logging.Logger, opts ...GateOption) *Gate {
	if log == nil {
		log = logging.Nop()
	}
	g := &Gate{tokens: tokens, registry: registry, log: log}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Classify inspects the request credential without writing a response.
// A registry failure is returned as an error and must never be treated as an accept.
func (g *Gate) Classify(r *http.Request) (Classification, error) {
	token := extractToken(r)
	if token == "" {
		return Classification{State: StateNoCredential, Code: httpx.CodeAuthRequired}, nil
	}
	id, err := g.tokens.Verify(token)
	if err != nil {
		code := httpx.CodeTokenInvalid
		if errors.Is(err, security.ErrExpired) {
			code = httpx.CodeTokenExpired
		}
		return Classification{State: StateInvalid, Code: code}, nil
	}
	st, err := g.registry.Check(r.Context(), id.AccountID, token)
	if err != nil {
		return Classification{}, err
	}
	switch st {
	case session.Active:
		return Classification{State: StateActive, Identity: id}, nil
	case session.Replaced:
		return Classification{State: StateSuperseded, Code: httpx.CodeSessionSuperseded, Identity: id}, nil
	default:
		return Classification{State: StateRevoked, Code: httpx.CodeAuthRequired, Identity: id}, nil
	}
}

// Require rejects requests without an active session and attaches the identity to the context otherwise.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := g.Classify(r)
		if err != nil {
			g.log.Error(r.Context(), "auth gate: registry lookup failed", "path", r.URL.Path, "error", err)
			httpx.WriteInternal(w, err, g.detail)
			return
		}
		if c.State == StateActive {
			noteAccount(r.Context(), c.Identity.AccountID)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), c.Identity)))
			return
		}
		g.metrics.GateRejection(r.Context(), c.Code)
		g.reject(w, r, c)
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, c Classification) {
	switch c.State {
	case StateNoCredential:
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeAuthRequired, "Authentication required")
	case StateRevoked:
		httpx.ClearSessionCookie(w, r)
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
			Error: "Authentication required", Code: httpx.CodeAuthRequired, ClearCredential: true,
		})
	case StateInvalid:
		httpx.ClearSessionCookie(w, r)
		msg := "Invalid session token"
		if c.Code == httpx.CodeTokenExpired {
			msg = "Session expired, please log in again"
		}
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
			Error: msg, Code: c.Code, ClearCredential: true,
		})
	case StateSuperseded:
		g.auditSuperseded(r.Context(), c.Identity.AccountID, r.URL.Path)
		httpx.ClearSessionCookie(w, r)
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
			Error:           "You were logged out because this account signed in on another device",
			Code:            httpx.CodeSessionSuperseded,
			ClearCredential: true,
			Redirect:        httpx.SupersededRedirect,
		})
	}
}

func (g *Gate) auditSuperseded(ctx context.Context, accountID, path string) {
	if g.audit == nil {
		return
	}
	g.audit.LogEvent(ctx, accountID, telemetry.EventSessionSuperseded, auditdomain.ResourceAuth,
		audit.Metadata(map[string]string{"path": path}))
}

// extractToken returns the token cookie, else the Bearer token, else "".
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(httpx.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return extractBearer(r.Header.Get("Authorization"))
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
