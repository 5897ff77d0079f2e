// Package server assembles the HTTP router and the gRPC health server.
package server

import (
	"net/http"
	"time"

	"task-board/backend/internal/audit"
	boardhandler "task-board/backend/internal/board/handler"
	identityhandler "task-board/backend/internal/identity/handler"
	"task-board/backend/internal/logging"
	"task-board/backend/internal/server/httpx"
	"task-board/backend/internal/server/middleware"
)

// Routes exempt from the anti-forgery check: no session exists yet when they are called.
var csrfExempt = []string{"POST /api/login", "POST /api/change-password"}

// HTTPDeps holds the handlers and middleware the router is built from.
type HTTPDeps struct {
	Auth  *identityhandler.AuthHandler
	Board *boardhandler.BoardHandler
	Gate  *middleware.Gate
	// Health serves GET /healthz. If nil, the route is not registered.
	Health http.Handler
	// Audit records board writes. If nil, board writes are not audited.
	Audit audit.AuditLogger
	Log   logging.Logger
	// StaticDir is served at / when set.
	StaticDir   string
	Development bool
}

// NewCSRFGuard returns the anti-forgery guard with the router's exemptions.
func NewCSRFGuard(log logging.Logger) *middleware.CSRF {
	return middleware.NewCSRF(log, csrfExempt...)
}

// NewHTTPHandler builds the router. Order: security headers, request log, panic recovery, CSRF, routes.
func NewHTTPHandler(d HTTPDeps) http.Handler {
	csrf := NewCSRFGuard(d.Log)
	protect := d.Gate.Require
	audited := func(h http.HandlerFunc) http.Handler {
		return protect(middleware.AuditWrites(d.Audit)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", d.Auth.Login)
	mux.HandleFunc("POST /api/change-password", d.Auth.ChangePassword)
	mux.HandleFunc("GET /api/auth-status", d.Auth.AuthStatus)
	mux.Handle("POST /api/logout", protect(http.HandlerFunc(d.Auth.Logout)))
	mux.HandleFunc("GET /api/csrf-token", csrf.TokenHandler)

	mux.Handle("GET /api/data", protect(http.HandlerFunc(d.Board.GetData)))
	mux.Handle("POST /api/tasks", audited(d.Board.CreateTask))
	mux.Handle("PUT /api/tasks/{id}", audited(d.Board.UpdateTask))
	mux.Handle("DELETE /api/tasks/{id}", audited(d.Board.DeleteTask))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "Not found")
	})
	if d.Health != nil {
		mux.Handle("GET /healthz", d.Health)
	}
	if d.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(d.StaticDir)))
	}

	return middleware.Chain(mux,
		middleware.SecurityHeaders(d.Development),
		middleware.RequestLogger(d.Log),
		middleware.Recover(d.Log, d.Development),
		csrf.Protect,
	)
}

// HTTPTimeouts configures NewHTTPServer.
type HTTPTimeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// NewHTTPServer returns an *http.Server for addr with the given timeouts.
func NewHTTPServer(addr string, h http.Handler, t HTTPTimeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
