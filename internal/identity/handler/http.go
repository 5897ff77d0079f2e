// Package handler exposes the identity service over HTTP: login, password change, auth status, and logout.
package handler

import (
	"context"
	"errors"
	"net/http"

	"task-board/backend/internal/identity/service"
	"task-board/backend/internal/logging"
	"task-board/backend/internal/server/httpx"
	"task-board/backend/internal/server/middleware"
)

// AuthService is the subset of *service.AuthService used by the HTTP handlers.
type AuthService interface {
	Login(ctx context.Context, id, password string) (*service.LoginResult, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) (*service.LoginResult, error)
	Logout(ctx context.Context, accountID string) error
}

// Classifier reports the credential state of a request without rejecting it.
type Classifier interface {
	Classify(r *http.Request) (middleware.Classification, error)
}

// AuthHandler serves the /api auth endpoints.
type AuthHandler struct {
	auth   AuthService
	gate   Classifier
	log    logging.Logger
	detail bool
}

// NewAuthHandler returns an AuthHandler. detail adds internal error text to 500 responses (development only).
func NewAuthHandler(auth AuthService, gate Classifier, log logging.Logger, detail bool) *AuthHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthHandler{auth: auth, gate: gate, log: log, detail: detail}
}

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	// EmployeeID is the field name sent by the legacy login page.
	EmployeeID string `json:"employeeId,omitempty"`
}

type loginResponse struct {
	Message            string        `json:"message"`
	MustChangePassword bool          `json:"mustChangePassword"`
	SessionReplaced    bool          `json:"sessionReplaced"`
	User               *service.User `json:"user"`
}

type changePasswordRequest struct {
	ID              string `json:"id"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	EmployeeID      string `json:"employeeId,omitempty"`
}

type changePasswordResponse struct {
	Message         string        `json:"message"`
	SessionReplaced bool          `json:"sessionReplaced"`
	User            *service.User `json:"user"`
}

type authStatusResponse struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	User            *service.User `json:"user,omitempty"`
	Reason          string        `json:"reason,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeMissingFields, "Account id and password are required")
		return
	}
	id := req.ID
	if id == "" {
		id = req.EmployeeID
	}
	res, err := h.auth.Login(r.Context(), id, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	user := res.User
	if res.MustChangePassword {
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			Message:            "Password change required before first use",
			MustChangePassword: true,
			User:               &user,
		})
		return
	}
	httpx.SetSessionCookie(w, r, res.Token, res.ExpiresAt)
	msg := "Login successful"
	if res.SessionReplaced {
		msg = "Login successful. The session on another device was ended."
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Message:         msg,
		SessionReplaced: res.SessionReplaced,
		User:            &user,
	})
}

// ChangePassword handles POST /api/change-password for both the forced first-login change and voluntary changes.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeMissingFields, "Account id, current password and new password are required")
		return
	}
	id := req.ID
	if id == "" {
		id = req.EmployeeID
	}
	res, err := h.auth.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.SetSessionCookie(w, r, res.Token, res.ExpiresAt)
	user := res.User
	httpx.WriteJSON(w, http.StatusOK, changePasswordResponse{
		Message:         "Password changed",
		SessionReplaced: res.SessionReplaced,
		User:            &user,
	})
}

// AuthStatus handles GET /api/auth-status. It always answers 200 for credential states; an invalid or
// superseded credential is cleared from the client.
func (h *AuthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	c, err := h.gate.Classify(r)
	if err != nil {
		h.log.Error(r.Context(), "auth-status: classify", "error", err)
		httpx.WriteInternal(w, err, h.detail)
		return
	}
	switch c.State {
	case middleware.StateActive:
		httpx.WriteJSON(w, http.StatusOK, authStatusResponse{
			IsAuthenticated: true,
			User:            &service.User{ID: c.Identity.AccountID, Name: c.Identity.DisplayName},
		})
		return
	case middleware.StateInvalid, middleware.StateRevoked, middleware.StateSuperseded:
		httpx.ClearSessionCookie(w, r)
	}
	httpx.WriteJSON(w, http.StatusOK, authStatusResponse{Reason: c.Code})
}

// Logout handles POST /api/logout. It runs behind the auth gate, so a second call gets AUTH_REQUIRED.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeAuthRequired, "Authentication required")
		return
	}
	if err := h.auth.Logout(r.Context(), accountID); err != nil {
		h.internal(w, r, err, "logout")
		return
	}
	httpx.ClearSessionCookie(w, r)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *service.LockedError
	switch {
	case errors.As(err, &locked):
		httpx.WriteLocked(w, locked.RemainingSeconds, locked.MaxFailures)
	case errors.Is(err, service.ErrMissingFields):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeMissingFields, "Required fields are missing")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "Invalid account id or password")
	case errors.Is(err, service.ErrPasswordPolicy):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodePasswordPolicy, "New password does not meet the password policy")
	case errors.Is(err, service.ErrCurrentPasswordMismatch):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeCurrentPasswordMismatch, "Current password is incorrect")
	case errors.Is(err, service.ErrAccountNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeAccountNotFound, "Account not found")
	default:
		h.internal(w, r, err, "auth")
	}
}

func (h *AuthHandler) internal(w http.ResponseWriter, r *http.Request, err error, op string) {
	args := []any{"op", op, "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetRequestID(r.Context()), "error", err}
	if id, ok := middleware.GetAccountID(r.Context()); ok {
		args = append(args, "account_id", id)
	}
	h.log.Error(r.Context(), "auth handler failed", args...)
	httpx.WriteInternal(w, err, h.detail)
}
