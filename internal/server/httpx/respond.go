// Package httpx holds the JSON envelope, error codes, and cookie helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Error codes carried in the "code" field of error responses.
const (
	CodeAuthRequired            = "AUTH_REQUIRED"
	CodeTokenInvalid            = "TOKEN_INVALID"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeSessionSuperseded       = "SESSION_SUPERSEDED"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeAccountLocked           = "ACCOUNT_LOCKED"
	CodeMissingFields           = "MISSING_FIELDS"
	CodePasswordPolicy          = "PASSWORD_POLICY"
	CodeCurrentPasswordMismatch = "CURRENT_PASSWORD_MISMATCH"
	CodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	CodeCSRFInvalid             = "CSRF_TOKEN_INVALID"
	CodeBadRequest              = "BAD_REQUEST"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeConflict                = "CONFLICT"
	CodeInternal                = "INTERNAL"
)

// SupersededRedirect is where clients send a user whose session was replaced by another login.
const SupersededRedirect = "/login?reason=superseded"

const maxBodyBytes = 1 << 20

// Lockout describes an active login lock.
type Lockout struct {
	RemainingSeconds int `json:"remainingSeconds"`
	MaxFailures      int `json:"maxFailures"`
}

// ErrorResponse is the single error envelope used by every endpoint.
type ErrorResponse struct {
	Error           string   `json:"error"`
	Code            string   `json:"code"`
	ClearCredential bool     `json:"clearCredential,omitempty"`
	Redirect        string   `json:"redirect,omitempty"`
	Lockout         *Lockout `json:"lockout,omitempty"`
	Detail          string   `json:"detail,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse with the given status, code, and message.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// WriteLocked writes 429 ACCOUNT_LOCKED with a Retry-After header.
func WriteLocked(w http.ResponseWriter, remainingSeconds, maxFailures int) {
	w.Header().Set("Retry-After", strconv.Itoa(remainingSeconds))
	WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:   fmt.Sprintf("Too many failed attempts. Try again in %d seconds.", remainingSeconds),
		Code:    CodeAccountLocked,
		Lockout: &Lockout{RemainingSeconds: remainingSeconds, MaxFailures: maxFailures},
	})
}

// WriteInternal writes 500 INTERNAL. err's text is included only when detail is true (development).
func WriteInternal(w http.ResponseWriter, err error, detail bool) {
	body := ErrorResponse{Error: "Internal server error", Code: CodeInternal}
	if detail && err != nil {
		body.Detail = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, body)
}

// ErrBadJSON is returned by DecodeJSON for malformed or oversized bodies and unknown fields.
var ErrBadJSON = errors.New("malformed JSON body")

// DecodeJSON decodes a single JSON object into dst, rejecting unknown fields and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", ErrBadJSON)
	}
	return nil
}
