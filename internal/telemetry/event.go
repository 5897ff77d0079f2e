package telemetry

import (
	"encoding/json"
	"time"
)

// Auth event types.
const (
	EventLoginSuccess      = "login_success"
	EventLoginFailure      = "login_failure"
	EventAccountLocked     = "account_locked"
	EventPasswordChanged   = "password_changed"
	EventLogout            = "logout"
	EventSessionSuperseded = "session_superseded"
)

// SourceHTTP marks events raised by the HTTP auth surface.
const SourceHTTP = "http"

// AuthEvent is a single authentication event as shipped to OTel logs, Kafka, and Loki.
// It never carries credential material.
type AuthEvent struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	IP        string          `json:"ip,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
