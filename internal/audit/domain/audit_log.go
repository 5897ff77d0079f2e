package domain

import "time"

// Resource names used in audit entries.
const (
	ResourceAuth = "auth"
	ResourceTask = "task"
)

// AuditLog represents an audit event. AccountID is empty when the caller is unknown (e.g. failed login for an unknown id).
type AuditLog struct {
	ID        string
	AccountID string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
