package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"task-board/backend/internal/audit/domain"
	auditrepo "task-board/backend/internal/audit/repository"
	"task-board/backend/internal/logging"
	"task-board/backend/internal/telemetry"
)

// IPExtractor returns the client IP stored in the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by auth and board code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, accountID, action, resource, metadata string)
}

// Logger implements AuditLogger. It persists to the repository (when configured) and
// forwards auth events to the telemetry emitter without blocking the request.
type Logger struct {
	repo        auditrepo.Repository
	emitter     telemetry.EventEmitter
	ipExtractor IPExtractor
	log         logging.Logger
	now         func() time.Time
}

// NewLogger returns an AuditLogger. repo, emitter and ipExtractor may each be nil.
func NewLogger(repo auditrepo.Repository, emitter telemetry.EventEmitter, ipExtractor IPExtractor, log logging.Logger) *Logger {
	if log == nil {
		log = logging.Nop()
	}
	return &Logger{repo: repo, emitter: emitter, ipExtractor: ipExtractor, log: log, now: time.Now}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
// metadata, when non-empty, must be a JSON document.
func (l *Logger) LogEvent(ctx context.Context, accountID, action, resource, metadata string) {
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if l.repo != nil {
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.Warn(ctx, "audit: failed to log event", "action", action, "resource", resource, "error", err)
		}
	}
	if resource == domain.ResourceAuth {
		telemetry.EmitAsync(l.emitter, toAuthEvent(entry))
	}
}

func toAuthEvent(e *domain.AuditLog) *telemetry.AuthEvent {
	ev := &telemetry.AuthEvent{
		ID:        e.ID,
		AccountID: e.AccountID,
		EventType: e.Action,
		Source:    telemetry.SourceHTTP,
		IP:        e.IP,
		CreatedAt: e.CreatedAt,
	}
	if e.Metadata != "" && json.Valid([]byte(e.Metadata)) {
		ev.Metadata = json.RawMessage(e.Metadata)
	}
	return ev
}

// Metadata encodes v as a JSON string for LogEvent. Returns "" if v cannot be encoded.
func Metadata(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
