// Package producer ships auth events to a message broker.
package producer

import (
	"context"

	"task-board/backend/internal/telemetry"
)

// Producer emits auth events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call via telemetry.EmitAsync.
	Emit(ctx context.Context, event *telemetry.AuthEvent) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
