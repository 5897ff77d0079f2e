package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// asyncEmitTimeout bounds one detached audit emit (OTel log record or Kafka write).
const asyncEmitTimeout = 5 * time.Second

// ShutdownDrainDuration is the pause cmd/server takes between closing its listeners and
// closing the Kafka writer and OTel exporters. It covers the longest detached emit.
const ShutdownDrainDuration = asyncEmitTimeout

// EmitAsync hands an auth event to emitter without holding up the HTTP response.
// A nil emitter or event is a no-op. The emit is detached from the request context,
// so a client that disconnects after logging in does not lose its audit event.
func EmitAsync(emitter EventEmitter, event *AuthEvent) {
	if emitter == nil || event == nil {
		return
	}
	go func(ev *AuthEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), asyncEmitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, ev); err != nil {
			slog.Warn("auth event emit failed", "event_type", ev.EventType, "account_id", ev.AccountID, "error", err)
		}
	}(event)
}
