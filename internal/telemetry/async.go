package telemetry

import (
	"context"
	"log"
	"strings"
	"time"

	"school-management/backend/internal/telemetry/domain"
)

const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long main waits after the listeners stop before closing the OTel
// providers, so queued security events can still be exported.
const ShutdownDrainDuration = emitTimeout

// secretMarkers are attribute key fragments that are never exported.
var secretMarkers = []string{"password", "otp", "code", "token", "secret"}

// EmitAsync ships event on its own goroutine with a bounded timeout. It never blocks the request and
// never fails it: request cancellation does not abort the emit, and errors are only logged.
// Attributes whose key looks like a credential are dropped before the event leaves the process.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *domain.Event) {
	if emitter == nil || event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.Attributes = redact(event.Attributes)
	go func() {
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: emit %s failed: %v", event.EventType, err)
		}
	}()
}

func redact(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return attrs
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if isSecretKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	for _, m := range secretMarkers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}
