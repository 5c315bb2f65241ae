// Package telemetry holds the auth metrics instruments and the best-effort security event emitter.
package telemetry

import (
	"context"

	"school-management/backend/internal/telemetry/domain"
)

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
