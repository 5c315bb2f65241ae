package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"school-management/backend/internal/telemetry/domain"
)

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(_ context.Context, rec otellog.Record) {
	r.rec = rec
}

func attrsOf(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), &domain.Event{TenantID: "t1"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	if err := NewEventEmitter(provider).Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	err := em.Emit(context.Background(), &domain.Event{
		TenantID:   "t1",
		AccountID:  "a1",
		DeviceID:   "d1",
		EventType:  "login_denied",
		Source:     "auth",
		Attributes: map[string]string{"reason": "outside_geofence", "empty": ""},
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec
	if got := rec.Body().AsString(); got != "login_denied" {
		t.Errorf("body = %q, want login_denied", got)
	}
	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	attrs := attrsOf(rec)
	want := map[string]string{
		"tenant_id": "t1", "account_id": "a1", "device_id": "d1",
		"event_type": "login_denied", "source": "auth", "reason": "outside_geofence",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
	if _, ok := attrs["empty"]; ok {
		t.Error("empty attributes should be skipped")
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	capture := &recordCapture{}
	before := time.Now().UTC()
	if err := NewEventEmitterWithLogger(capture).Emit(context.Background(), &domain.Event{EventType: "x"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := capture.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, should be between %v and %v", ts, before, after)
	}
	attrs := attrsOf(capture.rec)
	if _, ok := attrs["tenant_id"]; ok {
		t.Error("missing tenant should not be an attribute")
	}
}
