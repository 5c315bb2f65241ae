package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"school-management/backend/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	done    chan struct{}
}

func newMockEmitter(n int) *mockEventEmitter {
	return &mockEventEmitter{done: make(chan struct{}, n)}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.emitErr
}

func (m *mockEventEmitter) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Event(nil), m.events...)
}

func TestEmitAsync_NilArguments(t *testing.T) {
	EmitAsync(nil, context.Background(), &domain.Event{EventType: "x"})

	emitter := newMockEmitter(1)
	EmitAsync(emitter, context.Background(), nil)
	time.Sleep(10 * time.Millisecond)
	if n := len(emitter.getEvents()); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := newMockEmitter(1)
	EmitAsync(emitter, context.Background(), &domain.Event{
		TenantID:  "tenant-1",
		AccountID: "acct-1",
		EventType: "login_success",
		Source:    "auth",
	})
	emitter.wait(t, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].AccountID != "acct-1" || events[0].EventType != "login_success" {
		t.Errorf("event = %+v", events[0])
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped")
	}
}

func TestEmitAsync_IgnoresRequestCancellation(t *testing.T) {
	emitter := newMockEmitter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, &domain.Event{EventType: "test"})
	emitter.wait(t, 1)
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := newMockEmitter(1)
	emitter.emitErr = context.DeadlineExceeded
	EmitAsync(emitter, context.Background(), &domain.Event{EventType: "test"})
	emitter.wait(t, 1)
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := newMockEmitter(10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), &domain.Event{EventType: "test"})
		}()
	}
	wg.Wait()
	emitter.wait(t, 10)
	if n := len(emitter.getEvents()); n != 10 {
		t.Errorf("expected 10 events, got %d", n)
	}
}

func TestEmitAsync_DropsCredentialAttributes(t *testing.T) {
	emitter := newMockEmitter(1)
	EmitAsync(emitter, context.Background(), &domain.Event{
		EventType: "password_reset",
		Attributes: map[string]string{
			"reason":        "outside_geofence",
			"new_password":  "hunter22",
			"OTP":           "123456",
			"refresh_token": "abc",
			"reset_code":    "654321",
		},
	})
	emitter.wait(t, 1)

	attrs := emitter.getEvents()[0].Attributes
	if len(attrs) != 1 || attrs["reason"] != "outside_geofence" {
		t.Errorf("attributes = %v, want only reason", attrs)
	}
}

func TestIsSecretKey(t *testing.T) {
	tests := map[string]bool{
		"reason":     false,
		"distance_m": false,
		"Password":   true,
		"otp_hash":   true,
		"api_secret": true,
	}
	for key, want := range tests {
		if got := isSecretKey(key); got != want {
			t.Errorf("isSecretKey(%q) = %v, want %v", key, got, want)
		}
	}
}
