package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the auth service instruments. A nil *Metrics records nothing.
type Metrics struct {
	logins           metric.Int64Counter
	geofenceDenials  metric.Int64Counter
	otpIssued        metric.Int64Counter
	otpVerifications metric.Int64Counter
	refreshes        metric.Int64Counter
	httpRequests     metric.Int64Counter
	httpDuration     metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.logins, err = meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome.")); err != nil {
		return nil, err
	}
	if m.geofenceDenials, err = meter.Int64Counter("auth.geofence.denials",
		metric.WithDescription("Logins denied by the geofence, by reason.")); err != nil {
		return nil, err
	}
	if m.otpIssued, err = meter.Int64Counter("auth.otp.issued",
		metric.WithDescription("Password reset codes issued.")); err != nil {
		return nil, err
	}
	if m.otpVerifications, err = meter.Int64Counter("auth.otp.verifications",
		metric.WithDescription("Password reset code checks by result.")); err != nil {
		return nil, err
	}
	if m.refreshes, err = meter.Int64Counter("auth.refresh.rotations",
		metric.WithDescription("Refresh token rotations by outcome.")); err != nil {
		return nil, err
	}
	if m.httpRequests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests by route and status.")); err != nil {
		return nil, err
	}
	if m.httpDuration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration."), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return m, nil
}

// Login counts one login attempt with outcome (e.g. "success", "invalid_credentials").
func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// GeofenceDenial counts one geofence denial with reason.
func (m *Metrics) GeofenceDenial(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.geofenceDenials.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) OTPIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.otpIssued.Add(ctx, 1)
}

// OTPVerification counts one code check with result ("valid", "invalid", "exhausted", "consumed").
func (m *Metrics) OTPVerification(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.otpVerifications.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) Refresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// HTTPRequest records one finished request.
func (m *Metrics) HTTPRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
