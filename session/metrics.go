package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments the lifecycle manager. A nil *Metrics records nothing.
type Metrics struct {
	tokensIssued metric.Int64Counter
	refresh      metric.Int64Counter
	logout       metric.Int64Counter
	authenticate metric.Int64Counter
	authDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.tokensIssued, err = meter.Int64Counter(
		"auth_tokens_issued_total",
		metric.WithDescription("Tokens issued by type"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	m.refresh, err = meter.Int64Counter(
		"auth_refresh_total",
		metric.WithDescription("Refresh attempts by result"),
	)
	if err != nil {
		return nil, err
	}

	m.logout, err = meter.Int64Counter(
		"auth_logout_total",
		metric.WithDescription("Completed logouts"),
	)
	if err != nil {
		return nil, err
	}

	m.authenticate, err = meter.Int64Counter(
		"auth_authenticate_total",
		metric.WithDescription("Access token checks by result"),
	)
	if err != nil {
		return nil, err
	}

	m.authDuration, err = meter.Float64Histogram(
		"auth_authenticate_duration_seconds",
		metric.WithDescription("Access token check latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) recordIssuedPair(ctx context.Context) {
	if m == nil {
		return
	}
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("type", "access")))
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("type", "refresh")))
}

func (m *Metrics) recordRefresh(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.refresh.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) recordLogout(ctx context.Context) {
	if m == nil {
		return
	}
	m.logout.Add(ctx, 1)
}

func (m *Metrics) recordAuthenticate(ctx context.Context, result string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	m.authenticate.Add(ctx, 1, attrs)
	m.authDuration.Record(ctx, d.Seconds(), attrs)
}
