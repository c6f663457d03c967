package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

// Manager owns the meter provider. When disabled it hands out noop meters.
type Manager struct {
	provider metric.MeterProvider
	sdk      *sdkmetric.MeterProvider
	config   Config
	logger   *logger.CtxZapLogger
}

// NewManager builds the provider and installs it globally when enabled
func NewManager(ctx context.Context, cfg Config, log *logger.CtxZapLogger) (*Manager, error) {
	return newManager(ctx, cfg, log, os.Stdout)
}

func newManager(ctx context.Context, cfg Config, log *logger.CtxZapLogger, stdout io.Writer) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{config: cfg, logger: log}
	if !cfg.Enabled || cfg.Exporter == "noop" {
		m.provider = noop.NewMeterProvider()
		return m, nil
	}

	exporter, err := newExporter(ctx, cfg, stdout)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	m.sdk = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Interval),
			sdkmetric.WithTimeout(cfg.Timeout),
		)),
	)
	m.provider = m.sdk
	otel.SetMeterProvider(m.sdk)
	log.DebugCtx(ctx, "metrics enabled", zap.String("exporter", cfg.Exporter))
	return m, nil
}

func newExporter(ctx context.Context, cfg Config, stdout io.Writer) (sdkmetric.Exporter, error) {
	switch cfg.Exporter {
	case "otlp":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithTimeout(cfg.Timeout),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp metrics exporter: %w", err)
		}
		return exp, nil
	default:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(stdout))
		if err != nil {
			return nil, fmt.Errorf("create stdout metrics exporter: %w", err)
		}
		return exp, nil
	}
}

func (m *Manager) Meter(name string) metric.Meter {
	return m.provider.Meter(name)
}

func (m *Manager) Enabled() bool {
	return m.sdk != nil
}

// Shutdown flushes pending metrics
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.sdk == nil {
		return nil
	}
	return m.sdk.Shutdown(ctx)
}
