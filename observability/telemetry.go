package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/sigdispatch/logger"
	"github.com/kbukum/sigdispatch/validation"
)

// Config selects where traces and metrics are exported.
//
//	telemetry:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	  sample_rate: 0.25
type Config struct {
	// Enabled turns on the OTLP exporters. Disabled telemetry records nothing.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP collector host:port. Defaults to "localhost:4318".
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure sends to the collector over plain HTTP.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the fraction of dispatches traced. Defaults to 1.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// MetricInterval is the metric export period. Defaults to 15s.
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the exporter settings. Disabled telemetry is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	err := validation.New().
		Required("endpoint", c.Endpoint).
		Custom(c.SampleRate >= 0 && c.SampleRate <= 1, "sample_rate", "must be between 0 and 1").
		NonNegativeDuration("metric_interval", c.MetricInterval).
		Err()
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

// Telemetry owns the tracer and meter providers started by Setup.
type Telemetry struct {
	// Metrics is nil when telemetry is disabled.
	Metrics *Metrics

	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Setup starts the OTLP tracer and meter providers for a service and
// installs them globally. A disabled config returns an empty Telemetry.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return &Telemetry{}, nil
	}

	res, err := NewResource(ctx, service, version, environment)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}
	tp, err := InitTracer(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	mp, err := InitMeter(ctx, cfg, res)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("telemetry: %w", err), tp.Shutdown(ctx))
	}
	metrics, err := NewMetrics(mp.Meter(service))
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	logger.Info("telemetry started", logger.Fields(
		"service", service,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"metric_interval", cfg.MetricInterval.String(),
	))
	return &Telemetry{Metrics: metrics, tracer: tp, meter: mp}, nil
}

// Enabled reports whether exporters are running.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.tracer != nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return errors.Join(t.tracer.Shutdown(ctx), t.meter.Shutdown(ctx))
}
