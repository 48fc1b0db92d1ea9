package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter starts a periodic OTLP HTTP metric exporter to cfg.Endpoint and
// installs its provider globally. The caller owns the provider's shutdown.
func InitMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the dispatch pipeline.
//
//	request.total       dispatches by service, method and status
//	request.duration    dispatch latency up to response headers
//	request.active      dispatches in flight
//	operation.total     transport calls by service and outcome
//	operation.duration  transport call latency
//	error.total         failed transport calls
//	body.bytes          body bytes moved, by direction "in" or "out"
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
	bodyBytes         metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var errs []error
	keep := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("instrument %s: %w", name, err))
		}
	}
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		keep(name, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		keep(name, err)
		return h
	}

	active, err := meter.Int64UpDownCounter("request.active", metric.WithDescription("Dispatches in flight"))
	keep("request.active", err)

	m := &Metrics{
		requestTotal:      counter("request.total", "Dispatches by status", "{request}"),
		requestDuration:   seconds("request.duration", "Dispatch latency up to response headers"),
		requestActive:     active,
		operationTotal:    counter("operation.total", "Transport calls by outcome", "{call}"),
		operationDuration: seconds("operation.duration", "Transport call latency"),
		errorTotal:        counter("error.total", "Failed calls by type and component", "{error}"),
		bodyBytes:         counter("body.bytes", "Body bytes moved by direction", "By"),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// RecordRequestStart marks a dispatch in flight.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd closes a dispatch started with RecordRequestStart.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, method, status string, d time.Duration) {
	base := []attribute.KeyValue{attribute.String("service", service), attribute.String("method", method)}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String("status", status))...))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(base...))
}

// RecordOperation records one transport call with status "ok" or "error".
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, d time.Duration) {
	base := []attribute.KeyValue{attribute.String("service", service), attribute.String("operation", operation)}
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(append(base, attribute.String("status", status))...))
	m.operationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(base...))
}

func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordBodyBytes adds n bytes moved in direction "in" or "out". Zero is not recorded.
func (m *Metrics) RecordBodyBytes(ctx context.Context, service, direction string, n int) {
	if n <= 0 {
		return
	}
	m.bodyBytes.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("direction", direction),
	))
}
