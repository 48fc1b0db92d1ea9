package provider_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/sigdispatch/logger"
	"github.com/kbukum/sigdispatch/observability"
	"github.com/kbukum/sigdispatch/provider"
)

type failingProvider struct{}

func (p *failingProvider) Name() string                       { return "fail" }
func (p *failingProvider) IsAvailable(_ context.Context) bool { return true }
func (p *failingProvider) Execute(_ context.Context, _ string) (string, error) {
	return "", errors.New("intentional failure")
}

type tagged struct {
	inner provider.RequestResponse[string, string]
	tag   string
	trail *[]string
}

func (o *tagged) Name() string                         { return o.inner.Name() }
func (o *tagged) IsAvailable(ctx context.Context) bool { return o.inner.IsAvailable(ctx) }
func (o *tagged) Execute(ctx context.Context, in string) (string, error) {
	*o.trail = append(*o.trail, o.tag+">")
	out, err := o.inner.Execute(ctx, in)
	*o.trail = append(*o.trail, "<"+o.tag)
	return out, err
}

func TestChain_Order(t *testing.T) {
	var trail []string
	mw := func(tag string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return &tagged{inner: inner, tag: tag, trail: &trail}
		}
	}

	out, err := provider.Chain(mw("a"), mw("b"), mw("c"))(&echoProvider{name: "s3"}).Execute(context.Background(), "x")
	if err != nil || out != "echo:x" {
		t.Fatalf("expected echo:x, got %q (%v)", out, err)
	}
	want := "a> b> c> <c <b <a"
	if got := strings.Join(trail, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestChain_Empty(t *testing.T) {
	p := &echoProvider{name: "s3"}
	if got := provider.Chain[string, string]()(p); got != provider.RequestResponse[string, string](p) {
		t.Error("expected an empty chain to return the provider itself")
	}
}

func TestMiddleware_Delegates(t *testing.T) {
	metrics, err := observability.NewMetrics(observability.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	tests := map[string]provider.Middleware[string, string]{
		"logging": provider.WithLogging[string, string](logger.NewNop()),
		"metrics": provider.WithMetrics[string, string](metrics),
		"tracing": provider.WithTracing[string, string]("svc"),
	}
	for name, mw := range tests {
		t.Run(name, func(t *testing.T) {
			wrapped := mw(&echoProvider{name: "s3"})
			if wrapped.Name() != "s3" {
				t.Errorf("expected name s3, got %q", wrapped.Name())
			}
			if !wrapped.IsAvailable(context.Background()) {
				t.Error("expected availability to be delegated")
			}
			out, err := wrapped.Execute(context.Background(), "x")
			if err != nil || out != "echo:x" {
				t.Errorf("expected echo:x, got %q (%v)", out, err)
			}
			if _, err := mw(&failingProvider{}).Execute(context.Background(), "x"); err == nil {
				t.Error("expected the inner error to pass through")
			}
		})
	}
}

func TestWithLogging_WritesDebugLines(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	_, _ = provider.WithLogging[string, string](log)(&echoProvider{name: "s3"}).Execute(context.Background(), "x")
	_, _ = provider.WithLogging[string, string](log)(&failingProvider{}).Execute(context.Background(), "x")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"message":"provider execute ok"`) || !strings.Contains(lines[0], `"provider":"s3"`) {
		t.Errorf("unexpected success line: %s", lines[0])
	}
	if !strings.Contains(lines[1], "intentional failure") || !strings.Contains(lines[1], `"level":"debug"`) {
		t.Errorf("unexpected failure line: %s", lines[1])
	}
}

func TestWithMetrics_RecordsOperations(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	_, _ = provider.WithMetrics[string, string](metrics)(&echoProvider{name: "s3"}).Execute(context.Background(), "x")
	_, _ = provider.WithMetrics[string, string](metrics)(&failingProvider{}).Execute(context.Background(), "x")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	if counts["operation.total"] != 2 {
		t.Errorf("expected 2 operations, got %d", counts["operation.total"])
	}
	if counts["error.total"] != 1 {
		t.Errorf("expected 1 error, got %d", counts["error.total"])
	}
}

func TestWithTracing_Span(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	}()

	_, _ = provider.WithTracing[string, string]("svc")(&failingProvider{}).Execute(context.Background(), "x")

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "svc.fail" {
		t.Errorf("expected span 'svc.fail', got %q", spans[0].Name)
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the error to be recorded on the span")
	}
}

func TestChain_InsideResilience(t *testing.T) {
	wrapped := provider.Chain(
		provider.WithLogging[string, string](logger.NewNop()),
		provider.WithTracing[string, string]("svc"),
	)(&echoProvider{name: "s3"})

	out, err := provider.WithResilience(wrapped, provider.ResilienceConfig{}).Execute(context.Background(), "x")
	if err != nil || out != "echo:x" {
		t.Errorf("expected echo:x, got %q (%v)", out, err)
	}
}
