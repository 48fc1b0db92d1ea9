// Package observability provides OpenTelemetry tracing and metrics for the
// dispatch pipeline.
//
// Setup starts OTLP HTTP exporters from configuration:
//
//	tel, err := observability.Setup(ctx, cfg.Telemetry, "uploader", version, env)
//	defer tel.Shutdown(ctx)
//
// Spans and metrics are then recorded against the global providers:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
//	defer span.End()
//	tel.Metrics.RecordRequestEnd(ctx, "s3", "PUT", "200", duration)
package observability
