// Package tracing instruments a controller's command round-trips
// with OpenTelemetry spans. Only the stdout exporter is wired —
// there is no collector to ship spans to in this deployment. The
// span shape (resume mode, command kind as attributes) exists to
// help diagnose a slow WATCH against a large table.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the tracing setup for one controller process.
type Config struct {
	ServiceName  string
	SamplingRate float64
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{ServiceName: "rdb-controller", SamplingRate: 1.0, Enabled: true}
}

// TracerProvider wraps the OpenTelemetry SDK provider for shutdown.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// Init builds a stdout-exporting TracerProvider and installs it as
// the global provider. A disabled config yields a no-op provider so
// callers can always call StartCommandSpan without a nil check.
func Init(config Config) (*TracerProvider, error) {
	if !config.Enabled {
		return &TracerProvider{provider: sdktrace.NewTracerProvider()}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("tracing: creating stdout exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", config.ServiceName))

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case config.SamplingRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	return &TracerProvider{provider: tp}, nil
}

// Shutdown flushes and stops the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

func tracer() trace.Tracer { return otel.Tracer("rdb") }

// StartCommandSpan starts a span for one controller command
// round-trip, tagging it with the resume mode and command kind so a
// trace view can single out, e.g., every WATCH against a huge table.
func StartCommandSpan(ctx context.Context, commandKind, resumeMode string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "rdb.command",
		trace.WithAttributes(
			attribute.String("rdb.command", commandKind),
			attribute.String("rdb.resume_mode", resumeMode),
		))
}

// EndWithError closes span, marking it as failed when err is non-nil.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
