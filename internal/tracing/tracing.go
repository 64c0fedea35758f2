// Package tracing wires the OpenTelemetry SDK used by every reconciler's
// trace span (see internal/controller/base) to an OTLP/HTTP exporter.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and closes the tracer provider installed by Setup.
type ShutdownFunc func(context.Context) error

// Setup installs a global TracerProvider exporting spans to endpoint over
// OTLP/HTTP. If endpoint is empty, it installs nothing and returns a no-op
// shutdown, leaving otel's default no-op global provider in place so
// tracer.Start calls throughout the operator remain cheap when tracing is
// not configured.
func Setup(ctx context.Context, endpoint, serviceName string) (ShutdownFunc, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
