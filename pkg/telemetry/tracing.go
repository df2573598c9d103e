package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var (
	tracingOnce sync.Once
	tracingErr  error
	tracerProv  *sdktrace.TracerProvider
)

// InitTracing installs the process-wide OTLP trace exporter. One exporter
// endpoint per process: the first call wins and later calls with a different
// endpoint are no-ops.
func InitTracing(ctx context.Context, endpoint, apiKey string) error {
	tracingOnce.Do(func() {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpointURL(endpoint)}
		if apiKey != "" {
			opts = append(opts, otlptracegrpc.WithHeaders(map[string]string{
				"authorization": "Bearer " + apiKey,
			}))
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			tracingErr = err
			return
		}
		tracerProv = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName("llm-gateway"),
			)),
		)
		otel.SetTracerProvider(tracerProv)
	})
	return tracingErr
}

// ShutdownTracing flushes and stops the exporter if one was installed.
func ShutdownTracing(ctx context.Context) error {
	if tracerProv == nil {
		return nil
	}
	return tracerProv.Shutdown(ctx)
}
