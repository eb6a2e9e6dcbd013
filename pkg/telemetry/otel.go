// Package telemetry wires OpenTelemetry tracing, metrics, and logging for
// the order server and its tooling. Metrics are exported through the
// Prometheus bridge so they show up on the /metrics endpoint.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	tracetype "go.opentelemetry.io/otel/trace"
)

// Telemetry holds the SDK providers so they can be flushed on shutdown.
type Telemetry struct {
	traces  *trace.TracerProvider
	metrics *sdkmetric.MeterProvider
	logs    *sdklog.LoggerProvider
}

// Setup installs global trace, meter, and logger providers for serviceName
// and initializes the shared application instruments.
func Setup(serviceName string) (*Telemetry, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	promReader, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promReader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := GetGlobalMetrics().InitMetrics(mp.Meter(serviceName)); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	logExporter, err := stdoutlog.New(stdoutlog.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	return &Telemetry{traces: tp, metrics: mp, logs: lp}, nil
}

// Shutdown flushes and stops all providers, collecting every failure.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.traces.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trace provider shutdown failed: %w", err))
	}
	if err := t.metrics.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown failed: %w", err))
	}
	if err := t.logs.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("log provider shutdown failed: %w", err))
	}
	return errors.Join(errs...)
}

// GetMeter returns a meter from the global meter provider.
func GetMeter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// GetTracer returns a tracer from the global tracer provider.
func GetTracer(name string) tracetype.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}
