package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics installs a metrics-only meter provider backed by the
// Prometheus bridge. Services that don't need traces or log export (the
// mock oracle) use this instead of the full Setup.
func InitMetrics() error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	if err := GetGlobalMetrics().InitMetrics(provider.Meter("conditional_orderbook")); err != nil {
		return fmt.Errorf("failed to init instruments: %w", err)
	}
	return nil
}
