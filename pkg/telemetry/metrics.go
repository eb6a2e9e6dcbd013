package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricMatcherTicksTotal     = "conditional_orderbook_matcher_ticks_total"
	MetricMatcherTickDuration   = "conditional_orderbook_matcher_tick_duration_ms"
	MetricOrdersActive          = "conditional_orderbook_orders_active"
	MetricOrdersFilledTotal     = "conditional_orderbook_orders_filled_total"
	MetricOrdersPromotedTotal   = "conditional_orderbook_orders_promoted_total"
	MetricOracleTicksTotal      = "conditional_orderbook_oracle_ticks_total"
	MetricOracleDecodeErrors    = "conditional_orderbook_oracle_decode_errors_total"
	MetricOracleReconnects      = "conditional_orderbook_oracle_reconnects_total"
	MetricOracleLastPrice       = "conditional_orderbook_oracle_last_price"
	MetricRepositoryErrorsTotal = "conditional_orderbook_repository_errors_total"
)

// MetricsHolder holds initialized instruments
type MetricsHolder struct {
	MatcherTicksTotal   metric.Int64Counter
	MatcherTickDuration metric.Float64Histogram
	OrdersActive        metric.Int64ObservableGauge
	OrdersFilledTotal   metric.Int64Counter
	OrdersPromotedTotal metric.Int64Counter
	OracleTicksTotal    metric.Int64Counter
	OracleDecodeErrors  metric.Int64Counter
	OracleReconnects    metric.Int64Counter
	OracleLastPrice     metric.Float64ObservableGauge
	RepositoryErrors    metric.Int64Counter

	// State for observable gauges
	mu              sync.RWMutex
	activeOrdersMap map[string]int64
	lastPriceMap    map[string]float64
}

var (
	globalMetrics *MetricsHolder
	initOnce      sync.Once
)

// GetGlobalMetrics returns the singleton metrics holder
func GetGlobalMetrics() *MetricsHolder {
	initOnce.Do(func() {
		globalMetrics = &MetricsHolder{
			activeOrdersMap: make(map[string]int64),
			lastPriceMap:    make(map[string]float64),
		}
		// Initialization of instruments happens in InitMetrics
	})
	return globalMetrics
}

// InitMetrics initializes instruments using the meter
func (m *MetricsHolder) InitMetrics(meter metric.Meter) error {
	var err error

	m.MatcherTicksTotal, err = meter.Int64Counter(MetricMatcherTicksTotal, metric.WithDescription("Total matcher ticks per pair"))
	if err != nil {
		return err
	}

	m.MatcherTickDuration, err = meter.Float64Histogram(MetricMatcherTickDuration, metric.WithDescription("Duration of one matcher tick"), metric.WithUnit("ms"))
	if err != nil {
		return err
	}

	m.OrdersFilledTotal, err = meter.Int64Counter(MetricOrdersFilledTotal, metric.WithDescription("Total orders filled by the matcher"))
	if err != nil {
		return err
	}

	m.OrdersPromotedTotal, err = meter.Int64Counter(MetricOrdersPromotedTotal, metric.WithDescription("Total orders promoted from new to open"))
	if err != nil {
		return err
	}

	m.OracleTicksTotal, err = meter.Int64Counter(MetricOracleTicksTotal, metric.WithDescription("Total price ticks received from the oracle"))
	if err != nil {
		return err
	}

	m.OracleDecodeErrors, err = meter.Int64Counter(MetricOracleDecodeErrors, metric.WithDescription("Total oracle frames that failed to decode"))
	if err != nil {
		return err
	}

	m.OracleReconnects, err = meter.Int64Counter(MetricOracleReconnects, metric.WithDescription("Total oracle reconnect attempts"))
	if err != nil {
		return err
	}

	m.RepositoryErrors, err = meter.Int64Counter(MetricRepositoryErrorsTotal, metric.WithDescription("Total repository operation errors"))
	if err != nil {
		return err
	}

	// Observables
	m.OrdersActive, err = meter.Int64ObservableGauge(MetricOrdersActive, metric.WithDescription("Number of currently active orders"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for pair, val := range m.activeOrdersMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("pair", pair)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.OracleLastPrice, err = meter.Float64ObservableGauge(MetricOracleLastPrice, metric.WithDescription("Last oracle price observed per pair"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for pair, val := range m.lastPriceMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("pair", pair)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	return nil
}

// Helpers to update observable state

func (m *MetricsHolder) SetActiveOrders(pair string, count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeOrdersMap[pair] = count
}

func (m *MetricsHolder) SetLastPrice(pair string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPriceMap[pair] = price
}

func (m *MetricsHolder) GetActiveOrders() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]int64)
	for k, v := range m.activeOrdersMap {
		res[k] = v
	}
	return res
}

func (m *MetricsHolder) GetLastPrice() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]float64)
	for k, v := range m.lastPriceMap {
		res[k] = v
	}
	return res
}
