package matcher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"conditional_orderbook/internal/core"
	"conditional_orderbook/pkg/telemetry"
)

// worker matches one asset. It never exits on its own; repository and
// price failures are logged and the next tick proceeds.
type worker struct {
	asset    string
	repo     core.IOrderRepository
	prices   core.IPriceCache
	interval time.Duration
	logger   core.ILogger
	metrics  *telemetry.MetricsHolder

	ticks uint64
}

// run drives the tick loop. The first tick fires immediately so orders
// present at startup are evaluated without waiting a full interval; after
// that the timer is re-armed once each tick completes, so an overrunning
// tick delays the next one instead of bursting to catch up.
func (w *worker) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		w.tick(ctx)
		timer.Reset(w.interval)
	}
}

func (w *worker) tick(ctx context.Context) {
	w.ticks++
	start := time.Now()

	px, ts, ok := w.prices.Price(w.asset)
	if !ok {
		w.logger.Debug("no oracle price yet; skipping this tick", "asset", w.asset, "tick", w.ticks)
		return
	}

	active := w.collectActiveOrders(ctx)
	w.logger.Info("tick",
		"asset", w.asset,
		"tick", w.ticks,
		"oracle_px", px.String(),
		"oracle_ts", ts,
		"active", len(active))

	w.metrics.MatcherTicksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("pair", w.asset)))
	w.metrics.SetActiveOrders(w.asset, int64(len(active)))

	if len(active) == 0 {
		w.logger.Debug("no active orders", "asset", w.asset, "tick", w.ticks)
		w.metrics.MatcherTickDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
		return
	}

	matched, promoted := w.processActiveOrders(ctx, active, px, ts)
	w.logger.Info("tick summary",
		"asset", w.asset,
		"tick", w.ticks,
		"matched", matched,
		"promoted", promoted)
	w.metrics.MatcherTickDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
}

// collectActiveOrders lists the three active statuses separately. A failed
// list drops that bucket for this tick only; the other buckets still
// match.
func (w *worker) collectActiveOrders(ctx context.Context) []core.Order {
	var active []core.Order
	for _, status := range core.ActiveStatuses {
		orders, err := w.repo.List(ctx, core.ListOrdersQuery{Pair: w.asset, Status: status})
		if err != nil {
			w.metrics.RepositoryErrors.Add(ctx, 1)
			w.logger.Error("failed to list orders", "asset", w.asset, "status", string(status), "error", err)
			continue
		}
		active = append(active, orders...)
	}
	return active
}

func (w *worker) processActiveOrders(ctx context.Context, orders []core.Order, px decimal.Decimal, tsMs int64) (matched, promoted int) {
	for _, o := range orders {
		switch {
		case crosses(o, px):
			filled, err := w.repo.SetStatus(ctx, o.ID, core.StatusFilled)
			if err != nil {
				w.metrics.RepositoryErrors.Add(ctx, 1)
				w.logger.Error("failed to set status=Filled", "asset", w.asset, "order_id", o.ID, "error", err)
				continue
			}
			matched++
			w.logExec(filled, px, tsMs)
			w.metrics.OrdersFilledTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("pair", w.asset)))

		case o.Status == core.StatusNew:
			if _, err := w.repo.SetStatus(ctx, o.ID, core.StatusOpen); err != nil {
				w.metrics.RepositoryErrors.Add(ctx, 1)
				w.logger.Error("failed to promote NEW -> OPEN", "asset", w.asset, "order_id", o.ID, "error", err)
				continue
			}
			promoted++
			w.logger.Debug("promoted NEW -> OPEN (not crossing)",
				"asset", w.asset,
				"order_id", o.ID,
				"limit_px", o.Price.String(),
				"oracle_px", px.String())
			w.metrics.OrdersPromotedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("pair", w.asset)))

		default:
			w.logger.Debug("not crossing",
				"asset", w.asset,
				"order_id", o.ID,
				"status", string(o.Status),
				"limit_px", o.Price.String(),
				"oracle_px", px.String())
		}
	}
	return matched, promoted
}

func (w *worker) logExec(o core.Order, px decimal.Decimal, tsMs int64) {
	w.logger.Info("EXECUTE",
		"pair", o.Pair,
		"side", string(o.Side),
		"order_id", o.ID,
		"qty", o.Quantity.String(),
		"limit_px", o.Price.String(),
		"exec_px", px.String(),
		"oracle_ts", tsMs,
	)
}

// crosses reports whether the oracle price satisfies the order's limit.
// A buy crosses when the oracle is at or below the limit, a sell when the
// oracle is at or above it. Equality crosses on both sides.
func crosses(o core.Order, oraclePx decimal.Decimal) bool {
	switch o.Side {
	case core.SideBuy:
		return o.Price.GreaterThanOrEqual(oraclePx)
	case core.SideSell:
		return o.Price.LessThanOrEqual(oraclePx)
	}
	return false
}
