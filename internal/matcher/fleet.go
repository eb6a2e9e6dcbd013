// Package matcher runs one matching worker per configured asset. Every
// worker wakes on its own interval, reads the last oracle price and settles
// the asset's active orders against it.
package matcher

import (
	"context"
	"sync"
	"time"

	"conditional_orderbook/internal/core"
	"conditional_orderbook/pkg/telemetry"
)

// FleetConfig configures the matcher fleet
type FleetConfig struct {
	Assets       []string
	TickInterval time.Duration
}

// Fleet owns the per-asset workers
type Fleet struct {
	workers []*worker
	logger  core.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFleet builds a fleet with one worker per asset
func NewFleet(cfg FleetConfig, repo core.IOrderRepository, prices core.IPriceCache, logger core.ILogger) *Fleet {
	ctx, cancel := context.WithCancel(context.Background())

	f := &Fleet{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	metrics := telemetry.GetGlobalMetrics()
	for _, asset := range cfg.Assets {
		f.workers = append(f.workers, &worker{
			asset:    asset,
			repo:     repo,
			prices:   prices,
			interval: cfg.TickInterval,
			logger:   logger,
			metrics:  metrics,
		})
	}
	return f
}

// Start launches the worker goroutines
func (f *Fleet) Start() {
	for _, w := range f.workers {
		f.wg.Add(1)
		go func(w *worker) {
			defer f.wg.Done()
			w.run(f.ctx)
		}(w)
	}
	f.logger.Info("matcher fleet started", "workers", len(f.workers))
}

// Stop cancels the workers and waits for them to drain
func (f *Fleet) Stop() {
	f.cancel()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// All workers exited cleanly
	case <-time.After(5 * time.Second):
		f.logger.Warn("matcher fleet Stop: some workers did not exit within timeout")
	}
}
