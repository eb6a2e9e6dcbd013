package mockoracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	binance "github.com/adshao/go-binance/v2"

	"conditional_orderbook/internal/core"
)

// BinanceRelay serves real Binance spot trade prices through the same /ws
// contract as the synthetic walk. One aggTrade stream per configured pair;
// Tick returns the last relayed trade, so a pair reports no price until
// its first trade arrives.
type BinanceRelay struct {
	pairs  []string
	logger core.ILogger

	mu     sync.RWMutex
	latest map[string]tickFrame

	stops []chan struct{}
}

// NewBinanceRelay creates a relay for the given pairs
func NewBinanceRelay(pairs []string, logger core.ILogger) *BinanceRelay {
	return &BinanceRelay{
		pairs:  pairs,
		logger: logger,
		latest: make(map[string]tickFrame, len(pairs)),
	}
}

// Start opens one stream per pair. BASE/QUOTE maps to the exchange symbol
// BASEQUOTE (BTC/USDT -> BTCUSDT).
func (r *BinanceRelay) Start() error {
	for _, pair := range r.pairs {
		pair := pair
		symbol := strings.ReplaceAll(pair, "/", "")

		_, stopC, err := binance.WsAggTradeServe(symbol,
			func(event *binance.WsAggTradeEvent) {
				// The exchange quotes the price as a decimal string;
				// pass it through untouched.
				r.mu.Lock()
				r.latest[pair] = tickFrame{
					Pair:  pair,
					Price: json.Number(event.Price),
					TsMs:  event.TradeTime,
				}
				r.mu.Unlock()
			},
			func(err error) {
				r.logger.Warn("binance stream error", "pair", pair, "error", err)
			})
		if err != nil {
			r.Stop()
			return fmt.Errorf("failed to open aggTrade stream for %s: %w", symbol, err)
		}
		r.stops = append(r.stops, stopC)
		r.logger.Info("binance relay stream opened", "pair", pair, "symbol", symbol)
	}
	return nil
}

// Tick returns the last relayed trade for the pair
func (r *BinanceRelay) Tick(pair string) (tickFrame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tick, ok := r.latest[pair]
	return tick, ok
}

// Stop closes all streams
func (r *BinanceRelay) Stop() {
	for _, stopC := range r.stops {
		close(stopC)
	}
	r.stops = nil
}
