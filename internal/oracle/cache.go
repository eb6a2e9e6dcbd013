// Package oracle contains the shared price cache and the websocket client
// that feeds it.
package oracle

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"conditional_orderbook/internal/core"
)

// PriceCache holds the last observed tick per pair. One writer (the oracle
// client) and many readers (the matcher workers); readers always see a
// complete tick, never a partial write.
type PriceCache struct {
	ticks map[string]core.Tick
	mu    sync.RWMutex
}

func NewPriceCache() *PriceCache {
	return &PriceCache{
		ticks: make(map[string]core.Tick),
	}
}

// Set stores the tick for its pair. Any pair is accepted; a later tick
// always replaces an earlier one regardless of timestamps.
func (c *PriceCache) Set(tick core.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks[tick.Pair] = tick
}

// Price returns the last price and oracle timestamp for the pair. ok is
// false when no tick has arrived yet.
func (c *PriceCache) Price(pair string) (decimal.Decimal, int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tick, ok := c.ticks[pair]
	if !ok {
		return decimal.Decimal{}, 0, false
	}
	return tick.Price, tick.TsMs, true
}

// Pairs returns the pairs that currently have a price, sorted for stable
// output.
func (c *PriceCache) Pairs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pairs := make([]string, 0, len(c.ticks))
	for p := range c.ticks {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}
