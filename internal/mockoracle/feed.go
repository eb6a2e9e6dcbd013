// Package mockoracle is a development stand-in for the price oracle: a
// websocket server that pushes one JSON tick per pair on an interval,
// backed either by a synthetic random walk or by relayed Binance trades.
package mockoracle

import (
	"encoding/json"
	"hash/fnv"
	"math/rand"
	"strconv"

	"conditional_orderbook/internal/core"
)

// tickFrame is the oracle wire format. Price is a bare JSON number, which
// the consumer decodes digit-for-digit into a decimal.
type tickFrame struct {
	Pair  string      `json:"pair"`
	Price json.Number `json:"price"`
	TsMs  int64       `json:"ts_ms"`
}

// Source yields the current price for a pair. ok is false while no price
// is known yet (e.g. a relay that has not seen a trade).
type Source interface {
	Tick(pair string) (tickFrame, bool)
}

// Band constrains a pair's walk to a realistic price range
type Band struct {
	Low  float64
	High float64
}

func (b Band) mid() float64 { return (b.Low + b.High) / 2 }

// DefaultBands are the bands for the well-known pairs. Unknown pairs walk
// freely from a seeded starting price.
var DefaultBands = map[string]Band{
	"BTC/USDT": {Low: 100_000, High: 110_000},
	"ETH/USDT": {Low: 3_500, High: 3_501},
	"SOL/USDT": {Low: 200, High: 201},
}

// walker is a per-pair random walk. Banded pairs drift toward the band
// midpoint with +-0.05% noise; unbanded pairs drift slightly upward with
// +-0.3% noise.
type walker struct {
	pair string
	band *Band
	prev float64
	rng  *rand.Rand
}

func newWalker(pair string) *walker {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pair))
	seed := h.Sum64()

	w := &walker{
		pair: pair,
		rng:  rand.New(rand.NewSource(int64(seed))),
	}
	if band, ok := DefaultBands[pair]; ok {
		w.band = &band
		w.prev = band.mid()
	} else {
		w.prev = 50 + float64(seed%500)
	}
	return w
}

func (w *walker) next() float64 {
	var px float64
	if w.band != nil {
		noise := (w.rng.Float64()*2 - 1) * 0.0005
		px = w.prev*(1+noise) + (w.band.mid()-w.prev)*0.001
		px = clamp(px, w.band.Low, w.band.High)
	} else {
		noise := (w.rng.Float64()*2 - 1) * 0.003
		px = w.prev * (1 + 0.0002 + noise)
		px = clamp(px, 0.01, 1_000_000)
	}
	w.prev = px
	return px
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// walkSource generates synthetic prices. Each connection session owns its
// own instance, so sessions do not share walk state.
type walkSource struct {
	walkers map[string]*walker
}

func newWalkSource(pairs []string) *walkSource {
	s := &walkSource{walkers: make(map[string]*walker, len(pairs))}
	for _, pair := range pairs {
		s.walkers[pair] = newWalker(pair)
	}
	return s
}

func (s *walkSource) Tick(pair string) (tickFrame, bool) {
	w, ok := s.walkers[pair]
	if !ok {
		w = newWalker(pair)
		s.walkers[pair] = w
	}
	return tickFrame{
		Pair:  pair,
		Price: json.Number(strconv.FormatFloat(w.next(), 'f', 4, 64)),
		TsMs:  core.NowMillis(),
	}, true
}
