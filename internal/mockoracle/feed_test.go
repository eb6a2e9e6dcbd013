package mockoracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandedWalkerStaysInBand(t *testing.T) {
	for pair, band := range DefaultBands {
		t.Run(pair, func(t *testing.T) {
			w := newWalker(pair)
			assert.Equal(t, band.mid(), w.prev, "walk starts at the band midpoint")

			for i := 0; i < 10_000; i++ {
				px := w.next()
				if px < band.Low || px > band.High {
					t.Fatalf("step %d escaped the band: %f not in [%f, %f]", i, px, band.Low, band.High)
				}
			}
		})
	}
}

func TestUnbandedWalkerBounds(t *testing.T) {
	w := newWalker("DOGE/USDT")
	require.Nil(t, w.band)
	assert.GreaterOrEqual(t, w.prev, 50.0)
	assert.Less(t, w.prev, 550.0)

	for i := 0; i < 10_000; i++ {
		px := w.next()
		if px < 0.01 || px > 1_000_000 {
			t.Fatalf("step %d out of bounds: %f", i, px)
		}
	}
}

func TestWalkerDeterministicPerPair(t *testing.T) {
	a := newWalker("XRP/USDT")
	b := newWalker("XRP/USDT")
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.next(), b.next(), "same pair seeds the same walk")
	}

	c := newWalker("ADA/USDT")
	assert.NotEqual(t, newWalker("XRP/USDT").next(), c.next(), "different pairs diverge")
}

func TestWalkSourceTick(t *testing.T) {
	src := newWalkSource([]string{"BTC/USDT"})

	tick, ok := src.Tick("BTC/USDT")
	require.True(t, ok)
	assert.Equal(t, "BTC/USDT", tick.Pair)
	assert.Positive(t, tick.TsMs)

	px, err := tick.Price.Float64()
	require.NoError(t, err)
	assert.Positive(t, px)

	// Unconfigured pairs get a walker lazily.
	tick, ok = src.Tick("PEPE/USDT")
	require.True(t, ok)
	assert.Equal(t, "PEPE/USDT", tick.Pair)
}
