package benchmarks

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"conditional_orderbook/internal/core"
	"conditional_orderbook/internal/oracle"
	"conditional_orderbook/internal/repository"
)

func BenchmarkPriceCacheSet(b *testing.B) {
	cache := oracle.NewPriceCache()
	tick := core.Tick{Pair: "BTC/USDT", Price: decimal.New(105000, 0), TsMs: 1700000000000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tick.TsMs++
		cache.Set(tick)
	}
}

func BenchmarkPriceCacheReadUnderWrite(b *testing.B) {
	cache := oracle.NewPriceCache()
	cache.Set(core.Tick{Pair: "BTC/USDT", Price: decimal.New(105000, 0), TsMs: 1})

	stop := make(chan struct{})
	go func() {
		tick := core.Tick{Pair: "BTC/USDT", Price: decimal.New(105000, 0)}
		for {
			select {
			case <-stop:
				return
			default:
				tick.TsMs++
				cache.Set(tick)
			}
		}
	}()
	defer close(stop)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, _, ok := cache.Price("BTC/USDT"); !ok {
				b.Fatal("price disappeared")
			}
		}
	})
}

func BenchmarkRepositoryListByStatus(b *testing.B) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		_, _ = repo.Create(ctx, core.NewOrderRequest{
			Pair:     "BTC/USDT",
			Side:     core.SideBuy,
			Price:    decimal.New(int64(100000+i), 0),
			Quantity: decimal.New(1, 0),
		})
	}

	q := core.ListOrdersQuery{Pair: "BTC/USDT", Status: core.StatusNew}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.List(ctx, q); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSetStatus(b *testing.B) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	ids := make([]string, b.N)
	for i := range ids {
		o, _ := repo.Create(ctx, core.NewOrderRequest{
			Pair:     "BTC/USDT",
			Side:     core.SideSell,
			Price:    decimal.New(int64(i+1), 0),
			Quantity: decimal.New(1, 0),
		})
		ids[i] = o.ID
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.SetStatus(ctx, ids[i], core.StatusFilled); err != nil {
			b.Fatal(err)
		}
	}
}
