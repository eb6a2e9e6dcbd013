package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"conditional_orderbook/internal/config"
	"conditional_orderbook/internal/core"
	apperrors "conditional_orderbook/pkg/errors"
)

func configFor(backing, path string) config.RepositoryConfig {
	return config.RepositoryConfig{Backing: backing, SQLitePath: path}
}

// withBackings runs the same contract assertions against every backing.
func withBackings(t *testing.T, fn func(t *testing.T, repo core.IOrderRepository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryRepository())
	})

	t.Run("sqlite", func(t *testing.T) {
		repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "orders.db"))
		if err != nil {
			t.Fatalf("failed to open sqlite repository: %v", err)
		}
		defer repo.Close()
		fn(t, repo)
	})
}

func mustCreate(t *testing.T, repo core.IOrderRepository, pair string, side core.OrderSide, price string) core.Order {
	t.Helper()
	order, err := repo.Create(context.Background(), core.NewOrderRequest{
		Pair:     pair,
		Side:     side,
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString("1"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return order
}

func TestCreateAndGetByID(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		created := mustCreate(t, repo, "BTC/USDT", core.SideBuy, "100000.10")

		if created.ID == "" {
			t.Fatal("expected generated id")
		}
		if created.Status != core.StatusNew {
			t.Errorf("status = %s, want new", created.Status)
		}

		got, err := repo.GetByID(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Pair != "BTC/USDT" || got.Side != core.SideBuy {
			t.Errorf("round trip lost fields: %+v", got)
		}
		if !got.Price.Equal(decimal.RequireFromString("100000.10")) {
			t.Errorf("price = %s, want 100000.10", got.Price)
		}
		if got.Created != created.Created || got.Updated != created.Updated {
			t.Errorf("timestamps changed in round trip: %+v vs %+v", got, created)
		}
	})
}

func TestGetByIDNotFound(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		_, err := repo.GetByID(context.Background(), "missing-id")
		if !errors.Is(err, apperrors.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestListFiltersArePairAndStatus(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		ctx := context.Background()

		btc := mustCreate(t, repo, "BTC/USDT", core.SideBuy, "100")
		mustCreate(t, repo, "ETH/USDT", core.SideBuy, "10")
		sol := mustCreate(t, repo, "SOL/USDT", core.SideSell, "5")

		if _, err := repo.SetStatus(ctx, sol.ID, core.StatusOpen); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}

		// Pair filter only
		got, err := repo.List(ctx, core.ListOrdersQuery{Pair: "BTC/USDT"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != btc.ID {
			t.Errorf("pair filter returned %+v", got)
		}

		// Status filter only
		got, err = repo.List(ctx, core.ListOrdersQuery{Status: core.StatusOpen})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != sol.ID {
			t.Errorf("status filter returned %+v", got)
		}

		// Both filters AND together
		got, err = repo.List(ctx, core.ListOrdersQuery{Pair: "BTC/USDT", Status: core.StatusOpen})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("AND filter returned %+v", got)
		}

		// No filters: everything
		got, err = repo.List(ctx, core.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("unfiltered list returned %d orders", len(got))
		}
	})
}

func TestListPagination(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			mustCreate(t, repo, "BTC/USDT", core.SideBuy, fmt.Sprintf("%d", 100+i))
		}

		all, err := repo.List(ctx, core.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 5 {
			t.Fatalf("expected 5 orders, got %d", len(all))
		}

		cases := []struct {
			name          string
			limit, offset int64
			wantIDs       []string
		}{
			{"limit window", 2, 0, []string{all[0].ID, all[1].ID}},
			{"offset window", 2, 2, []string{all[2].ID, all[3].ID}},
			{"limit past end", 10, 3, []string{all[3].ID, all[4].ID}},
			{"zero limit means unlimited", 0, 0, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID, all[4].ID}},
			{"negative limit means unlimited", -1, 0, []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID, all[4].ID}},
			{"negative offset clamps to zero", 1, -3, []string{all[0].ID}},
			{"offset past end", 2, 9, []string{}},
			{"offset at size", 2, 5, []string{}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := repo.List(ctx, core.ListOrdersQuery{Limit: tc.limit, Offset: tc.offset})
				if err != nil {
					t.Fatalf("List failed: %v", err)
				}
				if len(got) != len(tc.wantIDs) {
					t.Fatalf("got %d orders, want %d", len(got), len(tc.wantIDs))
				}
				for i := range got {
					if got[i].ID != tc.wantIDs[i] {
						t.Errorf("order #%d = %s, want %s", i, got[i].ID, tc.wantIDs[i])
					}
				}
			})
		}
	})
}

func TestListOrderingIsStable(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		ctx := context.Background()
		for i := 0; i < 10; i++ {
			mustCreate(t, repo, "BTC/USDT", core.SideBuy, "100")
		}

		first, err := repo.List(ctx, core.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for n := 0; n < 5; n++ {
			again, err := repo.List(ctx, core.ListOrdersQuery{})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			for i := range first {
				if again[i].ID != first[i].ID {
					t.Fatalf("ordering changed between calls at index %d", i)
				}
			}
		}
	})
}

func TestSetStatus(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		ctx := context.Background()
		created := mustCreate(t, repo, "BTC/USDT", core.SideBuy, "100")

		updated, err := repo.SetStatus(ctx, created.ID, core.StatusFilled)
		if err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		if updated.Status != core.StatusFilled {
			t.Errorf("status = %s, want filled", updated.Status)
		}
		if updated.Updated < created.Updated {
			t.Errorf("updated timestamp went backwards: %d < %d", updated.Updated, created.Updated)
		}

		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Status != core.StatusFilled {
			t.Errorf("persisted status = %s, want filled", got.Status)
		}

		_, err = repo.SetStatus(ctx, "missing-id", core.StatusOpen)
		if !errors.Is(err, apperrors.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	withBackings(t, func(t *testing.T, repo core.IOrderRepository) {
		ctx := context.Background()
		created := mustCreate(t, repo, "BTC/USDT", core.SideBuy, "100")

		if err := repo.Delete(ctx, created.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, apperrors.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, created.ID); !errors.Is(err, apperrors.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound on second delete, got %v", err)
		}
	})
}

func TestMemoryRepositoryConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				order, err := repo.Create(ctx, core.NewOrderRequest{
					Pair:     "BTC/USDT",
					Side:     core.SideBuy,
					Price:    decimal.NewFromInt(100),
					Quantity: decimal.NewFromInt(1),
				})
				if err != nil {
					t.Errorf("Create failed: %v", err)
					return
				}
				if _, err := repo.SetStatus(ctx, order.ID, core.StatusOpen); err != nil {
					t.Errorf("SetStatus failed: %v", err)
					return
				}
				if _, err := repo.List(ctx, core.ListOrdersQuery{Pair: "BTC/USDT"}); err != nil {
					t.Errorf("List failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	all, err := repo.List(ctx, core.ListOrdersQuery{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 8*50 {
		t.Errorf("expected %d orders, got %d", 8*50, len(all))
	}
}

func TestFactorySelectsBacking(t *testing.T) {
	repo, closer, err := New(configFor("memory", ""))
	if err != nil {
		t.Fatalf("memory factory failed: %v", err)
	}
	if _, ok := repo.(*MemoryRepository); !ok {
		t.Errorf("expected MemoryRepository, got %T", repo)
	}
	_ = closer()

	path := filepath.Join(t.TempDir(), "orders.db")
	repo, closer, err = New(configFor("sqlite", path))
	if err != nil {
		t.Fatalf("sqlite factory failed: %v", err)
	}
	if _, ok := repo.(*SQLiteRepository); !ok {
		t.Errorf("expected SQLiteRepository, got %T", repo)
	}
	_ = closer()

	if _, _, err := New(configFor("postgres", "")); err == nil {
		t.Error("expected error for unknown backing")
	}
}
