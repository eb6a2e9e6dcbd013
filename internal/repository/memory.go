// Package repository provides the order store backings behind
// core.IOrderRepository.
package repository

import (
	"context"
	"sort"
	"sync"

	"conditional_orderbook/internal/core"
	apperrors "conditional_orderbook/pkg/errors"
)

// MemoryRepository implements core.IOrderRepository in memory
type MemoryRepository struct {
	orders map[string]core.Order
	mu     sync.RWMutex
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[string]core.Order),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, req core.NewOrderRequest) (core.Order, error) {
	order := core.NewOrder(req)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return order, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (core.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return core.Order{}, apperrors.ErrOrderNotFound
	}
	return order, nil
}

func (r *MemoryRepository) List(ctx context.Context, q core.ListOrdersQuery) ([]core.Order, error) {
	r.mu.RLock()
	items := make([]core.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if q.Pair != "" && o.Pair != q.Pair {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		items = append(items, o)
	}
	r.mu.RUnlock()

	// Stable ordering so pagination windows do not shift between calls
	sort.Slice(items, func(i, j int) bool {
		if items[i].Created != items[j].Created {
			return items[i].Created < items[j].Created
		}
		return items[i].ID < items[j].ID
	})

	return paginate(items, q.Limit, q.Offset), nil
}

func (r *MemoryRepository) SetStatus(ctx context.Context, id string, status core.OrderStatus) (core.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return core.Order{}, apperrors.ErrOrderNotFound
	}
	order.Status = status
	order.Updated = core.NowMillis()
	r.orders[id] = order
	return order, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return apperrors.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

// paginate applies the limit/offset window: negative offsets clamp to zero,
// limit <= 0 means unlimited, an offset past the end yields an empty slice.
func paginate(items []core.Order, limit, offset int64) []core.Order {
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(items)) {
		return []core.Order{}
	}
	end := int64(len(items))
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
