// Package core defines the shared entities and interfaces of the conditional
// order matcher: the order vocabulary, the repository contract, the price
// cache contract, and the logging interface every component receives.
package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// IOrderRepository is the storage contract shared by the matcher fleet and
// the HTTP surface. Implementations must be safe for concurrent use; any
// backing store (in-memory, SQL, KV) with these semantics is acceptable.
type IOrderRepository interface {
	// Create stores a fully-populated order built from req (fresh id,
	// status New, created == updated == now) and returns it.
	Create(ctx context.Context, req NewOrderRequest) (Order, error)

	// GetByID returns the order with the given id, or ErrOrderNotFound.
	GetByID(ctx context.Context, id string) (Order, error)

	// List returns the orders matching q. Filters are ANDed; see
	// ListOrdersQuery for the limit/offset conventions.
	List(ctx context.Context, q ListOrdersQuery) ([]Order, error)

	// SetStatus moves the order to status, refreshes Updated and returns
	// the new value, or ErrOrderNotFound.
	SetStatus(ctx context.Context, id string, status OrderStatus) (Order, error)

	// Delete removes the order, or returns ErrOrderNotFound.
	Delete(ctx context.Context, id string) error
}

// IPriceCache holds the most recent oracle tick per pair. One writer (the
// oracle client) and many readers (matcher workers) use it concurrently;
// readers never observe a torn tick.
type IPriceCache interface {
	// Set overwrites the entry for tick.Pair. It never rejects; within a
	// pair the last write wins.
	Set(tick Tick)

	// Price returns the latest (price, ts_ms) for pair; ok is false iff
	// no tick has ever been accepted for it.
	Price(pair string) (px decimal.Decimal, tsMs int64, ok bool)

	// Pairs returns the currently populated pairs.
	Pairs() []string
}

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
