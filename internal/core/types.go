package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "conditional_orderbook/pkg/errors"
)

// OrderSide is the direction of an order
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// ParseOrderSide parses a wire-format side value
func ParseOrderSide(s string) (OrderSide, error) {
	switch OrderSide(strings.ToLower(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidOrderSide, s)
	}
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusNew             OrderStatus = "new"
	StatusOpen            OrderStatus = "open"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusCancelled       OrderStatus = "cancelled"
)

// ActiveStatuses are the states the matcher evaluates on every tick
var ActiveStatuses = [3]OrderStatus{StatusNew, StatusOpen, StatusPartiallyFilled}

// ParseOrderStatus parses a wire-format status value
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(s)) {
	case StatusNew, StatusOpen, StatusPartiallyFilled, StatusFilled, StatusCancelled:
		return OrderStatus(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidOrderStatus, s)
	}
}

// IsTerminal reports whether no further transitions may leave the status
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Order is the central entity. Prices and quantities are decimal so that
// crossing comparisons at the boundary are exact.
type Order struct {
	ID       string          `json:"id"`
	Pair     string          `json:"pair"`
	Side     OrderSide       `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Status   OrderStatus     `json:"status"`
	Created  int64           `json:"created"`
	Updated  int64           `json:"updated"`
}

// NewOrderRequest carries the user-supplied fields of an order
type NewOrderRequest struct {
	Pair     string          `json:"pair"`
	Side     OrderSide       `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Validate checks the stored-order invariants: positive price and quantity,
// BASE/QUOTE pair, known side.
func (r NewOrderRequest) Validate() error {
	if !ValidPair(r.Pair) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidPair, r.Pair)
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidOrderSide, r.Side)
	}
	if !r.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", apperrors.ErrInvalidOrderParameter, r.Price)
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", apperrors.ErrInvalidOrderParameter, r.Quantity)
	}
	return nil
}

// NewOrder builds a fully-populated order from a request: fresh v4 UUID,
// status New, created == updated == now.
func NewOrder(req NewOrderRequest) Order {
	now := NowMillis()
	return Order{
		ID:       uuid.New().String(),
		Pair:     req.Pair,
		Side:     req.Side,
		Price:    req.Price,
		Quantity: req.Quantity,
		Status:   StatusNew,
		Created:  now,
		Updated:  now,
	}
}

// Tick is one oracle observation for a pair
type Tick struct {
	Pair  string          `json:"pair"`
	Price decimal.Decimal `json:"price"`
	TsMs  int64           `json:"ts_ms"`
}

// ListOrdersQuery filters a repository listing. Zero values mean "no filter":
// empty Pair/Status match everything, Limit <= 0 means unlimited and a
// negative Offset is treated as zero.
type ListOrdersQuery struct {
	Pair   string
	Status OrderStatus
	Limit  int64
	Offset int64
}
