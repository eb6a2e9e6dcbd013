package apperrors

import "errors"

// Standardized Order Service Errors
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrDuplicateClientOrderID = errors.New("duplicate client order id")
	ErrInvalidOrderParameter  = errors.New("invalid order parameter")
	ErrInvalidOrderSide       = errors.New("invalid order side")
	ErrInvalidOrderStatus     = errors.New("invalid order status")
	ErrInvalidPair            = errors.New("invalid pair")
	ErrNoPrice                = errors.New("no oracle price for pair")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
	ErrNetwork                = errors.New("network error")
)
