// Package apiclient is a typed client for the conditional order HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"conditional_orderbook/internal/core"
	apperrors "conditional_orderbook/pkg/errors"
	pkghttp "conditional_orderbook/pkg/http"
)

// Client talks to one order server over the resilient HTTP client
type Client struct {
	http *pkghttp.Client
}

// New creates a client for the server at baseURL (e.g. http://127.0.0.1:8080)
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: pkghttp.NewClient(baseURL, timeout),
	}
}

// CreateOrder submits a new order and returns the stored entity
func (c *Client) CreateOrder(ctx context.Context, req core.NewOrderRequest) (core.Order, error) {
	body, err := c.http.Post(ctx, "/orders", req)
	if err != nil {
		return core.Order{}, mapAPIError(err)
	}
	return decodeOrder(body)
}

// GetOrder fetches one order by id
func (c *Client) GetOrder(ctx context.Context, id string) (core.Order, error) {
	body, err := c.http.Get(ctx, "/orders/"+id, nil)
	if err != nil {
		return core.Order{}, mapAPIError(err)
	}
	return decodeOrder(body)
}

// ListOrders lists orders matching the query filters
func (c *Client) ListOrders(ctx context.Context, q core.ListOrdersQuery) ([]core.Order, error) {
	params := map[string]string{}
	if q.Pair != "" {
		params["pair"] = q.Pair
	}
	if q.Status != "" {
		params["status"] = string(q.Status)
	}
	if q.Limit > 0 {
		params["limit"] = strconv.FormatInt(q.Limit, 10)
	}
	if q.Offset > 0 {
		params["offset"] = strconv.FormatInt(q.Offset, 10)
	}

	body, err := c.http.Get(ctx, "/orders", params)
	if err != nil {
		return nil, mapAPIError(err)
	}

	var orders []core.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode order list: %w", err)
	}
	return orders, nil
}

// SetOrderStatus moves an order to the given status
func (c *Client) SetOrderStatus(ctx context.Context, id string, status core.OrderStatus) (core.Order, error) {
	body, err := c.http.Put(ctx, "/orders/"+id+"/status", map[string]string{"status": string(status)})
	if err != nil {
		return core.Order{}, mapAPIError(err)
	}
	return decodeOrder(body)
}

// CancelOrder cancels an order
func (c *Client) CancelOrder(ctx context.Context, id string) (core.Order, error) {
	return c.SetOrderStatus(ctx, id, core.StatusCancelled)
}

// DeleteOrder removes an order
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if _, err := c.http.Delete(ctx, "/orders/"+id); err != nil {
		return mapAPIError(err)
	}
	return nil
}

// Health pings the server
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.http.Get(ctx, "/health", nil); err != nil {
		return mapAPIError(err)
	}
	return nil
}

func decodeOrder(body []byte) (core.Order, error) {
	var order core.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return core.Order{}, fmt.Errorf("failed to decode order: %w", err)
	}
	return order, nil
}

// mapAPIError turns HTTP status errors into the domain sentinels callers
// check with errors.Is.
func mapAPIError(err error) error {
	var apiErr *pkghttp.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, apiErr.Body)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidOrderParameter, apiErr.Body)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", apperrors.ErrRateLimitExceeded, apiErr.Body)
		}
	}
	return err
}
