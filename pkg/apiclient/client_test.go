package apiclient

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conditional_orderbook/internal/api"
	"conditional_orderbook/internal/config"
	"conditional_orderbook/internal/core"
	"conditional_orderbook/internal/repository"
	apperrors "conditional_orderbook/pkg/errors"
	"conditional_orderbook/pkg/logging"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger, _ := logging.NewZapLogger("ERROR")
	server := api.NewServer(config.DefaultConfig().Server, repository.NewMemoryRepository(), logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, 5*time.Second)
}

func TestOrderRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := t.Context()

	created, err := client.CreateOrder(ctx, core.NewOrderRequest{
		Pair:     "BTC/USDT",
		Side:     core.SideBuy,
		Price:    decimal.RequireFromString("100000.5"),
		Quantity: decimal.RequireFromString("0.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusNew, created.Status)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("100000.5")))

	got, err := client.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	listed, err := client.ListOrders(ctx, core.ListOrdersQuery{Pair: "BTC/USDT", Status: core.StatusNew})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	cancelled, err := client.CancelOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, cancelled.Status)

	require.NoError(t, client.DeleteOrder(ctx, created.ID))

	_, err = client.GetOrder(ctx, created.ID)
	assert.True(t, errors.Is(err, apperrors.ErrOrderNotFound), "want ErrOrderNotFound, got %v", err)
}

func TestInvalidOrderMapsToSentinel(t *testing.T) {
	client := newTestClient(t)

	_, err := client.CreateOrder(t.Context(), core.NewOrderRequest{
		Pair:     "BTC/USDT",
		Side:     core.SideBuy,
		Price:    decimal.Zero,
		Quantity: decimal.RequireFromString("1"),
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrderParameter), "want ErrInvalidOrderParameter, got %v", err)
}

func TestHealth(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.Health(t.Context()))
}
