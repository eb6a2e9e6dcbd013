package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conditional_orderbook/internal/config"
	"conditional_orderbook/internal/core"
	"conditional_orderbook/internal/repository"
	"conditional_orderbook/pkg/logging"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) (*httptest.Server, core.IOrderRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	logger, _ := logging.NewZapLogger("ERROR")
	s := NewServer(config.DefaultConfig().Server, repo, logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequest(method, url, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeOrder(t *testing.T, resp *http.Response) core.Order {
	t.Helper()
	defer resp.Body.Close()
	var order core.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	return order
}

func TestCreateOrder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/orders", `{"pair":"BTC/USDT","side":"buy","price":100000.5,"quantity":0.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	order := decodeOrder(t, resp)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "BTC/USDT", order.Pair)
	assert.Equal(t, core.SideBuy, order.Side)
	assert.Equal(t, core.StatusNew, order.Status)
	assert.Equal(t, "100000.5", order.Price.String())
	assert.Equal(t, order.Created, order.Updated)
}

func TestCreateOrderValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"bad side", `{"pair":"BTC/USDT","side":"hold","price":1,"quantity":1}`},
		{"bad pair", `{"pair":"BTCUSDT","side":"buy","price":1,"quantity":1}`},
		{"zero price", `{"pair":"BTC/USDT","side":"buy","price":0,"quantity":1}`},
		{"negative quantity", `{"pair":"BTC/USDT","side":"buy","price":1,"quantity":-2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/orders", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetOrder(t *testing.T) {
	ts, repo := newTestServer(t)
	created, err := repo.Create(t.Context(), core.NewOrderRequest{
		Pair: "ETH/USDT", Side: core.SideSell,
		Price: dec("3500"), Quantity: dec("2"),
	})
	require.NoError(t, err)

	resp := doRequest(t, http.MethodGet, ts.URL+"/orders/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decodeOrder(t, resp).ID)

	resp = doRequest(t, http.MethodGet, ts.URL+"/orders/no-such-id", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOrdersFilters(t *testing.T) {
	ts, repo := newTestServer(t)
	for _, pair := range []string{"BTC/USDT", "BTC/USDT", "ETH/USDT"} {
		_, err := repo.Create(t.Context(), core.NewOrderRequest{
			Pair: pair, Side: core.SideBuy, Price: dec("10"), Quantity: dec("1"),
		})
		require.NoError(t, err)
	}

	var orders []core.Order
	resp := doRequest(t, http.MethodGet, ts.URL+"/orders?pair=BTC/USDT", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Len(t, orders, 2)

	resp = doRequest(t, http.MethodGet, ts.URL+"/orders?status=filled", "")
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Empty(t, orders)

	resp = doRequest(t, http.MethodGet, ts.URL+"/orders?status=bogus", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/orders?limit=1&offset=2", "")
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Len(t, orders, 1)
}

func TestSetOrderStatus(t *testing.T) {
	ts, repo := newTestServer(t)
	created, err := repo.Create(t.Context(), core.NewOrderRequest{
		Pair: "BTC/USDT", Side: core.SideBuy, Price: dec("10"), Quantity: dec("1"),
	})
	require.NoError(t, err)

	resp := doRequest(t, http.MethodPut, ts.URL+"/orders/"+created.ID+"/status", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeOrder(t, resp)
	assert.Equal(t, core.StatusCancelled, updated.Status)
	assert.GreaterOrEqual(t, updated.Updated, created.Updated)

	resp = doRequest(t, http.MethodPut, ts.URL+"/orders/"+created.ID+"/status", `{"status":"teleported"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPut, ts.URL+"/orders/no-such-id/status", `{"status":"cancelled"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteOrder(t *testing.T) {
	ts, repo := newTestServer(t)
	created, err := repo.Create(t.Context(), core.NewOrderRequest{
		Pair: "BTC/USDT", Side: core.SideBuy, Price: dec("10"), Quantity: dec("1"),
	})
	require.NoError(t, err)

	resp := doRequest(t, http.MethodDelete, ts.URL+"/orders/"+created.ID, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, ts.URL+"/orders/"+created.ID, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doRequest(t, http.MethodGet, ts.URL+"/health", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	assert.Equal(t, "pong", buf.String())
}
