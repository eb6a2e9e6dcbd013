package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"conditional_orderbook/internal/core"
	"conditional_orderbook/pkg/telemetry"
	"conditional_orderbook/pkg/websocket"
)

// ClientConfig configures the oracle websocket client
type ClientConfig struct {
	Endpoint       string
	Pair           string // optional server-side pair filter
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client subscribes to the price oracle and feeds every decoded tick into
// the cache. The underlying websocket client reconnects forever; a bad
// frame is logged and skipped, never fatal.
type Client struct {
	ws      *websocket.Client
	cache   core.IPriceCache
	logger  core.ILogger
	metrics *telemetry.MetricsHolder
}

// NewClient creates an oracle client publishing into cache
func NewClient(cfg ClientConfig, cache core.IPriceCache, logger core.ILogger) (*Client, error) {
	endpoint, err := buildEndpoint(cfg.Endpoint, cfg.Pair)
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle endpoint: %w", err)
	}

	c := &Client{
		cache:   cache,
		logger:  logger,
		metrics: telemetry.GetGlobalMetrics(),
	}

	ws := websocket.NewClient(endpoint, c.handleFrame, logger)
	if cfg.InitialBackoff > 0 && cfg.MaxBackoff > 0 {
		ws.SetBackoff(cfg.InitialBackoff, cfg.MaxBackoff)
	}
	ws.SetOnConnected(func() {
		c.logger.Info("oracle-ws: connected", "endpoint", endpoint)
	})
	ws.SetOnReconnectWait(func(d time.Duration) {
		c.metrics.OracleReconnects.Add(context.Background(), 1)
		c.logger.Warn("oracle-ws: reconnecting in", "delay", d.String())
	})
	c.ws = ws
	return c, nil
}

// Start begins the subscribe/reconnect loop
func (c *Client) Start() {
	c.ws.Start()
}

// Stop tears the connection down and stops reconnecting
func (c *Client) Stop() {
	c.ws.Stop()
}

// handleFrame decodes one text frame into a tick. Frames that do not carry
// a usable tick are warned about and dropped.
func (c *Client) handleFrame(message []byte) {
	var tick core.Tick
	if err := json.Unmarshal(message, &tick); err != nil {
		c.metrics.OracleDecodeErrors.Add(context.Background(), 1)
		c.logger.Warn("oracle-ws: bad json", "error", err, "payload", string(message))
		return
	}
	if tick.Pair == "" || !tick.Price.IsPositive() {
		c.metrics.OracleDecodeErrors.Add(context.Background(), 1)
		c.logger.Warn("oracle-ws: bad json", "error", "missing pair or non-positive price", "payload", string(message))
		return
	}

	c.cache.Set(tick)

	ctx := context.Background()
	c.metrics.OracleTicksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("pair", tick.Pair)))
	px, _ := tick.Price.Float64()
	c.metrics.SetLastPrice(tick.Pair, px)
}

// buildEndpoint appends the optional ?pair= filter to the oracle URL
func buildEndpoint(endpoint, pair string) (string, error) {
	if pair == "" {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("pair", pair)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
