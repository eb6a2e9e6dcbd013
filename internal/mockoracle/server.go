package mockoracle

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"conditional_orderbook/internal/core"
	"conditional_orderbook/pkg/concurrency"
)

var (
	oracleActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mock_oracle_active_connections",
		Help: "Current number of active oracle subscriber connections",
	})

	oracleRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mock_oracle_rejected_total",
		Help: "Total number of rejected oracle connections",
	}, []string{"reason"})

	oracleTicksSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mock_oracle_ticks_sent_total",
		Help: "Total number of ticks pushed to subscribers",
	}, []string{"pair"})
)

func init() {
	prometheus.MustRegister(oracleActiveConnections)
	prometheus.MustRegister(oracleRejectedTotal)
	prometheus.MustRegister(oracleTicksSentTotal)
}

// Config configures the mock oracle server
type Config struct {
	BindAddr       string
	Pairs          []string
	Interval       time.Duration
	Source         string // "walk" (default) or "binance"
	MaxConnections int
	LogLevel       string
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		BindAddr:       "127.0.0.1:9001",
		Pairs:          []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"},
		Interval:       time.Second,
		Source:         "walk",
		MaxConnections: 100,
		LogLevel:       "INFO",
	}
}

// Server pushes price ticks to websocket subscribers. Each connection gets
// its own session goroutine (bounded by a worker pool) with its own tick
// interval; `?pair=` narrows a session to a single pair.
type Server struct {
	cfg      Config
	logger   core.ILogger
	upgrader websocket.Upgrader
	sessions *concurrency.WorkerPool
	relay    *BinanceRelay

	srv *http.Server
	ln  net.Listener
	mu  sync.Mutex

	connSemaphore chan struct{}
	ipLimiters    sync.Map // map[string]*rate.Limiter
	rateLimit     rate.Limit
	rateBurst     int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a mock oracle server
func NewServer(cfg Config, logger core.ILogger) (*Server, error) {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The mock feed is open to any local consumer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: concurrency.NewWorkerPool(concurrency.PoolConfig{
			Name:        "oracle_sessions",
			MaxWorkers:  cfg.MaxConnections,
			MaxCapacity: cfg.MaxConnections,
		}, logger),
		connSemaphore: make(chan struct{}, cfg.MaxConnections),
		rateLimit:     10.0, // connections per second per IP
		rateBurst:     20,
		ctx:           ctx,
		cancel:        cancel,
	}

	switch cfg.Source {
	case "", "walk":
		// per-session walk sources, nothing shared
	case "binance":
		s.relay = NewBinanceRelay(cfg.Pairs, logger)
	default:
		cancel()
		return nil, fmt.Errorf("unknown oracle source: %s", cfg.Source)
	}
	return s, nil
}

// Start binds the listener and begins serving. It returns once the server
// is accepting connections; use Addr to discover the bound address.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.BindAddr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.srv = &http.Server{Handler: mux}
	s.mu.Unlock()

	if s.relay != nil {
		if err := s.relay.Start(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to start binance relay: %w", err)
		}
	}

	s.logger.Info("mock oracle listening",
		"addr", ln.Addr().String(),
		"pairs", s.cfg.Pairs,
		"interval", s.cfg.Interval.String(),
		"source", s.sourceName())

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("mock oracle server failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.cfg.BindAddr
	}
	return s.ln.Addr().String()
}

// Stop closes the listener, all sessions, and the relay
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	if s.relay != nil {
		s.relay.Stop()
	}

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.sessions.Stop()
	return err
}

func (s *Server) sourceName() string {
	if s.relay != nil {
		return "binance"
	}
	return "walk"
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := remoteIP(r)
	if !s.getIPLimiter(ip).Allow() {
		s.logger.Warn("IP rate limit exceeded", "ip", ip)
		oracleRejectedTotal.WithLabelValues("rate_limit").Inc()
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	select {
	case s.connSemaphore <- struct{}{}:
		oracleActiveConnections.Inc()
		defer func() {
			<-s.connSemaphore
			oracleActiveConnections.Dec()
		}()
	default:
		s.logger.Warn("max connections reached")
		oracleRejectedTotal.WithLabelValues("connection_limit").Inc()
		http.Error(w, "Server busy", http.StatusServiceUnavailable)
		return
	}

	pairs := s.cfg.Pairs
	if pair := r.URL.Query().Get("pair"); pair != "" {
		pairs = []string{pair}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sessionID := uuid.New().String()
	s.logger.Info("subscriber connected",
		"session_id", sessionID,
		"remote_addr", r.RemoteAddr,
		"pairs", pairs)

	// Run the session on the bounded pool; the handler holds the
	// semaphore slot until the session ends.
	s.sessions.SubmitAndWait(func() {
		s.session(conn, sessionID, pairs)
	})

	s.logger.Info("subscriber disconnected", "session_id", sessionID)
}

// session pushes one tick per pair per interval until the peer goes away
// or the server stops.
func (s *Server) session(conn *websocket.Conn, sessionID string, pairs []string) {
	defer conn.Close()

	var source Source
	if s.relay != nil {
		source = s.relay
	} else {
		source = newWalkSource(pairs)
	}

	// Read pump: drains inbound frames so pings get their pongs (gorilla's
	// default ping handler replies from ReadMessage) and a close frame or
	// error ends the session.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			// Inbound text/binary frames are ignored; the feed is one-way.
		}
	}()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-readerDone:
			return
		case <-ticker.C:
			for _, pair := range pairs {
				tick, ok := source.Tick(pair)
				if !ok {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(tick); err != nil {
					s.logger.Warn("tick write failed", "session_id", sessionID, "error", err)
					return
				}
				oracleTicksSentTotal.WithLabelValues(pair).Inc()
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) getIPLimiter(ip string) *rate.Limiter {
	if limiter, ok := s.ipLimiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(s.rateLimit, s.rateBurst)
	actual, _ := s.ipLimiters.LoadOrStore(ip, limiter)
	return actual.(*rate.Limiter)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
