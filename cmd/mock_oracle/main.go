package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"conditional_orderbook/internal/mockoracle"
	"conditional_orderbook/pkg/logging"
	"conditional_orderbook/pkg/telemetry"
)

var (
	// Version information (set via build flags)
	version   = "dev"
	buildTime = "unknown"
)

// loadConfig resolves defaults, then BIND_ADDR / PAIRS / INTERVAL_MS from
// the environment, then any explicitly set flags.
func loadConfig() mockoracle.Config {
	cfg := mockoracle.DefaultConfig()

	if v := os.Getenv("BIND_ADDR"); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv("PAIRS"); v != "" {
		cfg.Pairs = splitPairs(v)
	}
	if v := os.Getenv("INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Interval = time.Duration(ms) * time.Millisecond
		}
	}

	addr := flag.String("addr", cfg.BindAddr, "Listen address")
	pairs := flag.String("pairs", strings.Join(cfg.Pairs, ","), "Comma-separated pair list")
	intervalMs := flag.Int("interval", int(cfg.Interval/time.Millisecond), "Tick interval in milliseconds")
	source := flag.String("source", cfg.Source, "Price source: walk or binance")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mock_oracle version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg.BindAddr = *addr
	cfg.Pairs = splitPairs(*pairs)
	if *intervalMs > 0 {
		cfg.Interval = time.Duration(*intervalMs) * time.Millisecond
	}
	cfg.Source = *source
	cfg.LogLevel = *logLevel
	return cfg
}

func splitPairs(s string) []string {
	var pairs []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func main() {
	cfg := loadConfig()

	logger, err := logging.NewZapLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := telemetry.InitMetrics(); err != nil {
		logger.Fatal("failed to init metrics", "error", err)
	}

	logger.Info("starting mock_oracle", "version", version)

	server, err := mockoracle.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	if err := server.Start(); err != nil {
		logger.Fatal("failed to start server", "error", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.Info("received shutdown signal, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}

	logger.Info("mock_oracle stopped")
}
