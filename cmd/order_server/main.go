package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"conditional_orderbook/internal/api"
	"conditional_orderbook/internal/config"
	"conditional_orderbook/internal/matcher"
	"conditional_orderbook/internal/oracle"
	"conditional_orderbook/internal/repository"
	"conditional_orderbook/pkg/logging"
	"conditional_orderbook/pkg/telemetry"
)

var (
	// Version information (set via build flags)
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (empty = built-in defaults + env)")
	addr := flag.String("addr", "", "API listen address (overrides config)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("order_server version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Telemetry first so the otelzap bridge has a live log provider.
	tel, err := telemetry.Setup("order_server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up telemetry: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobalLogger(logger)

	logger.Info("starting order_server",
		"version", version,
		"addr", cfg.Server.Addr,
		"assets", cfg.Matcher.Assets,
		"tick_interval_ms", cfg.Matcher.TickIntervalMs,
		"oracle", cfg.Oracle.Endpoint,
		"repository", cfg.Repository.Backing,
	)

	repo, closeRepo, err := repository.New(cfg.Repository)
	if err != nil {
		logger.Fatal("failed to create repository", "error", err)
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Error("failed to close repository", "error", err)
		}
	}()

	cache := oracle.NewPriceCache()

	oracleClient, err := oracle.NewClient(oracle.ClientConfig{
		Endpoint:       cfg.Oracle.Endpoint,
		Pair:           cfg.Oracle.Pair,
		InitialBackoff: time.Duration(cfg.Oracle.InitialBackoffSeconds) * time.Second,
		MaxBackoff:     time.Duration(cfg.Oracle.MaxBackoffSeconds) * time.Second,
	}, cache, logger)
	if err != nil {
		logger.Fatal("failed to create oracle client", "error", err)
	}

	fleet := matcher.NewFleet(matcher.FleetConfig{
		Assets:       cfg.Matcher.Assets,
		TickInterval: time.Duration(cfg.Matcher.TickIntervalMs) * time.Millisecond,
	}, repo, cache, logger)

	apiServer := api.NewServer(cfg.Server, repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	oracleClient.Start()
	fleet.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down")
	fleet.Stop()
	oracleClient.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", "error", err)
	}

	logger.Info("order_server stopped")
}
