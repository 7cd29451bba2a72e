package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vodeneev/oddsarchive/internal/api"
	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/health"
	"github.com/Vodeneev/oddsarchive/internal/pkg/ingest"
	"github.com/Vodeneev/oddsarchive/internal/pkg/logging"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
)

const defaultConfigPath = "configs/oddsarchive.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", envOr("CONFIG_PATH", defaultConfigPath), "Path to config file")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, closer, err := logging.SetupLogger(&cfg.Logging, "oddsarchive")
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	} else {
		defer closer.Close()
	}

	addr, err := health.AddrFor(cfg.API.Port)
	if err != nil {
		return err
	}

	kv, err := storage.Open(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer kv.Close()

	svc, err := ingest.New(cfg, kv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !svc.Restore(ctx) {
		slog.Warn("Starting with empty datasets")
	}
	if cfg.Ingest.SelfCheck {
		if err := svc.SelfCheck(ctx); err != nil {
			return fmt.Errorf("ingest self-check failed: %w", err)
		}
		slog.Info("Ingest self-check passed")
	}

	hub := api.NewHub()
	go hub.Run(ctx)

	srv := api.NewServer(&cfg.API, svc, hub)
	return health.Run(ctx, addr, "oddsarchive", srv.Handler(), cfg.API.ReadHeaderTimeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
