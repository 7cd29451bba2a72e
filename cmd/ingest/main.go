// ingest loads one odds export file into the configured store without
// starting the HTTP server.
//
//	go run ./cmd/ingest -file archive.xlsx -type closing
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/ingest"
	"github.com/Vodeneev/oddsarchive/internal/pkg/logging"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/performance"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Ingest failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		file       string
		typ        string
	)
	flag.StringVar(&configPath, "config", "configs/oddsarchive.yaml", "Path to config file")
	flag.StringVar(&file, "file", "", "Path to an .xlsx or .csv export")
	flag.StringVar(&typ, "type", string(models.DatasetClosing), "Dataset type: closing or opening")
	flag.Parse()

	if file == "" {
		return fmt.Errorf("-file is required")
	}
	dt, err := models.ParseDatasetType(typ)
	if err != nil {
		return err
	}

	config.LoadDotEnv()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, closer, err := logging.SetupLogger(&cfg.Logging, "ingest"); err == nil {
		defer closer.Close()
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
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

	res, err := svc.Ingest(ctx, data, dt)
	if err != nil {
		return err
	}
	slog.Info("Dataset stored", "type", res.Type, "count", res.Count, "path", res.Path,
		"warnings", res.Warnings, "duration", res.Duration)
	performance.GetTracker().PrintSummary()
	return nil
}
