package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Vodeneev/oddsarchive/internal/pkg/chunkstore"
	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/dataset"
	"github.com/Vodeneev/oddsarchive/internal/pkg/export"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
)

func main() {
	var (
		configPath string
		outDir     string
	)
	flag.StringVar(&configPath, "config", "configs/oddsarchive.yaml", "Path to config file")
	flag.StringVar(&outDir, "out", "exports", "Output directory")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	kv, err := storage.Open(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer kv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	registry := dataset.New(chunkstore.New(kv, chunkstore.WithCompression(cfg.Storage.Compress)))
	if !registry.Restore(ctx) {
		log.Fatal("Failed to read datasets from storage")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", outDir, err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	exporter := export.NewExporter()
	if !registry.Loaded() {
		log.Println("No datasets stored. Upload an export first.")
		return
	}

	for _, dt := range models.DatasetTypes {
		recs := registry.Dataset(dt)
		if len(recs) == 0 {
			continue
		}

		jsonData, err := exporter.ExportToJSON(dt, recs)
		if err != nil {
			log.Fatalf("Failed to export %s: %v", dt, err)
		}
		jsonFile := filepath.Join(outDir, fmt.Sprintf("%s_%s.json", dt, timestamp))
		if err := os.WriteFile(jsonFile, jsonData, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", jsonFile, err)
		}

		csvFile := filepath.Join(outDir, fmt.Sprintf("%s_%s.csv", dt, timestamp))
		if err := writeCSV(exporter, csvFile, dt, recs); err != nil {
			log.Fatalf("Failed to write %s: %v", csvFile, err)
		}
		log.Printf("Exported %d %s records to %s and %s", len(recs), dt, jsonFile, csvFile)
	}
}

func writeCSV(e *export.Exporter, filename string, dt models.DatasetType, recs []models.Record) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := e.WriteCSV(file, dt, recs); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
