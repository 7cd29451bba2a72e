// clean-db wipes stored datasets from the configured backend. Without
// -dataset every key goes; with it only that dataset's chunks, meta and
// loaded flag are removed.
//
//	go run ./cmd/clean-db -config configs/oddsarchive.yaml -yes
//	go run ./cmd/clean-db -dataset opening -yes
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/Vodeneev/oddsarchive/internal/pkg/chunkstore"
	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
)

func main() {
	var (
		configPath string
		datasetArg string
		confirm    bool
	)
	flag.StringVar(&configPath, "config", "configs/oddsarchive.yaml", "Path to config file")
	flag.StringVar(&datasetArg, "dataset", "", "Only remove this dataset (closing or opening)")
	flag.BoolVar(&confirm, "yes", false, "Confirm deletion")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !confirm {
		log.Fatalf("Refusing to wipe %s storage without -yes", cfg.Storage.Backend)
	}

	kv, err := storage.Open(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer kv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if datasetArg != "" {
		dt, err := models.ParseDatasetType(datasetArg)
		if err != nil {
			log.Fatalf("Invalid -dataset: %v", err)
		}
		if err := chunkstore.New(kv).Delete(ctx, dt.Key(), dt); err != nil {
			log.Fatalf("Failed to delete %s dataset: %v", dt, err)
		}
		log.Printf("Done. Removed the %s dataset.", dt)
		return
	}

	keys, err := kv.Keys(ctx, "")
	if err != nil {
		log.Fatalf("Failed to list keys: %v", err)
	}
	if err := kv.Clear(ctx); err != nil {
		log.Fatalf("Failed to clear storage: %v", err)
	}

	log.Printf("Done. Removed %d keys from %s storage.", len(keys), cfg.Storage.Backend)
}
