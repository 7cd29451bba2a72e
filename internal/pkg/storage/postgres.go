package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS odds_kv (
	kv_key     VARCHAR(500) PRIMARY KEY,
	kv_value   BYTEA NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

func init() {
	Register("postgres", func(cfg *config.StorageConfig) (KV, error) {
		return NewPostgres(cfg.DSN)
	})
}

// NewPostgres connects to PostgreSQL and creates the key/value table.
func NewPostgres(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s, err := newSQLStore(ctx, db, postgresSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("PostgreSQL storage initialized")
	return s, nil
}
