package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS odds_kv (
	kv_key     TEXT PRIMARY KEY,
	kv_value   BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

func init() {
	Register("sqlite", func(cfg *config.StorageConfig) (KV, error) {
		return NewSQLite(cfg.DSN)
	})
}

// NewSQLite opens (creating if needed) a sqlite database file.
func NewSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One connection: sqlite serializes writers anyway, and ":memory:" would
	// otherwise give each connection its own database.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	s, err := newSQLStore(ctx, db, sqliteSchema)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("SQLite storage initialized", "path", path)
	return s, nil
}
