package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps every key in one table. The same statements serve sqlite and
// postgres; placeholders are rebound per driver.
type SQLStore struct {
	db *sqlx.DB

	qGet    string
	qPut    string
	qDelete string
	qKeys   string
	qClear  string
}

var _ KV = (*SQLStore)(nil)

func newSQLStore(ctx context.Context, db *sqlx.DB, schema string) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLStore{
		db:      db,
		qGet:    db.Rebind(`SELECT kv_value FROM odds_kv WHERE kv_key = ?`),
		qPut:    db.Rebind(`INSERT INTO odds_kv (kv_key, kv_value, updated_at) VALUES (?, ?, ?) ON CONFLICT (kv_key) DO UPDATE SET kv_value = excluded.kv_value, updated_at = excluded.updated_at`),
		qDelete: db.Rebind(`DELETE FROM odds_kv WHERE kv_key = ?`),
		qKeys:   db.Rebind(`SELECT kv_key FROM odds_kv WHERE substr(kv_key, 1, ?) = ? ORDER BY kv_key`),
		qClear:  `DELETE FROM odds_kv`,
	}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.GetContext(ctx, &v, s.qGet, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) Update(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&sqlTx{ctx: ctx, tx: tx, s: s}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, s.qKeys, len(prefix), prefix); err != nil {
		return nil, fmt.Errorf("list keys %q: %w", prefix, err)
	}
	return keys, nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.qClear); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	ctx context.Context
	tx  *sqlx.Tx
	s   *SQLStore
}

func (t *sqlTx) Get(key string) ([]byte, bool, error) {
	var v []byte
	err := t.tx.GetContext(t.ctx, &v, t.s.qGet, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (t *sqlTx) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := t.tx.ExecContext(t.ctx, t.s.qPut, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (t *sqlTx) Delete(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, t.s.qDelete, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
