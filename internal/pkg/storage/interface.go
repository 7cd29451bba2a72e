package storage

import (
	"context"
	"errors"
)

// ErrUnknownBackend is returned by Open for an unregistered backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// KV is a durable byte-valued key/value store with atomic multi-key updates.
type KV interface {
	// Get returns the value at key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Update runs fn inside one transaction. Writes become visible only if fn
	// returns nil and the commit succeeds; otherwise nothing is persisted.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Keys lists stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Tx is the write side of one Update call.
type Tx interface {
	// Get reads key. Backends without read isolation may not see writes queued earlier in the same Tx.
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
}
