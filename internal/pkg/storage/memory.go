package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
)

func init() {
	Register("memory", func(*config.StorageConfig) (KV, error) {
		return NewMemory(), nil
	})
}

// Memory is a process-local KV. Updates are staged and applied under one lock.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ KV = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{base: m.data, staged: make(map[string][]byte), deleted: make(map[string]bool)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for k := range tx.deleted {
		delete(m.data, k)
	}
	for k, v := range tx.staged {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

type memoryTx struct {
	base    map[string][]byte
	staged  map[string][]byte
	deleted map[string]bool
}

func (t *memoryTx) Get(key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return v, true, nil
	}
	if t.deleted[key] {
		return nil, false, nil
	}
	v, ok := t.base[key]
	return v, ok, nil
}

func (t *memoryTx) Put(key string, value []byte) error {
	t.staged[key] = append([]byte(nil), value...)
	delete(t.deleted, key)
	return nil
}

func (t *memoryTx) Delete(key string) error {
	delete(t.staged, key)
	t.deleted[key] = true
	return nil
}
