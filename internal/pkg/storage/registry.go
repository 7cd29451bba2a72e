package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
)

// Factory opens a backend from storage config.
type Factory func(cfg *config.StorageConfig) (KV, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		panic("storage: empty name in Register")
	}
	if f == nil {
		panic("storage: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("storage: duplicate registration for " + n)
	}
	registry[n] = f
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open resolves cfg.Backend and opens it.
func Open(cfg *config.StorageConfig) (KV, error) {
	n := strings.ToLower(strings.TrimSpace(cfg.Backend))
	registryMu.RLock()
	f, ok := registry[n]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownBackend, cfg.Backend, AvailableNames())
	}
	return f(cfg)
}
