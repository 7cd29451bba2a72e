// Package chunkstore persists record datasets as fixed-size chunks plus a
// metadata entry on top of a storage.KV.
//
// Layout for a dataset key K:
//
//	K_meta          DatasetMeta
//	K_0 .. K_{n-1}  up to ChunkSize records each
//	loaded_<type>   true
//
// A bare K entry is the pre-chunking format; it is read when no meta exists
// and deleted by every write.
package chunkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Vodeneev/oddsarchive/internal/pkg/models"
	"github.com/Vodeneev/oddsarchive/internal/pkg/storage"
)

// DefaultChunkSize is the number of records per chunk.
const DefaultChunkSize = 2000

var (
	// ErrChunkMissing means a meta entry promises a chunk that is not stored.
	ErrChunkMissing = errors.New("dataset chunk missing")
	// ErrChunkCorrupt means the stored chunks do not add up to what the meta describes.
	ErrChunkCorrupt = errors.New("dataset chunks do not match meta")
)

// Store reads and writes chunked datasets.
type Store struct {
	kv        storage.KV
	chunkSize int
	codec     codec
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize sets the number of records per chunk for new writes.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithCompression zstd-compresses chunk values on write.
func WithCompression(on bool) Option {
	return func(s *Store) {
		if on {
			s.codec = zstdCodec{}
		} else {
			s.codec = jsonCodec{}
		}
	}
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{kv: kv, chunkSize: DefaultChunkSize, codec: jsonCodec{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ChunkSize returns the configured records per chunk.
func (s *Store) ChunkSize() int {
	return s.chunkSize
}

func metaKey(key string) string {
	return key + "_meta"
}

func chunkKey(key string, i int) string {
	return key + "_" + strconv.Itoa(i)
}

// LoadedKey is the flag written for a dataset type.
func LoadedKey(dt models.DatasetType) string {
	return "loaded_" + string(dt)
}

// ChunkCount returns ceil(total / size).
func ChunkCount(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Write replaces the dataset stored under key with records in one
// transaction. Chunks left over from a larger previous write are removed.
// The loaded flag is only set when dt is not empty.
func (s *Store) Write(ctx context.Context, key string, records []models.Record, dt models.DatasetType) error {
	size := s.chunkSize
	chunks := ChunkCount(len(records), size)
	meta := models.DatasetMeta{
		Total:     len(records),
		Chunks:    chunks,
		Type:      dt,
		ChunkSize: size,
		Encoding:  s.codec.name(),
		WrittenAt: time.Now().UTC(),
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	encoded := make([][]byte, chunks)
	for i := range chunks {
		end := min((i+1)*size, len(records))
		b, err := s.codec.encode(records[i*size : end])
		if err != nil {
			return fmt.Errorf("failed to encode chunk %d: %w", i, err)
		}
		encoded[i] = b
	}

	err = s.kv.Update(ctx, func(tx storage.Tx) error {
		if err := tx.Delete(key); err != nil {
			return err
		}

		prev, err := readMeta(tx.Get, key)
		if err != nil {
			return err
		}
		if prev != nil {
			for i := chunks; i < prev.Chunks; i++ {
				if err := tx.Delete(chunkKey(key, i)); err != nil {
					return err
				}
			}
		}

		if err := tx.Put(metaKey(key), metaBytes); err != nil {
			return err
		}
		for i, b := range encoded {
			if err := tx.Put(chunkKey(key, i), b); err != nil {
				return err
			}
		}
		if dt == "" {
			return nil
		}
		return tx.Put(LoadedKey(dt), []byte("true"))
	})
	if err != nil {
		return fmt.Errorf("write dataset %s: %w", key, err)
	}

	slog.Debug("Dataset written", "key", key, "total", meta.Total, "chunks", meta.Chunks, "encoding", meta.Encoding)
	return nil
}

// Meta returns the stored meta for key, or nil when none exists.
func (s *Store) Meta(ctx context.Context, key string) (*models.DatasetMeta, error) {
	return readMeta(func(k string) ([]byte, bool, error) { return s.kv.Get(ctx, k) }, key)
}

func readMeta(get func(string) ([]byte, bool, error), key string) (*models.DatasetMeta, error) {
	b, ok, err := get(metaKey(key))
	if err != nil {
		return nil, fmt.Errorf("read meta %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	var meta models.DatasetMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("decode meta %s: %w", key, err)
	}
	return &meta, nil
}

// Read returns every record stored under key in chunk order. A key with no
// meta falls back to the legacy single-entry format and is otherwise empty.
// A chunk promised by the meta but absent fails the read with ErrChunkMissing;
// a record count that disagrees with the meta fails it with ErrChunkCorrupt.
func (s *Store) Read(ctx context.Context, key string) ([]models.Record, error) {
	meta, err := s.Meta(ctx, key)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return s.readLegacy(ctx, key)
	}
	if meta.ChunkSize > 0 && meta.Chunks != ChunkCount(meta.Total, meta.ChunkSize) {
		return nil, fmt.Errorf("%w: %s meta has %d chunks for %d records of %d",
			ErrChunkCorrupt, key, meta.Chunks, meta.Total, meta.ChunkSize)
	}

	dec, err := codecFor(meta.Encoding)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", key, err)
	}

	out := make([]models.Record, 0, meta.Total)
	for i := range meta.Chunks {
		b, ok, err := s.kv.Get(ctx, chunkKey(key, i))
		if err != nil {
			return nil, fmt.Errorf("read chunk %d of %s: %w", i, key, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s chunk %d of %d", ErrChunkMissing, key, i, meta.Chunks)
		}
		recs, err := dec.decode(b)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d of %s: %w", i, key, err)
		}
		out = append(out, recs...)
	}

	if len(out) != meta.Total {
		return nil, fmt.Errorf("%w: %s holds %d records, meta says %d", ErrChunkCorrupt, key, len(out), meta.Total)
	}
	return out, nil
}

func (s *Store) readLegacy(ctx context.Context, key string) ([]models.Record, error) {
	b, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return []models.Record{}, nil
	}
	var recs []models.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("decode legacy %s: %w", key, err)
	}
	return recs, nil
}

// Has reports whether key has stored meta.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	meta, err := s.Meta(ctx, key)
	return meta != nil, err
}

// Loaded reports the loaded_<type> flag.
func (s *Store) Loaded(ctx context.Context, dt models.DatasetType) (bool, error) {
	b, ok, err := s.kv.Get(ctx, LoadedKey(dt))
	if err != nil || !ok {
		return false, err
	}
	return string(b) == "true", nil
}

// Delete removes one dataset: its chunks, meta, legacy entry and loaded flag.
func (s *Store) Delete(ctx context.Context, key string, dt models.DatasetType) error {
	chunkKeys, err := s.kv.Keys(ctx, key+"_")
	if err != nil {
		return err
	}
	return s.kv.Update(ctx, func(tx storage.Tx) error {
		for _, k := range chunkKeys {
			if _, err := strconv.Atoi(k[len(key)+1:]); err != nil && k != metaKey(key) {
				continue
			}
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Delete(LoadedKey(dt))
	})
}

// Clear wipes the whole store, both datasets and anything else in it.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}
