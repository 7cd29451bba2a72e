package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
)

func init() {
	Register("redis", func(cfg *config.StorageConfig) (KV, error) {
		return NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.KeyPrefix)
	})
}

// RedisClient stores every key under a namespace prefix. Writes of one
// Update are queued and sent as a single MULTI/EXEC block.
type RedisClient struct {
	client *redis.Client
	prefix string
}

var _ KV = (*RedisClient)(nil)

func NewRedisClient(addr, password string, db int, prefix string) (*RedisClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client, prefix: prefix}, nil
}

func (r *RedisClient) key(k string) string {
	return r.prefix + k
}

func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisClient) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx := &redisTx{ctx: ctx, r: r}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.ops) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range tx.ops {
			if op.del {
				pipe.Del(ctx, r.key(op.key))
			} else {
				pipe.Set(ctx, r.key(op.key), op.value, 0)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis transaction: %w", err)
	}
	return nil
}

// Keys lists keys under prefix with SCAN; KEYS would block the server on large stores.
func (r *RedisClient) Keys(ctx context.Context, prefix string) ([]string, error) {
	full, err := r.scan(ctx, escapeGlob(r.key(prefix))+"*")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(full))
	for _, k := range full {
		out = append(out, strings.TrimPrefix(k, r.prefix))
	}
	sort.Strings(out)
	return out, nil
}

// Clear deletes every key in the namespace, leaving other redis data alone.
func (r *RedisClient) Clear(ctx context.Context) error {
	keys, err := r.scan(ctx, escapeGlob(r.prefix)+"*")
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += 500 {
		end := min(start+500, len(keys))
		if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) scan(ctx context.Context, match string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", match, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

type redisOp struct {
	key   string
	value []byte
	del   bool
}

type redisTx struct {
	ctx context.Context
	r   *RedisClient
	ops []redisOp
}

// Get reads the committed value; queued writes of this Tx are applied on top.
func (t *redisTx) Get(key string) ([]byte, bool, error) {
	for i := len(t.ops) - 1; i >= 0; i-- {
		if t.ops[i].key == key {
			if t.ops[i].del {
				return nil, false, nil
			}
			return t.ops[i].value, true, nil
		}
	}
	return t.r.Get(t.ctx, key)
}

func (t *redisTx) Put(key string, value []byte) error {
	t.ops = append(t.ops, redisOp{key: key, value: value})
	return nil
}

func (t *redisTx) Delete(key string) error {
	t.ops = append(t.ops, redisOp{key: key, del: true})
	return nil
}
