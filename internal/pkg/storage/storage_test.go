package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/Vodeneev/oddsarchive/internal/pkg/config"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	mr := miniredis.RunT(t)
	rc, err := NewRedisClient(mr.Addr(), "", 0, "test:")
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	t.Cleanup(func() { rc.Close() })

	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": sqlite,
		"redis":  rc,
	}
}

func TestKV_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
			}

			err := kv.Update(ctx, func(tx Tx) error {
				if err := tx.Put("a_meta", []byte(`{"total":1}`)); err != nil {
					return err
				}
				return tx.Put("a_0", []byte("chunk"))
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			v, ok, err := kv.Get(ctx, "a_0")
			if err != nil || !ok || string(v) != "chunk" {
				t.Fatalf("Get(a_0) = %q, %v, %v", v, ok, err)
			}

			err = kv.Update(ctx, func(tx Tx) error {
				if err := tx.Put("a_0", []byte("chunk2")); err != nil {
					return err
				}
				return tx.Delete("a_meta")
			})
			if err != nil {
				t.Fatalf("second Update() error = %v", err)
			}
			if v, _, _ := kv.Get(ctx, "a_0"); string(v) != "chunk2" {
				t.Errorf("overwrite: got %q", v)
			}
			if _, ok, _ := kv.Get(ctx, "a_meta"); ok {
				t.Error("a_meta should be deleted")
			}
		})
	}
}

func TestKV_UpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := kv.Update(ctx, func(tx Tx) error {
				if err := tx.Put("x_0", []byte("1")); err != nil {
					return err
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("Update() error = %v, want boom", err)
			}
			if _, ok, _ := kv.Get(ctx, "x_0"); ok {
				t.Error("failed Update must not persist writes")
			}
		})
	}
}

func TestKV_TxSeesOwnWrites(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := kv.Update(ctx, func(tx Tx) error {
				if err := tx.Put("k", []byte("v")); err != nil {
					return err
				}
				v, ok, err := tx.Get("k")
				if err != nil || !ok || string(v) != "v" {
					t.Errorf("tx.Get after Put = %q, %v, %v", v, ok, err)
				}
				if err := tx.Delete("k"); err != nil {
					return err
				}
				if _, ok, _ := tx.Get("k"); ok {
					t.Error("tx.Get after Delete must miss")
				}
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestKV_KeysAndClear(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := kv.Update(ctx, func(tx Tx) error {
				for _, k := range []string{"matches_closing_1", "matches_closing_0", "matches_closing_meta", "matches_opening_0", "matchesXclosing"} {
					if err := tx.Put(k, []byte("1")); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}

			got, err := kv.Keys(ctx, "matches_closing_")
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			want := []string{"matches_closing_0", "matches_closing_1", "matches_closing_meta"}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Keys() = %v, want %v", got, want)
			}

			if err := kv.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if got, _ := kv.Keys(ctx, ""); len(got) != 0 {
				t.Errorf("after Clear, keys = %v", got)
			}
		})
	}
}

func TestRedisClear_LeavesForeignKeys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	if err := mr.Set("other:key", "keep"); err != nil {
		t.Fatal(err)
	}
	rc, err := NewRedisClient(mr.Addr(), "", 0, "odds:")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	if err := rc.Update(ctx, func(tx Tx) error { return tx.Put("a", []byte("1")) }); err != nil {
		t.Fatal(err)
	}
	if err := rc.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("other:key") {
		t.Error("Clear removed a key outside the namespace")
	}
	if mr.Exists("odds:a") {
		t.Error("Clear kept a namespaced key")
	}
}

func TestOpen(t *testing.T) {
	kv, err := Open(&config.StorageConfig{Backend: "Memory"})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	kv.Close()

	if _, err := Open(&config.StorageConfig{Backend: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(etcd) error = %v, want ErrUnknownBackend", err)
	}
}
