package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

// Archive is an optional cold store for entries evicted from a tier.
// Writes are best-effort: a failed Put is logged by the owning System, not
// surfaced to the caller whose write triggered the eviction. Tiers stay
// bounded regardless; the archive never feeds back into retrieval.
type Archive[P any] interface {
	Put(ctx context.Context, tier string, entry MemoryEntry[P], vector []float32) error
	Get(ctx context.Context, tier, key string) (MemoryEntry[P], error)
	Close() error
}

// archivedEntry is the serialized form shared by all archive backends.
type archivedEntry[P any] struct {
	Entry  MemoryEntry[P] `json:"entry"`
	Vector []float32      `json:"vector"`
}

func archiveKey(tier, key string) []byte {
	return []byte("archive/" + tier + "/" + key)
}

// BadgerArchive keeps evicted entries in a badger key-value store.
type BadgerArchive[P any] struct {
	db *badger.DB
}

// NewBadgerArchive wraps an open badger DB. The caller owns the DB unless
// it closes the archive via Close.
func NewBadgerArchive[P any](db *badger.DB) *BadgerArchive[P] {
	return &BadgerArchive[P]{db: db}
}

// OpenBadgerArchive opens a badger store at dir and wraps it.
func OpenBadgerArchive[P any](dir string) (*BadgerArchive[P], error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("memory: open badger archive: %w", err)
	}
	return &BadgerArchive[P]{db: db}, nil
}

func (a *BadgerArchive[P]) Put(ctx context.Context, tier string, entry MemoryEntry[P], vector []float32) error {
	data, err := json.Marshal(archivedEntry[P]{Entry: entry, Vector: vector})
	if err != nil {
		return fmt.Errorf("memory: marshal archived entry: %w", err)
	}
	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(archiveKey(tier, entry.Key), data)
	})
	if err != nil {
		return fmt.Errorf("memory: badger archive put: %w", err)
	}
	return nil
}

func (a *BadgerArchive[P]) Get(ctx context.Context, tier, key string) (MemoryEntry[P], error) {
	var stored archivedEntry[P]
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(archiveKey(tier, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return stored.Entry, fmt.Errorf("%w: %s/%s", ErrNotFound, tier, key)
	}
	if err != nil {
		return stored.Entry, fmt.Errorf("memory: badger archive get: %w", err)
	}
	return stored.Entry, nil
}

func (a *BadgerArchive[P]) Close() error {
	return a.db.Close()
}

// RedisArchive keeps evicted entries in redis.
type RedisArchive[P any] struct {
	client *redis.Client
	prefix string
}

// NewRedisArchive wraps a redis client. An empty prefix defaults to
// "continuum".
func NewRedisArchive[P any](client *redis.Client, prefix string) *RedisArchive[P] {
	if prefix == "" {
		prefix = "continuum"
	}
	return &RedisArchive[P]{client: client, prefix: prefix}
}

func (a *RedisArchive[P]) key(tier, key string) string {
	return a.prefix + ":archive:" + tier + ":" + key
}

func (a *RedisArchive[P]) Put(ctx context.Context, tier string, entry MemoryEntry[P], vector []float32) error {
	data, err := json.Marshal(archivedEntry[P]{Entry: entry, Vector: vector})
	if err != nil {
		return fmt.Errorf("memory: marshal archived entry: %w", err)
	}
	if err := a.client.Set(ctx, a.key(tier, entry.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("memory: redis archive put: %w", err)
	}
	return nil
}

func (a *RedisArchive[P]) Get(ctx context.Context, tier, key string) (MemoryEntry[P], error) {
	var stored archivedEntry[P]
	data, err := a.client.Get(ctx, a.key(tier, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return stored.Entry, fmt.Errorf("%w: %s/%s", ErrNotFound, tier, key)
	}
	if err != nil {
		return stored.Entry, fmt.Errorf("memory: redis archive get: %w", err)
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return stored.Entry, fmt.Errorf("memory: unmarshal archived entry: %w", err)
	}
	return stored.Entry, nil
}

func (a *RedisArchive[P]) Close() error {
	return a.client.Close()
}
