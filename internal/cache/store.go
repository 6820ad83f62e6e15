// Package cache provides key/value stores for resolved phase data.
// Stores only remember when an entry was created; deciding whether an entry
// is still fresh is left to the caller.
package cache

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is a cached value and the time it was stored
type Entry[V any] struct {
	Value     V         `msgpack:"v"`
	CreatedAt time.Time `msgpack:"t"`
}

// Fresh reports whether the entry is younger than ttl at now
func (e Entry[V]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// Store is implemented by every cache backend
type Store[V any] interface {
	Get(ctx context.Context, key string) (Entry[V], bool, error)
	Set(ctx context.Context, key string, entry Entry[V]) error
	Clear(ctx context.Context) error
	Close() error
}

// Pruner is implemented by stores that can drop stale entries in bulk.
// Stores with server-side expiry don't need it.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

func encodeEntry[V any](entry Entry[V]) ([]byte, error) {
	return msgpack.Marshal(&entry)
}

func decodeEntry[V any](data []byte) (Entry[V], error) {
	var entry Entry[V]
	err := msgpack.Unmarshal(data, &entry)
	return entry, err
}
