package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore shares entries between processes through a Valkey (or Redis) server.
// Keys are namespaced with prefix and expire server-side after expiry.
type ValkeyStore[V any] struct {
	client valkey.Client
	prefix string
	expiry time.Duration
}

// NewValkeyClient connects to addr, which may be host:port or a redis:// URL
func NewValkeyClient(addr string) (valkey.Client, error) {
	opt, err := valkey.ParseURL(addr)
	if err != nil {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}
	return client, nil
}

// NewValkeyStore wraps client. expiry <= 0 disables server-side expiry.
func NewValkeyStore[V any](client valkey.Client, prefix string, expiry time.Duration) *ValkeyStore[V] {
	if prefix == "" {
		prefix = "lunarphase"
	}
	return &ValkeyStore[V]{client: client, prefix: prefix, expiry: expiry}
}

func (s *ValkeyStore[V]) Get(ctx context.Context, key string) (Entry[V], bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return Entry[V]{}, false, nil
		}
		return Entry[V]{}, false, err
	}

	entry, err := decodeEntry[V](payload)
	if err != nil {
		return Entry[V]{}, false, fmt.Errorf("error decoding cache entry %q: %w", key, err)
	}
	return entry, true, nil
}

func (s *ValkeyStore[V]) Set(ctx context.Context, key string, entry Entry[V]) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("error encoding cache entry %q: %w", key, err)
	}

	builder := s.client.B().Set().Key(s.entryKey(key)).Value(valkey.BinaryString(payload))
	var cmd valkey.Completed
	if s.expiry > 0 {
		expiry := s.expiry
		if expiry < time.Second {
			expiry = time.Second
		}
		cmd = builder.Ex(expiry).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Clear removes every key under the store's prefix
func (s *ValkeyStore[V]) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		scan, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(s.prefix+":*").Count(200).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("cache scan failed: %w", err)
		}
		if len(scan.Elements) > 0 {
			if err := s.client.Do(ctx, s.client.B().Del().Key(scan.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("cache delete failed: %w", err)
			}
		}
		if scan.Cursor == 0 {
			return nil
		}
		cursor = scan.Cursor
	}
}

func (s *ValkeyStore[V]) Close() error {
	s.client.Close()
	return nil
}

func (s *ValkeyStore[V]) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var (
	_ Store[struct{}] = (*ValkeyStore[struct{}])(nil)
	_ Store[struct{}] = (*SQLiteStore[struct{}])(nil)
	_ Store[struct{}] = (*MemoryStore[struct{}])(nil)
	_ Pruner          = (*SQLiteStore[struct{}])(nil)
	_ Pruner          = (*MemoryStore[struct{}])(nil)
)
