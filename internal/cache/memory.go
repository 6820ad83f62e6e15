package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process store. With maxEntries > 0 the
// oldest inserted key is evicted once the bound is reached; 0 means unbounded.
type MemoryStore[V any] struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // front = oldest insert
}

type memoryItem[V any] struct {
	key   string
	entry Entry[V]
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore[V any](maxEntries int) *MemoryStore[V] {
	return &MemoryStore[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (m *MemoryStore[V]) Get(_ context.Context, key string) (Entry[V], bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return Entry[V]{}, false, nil
	}
	return elem.Value.(*memoryItem[V]).entry, true, nil
}

func (m *MemoryStore[V]) Set(_ context.Context, key string, entry Entry[V]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		elem.Value.(*memoryItem[V]).entry = entry
		m.order.MoveToBack(elem)
		return nil
	}

	if m.maxEntries > 0 {
		for m.order.Len() >= m.maxEntries {
			oldest := m.order.Front()
			m.order.Remove(oldest)
			delete(m.entries, oldest.Value.(*memoryItem[V]).key)
		}
	}

	m.entries[key] = m.order.PushBack(&memoryItem[V]{key: key, entry: entry})
	return nil
}

func (m *MemoryStore[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

// Prune deletes entries created before cutoff
func (m *MemoryStore[V]) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for elem := m.order.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*memoryItem[V])
		if item.entry.CreatedAt.Before(cutoff) {
			m.order.Remove(elem)
			delete(m.entries, item.key)
			removed++
		}
		elem = next
	}
	return removed, nil
}

// Len returns the number of stored entries, fresh or not
func (m *MemoryStore[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore[V]) Close() error {
	return nil
}
