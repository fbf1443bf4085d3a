package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	expiresAt time.Time
	value     V
}

func (e *entry[V]) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Memory is an in-memory cache with TTL-based expiration. A background
// janitor sweeps expired entries so short-lived keys do not accumulate.
type Memory[V any] struct {
	items      map[string]entry[V]
	defaultTTL time.Duration
	done       chan struct{}
	mu         sync.Mutex
	closed     bool
}

// NewMemory creates an in-memory cache with the given default TTL.
func NewMemory[V any](defaultTTL time.Duration) *Memory[V] {
	m := &Memory[V]{
		items:      make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Get retrieves a value by key.
// Returns ErrNotFound if the key does not exist or has expired.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || e.expired() {
		delete(m.items, key)
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set stores a value. A zero ttl uses the cache default.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.items[key] = entry[V]{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes a key.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Close stops the janitor and drops all entries.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.items = make(map[string]entry[V])
	return nil
}

func (m *Memory[V]) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for key, e := range m.items {
				if e.expired() {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
