package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Memory is a thread-safe in-memory Store.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	ttls  map[string]time.Time // agent ID → expiry time
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Memory store.
type Option func(*Memory)

// WithTTL expires every saved blob ttl after its last save (requires
// StartReaper to be running).
func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) { m.ttl = ttl }
}

// WithNow overrides the wall clock used for expiry.
func WithNow(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		blobs: make(map[string][]byte),
		ttls:  make(map[string]time.Time),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns a copy of the blob saved for id.
func (m *Memory) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, ErrNotFound)
	}
	return slices.Clone(b), nil
}

// Save stores a copy of b for id, replacing any earlier blob.
func (m *Memory) Save(_ context.Context, id string, b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[id] = slices.Clone(b)
	if m.ttl > 0 {
		m.ttls[id] = m.now().Add(m.ttl)
	}
	return nil
}

// Delete removes the blob for id. Returns an error if not found.
func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[id]; !ok {
		return fmt.Errorf("agent %q: %w", id, ErrNotFound)
	}
	delete(m.blobs, id)
	delete(m.ttls, id)
	return nil
}

// List returns the saved agent IDs in ascending order.
func (m *Memory) List(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.blobs))
	for id := range m.blobs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// StartReaper deletes expired blobs every interval until ctx is cancelled.
func (m *Memory) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Memory) reap() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, expiry := range m.ttls {
		if now.After(expiry) {
			delete(m.blobs, id)
			delete(m.ttls, id)
			n++
		}
	}
	return n
}
