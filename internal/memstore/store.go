// Package memstore persists each agent's serialized memory between turns.
package memstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load for an agent with no saved memory.
var ErrNotFound = errors.New("memstore: not found")

// Store loads and saves opaque per-agent memory blobs.
type Store interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, b []byte) error
}

// Lister is implemented by stores that can enumerate their agents.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
