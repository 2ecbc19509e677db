// Package crdt provides the replicated primitives agents gossip to each other:
// a first-writer-wins register, grow-only and expiring sets, a capacity
// bounded first-writer-wins set, and a key/value map parameterized by a
// last- or first-writer-wins policy.
//
// Every type resolves conflicts only from data stored in the replica
// (timestamps, then value order), never from arrival order, so Merge is
// idempotent, commutative and associative. Cleanup is local and drops
// entries relative to the caller's turn. Zero values are ready to use.
package crdt

import "fmt"

// CRDT is the contract shared by every primitive and every composite built
// from them. T is the pointer type of the implementation.
type CRDT[T any] interface {
	// Merge folds other's observations into the receiver. Primitives never
	// fail; composites surface the first failing field.
	Merge(other T) error
	// Cleanup drops or expires entries relative to now.
	Cleanup(now int64)
}

// Ordered is a total order used for deterministic tie-breaks.
type Ordered[T any] interface {
	comparable
	Compare(other T) int
}

// Binding ties one replicated field of a composite to the same field of a
// peer's copy.
type Binding struct {
	name    string
	merge   func() error
	cleanup func(now int64)
}

// Field binds a replicated field. remote may be the same value as local when
// the binding is only used for cleanup.
func Field[T CRDT[T]](name string, local, remote T) Binding {
	return Binding{
		name:    name,
		merge:   func() error { return local.Merge(remote) },
		cleanup: local.Cleanup,
	}
}

// MergeFields merges each binding in declared order and stops at the first
// failure.
func MergeFields(fields ...Binding) error {
	for _, f := range fields {
		if err := f.merge(); err != nil {
			return fmt.Errorf("merge %s: %w", f.name, err)
		}
	}
	return nil
}

// CleanupFields cleans every binding.
func CleanupFields(now int64, fields ...Binding) {
	for _, f := range fields {
		f.cleanup(now)
	}
}
