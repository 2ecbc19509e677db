package crdt

// Policy decides which write of a key survives a merge. It is a type
// parameter of Map so the container is written once for both policies.
type Policy interface {
	// prefer reports whether the remote write replaces the local one.
	// order is remote.Compare(local) on the values.
	prefer(local, remote int64, order int) bool
}

// LWW keeps the latest write; equal turns keep the larger value.
type LWW struct{}

func (LWW) prefer(local, remote int64, order int) bool {
	return remote > local || (remote == local && order > 0)
}

// FWW keeps the earliest write; equal turns keep the smaller value.
type FWW struct{}

func (FWW) prefer(local, remote int64, order int) bool {
	return remote < local || (remote == local && order < 0)
}

// Entry is a stored value with its write turn.
type Entry[V any] struct {
	Value   V
	Written int64
}

// Map is an ordered key/value map whose per-key conflicts are resolved by P.
// Entries never expire.
type Map[K Ordered[K], V Ordered[V], P Policy] struct {
	Entries map[K]Entry[V]
}

// Set records a local write, replacing whatever was stored under k.
func (m *Map[K, V, P]) Set(k K, v V, now int64) {
	if m.Entries == nil {
		m.Entries = make(map[K]Entry[V])
	}
	m.Entries[k] = Entry[V]{Value: v, Written: now}
}

// Get returns the value stored under k.
func (m *Map[K, V, P]) Get(k K) (V, bool) {
	e, ok := m.Entries[k]
	return e.Value, ok
}

// Written returns the write turn of k.
func (m *Map[K, V, P]) Written(k K) (int64, bool) {
	e, ok := m.Entries[k]
	return e.Written, ok
}

// Contains reports whether k has a value.
func (m *Map[K, V, P]) Contains(k K) bool {
	_, ok := m.Entries[k]
	return ok
}

// Len returns the number of keys.
func (m *Map[K, V, P]) Len() int {
	return len(m.Entries)
}

// Keys returns the keys in ascending order.
func (m *Map[K, V, P]) Keys() []K {
	return sortedKeys(m.Entries)
}

// Range calls fn for each key in ascending order until fn returns false.
func (m *Map[K, V, P]) Range(fn func(k K, v V) bool) {
	for _, k := range m.Keys() {
		if !fn(k, m.Entries[k].Value) {
			return
		}
	}
}

// Merge applies the policy per key; keys missing locally are adopted.
func (m *Map[K, V, P]) Merge(other *Map[K, V, P]) error {
	var p P
	for k, re := range other.Entries {
		le, ok := m.Entries[k]
		if !ok || p.prefer(le.Written, re.Written, re.Value.Compare(le.Value)) {
			if m.Entries == nil {
				m.Entries = make(map[K]Entry[V])
			}
			m.Entries[k] = re
		}
	}
	return nil
}

// Cleanup is a no-op; map entries only merge or overwrite.
func (m *Map[K, V, P]) Cleanup(int64) {}
