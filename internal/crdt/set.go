package crdt

import "slices"

// GSet is a grow-only set. Merge is union; it never shrinks.
type GSet[T comparable] struct {
	Items map[T]bool
}

// Add inserts v.
func (s *GSet[T]) Add(v T) {
	if s.Items == nil {
		s.Items = make(map[T]bool)
	}
	s.Items[v] = true
}

// Contains reports membership.
func (s *GSet[T]) Contains(v T) bool {
	return s.Items[v]
}

// Len returns the number of members.
func (s *GSet[T]) Len() int {
	return len(s.Items)
}

// Merge adds every member of other.
func (s *GSet[T]) Merge(other *GSet[T]) error {
	for v := range other.Items {
		s.Add(v)
	}
	return nil
}

// Cleanup is a no-op; grow-only sets never expire.
func (s *GSet[T]) Cleanup(int64) {}

// SortedItems returns the members of s in ascending order.
func SortedItems[T Ordered[T]](s *GSet[T]) []T {
	return sortedKeys(s.Items)
}

// ExpiringSet holds members with an expiry turn. Merge keeps the later expiry
// per member; Cleanup drops members whose expiry has been reached.
type ExpiringSet[T Ordered[T]] struct {
	Entries map[T]int64
}

// Insert adds v or extends its expiry. An earlier expiry never shortens a
// member's life.
func (s *ExpiringSet[T]) Insert(v T, expires int64) {
	if s.Entries == nil {
		s.Entries = make(map[T]int64)
	}
	if e, ok := s.Entries[v]; ok && e >= expires {
		return
	}
	s.Entries[v] = expires
}

// Contains reports membership.
func (s *ExpiringSet[T]) Contains(v T) bool {
	_, ok := s.Entries[v]
	return ok
}

// Expires returns the expiry of v.
func (s *ExpiringSet[T]) Expires(v T) (int64, bool) {
	e, ok := s.Entries[v]
	return e, ok
}

// Len returns the number of members.
func (s *ExpiringSet[T]) Len() int {
	return len(s.Entries)
}

// Items returns the members in ascending order.
func (s *ExpiringSet[T]) Items() []T {
	return sortedKeys(s.Entries)
}

// Merge takes the union, keeping the later expiry of shared members.
func (s *ExpiringSet[T]) Merge(other *ExpiringSet[T]) error {
	for v, e := range other.Entries {
		s.Insert(v, e)
	}
	return nil
}

// Cleanup keeps members while expires > now.
func (s *ExpiringSet[T]) Cleanup(now int64) {
	for v, e := range s.Entries {
		if e <= now {
			delete(s.Entries, v)
		}
	}
}

func sortedKeys[K Ordered[K], V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b K) int { return a.Compare(b) })
	return keys
}
