package crdt

import "github.com/boshu2/lattice-swarm/internal/clock"

// Stamp is the write and expiry turn of a SizedSet member.
type Stamp struct {
	Written int64
	Expires int64
}

// SizedSet is a capacity-bounded expiring set that prefers the earliest
// writes. At capacity, an incoming member replaces the newest occupant only
// if it orders strictly before it by (written, value); otherwise the incoming
// member is dropped. The set converges to the Capacity earliest members of
// the union of every replica merged into it.
type SizedSet[T Ordered[T]] struct {
	Entries  map[T]Stamp
	Capacity int
}

// NewSizedSet returns an empty set holding at most capacity members.
func NewSizedSet[T Ordered[T]](capacity int) SizedSet[T] {
	return SizedSet[T]{Entries: make(map[T]Stamp), Capacity: capacity}
}

// Insert records v written at now. A present member keeps its earliest write
// turn and latest expiry.
func (s *SizedSet[T]) Insert(v T, now, expires int64) {
	s.admit(v, Stamp{Written: now, Expires: expires})
}

// Contains reports membership.
func (s *SizedSet[T]) Contains(v T) bool {
	_, ok := s.Entries[v]
	return ok
}

// Get returns the stamp of v.
func (s *SizedSet[T]) Get(v T) (Stamp, bool) {
	st, ok := s.Entries[v]
	return st, ok
}

// Len returns the number of members.
func (s *SizedSet[T]) Len() int {
	return len(s.Entries)
}

// Cap returns the capacity.
func (s *SizedSet[T]) Cap() int {
	return s.Capacity
}

// Items returns the members in ascending value order.
func (s *SizedSet[T]) Items() []T {
	return sortedKeys(s.Entries)
}

// Merge admits every member of other under the capacity policy. The
// receiver's capacity applies.
func (s *SizedSet[T]) Merge(other *SizedSet[T]) error {
	for _, v := range sortedKeys(other.Entries) {
		s.admit(v, other.Entries[v])
	}
	return nil
}

// Cleanup keeps members while expires > now.
func (s *SizedSet[T]) Cleanup(now int64) {
	for v, st := range s.Entries {
		if st.Expires <= now {
			delete(s.Entries, v)
		}
	}
}

func (s *SizedSet[T]) admit(v T, st Stamp) {
	if s.Entries == nil {
		s.Entries = make(map[T]Stamp)
	}
	if cur, ok := s.Entries[v]; ok {
		cur.Written = min(cur.Written, st.Written)
		cur.Expires = max(cur.Expires, st.Expires)
		s.Entries[v] = cur
		return
	}
	if len(s.Entries) < s.Capacity {
		s.Entries[v] = st
		return
	}
	newest, ok := s.newest()
	if !ok || s.order(v, st.Written, newest) >= 0 {
		return
	}
	delete(s.Entries, newest)
	s.Entries[v] = st
}

// newest returns the occupant that orders last by (written, value).
func (s *SizedSet[T]) newest() (T, bool) {
	var (
		out   T
		found bool
	)
	for v := range s.Entries {
		if !found || s.order(v, s.Entries[v].Written, out) > 0 {
			out = v
			found = true
		}
	}
	return out, found
}

// order compares a candidate (v, written) against member m.
func (s *SizedSet[T]) order(v T, written int64, m T) int {
	if c := clock.Compare(written, s.Entries[m].Written); c != 0 {
		return c
	}
	return v.Compare(m)
}
