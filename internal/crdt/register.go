package crdt

import "github.com/boshu2/lattice-swarm/internal/clock"

// Register is an expiring first-writer-wins register. The visible value is
// the earliest written one; equal write turns are settled by the smaller
// value. The register empties once now reaches its expiry.
type Register[T Ordered[T]] struct {
	Value   T
	At      int64
	Until   int64
	Present bool
}

// Get returns the current value, if any.
func (r *Register[T]) Get() (T, bool) {
	return r.Value, r.Present
}

// Set records a local write unconditionally.
func (r *Register[T]) Set(v T, now, expires int64) {
	r.Value = v
	r.At = now
	r.Until = expires
	r.Present = true
}

// Refresh moves the expiry of the current value. It is a no-op on an empty
// register.
func (r *Register[T]) Refresh(expires int64) {
	if r.Present {
		r.Until = expires
	}
}

// Written returns the write turn, or clock.Never when empty.
func (r *Register[T]) Written() int64 {
	if !r.Present {
		return clock.Never
	}
	return r.At
}

// Expires returns the expiry turn, or clock.Expired when empty.
func (r *Register[T]) Expires() int64 {
	if !r.Present {
		return clock.Expired
	}
	return r.Until
}

// Merge keeps the write that orders first by (written, value). When both
// sides carry the same write, the later expiry survives.
func (r *Register[T]) Merge(other *Register[T]) error {
	if !other.Present {
		return nil
	}
	if !r.Present {
		*r = *other
		return nil
	}
	c := clock.Compare(r.At, other.At)
	if c == 0 {
		c = r.Value.Compare(other.Value)
	}
	switch {
	case c > 0:
		*r = *other
	case c == 0 && other.Until > r.Until:
		r.Until = other.Until
	}
	return nil
}

// Cleanup empties the register once now >= its expiry.
func (r *Register[T]) Cleanup(now int64) {
	if r.Present && now >= r.Until {
		*r = Register[T]{}
	}
}
