// Package clock models the turn counter that drives every expiry and
// tie-break decision. Turns are supplied from outside once per turn; agents
// never agree on a shared clock, so the only guarantee is that a smaller
// timestamp was written earlier by convention.
package clock

import "math"

// Timestamp is a turn counter.
type Timestamp = int64

const (
	// Never is the written time of an empty slot. It loses against any
	// real write under first-writer-wins.
	Never Timestamp = math.MaxInt64
	// Expired is the expiry of an empty slot. It is never mistaken for a
	// live entry.
	Expired Timestamp = math.MinInt64
)

// Compare returns -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b Timestamp) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Clock is an agent's local view of "now". It is persisted with the rest of
// agent memory, so its fields are exported.
type Clock struct {
	Last    Timestamp
	Started bool
}

// Now returns the latest observed turn, or 0 before the first observation.
func (c *Clock) Now() Timestamp {
	return c.Last
}

// Observe adopts an externally supplied turn and returns the effective now.
// A turn earlier than one already observed is ignored so that now never
// moves backwards.
func (c *Clock) Observe(turn Timestamp) Timestamp {
	if !c.Started || turn > c.Last {
		c.Last = turn
		c.Started = true
	}
	return c.Last
}
