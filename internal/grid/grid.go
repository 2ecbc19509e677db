// Package grid holds the spatial value types shared by the map substrate and
// the pathfinder.
package grid

import (
	"cmp"
	"fmt"
	"math"
)

// Loc is a cell on the world grid.
type Loc struct {
	X int32
	Y int32
}

// Compare orders locations lexicographically by X, then Y.
func (l Loc) Compare(o Loc) int {
	if c := cmp.Compare(l.X, o.X); c != 0 {
		return c
	}
	return cmp.Compare(l.Y, o.Y)
}

// Add offsets l by (dx, dy).
func (l Loc) Add(dx, dy int32) Loc {
	return Loc{X: l.X + dx, Y: l.Y + dy}
}

func (l Loc) String() string {
	return fmt.Sprintf("(%d,%d)", l.X, l.Y)
}

// Neighbors returns the 8 cells surrounding l, row by row.
func (l Loc) Neighbors() [8]Loc {
	var out [8]Loc
	i := 0
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			out[i] = l.Add(dx, dy)
			i++
		}
	}
	return out
}

// Distance is the straight-line distance between a and b.
func Distance(a, b Loc) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

// Chebyshev is the number of 8-connected steps between a and b on an open grid.
func Chebyshev(a, b Loc) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return int(max(dx, dy))
}

// Terrain is the remembered passability of a tile.
type Terrain uint8

const (
	Blocked Terrain = iota
	Open
)

// TerrainOf converts a passable flag.
func TerrainOf(passable bool) Terrain {
	if passable {
		return Open
	}
	return Blocked
}

// Passable reports whether t can be walked on.
func (t Terrain) Passable() bool { return t == Open }

func (t Terrain) Compare(o Terrain) int { return cmp.Compare(t, o) }

// Item is the name of the item last seen on a tile; the empty name means the
// tile was seen empty.
type Item string

// None records an empty tile.
const None Item = ""

func (i Item) Compare(o Item) int { return cmp.Compare(i, o) }

// Set is a plain location set used for blocked and avoided cells.
type Set map[Loc]struct{}

// NewSet builds a set from locs.
func NewSet(locs ...Loc) Set {
	s := make(Set, len(locs))
	for _, l := range locs {
		s[l] = struct{}{}
	}
	return s
}

// Add inserts l.
func (s Set) Add(l Loc) { s[l] = struct{}{} }

// Has reports membership. A nil set is empty.
func (s Set) Has(l Loc) bool {
	_, ok := s[l]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// LocSet is read-only membership over locations.
type LocSet interface {
	Has(Loc) bool
	Len() int
}

// LocMap answers what is known about a tile's passability. known is false
// when the tile has never been observed.
type LocMap interface {
	Passable(Loc) (passable, known bool)
}

// Union reports membership in either set. Len is an upper bound.
func Union(a, b LocSet) LocSet {
	return union{a, b}
}

type union struct{ a, b LocSet }

func (u union) Has(l Loc) bool {
	return (u.a != nil && u.a.Has(l)) || (u.b != nil && u.b.Has(l))
}

func (u union) Len() int {
	n := 0
	if u.a != nil {
		n += u.a.Len()
	}
	if u.b != nil {
		n += u.b.Len()
	}
	return n
}
