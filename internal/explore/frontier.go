package explore

import "github.com/boshu2/lattice-swarm/internal/grid"

// Frontier is an insertion-ordered set of unexplored cells adjacent to known
// passable terrain. It is local bookkeeping and never replicated.
type Frontier struct {
	Order   []grid.Loc
	Members map[grid.Loc]bool
}

// Add appends l unless already present.
func (f *Frontier) Add(l grid.Loc) {
	if f.Members[l] {
		return
	}
	if f.Members == nil {
		f.Members = make(map[grid.Loc]bool)
	}
	f.Members[l] = true
	f.Order = append(f.Order, l)
}

// Remove deletes l, preserving the order of the rest.
func (f *Frontier) Remove(l grid.Loc) {
	if !f.Members[l] {
		return
	}
	delete(f.Members, l)
	for i, o := range f.Order {
		if o == l {
			f.Order = append(f.Order[:i], f.Order[i+1:]...)
			return
		}
	}
}

// Has reports membership.
func (f *Frontier) Has(l grid.Loc) bool {
	return f.Members[l]
}

// Len returns the number of cells.
func (f *Frontier) Len() int {
	return len(f.Order)
}

// Nearest returns the cell closest to from by straight-line distance,
// ignoring cells for which skip returns true. Ties go to the earliest added.
func (f *Frontier) Nearest(from grid.Loc, skip func(grid.Loc) bool) (grid.Loc, bool) {
	var (
		best  grid.Loc
		bestD float64
		found bool
	)
	for _, l := range f.Order {
		if skip != nil && skip(l) {
			continue
		}
		d := grid.Distance(from, l)
		if !found || d < bestD {
			best, bestD, found = l, d, true
		}
	}
	return best, found
}
