package nav

import (
	"log/slog"

	"github.com/boshu2/lattice-swarm/internal/grid"
	"github.com/boshu2/lattice-swarm/internal/world"
)

// Path is a cached route from the next step to the goal, excluding the
// agent's current cell.
type Path []grid.Loc

// Goal returns the final waypoint.
func (p Path) Goal() (grid.Loc, bool) {
	if len(p) == 0 {
		return grid.Loc{}, false
	}
	return p[len(p)-1], true
}

// Pop removes and returns the next step.
func (p *Path) Pop() (grid.Loc, bool) {
	if len(*p) == 0 {
		return grid.Loc{}, false
	}
	next := (*p)[0]
	*p = (*p)[1:]
	return next, true
}

// Crosses reports whether any waypoint is blocked or avoided.
func (p Path) Crosses(blocked, avoid grid.LocSet) bool {
	for _, l := range p {
		if contains(blocked, l) || contains(avoid, l) {
			return true
		}
	}
	return false
}

// Navigator keeps a cached path valid and turns it into move commands.
type Navigator struct {
	Planner Planner
}

// MoveTowards returns a move to the next step towards goal. The cached path
// is discarded and recomputed when it leads elsewhere, crosses a blocked or
// avoided cell, runs into a cell since found impassable, or no longer starts
// next to self. ok is false when there is
// no route; the agent then stays put.
func (n Navigator) MoveTowards(path *Path, self, goal grid.Loc, known grid.LocMap, blocked, avoid grid.LocSet) (world.Command, bool) {
	if !n.valid(*path, self, goal, known, blocked, avoid) {
		route, ok := n.Planner.Route(self, goal, known, blocked, avoid)
		if !ok {
			*path = nil
			slog.Debug("no path", "from", self, "goal", goal)
			return world.Nothing(), false
		}
		*path = route
		slog.Debug("path recomputed", "from", self, "goal", goal, "steps", len(route))
	}
	next, ok := path.Pop()
	if !ok {
		return world.Nothing(), false
	}
	return world.Move(next), true
}

func (n Navigator) valid(p Path, self, goal grid.Loc, known grid.LocMap, blocked, avoid grid.LocSet) bool {
	last, ok := p.Goal()
	if !ok || last != goal {
		return false
	}
	if grid.Chebyshev(self, p[0]) != 1 {
		return false
	}
	if p.Crosses(blocked, avoid) {
		return false
	}
	// Cells that were unknown at planning time may have turned out to be walls.
	for _, l := range p {
		if !enterable(l, known, nil) {
			return false
		}
	}
	return true
}

// Exit is the item name of a level exit; agents never path through it.
const Exit = "Exit"

// AvoidanceSets derives the hard-blocked and soft-avoided cells from an
// observation. Visible creatures and impassable or exit items are blocked;
// every cell within margin (Chebyshev) of a creature is avoided.
func AvoidanceSets(obs *world.Observation, margin int32) (blocked, avoid grid.Set) {
	blocked = grid.NewSet()
	avoid = grid.NewSet()
	for _, c := range obs.Creatures {
		blocked.Add(c.Loc)
		for dx := -margin; dx <= margin; dx++ {
			for dy := -margin; dy <= margin; dy++ {
				avoid.Add(c.Loc.Add(dx, dy))
			}
		}
	}
	for _, it := range obs.Items {
		if !it.Passable || it.Name == Exit {
			blocked.Add(it.Loc)
		}
	}
	return blocked, avoid
}
