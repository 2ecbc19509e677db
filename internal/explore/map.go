// Package explore maintains an agent's partial map of the world: replicated
// tile and item knowledge that can be merged with peers, plus the local
// frontier, exploration target and cached route derived from it.
package explore

import (
	"log/slog"

	"github.com/boshu2/lattice-swarm/internal/crdt"
	"github.com/boshu2/lattice-swarm/internal/grid"
	"github.com/boshu2/lattice-swarm/internal/nav"
	"github.com/boshu2/lattice-swarm/internal/world"
)

// CreatureMargin is the radius around visible creatures that routes avoid.
const CreatureMargin = 1

// Map is the single-level map substrate. Tiles and Items are replicated;
// the remaining fields are local to the agent.
type Map struct {
	Tiles crdt.Map[grid.Loc, grid.Terrain, crdt.LWW]
	Items crdt.Map[grid.Loc, grid.Item, crdt.LWW]

	Frontier  Frontier
	Target    grid.Loc
	HasTarget bool
	Path      nav.Path

	navigator nav.Navigator
	extra     grid.LocSet
}

func (m *Map) fields(other *Map) []crdt.Binding {
	return []crdt.Binding{
		crdt.Field("tiles", &m.Tiles, &other.Tiles),
		crdt.Field("items", &m.Items, &other.Items),
	}
}

// Merge merges a peer's replicated tile and item knowledge and grows the
// frontier around terrain the peer uncovered.
func (m *Map) Merge(other *Map) error {
	if err := crdt.MergeFields(m.fields(other)...); err != nil {
		return err
	}
	m.refreshFrontier()
	return nil
}

// refreshFrontier makes the frontier exactly the unknown neighbours of known
// passable tiles. New cells are appended in key order.
func (m *Map) refreshFrontier() {
	for _, l := range append([]grid.Loc(nil), m.Frontier.Order...) {
		if m.Tiles.Contains(l) {
			m.Frontier.Remove(l)
		}
	}
	m.Tiles.Range(func(l grid.Loc, t grid.Terrain) bool {
		if !t.Passable() {
			return true
		}
		for _, n := range l.Neighbors() {
			if !m.Tiles.Contains(n) {
				m.Frontier.Add(n)
			}
		}
		return true
	})
}

// Cleanup cleans the replicated fields.
func (m *Map) Cleanup(now int64) {
	crdt.CleanupFields(now, m.fields(m)...)
}

// Passable implements grid.LocMap over the remembered tiles.
func (m *Map) Passable(l grid.Loc) (bool, bool) {
	t, ok := m.Tiles.Get(l)
	return t.Passable(), ok
}

// Update records every visible tile and the item seen on each passable one,
// stamped with the observation's turn, and maintains the frontier.
func (m *Map) Update(obs *world.Observation) {
	now := obs.Turn
	for _, tile := range obs.Tiles {
		m.Frontier.Remove(tile.Loc)
		m.Tiles.Set(tile.Loc, grid.TerrainOf(tile.Passable), now)
		if !tile.Passable {
			continue
		}
		for _, n := range tile.Loc.Neighbors() {
			if !m.Tiles.Contains(n) {
				m.Frontier.Add(n)
			}
		}
		item := grid.None
		if it, ok := obs.ItemAt(tile.Loc); ok {
			item = grid.Item(it.Name)
		}
		m.Items.Set(tile.Loc, item, now)
	}
}

// Explore heads for the nearest unexplored cell. The target is kept until it
// becomes visible or unreachable. ok is false when there is nothing left to
// explore or no route this turn.
func (m *Map) Explore(obs *world.Observation) (world.Command, bool) {
	if m.HasTarget && obs.Visible(m.Target) {
		m.HasTarget = false
	}
	if !m.HasTarget {
		target, ok := m.Frontier.Nearest(obs.Self, m.Tiles.Contains)
		if !ok {
			return world.Nothing(), false
		}
		m.Target, m.HasTarget = target, true
	}
	cmd, ok := m.MoveTowards(obs, m.Target)
	if !ok {
		slog.Debug("explore target unreachable", "agent", obs.ID, "target", m.Target)
		m.Frontier.Remove(m.Target)
		m.HasTarget = false
	}
	return cmd, ok
}

// Nearest returns the remembered location of the most wanted item type.
// types is in priority order: a higher-priority type always wins over a
// closer lower-priority one; within a type the closest sighting wins.
func (m *Map) Nearest(self grid.Loc, types []string) (grid.Loc, bool) {
	var (
		best     grid.Loc
		bestRank = len(types)
		bestD    float64
	)
	m.Items.Range(func(l grid.Loc, item grid.Item) bool {
		if item == grid.None {
			return true
		}
		rank := rankOf(types, string(item))
		if rank < 0 || rank > bestRank {
			return true
		}
		d := grid.Distance(self, l)
		if rank < bestRank || d < bestD {
			best, bestRank, bestD = l, rank, d
		}
		return true
	})
	return best, bestRank < len(types)
}

// MoveTowardsNearest routes to the most wanted remembered item.
func (m *Map) MoveTowardsNearest(obs *world.Observation, types []string) (world.Command, bool) {
	goal, ok := m.Nearest(obs.Self, types)
	if !ok {
		return world.Nothing(), false
	}
	return m.MoveTowards(obs, goal)
}

// MoveTowards routes to goal around visible creatures and obstacles.
func (m *Map) MoveTowards(obs *world.Observation, goal grid.Loc) (world.Command, bool) {
	blocked, avoid := nav.AvoidanceSets(obs, CreatureMargin)
	var penalized grid.LocSet = avoid
	if m.extra != nil {
		penalized = grid.Union(avoid, m.extra)
	}
	return m.navigator.MoveTowards(&m.Path, obs.Self, goal, m, blocked, penalized)
}

// AvoidAlso adds cells that routes should avoid on top of those around
// visible creatures. It is not persisted; set it again every turn.
func (m *Map) AvoidAlso(cells grid.LocSet) {
	m.extra = cells
}

func rankOf(types []string, name string) int {
	for i, t := range types {
		if t == name {
			return i
		}
	}
	return -1
}
