package explore

import (
	"fmt"
	"slices"

	"github.com/boshu2/lattice-swarm/internal/world"
)

// Level is one area's map plus whether its snapshot is final.
type Level struct {
	Map    Map
	Stable bool
}

// Atlas is the multi-level map substrate. Only the current level and levels
// marked stable survive Prune; revisiting a pruned level starts it over.
type Atlas struct {
	Levels  map[string]*Level
	Current string
}

// Enter makes id the current level and returns its map.
func (a *Atlas) Enter(id string) *Map {
	a.Current = id
	return &a.level(id).Map
}

// Map returns the current level's map.
func (a *Atlas) Map() *Map {
	return a.Enter(a.Current)
}

// MarkStable flags a level's snapshot as final so it is never pruned.
func (a *Atlas) MarkStable(id string) {
	a.level(id).Stable = true
}

// Prune drops every level that is neither current nor stable.
func (a *Atlas) Prune() {
	for id, l := range a.Levels {
		if id != a.Current && !l.Stable {
			delete(a.Levels, id)
		}
	}
}

// Update enters the observation's level and records what is visible there.
func (a *Atlas) Update(obs *world.Observation) {
	a.Enter(obs.Level).Update(obs)
}

// Merge merges every level of other in level order. Stability is sticky: a
// level stable on either side is stable after the merge.
func (a *Atlas) Merge(other *Atlas) error {
	ids := make([]string, 0, len(other.Levels))
	for id := range other.Levels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		theirs := other.Levels[id]
		mine := a.level(id)
		if err := mine.Map.Merge(&theirs.Map); err != nil {
			return fmt.Errorf("level %s: %w", id, err)
		}
		mine.Stable = mine.Stable || theirs.Stable
	}
	return nil
}

// Cleanup cleans each level and prunes the ones no longer worth keeping.
func (a *Atlas) Cleanup(now int64) {
	for _, l := range a.Levels {
		l.Map.Cleanup(now)
	}
	a.Prune()
}

func (a *Atlas) level(id string) *Level {
	if a.Levels == nil {
		a.Levels = make(map[string]*Level)
	}
	l, ok := a.Levels[id]
	if !ok {
		l = &Level{}
		a.Levels[id] = l
	}
	return l
}
