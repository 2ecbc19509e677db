package explore

import (
	"testing"

	"github.com/boshu2/lattice-swarm/internal/grid"
	"github.com/boshu2/lattice-swarm/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// view returns an observation of the open square of the given radius
// around self.
func view(self grid.Loc, radius int32, turn int64) *world.Observation {
	obs := &world.Observation{ID: "a", Self: self, Turn: turn}
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			obs.Tiles = append(obs.Tiles, world.Tile{Loc: self.Add(dx, dy), Passable: true})
		}
	}
	return obs
}

func TestUpdate_RecordsTilesItemsAndFrontier(t *testing.T) {
	var m Map
	obs := view(grid.Loc{}, 1, 4)
	obs.Items = []world.Item{{Loc: grid.Loc{X: 1, Y: 0}, Name: "Coin", Passable: true}}
	m.Update(obs)

	assert.Equal(t, 9, m.Tiles.Len())
	item, ok := m.Items.Get(grid.Loc{X: 1, Y: 0})
	require.True(t, ok)
	assert.Equal(t, grid.Item("Coin"), item)
	item, ok = m.Items.Get(grid.Loc{})
	require.True(t, ok)
	assert.Equal(t, grid.None, item)
	w, _ := m.Tiles.Written(grid.Loc{})
	assert.Equal(t, int64(4), w)

	assert.Equal(t, 16, m.Frontier.Len(), "the ring around the visible square")
	assert.False(t, m.Frontier.Has(grid.Loc{}))
	assert.True(t, m.Frontier.Has(grid.Loc{X: 2, Y: 2}))
}

func TestUpdate_WallsDoNotGrowFrontier(t *testing.T) {
	var m Map
	m.Update(&world.Observation{
		Turn:  1,
		Tiles: []world.Tile{{Loc: grid.Loc{}, Passable: false}},
	})
	assert.Equal(t, 0, m.Frontier.Len())
	passable, known := m.Passable(grid.Loc{})
	assert.True(t, known)
	assert.False(t, passable)
	assert.False(t, m.Items.Contains(grid.Loc{}))
}

func TestUpdate_VisibleTilesLeaveFrontier(t *testing.T) {
	var m Map
	m.Update(view(grid.Loc{}, 1, 1))
	require.True(t, m.Frontier.Has(grid.Loc{X: 2, Y: 0}))
	m.Update(view(grid.Loc{X: 1, Y: 0}, 1, 2))
	assert.False(t, m.Frontier.Has(grid.Loc{X: 2, Y: 0}))
	assert.True(t, m.Frontier.Has(grid.Loc{X: 3, Y: 0}))
}

func TestExplore_PicksNearestFrontier(t *testing.T) {
	var m Map
	obs := view(grid.Loc{}, 1, 1)
	m.Update(obs)

	cmd, ok := m.Explore(obs)
	require.True(t, ok)
	assert.True(t, m.HasTarget)
	assert.Equal(t, grid.Loc{X: -2, Y: 0}, m.Target, "ties go to the earliest discovered cell")
	assert.Equal(t, world.Move(grid.Loc{X: -1, Y: 0}), cmd)
}

func TestExplore_RetargetsWhenTargetVisible(t *testing.T) {
	var m Map
	obs := view(grid.Loc{}, 1, 1)
	m.Update(obs)
	_, ok := m.Explore(obs)
	require.True(t, ok)
	first := m.Target

	next := view(grid.Loc{X: -1, Y: 0}, 1, 2)
	m.Update(next)
	_, ok = m.Explore(next)
	require.True(t, ok)
	assert.NotEqual(t, first, m.Target)
	assert.False(t, next.Visible(m.Target))
}

func TestExplore_SkipsCellsLearnedFromPeers(t *testing.T) {
	var m, peer Map
	obs := view(grid.Loc{}, 1, 1)
	m.Update(obs)
	peer.Tiles.Set(grid.Loc{X: -2, Y: 0}, grid.Open, 1)
	require.NoError(t, m.Merge(&peer))

	_, ok := m.Explore(obs)
	require.True(t, ok)
	assert.NotEqual(t, grid.Loc{X: -2, Y: 0}, m.Target)
}

func TestExplore_ContinuesPastPeerRegion(t *testing.T) {
	var m, peer Map
	obs := view(grid.Loc{}, 1, 1)
	m.Update(obs)
	for x := int32(-2); x <= 5; x++ {
		for y := int32(-2); y <= 2; y++ {
			peer.Tiles.Set(grid.Loc{X: x, Y: y}, grid.Open, 1)
		}
	}
	require.NoError(t, m.Merge(&peer))
	for _, l := range m.Frontier.Order {
		assert.False(t, m.Tiles.Contains(l), "known cell %v left on the frontier", l)
	}
	assert.True(t, m.Frontier.Has(grid.Loc{X: 6, Y: 0}))

	cmd, ok := m.Explore(obs)
	require.True(t, ok)
	assert.NotEqual(t, world.Nothing(), cmd)
	assert.False(t, m.Tiles.Contains(m.Target))
	x, y := m.Target.X, m.Target.Y
	assert.True(t, x == -3 || x == 6 || y == -3 || y == 3, "target %v borders the merged region", m.Target)
}

func TestExplore_NothingLeft(t *testing.T) {
	var m Map
	cmd, ok := m.Explore(&world.Observation{})
	assert.False(t, ok)
	assert.Equal(t, world.Nothing(), cmd)
}

func TestNearest_PriorityBeatsDistance(t *testing.T) {
	var m Map
	m.Items.Set(grid.Loc{X: 10, Y: 10}, "Gem", 0)
	m.Items.Set(grid.Loc{X: 2, Y: 2}, "Coin", 0)
	m.Items.Set(grid.Loc{X: 1, Y: 1}, "Coin", 0)
	m.Items.Set(grid.Loc{X: 0, Y: 1}, grid.None, 0)

	loc, ok := m.Nearest(grid.Loc{}, []string{"Gem", "Coin"})
	require.True(t, ok)
	assert.Equal(t, grid.Loc{X: 10, Y: 10}, loc)

	loc, ok = m.Nearest(grid.Loc{}, []string{"Coin", "Gem"})
	require.True(t, ok)
	assert.Equal(t, grid.Loc{X: 1, Y: 1}, loc)

	_, ok = m.Nearest(grid.Loc{}, []string{"Sword"})
	assert.False(t, ok)
}

func TestMoveTowardsNearest(t *testing.T) {
	var m Map
	obs := view(grid.Loc{}, 3, 1)
	obs.Items = []world.Item{{Loc: grid.Loc{X: 3, Y: 0}, Name: "Coin", Passable: true}}
	m.Update(obs)

	cmd, ok := m.MoveTowardsNearest(obs, []string{"Coin"})
	require.True(t, ok)
	assert.Equal(t, world.Move(grid.Loc{X: 1, Y: 0}), cmd)

	_, ok = m.MoveTowardsNearest(obs, []string{"Gem"})
	assert.False(t, ok)
}

func TestMoveTowards_AvoidsCreatures(t *testing.T) {
	var m Map
	obs := view(grid.Loc{}, 4, 1)
	obs.Creatures = []world.Creature{{ID: "orc", Loc: grid.Loc{X: 2, Y: 0}}}
	m.Update(obs)

	_, ok := m.MoveTowards(obs, grid.Loc{X: 4, Y: 0})
	require.True(t, ok)
	for _, l := range m.Path {
		assert.Greater(t, grid.Chebyshev(l, grid.Loc{X: 2, Y: 0}), 1, "path enters the creature margin at %s", l)
	}
}

func TestMap_MergeConverges(t *testing.T) {
	var a, b Map
	a.Tiles.Set(grid.Loc{}, grid.Open, 1)
	b.Tiles.Set(grid.Loc{}, grid.Blocked, 2)
	b.Items.Set(grid.Loc{X: 1}, "Coin", 2)
	a.Frontier.Add(grid.Loc{X: 5})

	require.NoError(t, a.Merge(&b))
	require.NoError(t, b.Merge(&a))
	assert.Equal(t, a.Tiles, b.Tiles)
	assert.Equal(t, a.Items, b.Items)
	passable, _ := a.Passable(grid.Loc{})
	assert.False(t, passable, "the later observation wins")
	assert.Equal(t, 0, b.Frontier.Len(), "frontier is not replicated")
}

func TestMoveTowards_AvoidAlso(t *testing.T) {
	var m Map
	obs := view(grid.Loc{}, 4, 1)
	m.Update(obs)
	wall := grid.NewSet(grid.Loc{X: 1, Y: -1}, grid.Loc{X: 1, Y: 0}, grid.Loc{X: 1, Y: 1})
	m.AvoidAlso(wall)

	cmd, ok := m.MoveTowards(obs, grid.Loc{X: 3, Y: 0})
	require.True(t, ok)
	assert.False(t, wall.Has(cmd.To))
	for _, l := range m.Path {
		assert.False(t, wall.Has(l), "path crosses an avoided cell at %s", l)
	}
}
