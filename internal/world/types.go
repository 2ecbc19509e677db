// Package world defines what an agent sees and does each turn, and a
// reference grid simulator that produces those observations.
package world

import (
	"fmt"

	"github.com/boshu2/lattice-swarm/internal/grid"
)

// Tile is a visible cell.
type Tile struct {
	Loc      grid.Loc
	Passable bool
}

// Creature is another visible agent. Broadcast holds the payload it
// published on its previous turn, if any.
type Creature struct {
	ID        string
	Loc       grid.Loc
	Faction   string
	Broadcast []byte
}

// Item is a visible object lying on a tile.
type Item struct {
	Loc       grid.Loc
	Name      string
	Passable  bool
	Furniture bool
}

// Observation is everything an agent knows about the world at the start of a
// turn. Creatures never includes the observing agent itself. Level names the
// area the agent is in; single-level worlds leave it empty.
type Observation struct {
	ID        string
	Self      grid.Loc
	Faction   string
	Turn      int64
	Level     string
	Tiles     []Tile
	Creatures []Creature
	Items     []Item
}

// ItemAt returns the visible item on l.
func (o *Observation) ItemAt(l grid.Loc) (Item, bool) {
	for _, it := range o.Items {
		if it.Loc == l {
			return it, true
		}
	}
	return Item{}, false
}

// Visible reports whether l is among the visible tiles.
func (o *Observation) Visible(l grid.Loc) bool {
	for _, t := range o.Tiles {
		if t.Loc == l {
			return true
		}
	}
	return false
}

// CommandKind enumerates the actions the navigation layer can produce.
type CommandKind int

const (
	CommandNothing CommandKind = iota
	CommandMove
)

// Command is one action for one turn.
type Command struct {
	Kind CommandKind
	To   grid.Loc
}

// Nothing is the idle command.
func Nothing() Command { return Command{Kind: CommandNothing} }

// Move steps to an adjacent tile.
func Move(to grid.Loc) Command { return Command{Kind: CommandMove, To: to} }

func (c Command) String() string {
	switch c.Kind {
	case CommandMove:
		return fmt.Sprintf("move %s", c.To)
	default:
		return "nothing"
	}
}
