package world

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/boshu2/lattice-swarm/internal/config"
	"github.com/boshu2/lattice-swarm/internal/grid"
	"github.com/google/uuid"
)

// Body is anything standing on the grid.
type Body struct {
	ID         string
	Name       string
	Faction    string
	Loc        grid.Loc
	Controlled bool
	Wants      []string
	Broadcast  []byte
	Collected  []string
}

// Sim is a turn-based grid world built from a scenario. It is not safe for
// concurrent use.
type Sim struct {
	name   string
	level  string
	radius int32
	floor  map[grid.Loc]bool
	items  map[grid.Loc]Item
	bodies []*Body
	byID   map[string]*Body
	turn   int64
}

// NewSim builds the world described by sc. Agent ids are stable UUIDs derived
// from the scenario and agent names, so reruns of a scenario share memory.
func NewSim(sc config.Scenario) *Sim {
	s := &Sim{
		name:   sc.Name,
		level:  sc.Level,
		radius: int32(sc.ViewRadius),
		floor:  make(map[grid.Loc]bool),
		items:  make(map[grid.Loc]Item),
		byID:   make(map[string]*Body),
	}
	for y, row := range sc.Map {
		for x, c := range row {
			s.floor[grid.Loc{X: int32(x), Y: int32(y)}] = c != config.Wall
		}
	}
	for _, it := range sc.Items {
		l := grid.Loc{X: int32(it.X), Y: int32(it.Y)}
		s.items[l] = Item{Loc: l, Name: it.Name, Passable: !it.Blocking, Furniture: it.Furniture}
	}
	for _, a := range sc.Agents {
		s.add(&Body{
			ID:         AgentID(sc.Name, a.Name),
			Name:       a.Name,
			Faction:    a.Faction,
			Loc:        grid.Loc{X: int32(a.X), Y: int32(a.Y)},
			Controlled: true,
			Wants:      a.Wants,
		})
	}
	for _, c := range sc.Creatures {
		s.add(&Body{
			ID:      AgentID(sc.Name, c.Name),
			Name:    c.Name,
			Faction: c.Faction,
			Loc:     grid.Loc{X: int32(c.X), Y: int32(c.Y)},
		})
	}
	return s
}

// AgentID derives the id of a named body in a scenario.
func AgentID(scenario, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(scenario+"/"+name)).String()
}

func (s *Sim) add(b *Body) {
	s.bodies = append(s.bodies, b)
	s.byID[b.ID] = b
}

// Turn returns the current turn number.
func (s *Sim) Turn() int64 { return s.turn }

// Advance moves the world to the next turn.
func (s *Sim) Advance() { s.turn++ }

// Agents returns the controlled bodies in scenario order.
func (s *Sim) Agents() []*Body {
	var out []*Body
	for _, b := range s.bodies {
		if b.Controlled {
			out = append(out, b)
		}
	}
	return out
}

// Body returns the body with the given id.
func (s *Sim) Body(id string) (*Body, bool) {
	b, ok := s.byID[id]
	return b, ok
}

// FloorCount returns the number of passable tiles.
func (s *Sim) FloorCount() int {
	n := 0
	for _, open := range s.floor {
		if open {
			n++
		}
	}
	return n
}

// Observe returns what the body id sees this turn: every tile, body and item
// within its view radius (Chebyshev distance). Cells outside the map are
// reported as impassable tiles.
func (s *Sim) Observe(id string) (*Observation, error) {
	self, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", id)
	}
	obs := &Observation{
		ID:      id,
		Self:    self.Loc,
		Faction: self.Faction,
		Turn:    s.turn,
		Level:   s.level,
	}
	r := s.radius
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			l := self.Loc.Add(dx, dy)
			open := s.floor[l]
			obs.Tiles = append(obs.Tiles, Tile{Loc: l, Passable: open})
			if it, ok := s.items[l]; ok {
				obs.Items = append(obs.Items, it)
			}
		}
	}
	for _, b := range s.bodies {
		if b.ID == id || grid.Chebyshev(b.Loc, self.Loc) > int(r) {
			continue
		}
		obs.Creatures = append(obs.Creatures, Creature{
			ID:        b.ID,
			Loc:       b.Loc,
			Faction:   b.Faction,
			Broadcast: slices.Clone(b.Broadcast),
		})
	}
	return obs, nil
}

// Publish records id's broadcast; others see it from their next observation.
func (s *Sim) Publish(_ context.Context, id, _ string, payload []byte) error {
	b, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("unknown agent %q", id)
	}
	b.Broadcast = slices.Clone(payload)
	return nil
}

// Apply performs cmd for id. A move succeeds onto an adjacent floor tile
// that holds no body and no blocking item; stepping on a loose item picks it
// up. It reports whether the body moved.
func (s *Sim) Apply(id string, cmd Command) (bool, error) {
	b, ok := s.byID[id]
	if !ok {
		return false, fmt.Errorf("unknown agent %q", id)
	}
	if cmd.Kind != CommandMove {
		return false, nil
	}
	if !s.enterable(b.Loc, cmd.To) {
		slog.Debug("move refused", "agent", b.Name, "from", b.Loc, "to", cmd.To)
		return false, nil
	}
	b.Loc = cmd.To
	if it, ok := s.items[cmd.To]; ok && it.Passable && !it.Furniture && it.Name != "Exit" {
		delete(s.items, cmd.To)
		b.Collected = append(b.Collected, it.Name)
		slog.Info("item collected", "agent", b.Name, "item", it.Name, "at", cmd.To, "turn", s.turn)
	}
	return true, nil
}

func (s *Sim) enterable(from, to grid.Loc) bool {
	if grid.Chebyshev(from, to) != 1 || !s.floor[to] {
		return false
	}
	if it, ok := s.items[to]; ok && !it.Passable {
		return false
	}
	for _, other := range s.bodies {
		if other.Loc == to {
			return false
		}
	}
	return true
}

// Items returns the items still lying in the world, ordered by location.
func (s *Sim) Items() []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b Item) int { return a.Loc.Compare(b.Loc) })
	return out
}

// Decider picks a body's command for an observation.
type Decider func(ctx context.Context, obs *Observation) (Command, error)

// Round lets every controlled body act once in scenario order, then advances
// the turn. A decision error stops the round.
func (s *Sim) Round(ctx context.Context, decide Decider) error {
	for _, b := range s.Agents() {
		if err := ctx.Err(); err != nil {
			return err
		}
		obs, err := s.Observe(b.ID)
		if err != nil {
			return err
		}
		cmd, err := decide(ctx, obs)
		if err != nil {
			return fmt.Errorf("agent %s turn %d: %w", b.Name, s.turn, err)
		}
		if _, err := s.Apply(b.ID, cmd); err != nil {
			return err
		}
	}
	s.Advance()
	return nil
}
