package agent

import (
	"strings"

	"github.com/boshu2/lattice-swarm/internal/clock"
	"github.com/boshu2/lattice-swarm/internal/crdt"
	"github.com/boshu2/lattice-swarm/internal/explore"
	"github.com/boshu2/lattice-swarm/internal/grid"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"github.com/boshu2/lattice-swarm/internal/world"
)

// ExplorerKind is the codec kind of persisted Explorer memory.
const ExplorerKind = "explorer/v1"

// Retention of shared observations, in turns.
const (
	ThreatCapacity = 8
	ThreatTTL      = 20
	DangerTTL      = 10
	RallyTTL       = 50
)

// Sighting is a hostile creature seen at a location.
type Sighting struct {
	Loc grid.Loc
	ID  string
}

func (s Sighting) Compare(o Sighting) int {
	if c := s.Loc.Compare(o.Loc); c != 0 {
		return c
	}
	return strings.Compare(s.ID, o.ID)
}

// Name identifies an agent holding a claim.
type Name string

func (n Name) Compare(o Name) int { return strings.Compare(string(n), string(o)) }

// Shared is what explorers of one faction tell each other.
type Shared struct {
	// Atlas is the shared map.
	Atlas explore.Atlas
	// Threats keeps the earliest hostile sightings.
	Threats crdt.SizedSet[Sighting]
	// Rally is the first wanted item anyone spotted.
	Rally crdt.Register[grid.Loc]
	// Visited is every cell a teammate stood on.
	Visited crdt.GSet[grid.Loc]
	// Claims maps an item location to the first agent that went for it.
	Claims crdt.Map[grid.Loc, Name, crdt.FWW]
	// Dangers are cells recently occupied by hostiles.
	Dangers crdt.ExpiringSet[grid.Loc]
}

func (s *Shared) fields(other *Shared) []crdt.Binding {
	return []crdt.Binding{
		crdt.Field("atlas", &s.Atlas, &other.Atlas),
		crdt.Field("threats", &s.Threats, &other.Threats),
		crdt.Field("rally", &s.Rally, &other.Rally),
		crdt.Field("visited", &s.Visited, &other.Visited),
		crdt.Field("claims", &s.Claims, &other.Claims),
		crdt.Field("dangers", &s.Dangers, &other.Dangers),
	}
}

func (s *Shared) Merge(other *Shared) error { return crdt.MergeFields(s.fields(other)...) }

func (s *Shared) Cleanup(now int64) { crdt.CleanupFields(now, s.fields(s)...) }

// Explorer maps the world with its teammates and goes after the items it
// wants, most wanted first, leaving items claimed by others alone.
type Explorer struct {
	ID     string
	Wants  []string
	Clock  clock.Clock
	Shared Shared
}

// NewExplorer returns the initial state of agent id.
func NewExplorer(id string, wants []string) *Explorer {
	e := &Explorer{ID: id, Wants: wants}
	e.Shared.Threats = crdt.NewSizedSet[Sighting](ThreatCapacity)
	return e
}

// NewExplorerRunner builds a runner for explorers; wants supplies each new
// agent's wish list.
func NewExplorerRunner(cfg Config, wants func(id string) []string, store memstore.Store, pub Publisher) *Runner[*Explorer, Shared, *Shared] {
	if cfg.Kind == "" {
		cfg.Kind = ExplorerKind
	}
	fresh := func(id string) *Explorer { return NewExplorer(id, wants(id)) }
	return NewRunner[*Explorer, Shared, *Shared](cfg, fresh, store, pub)
}

func (e *Explorer) Broadcast() *Shared { return &e.Shared }

func (e *Explorer) Map() Surveyor { return e }

// Update records obs in the atlas. Leaving a level with nothing left to
// explore marks it stable, so its map survives Cleanup; levels left half
// explored are pruned and mapped again on return.
func (e *Explorer) Update(obs *world.Observation) {
	a := &e.Shared.Atlas
	if a.Current != obs.Level {
		if l, ok := a.Levels[a.Current]; ok && l.Map.Tiles.Len() > 0 && l.Map.Frontier.Len() == 0 {
			a.MarkStable(a.Current)
		}
	}
	a.Update(obs)
}

// Run records hostiles, then claims and heads for a wanted item, explores,
// or falls back to the rally point.
func (e *Explorer) Run(obs *world.Observation) world.Command {
	now := e.Clock.Observe(obs.Turn)
	s := &e.Shared
	s.Visited.Add(obs.Self)
	for _, c := range obs.Creatures {
		if c.Faction == obs.Faction {
			continue
		}
		s.Threats.Insert(Sighting{Loc: c.Loc, ID: c.ID}, now, now+ThreatTTL)
		s.Dangers.Insert(c.Loc, now+DangerTTL)
	}

	m := s.Atlas.Map()
	m.AvoidAlso(dangerZone{&s.Dangers})

	if goal, ok := m.Nearest(obs.Self, e.Wants); ok {
		if _, rallied := s.Rally.Get(); !rallied {
			s.Rally.Set(goal, now, now+RallyTTL)
		}
		if !s.Claims.Contains(goal) {
			s.Claims.Set(goal, Name(e.ID), now)
		}
		if owner, _ := s.Claims.Get(goal); owner == Name(e.ID) {
			if cmd, ok := m.MoveTowards(obs, goal); ok {
				return cmd
			}
		}
	}
	if cmd, ok := m.Explore(obs); ok {
		return cmd
	}
	if rally, ok := s.Rally.Get(); ok && rally != obs.Self {
		if cmd, ok := m.MoveTowards(obs, rally); ok {
			return cmd
		}
	}
	return world.Nothing()
}

type dangerZone struct {
	cells *crdt.ExpiringSet[grid.Loc]
}

func (d dangerZone) Has(l grid.Loc) bool { return d.cells.Contains(l) }
func (d dangerZone) Len() int            { return d.cells.Len() }
