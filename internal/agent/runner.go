// Package agent runs one agent turn: restore memory, absorb what teammates
// broadcast, decide, publish, persist.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/boshu2/lattice-swarm/internal/codec"
	"github.com/boshu2/lattice-swarm/internal/gossip"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"github.com/boshu2/lattice-swarm/internal/world"
)

// Surveyor records what an observation reveals.
type Surveyor interface {
	Update(obs *world.Observation)
}

// State is an agent's persisted memory. B is the pointer type of its
// broadcast.
type State[B any] interface {
	// Broadcast returns the replicated part of the state, or nil when the
	// agent shares nothing.
	Broadcast() B
	// Map returns the map to update before Run, or nil when there is none.
	Map() Surveyor
	// Run decides this turn's command.
	Run(obs *world.Observation) world.Command
}

// Publisher delivers an agent's broadcast to whoever relays it to peers.
type Publisher interface {
	Publish(ctx context.Context, id, faction string, payload []byte) error
}

// Config controls a Runner.
type Config struct {
	// Kind is the codec kind of persisted memory; the broadcast uses
	// Kind + "/broadcast".
	Kind string
	// BudgetBytes caps each agent's broadcast bytes per turn; 0 is unlimited.
	BudgetBytes int
}

// Runner drives turns for every agent sharing one state schema.
type Runner[S State[PB], B any, PB gossip.Replica[B]] struct {
	cfg   Config
	fresh func(id string) S
	store memstore.Store
	pub   Publisher

	mu        sync.Mutex
	gossipers map[string]*gossip.Gossiper[B, PB]
}

// NewRunner creates a runner. fresh builds the default state for an agent
// with no usable memory.
func NewRunner[S State[PB], B any, PB gossip.Replica[B]](cfg Config, fresh func(id string) S, store memstore.Store, pub Publisher) *Runner[S, B, PB] {
	return &Runner[S, B, PB]{
		cfg:       cfg,
		fresh:     fresh,
		store:     store,
		pub:       pub,
		gossipers: make(map[string]*gossip.Gossiper[B, PB]),
	}
}

// Step runs one turn for obs.ID and returns its command. A failed gossip
// merge stops absorbing for this turn: the partially merged state is
// discarded and the turn continues from stored memory.
func (r *Runner[S, B, PB]) Step(ctx context.Context, obs *world.Observation) (world.Command, error) {
	state, err := r.survey(ctx, obs)
	if err != nil {
		return world.Nothing(), err
	}

	g := r.gossiper(obs.ID)
	shared := state.Broadcast()
	if shared != nil {
		if err := g.Absorb(shared, obs.Faction, peers(obs), obs.Turn); err != nil {
			slog.Warn("gossip merge aborted", "agent", obs.ID, "turn", obs.Turn, "error", err)
			if state, err = r.survey(ctx, obs); err != nil {
				return world.Nothing(), err
			}
			if shared = state.Broadcast(); shared != nil {
				shared.Cleanup(obs.Turn)
			}
		}
	}

	cmd := state.Run(obs)

	if shared != nil && r.pub != nil {
		payload, err := g.Publish(shared, obs.Turn)
		switch {
		case errors.Is(err, gossip.ErrOverBudget):
		case err != nil:
			return world.Nothing(), err
		default:
			if err := r.pub.Publish(ctx, obs.ID, obs.Faction, payload); err != nil {
				return world.Nothing(), fmt.Errorf("publish %s: %w", obs.ID, err)
			}
		}
	}

	blob, err := codec.Encode(r.cfg.Kind, state)
	if err != nil {
		return world.Nothing(), fmt.Errorf("encode memory %s: %w", obs.ID, err)
	}
	if err := r.store.Save(ctx, obs.ID, blob); err != nil {
		return world.Nothing(), fmt.Errorf("save memory %s: %w", obs.ID, err)
	}
	return cmd, nil
}

// Load returns the persisted state of id, or a fresh one when none is
// stored.
func (r *Runner[S, B, PB]) Load(ctx context.Context, id string) (S, error) {
	return r.load(ctx, id)
}

// Stats sums gossip statistics over every agent.
func (r *Runner[S, B, PB]) Stats() gossip.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total gossip.Stats
	for _, g := range r.gossipers {
		s := g.GetStats()
		total.Merged += s.Merged
		total.Skipped += s.Skipped
		total.Errors += s.Errors
		total.Dropped += s.Dropped
	}
	return total
}

// survey loads id's memory and records what obs reveals.
func (r *Runner[S, B, PB]) survey(ctx context.Context, obs *world.Observation) (S, error) {
	state, err := r.load(ctx, obs.ID)
	if err != nil {
		return state, err
	}
	if m := state.Map(); m != nil {
		m.Update(obs)
	}
	return state, nil
}

func (r *Runner[S, B, PB]) load(ctx context.Context, id string) (S, error) {
	blob, err := r.store.Load(ctx, id)
	if errors.Is(err, memstore.ErrNotFound) {
		return r.fresh(id), nil
	}
	if err != nil {
		var zero S
		return zero, fmt.Errorf("load memory %s: %w", id, err)
	}
	state := r.fresh(id)
	if err := codec.Decode(r.cfg.Kind, blob, state); err != nil {
		slog.Warn("memory reinitialized", "agent", id, "error", err)
		return r.fresh(id), nil
	}
	return state, nil
}

func (r *Runner[S, B, PB]) gossiper(id string) *gossip.Gossiper[B, PB] {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gossipers[id]
	if !ok {
		cfg := gossip.Config{ID: id, Kind: r.cfg.Kind + "/broadcast"}
		if r.cfg.BudgetBytes > 0 {
			cfg.Budget = gossip.NewBudget(float64(r.cfg.BudgetBytes), 0)
		}
		g = gossip.New[B, PB](cfg)
		r.gossipers[id] = g
	}
	return g
}

func peers(obs *world.Observation) []gossip.Peer {
	out := make([]gossip.Peer, 0, len(obs.Creatures))
	for _, c := range obs.Creatures {
		out = append(out, gossip.Peer{ID: c.ID, Faction: c.Faction, Payload: c.Broadcast})
	}
	return out
}
