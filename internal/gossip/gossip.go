// Package gossip integrates the broadcasts of visible teammates into an
// agent's own replicated state.
package gossip

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/boshu2/lattice-swarm/internal/codec"
	"github.com/boshu2/lattice-swarm/internal/crdt"
)

// ErrOverBudget is returned by Publish when the payload does not fit the
// configured byte budget for this turn.
var ErrOverBudget = errors.New("gossip: payload over budget")

// Peer is a creature seen through the observation feed together with the
// payload it last broadcast.
type Peer struct {
	ID      string
	Faction string
	Payload []byte
}

// Replica is a pointer to a broadcast type that follows the CRDT protocol.
type Replica[B any] interface {
	*B
	crdt.CRDT[*B]
}

// Config controls a Gossiper.
type Config struct {
	ID   string // own agent id; payloads carrying it are ignored
	Kind string // codec kind of the broadcast schema
	// Budget caps published bytes; nil means unlimited.
	Budget *Budget
}

// Stats tracks gossip activity.
type Stats struct {
	Merged  int // peer payloads merged
	Skipped int // payloads that failed to decode
	Errors  int // merges that failed
	Dropped int // publishes refused by the budget
}

// Gossiper merges peer broadcasts of schema B and serializes the agent's own.
type Gossiper[B any, P Replica[B]] struct {
	cfg   Config
	mu    sync.RWMutex
	stats Stats
}

// New creates a gossiper with the given config.
func New[B any, P Replica[B]](cfg Config) *Gossiper[B, P] {
	return &Gossiper[B, P]{cfg: cfg}
}

// GetStats returns current gossip statistics.
func (g *Gossiper[B, P]) GetStats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}

// Absorb merges every co-faction peer payload into self, then cleans self
// once at now. A payload that fails to decode is skipped; a merge failure
// aborts the whole step and is returned.
func (g *Gossiper[B, P]) Absorb(self P, faction string, peers []Peer, now int64) error {
	for _, p := range peers {
		if p.ID == g.cfg.ID || p.Faction != faction || len(p.Payload) == 0 {
			continue
		}
		remote := P(new(B))
		if err := codec.Decode(g.cfg.Kind, p.Payload, remote); err != nil {
			slog.Debug("gossip payload skipped", "peer", p.ID, "error", err)
			g.count(func(s *Stats) { s.Skipped++ })
			continue
		}
		if err := self.Merge(remote); err != nil {
			g.count(func(s *Stats) { s.Errors++ })
			return fmt.Errorf("gossip from %s: %w", p.ID, err)
		}
		g.count(func(s *Stats) { s.Merged++ })
	}
	self.Cleanup(now)
	return nil
}

// Publish serializes self for this turn's broadcast.
func (g *Gossiper[B, P]) Publish(self P, now int64) ([]byte, error) {
	b, err := codec.Encode(g.cfg.Kind, self)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	if g.cfg.Budget != nil && !g.cfg.Budget.Allow(len(b), now) {
		g.count(func(s *Stats) { s.Dropped++ })
		slog.Debug("gossip budget drop", "agent", g.cfg.ID, "size", len(b))
		return nil, ErrOverBudget
	}
	return b, nil
}

func (g *Gossiper[B, P]) count(fn func(*Stats)) {
	g.mu.Lock()
	fn(&g.stats)
	g.mu.Unlock()
}
