// Package swarm plays a scenario: one simulator, one explorer per agent,
// memory in a store, broadcasts exchanged through the simulator and
// optionally mirrored to a remote board.
package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/boshu2/lattice-swarm/internal/agent"
	"github.com/boshu2/lattice-swarm/internal/config"
	"github.com/boshu2/lattice-swarm/internal/gossip"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"github.com/boshu2/lattice-swarm/internal/world"
)

// Options controls a run.
type Options struct {
	Scenario config.Scenario
	// Turns overrides the scenario's turn count when positive.
	Turns    int
	Interval time.Duration
	Store    memstore.Store
	// Mirror also receives every broadcast, e.g. a board client.
	Mirror      agent.Publisher
	BudgetBytes int
	// ReportEvery logs progress every n turns; zero disables it.
	ReportEvery int
}

// AgentSummary is one agent's state at the end of a run.
type AgentSummary struct {
	ID        string
	Name      string
	Known     int
	Collected []string
}

// Summary describes a finished run.
type Summary struct {
	Turns  int64
	Floor  int
	Agents []AgentSummary
	Items  []world.Item
	Gossip gossip.Stats
}

// Run plays the scenario until its turns are used up or ctx is cancelled.
// Cancellation is not an error; the summary reflects the turns played.
func Run(ctx context.Context, opts Options) (Summary, error) {
	turns := opts.Turns
	if turns <= 0 {
		turns = opts.Scenario.Turns
	}
	store := opts.Store
	if store == nil {
		store = memstore.NewMemory()
	}

	sim := world.NewSim(opts.Scenario)
	wants := make(map[string][]string)
	for _, b := range sim.Agents() {
		wants[b.ID] = b.Wants
	}
	var pub agent.Publisher = sim
	if opts.Mirror != nil {
		pub = fanout{sim, opts.Mirror}
	}
	runner := agent.NewExplorerRunner(
		agent.Config{BudgetBytes: opts.BudgetBytes},
		func(id string) []string { return wants[id] },
		store, pub,
	)

	slog.Info("swarm started", "scenario", opts.Scenario.Name, "agents", len(wants), "turns", turns)

	var tick <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for sim.Turn() < int64(turns) {
		if err := sim.Round(ctx, runner.Step); err != nil {
			if ctx.Err() != nil {
				break
			}
			return Summary{}, err
		}
		if opts.ReportEvery > 0 && sim.Turn()%int64(opts.ReportEvery) == 0 {
			sum, err := summarize(ctx, sim, runner)
			if err != nil {
				return Summary{}, err
			}
			for _, a := range sum.Agents {
				slog.Info("progress", "turn", sum.Turns, "agent", a.Name, "known", a.Known, "collected", len(a.Collected))
			}
		}
		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}

	sum, err := summarize(context.WithoutCancel(ctx), sim, runner)
	if err != nil {
		return Summary{}, err
	}
	slog.Info("swarm finished", "turns", sum.Turns, "items_left", len(sum.Items),
		"merged", sum.Gossip.Merged, "skipped", sum.Gossip.Skipped, "dropped", sum.Gossip.Dropped)
	return sum, nil
}

func summarize(ctx context.Context, sim *world.Sim, runner *agent.Runner[*agent.Explorer, agent.Shared, *agent.Shared]) (Summary, error) {
	sum := Summary{
		Turns:  sim.Turn(),
		Floor:  sim.FloorCount(),
		Items:  sim.Items(),
		Gossip: runner.Stats(),
	}
	for _, b := range sim.Agents() {
		state, err := runner.Load(ctx, b.ID)
		if err != nil {
			return sum, fmt.Errorf("summarize %s: %w", b.Name, err)
		}
		sum.Agents = append(sum.Agents, AgentSummary{
			ID:        b.ID,
			Name:      b.Name,
			Known:     state.Shared.Atlas.Map().Tiles.Len(),
			Collected: b.Collected,
		})
	}
	return sum, nil
}

type fanout []agent.Publisher

func (f fanout) Publish(ctx context.Context, id, faction string, payload []byte) error {
	for _, p := range f {
		if err := p.Publish(ctx, id, faction, payload); err != nil {
			return err
		}
	}
	return nil
}
