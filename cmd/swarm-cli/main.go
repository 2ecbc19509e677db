package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/boshu2/lattice-swarm/internal/agent"
	"github.com/boshu2/lattice-swarm/internal/board"
	"github.com/boshu2/lattice-swarm/internal/codec"
	"github.com/boshu2/lattice-swarm/internal/config"
	"github.com/boshu2/lattice-swarm/internal/grid"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"github.com/boshu2/lattice-swarm/internal/nav"
	"github.com/boshu2/lattice-swarm/internal/swarm"
	"github.com/spf13/cobra"
)

var (
	boardAddr string
	dbPath    string
)

func main() {
	root := &cobra.Command{
		Use:   "swarm-cli",
		Short: "Operator interface for Lattice Swarm",
	}

	root.PersistentFlags().StringVar(&boardAddr, "board", "", "board address (memory and broadcasts)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite memory database")

	root.AddCommand(runCmd(), pathCmd(), inspectCmd(), watchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore picks the board, then the database, then nothing.
func openStore() (memstore.Store, *board.Client, func(), error) {
	switch {
	case boardAddr != "":
		client, err := board.Dial(boardAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		return client, client, func() { client.Close() }, nil
	case dbPath != "":
		db, err := memstore.OpenSQLite(dbPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, nil, func() { db.Close() }, nil
	default:
		return nil, nil, func() {}, nil
	}
}

func runCmd() *cobra.Command {
	var (
		scenario string
		turns    int
		budget   int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a scenario and print what each agent achieved",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := config.LoadScenario(scenario)
			if err != nil {
				return err
			}
			store, client, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			opts := swarm.Options{Scenario: sc, Turns: turns, Store: store, BudgetBytes: budget}
			if client != nil {
				opts.Mirror = client
			}
			sum, err := swarm.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "AGENT\tID\tKNOWN\tCOLLECTED")
			for _, a := range sum.Agents {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.Name, a.ID, a.Known, strings.Join(a.Collected, ","))
			}
			w.Flush()
			fmt.Printf("turns=%d items_left=%d merged=%d skipped=%d dropped=%d\n",
				sum.Turns, len(sum.Items), sum.Gossip.Merged, sum.Gossip.Skipped, sum.Gossip.Dropped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenario, "scenario", "s", "", "scenario YAML (default: built-in two-rooms)")
	cmd.Flags().IntVarP(&turns, "turns", "n", 0, "turns to play (default: scenario's)")
	cmd.Flags().IntVar(&budget, "budget", 0, "broadcast bytes per agent per turn (0 = unlimited)")
	return cmd
}

func pathCmd() *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "path <x,y> <x,y>",
		Short: "Plan a route across a scenario map",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := config.LoadScenario(scenario)
			if err != nil {
				return err
			}
			from, err := parseLoc(args[0])
			if err != nil {
				return err
			}
			to, err := parseLoc(args[1])
			if err != nil {
				return err
			}

			known := scenarioMap{&sc}
			blocked := grid.NewSet()
			for _, it := range sc.Items {
				if it.Blocking || it.Name == nav.Exit {
					blocked.Add(grid.Loc{X: int32(it.X), Y: int32(it.Y)})
				}
			}
			path, ok := nav.AStar(from, to, known, blocked, nil)
			if !ok {
				return fmt.Errorf("no route from %s to %s", from, to)
			}

			on := grid.NewSet(path...)
			for y, row := range sc.Map {
				line := []byte(row)
				for x := range line {
					l := grid.Loc{X: int32(x), Y: int32(y)}
					switch {
					case l == from:
						line[x] = 'S'
					case on.Has(l):
						line[x] = '*'
					}
				}
				fmt.Println(string(line))
			}
			fmt.Printf("%d steps\n", len(path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenario, "scenario", "s", "", "scenario YAML (default: built-in two-rooms)")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [agent-id]",
		Short: "List stored agents or show one agent's memory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, cleanup, err := openStore()
			if err != nil {
				return err
			}
			defer cleanup()
			if store == nil {
				return errors.New("inspect needs --board or --db")
			}
			ctx := cmd.Context()

			if len(args) == 0 {
				lister, ok := store.(memstore.Lister)
				if !ok {
					return errors.New("this store cannot list agents; pass an agent id")
				}
				ids, err := lister.List(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			}
			return describe(ctx, store, args[0])
		},
	}
}

func describe(ctx context.Context, store memstore.Store, id string) error {
	blob, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	kind, err := codec.Kind(blob)
	if err != nil {
		return err
	}
	var e agent.Explorer
	if err := codec.Decode(agent.ExplorerKind, blob, &e); err != nil {
		return fmt.Errorf("memory of kind %q: %w", kind, err)
	}
	s := &e.Shared
	m := s.Atlas.Map()

	fmt.Printf("ID:       %s\n", e.ID)
	fmt.Printf("Kind:     %s (%d bytes)\n", kind, len(blob))
	fmt.Printf("Turn:     %d\n", e.Clock.Now())
	fmt.Printf("Wants:    %s\n", strings.Join(e.Wants, ", "))
	fmt.Printf("Known:    %d tiles, %d frontier\n", m.Tiles.Len(), m.Frontier.Len())
	fmt.Printf("Visited:  %d cells\n", s.Visited.Len())
	if rally, ok := s.Rally.Get(); ok {
		fmt.Printf("Rally:    %s until turn %d\n", rally, s.Rally.Expires())
	}
	fmt.Printf("Threats:\n")
	for _, t := range s.Threats.Items() {
		st, _ := s.Threats.Get(t)
		fmt.Printf("  %s at %s (seen %d, until %d)\n", t.ID, t.Loc, st.Written, st.Expires)
	}
	fmt.Printf("Claims:\n")
	s.Claims.Range(func(l grid.Loc, owner agent.Name) bool {
		fmt.Printf("  %s by %s\n", l, owner)
		return true
	})
	fmt.Printf("Dangers:  %d cells\n", s.Dangers.Len())
	return nil
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch agents publish to the board in real-time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if boardAddr == "" {
				return errors.New("watch needs --board")
			}
			client, err := board.Dial(boardAddr)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Println("Watching broadcasts (Ctrl+C to stop)...")
			return client.Watch(cmd.Context(), func(id string) {
				payload, err := client.Fetch(cmd.Context(), id)
				if err != nil {
					fmt.Printf("%s  fetch failed: %v\n", id, err)
					return
				}
				fmt.Printf("%s  %d bytes\n", id, len(payload))
			})
		},
	}
}

func parseLoc(s string) (grid.Loc, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return grid.Loc{}, fmt.Errorf("location %q: want x,y", s)
	}
	xi, err := strconv.ParseInt(strings.TrimSpace(x), 10, 32)
	if err != nil {
		return grid.Loc{}, fmt.Errorf("location %q: %w", s, err)
	}
	yi, err := strconv.ParseInt(strings.TrimSpace(y), 10, 32)
	if err != nil {
		return grid.Loc{}, fmt.Errorf("location %q: %w", s, err)
	}
	return grid.Loc{X: int32(xi), Y: int32(yi)}, nil
}

// scenarioMap exposes a scenario's full layout as known terrain.
type scenarioMap struct {
	sc *config.Scenario
}

func (m scenarioMap) Passable(l grid.Loc) (bool, bool) {
	x, y := int(l.X), int(l.Y)
	if y < 0 || y >= len(m.sc.Map) || x < 0 || x >= len(m.sc.Map[y]) {
		return false, true
	}
	return m.sc.Open(x, y), true
}
