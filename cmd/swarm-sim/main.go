package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/boshu2/lattice-swarm/internal/board"
	"github.com/boshu2/lattice-swarm/internal/config"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"github.com/boshu2/lattice-swarm/internal/swarm"
)

func main() {
	var cfg config.Sim
	if err := config.ParseEnv(&cfg); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level(cfg.LogLevel)})))

	sc, err := config.LoadScenario(cfg.Scenario)
	if err != nil {
		slog.Error("invalid scenario", "path", cfg.Scenario, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	opts := swarm.Options{
		Scenario:    sc,
		Turns:       cfg.Turns,
		Interval:    cfg.Interval,
		BudgetBytes: cfg.BudgetBytes,
		ReportEvery: 10,
	}

	switch {
	case cfg.BoardAddr != "":
		client, err := board.Dial(cfg.BoardAddr)
		if err != nil {
			slog.Error("board unavailable", "addr", cfg.BoardAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		opts.Store = client
		opts.Mirror = client
	case cfg.DBPath != "":
		db, err := memstore.OpenSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open memory db", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		opts.Store = db
	}

	sum, err := swarm.Run(ctx, opts)
	if err != nil {
		slog.Error("swarm-sim", "error", err)
		os.Exit(1)
	}
	for _, a := range sum.Agents {
		slog.Info("agent", "name", a.Name, "id", a.ID, "known", a.Known, "collected", a.Collected)
	}
}
