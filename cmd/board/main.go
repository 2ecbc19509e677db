package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/boshu2/lattice-swarm/internal/board"
	"github.com/boshu2/lattice-swarm/internal/config"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	var cfg config.Board
	if err := config.ParseEnv(&cfg); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level(cfg.LogLevel)})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mem memstore.Store
	if cfg.DBPath != "" {
		db, err := memstore.OpenSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open memory db", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		mem = db
	} else {
		m := memstore.NewMemory(memstore.WithTTL(cfg.MemoryTTL))
		if cfg.MemoryTTL > 0 {
			go m.StartReaper(ctx, cfg.ReapEvery)
		}
		mem = m
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		slog.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(board.LoggingInterceptor))
	board.Register(grpcServer, board.New(mem))
	reflection.Register(grpcServer)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		cancel()
		grpcServer.GracefulStop()
	}()

	slog.Info("board listening", "port", cfg.Port, "db", cfg.DBPath, "memory_ttl", cfg.MemoryTTL)
	if err := grpcServer.Serve(lis); err != nil {
		slog.Error("failed to serve", "error", err)
		os.Exit(1)
	}
}
