package board

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/boshu2/lattice-swarm/internal/memstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// startTestServer spins up a board on a random port and returns a client,
// the server, and cleanup.
func startTestServer(t *testing.T, mem memstore.Store) (*Client, *Server, func()) {
	t.Helper()

	s := New(mem)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor))
	Register(srv, s)

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go srv.Serve(lis) //nolint:errcheck

	client, err := Dial(lis.Addr().String())
	if err != nil {
		srv.Stop()
		t.Fatalf("dial: %v", err)
	}

	cleanup := func() {
		client.Close()
		srv.Stop()
	}
	return client, s, cleanup
}

func TestBoardPublishAndFetch(t *testing.T) {
	client, s, cleanup := startTestServer(t, nil)
	defer cleanup()
	ctx := context.Background()

	if err := client.Publish(ctx, "agent-1", "red", []byte("v1")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := client.Publish(ctx, "agent-1", "red", []byte("v2")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, err := client.Fetch(ctx, "agent-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != "v2" {
		t.Fatalf("expected latest payload v2, got %q", got)
	}

	peers := s.Peers()
	if len(peers) != 1 || peers[0].Faction != "red" {
		t.Fatalf("expected one red peer, got %+v", peers)
	}
}

func TestBoardFetchMissing(t *testing.T) {
	client, _, cleanup := startTestServer(t, nil)
	defer cleanup()

	got, err := client.Fetch(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil payload, got %v", got)
	}
}

func TestBoardPublishRequiresAgent(t *testing.T) {
	client, _, cleanup := startTestServer(t, nil)
	defer cleanup()

	err := client.cc.Invoke(context.Background(), publishMethod, wrapperspb.Bytes([]byte("x")), new(emptypb.Empty))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestBoardMemory(t *testing.T) {
	client, _, cleanup := startTestServer(t, memstore.NewMemory())
	defer cleanup()
	ctx := context.Background()

	if _, err := client.Load(ctx, "agent-1"); !errors.Is(err, memstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := client.Save(ctx, "agent-1", []byte("mem")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := client.Load(ctx, "agent-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "mem" {
		t.Fatalf("expected mem, got %q", got)
	}
}

func TestBoardMemoryUnwired(t *testing.T) {
	client, _, cleanup := startTestServer(t, nil)
	defer cleanup()

	err := client.Save(context.Background(), "agent-1", []byte("mem"))
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("expected Unimplemented, got %v", err)
	}
}

func TestBoardWatch(t *testing.T) {
	client, _, cleanup := startTestServer(t, nil)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got := make(chan string, 16)
	go client.Watch(ctx, func(id string) { got <- id }) //nolint:errcheck
	time.Sleep(100 * time.Millisecond)

	if err := client.Publish(ctx, "agent-7", "red", []byte("x")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case id := <-got:
		if id != "agent-7" {
			t.Fatalf("expected agent-7, got %s", id)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch event")
	}
}
