package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/boshu2/lattice-swarm/internal/gossip"
	"github.com/boshu2/lattice-swarm/internal/memstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements BoardServer over a latest-wins broadcast board and an
// optional memory store.
type Server struct {
	board  *gossip.Coalescer
	memory memstore.Store

	watchMu  sync.RWMutex
	watchers []chan string
}

// New creates a board server. A nil store disables Save and Load.
func New(memory memstore.Store) *Server {
	return &Server{board: gossip.NewCoalescer(), memory: memory}
}

// Peers returns every agent's latest broadcast ordered by agent id.
func (s *Server) Peers() []gossip.Peer {
	return s.board.Peers()
}

func (s *Server) Publish(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	id, faction, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.board.Add(gossip.Peer{ID: id, Faction: faction, Payload: req.GetValue()})
	s.notify(id)
	return &emptypb.Empty{}, nil
}

func (s *Server) Fetch(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	p, ok := s.board.Get(req.GetValue())
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no broadcast from %q", req.GetValue())
	}
	return wrapperspb.Bytes(p.Payload), nil
}

func (s *Server) Save(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if s.memory == nil {
		return nil, status.Error(codes.Unimplemented, "memory store not wired to this board")
	}
	id, _, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.memory.Save(ctx, id, req.GetValue()); err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Load(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s.memory == nil {
		return nil, status.Error(codes.Unimplemented, "memory store not wired to this board")
	}
	b, err := s.memory.Load(ctx, req.GetValue())
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "%v", err)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return wrapperspb.Bytes(b), nil
}

// Watch streams the id of every agent that publishes until the client
// goes away.
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	ch := make(chan string, 64)
	s.watchMu.Lock()
	s.watchers = append(s.watchers, ch)
	s.watchMu.Unlock()
	defer s.unwatch(ch)

	for {
		select {
		case id := <-ch:
			if err := stream.Send(wrapperspb.String(id)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

func (s *Server) unwatch(ch chan string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

func (s *Server) notify(id string) {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	for _, w := range s.watchers {
		select {
		case w <- id:
		default:
			slog.Debug("board watcher slow, dropping", "agent", id)
		}
	}
}

func caller(ctx context.Context) (id, faction string, err error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get(MetadataAgent); len(v) > 0 && v[0] != "" {
		id = v[0]
	} else {
		return "", "", status.Error(codes.InvalidArgument, "agent id metadata is required")
	}
	if v := md.Get(MetadataFaction); len(v) > 0 {
		faction = v[0]
	}
	return id, faction, nil
}

// LoggingInterceptor logs every unary call at debug level and failures at
// warn.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		slog.Warn("board call failed", "method", info.FullMethod, "code", status.Code(err), "error", err)
		return resp, err
	}
	slog.Debug("board call", "method", info.FullMethod)
	return resp, nil
}
