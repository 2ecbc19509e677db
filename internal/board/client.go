package board

import (
	"context"
	"fmt"

	"github.com/boshu2/lattice-swarm/internal/memstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client talks to a remote board. It satisfies memstore.Store so remote
// agents can keep their memory on the board.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

var _ memstore.Store = (*Client)(nil)

// Dial connects to the board at addr without transport security.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to board %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close closes a connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Publish posts id's broadcast payload.
func (c *Client) Publish(ctx context.Context, id, faction string, payload []byte) error {
	ctx = metadata.AppendToOutgoingContext(ctx, MetadataAgent, id, MetadataFaction, faction)
	return c.cc.Invoke(ctx, publishMethod, wrapperspb.Bytes(payload), new(emptypb.Empty))
}

// Fetch returns id's latest broadcast payload, or nil when it has none.
func (c *Client) Fetch(ctx context.Context, id string) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, fetchMethod, wrapperspb.String(id), out)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// Save implements memstore.Store.
func (c *Client) Save(ctx context.Context, id string, b []byte) error {
	ctx = metadata.AppendToOutgoingContext(ctx, MetadataAgent, id)
	return c.cc.Invoke(ctx, saveMethod, wrapperspb.Bytes(b), new(emptypb.Empty))
}

// Load implements memstore.Store.
func (c *Client) Load(ctx context.Context, id string) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, loadMethod, wrapperspb.String(id), out)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("agent %q: %w", id, memstore.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// Watch calls fn with the id of every agent that publishes until ctx is
// cancelled or the stream fails.
func (c *Client) Watch(ctx context.Context, fn func(id string)) error {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], watchMethod)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(new(emptypb.Empty)); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		msg := new(wrapperspb.StringValue)
		if err := stream.RecvMsg(msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(msg.GetValue())
	}
}
