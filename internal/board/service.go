// Package board is the gRPC rendezvous between agents running in separate
// processes: it carries each agent's latest broadcast payload and, when
// backed by a memstore, its persisted memory.
package board

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lattice.swarm.v1.Board"

// Metadata keys identifying the calling agent.
const (
	MetadataAgent   = "x-agent-id"
	MetadataFaction = "x-faction"
)

const (
	publishMethod = "/" + ServiceName + "/Publish"
	fetchMethod   = "/" + ServiceName + "/Fetch"
	saveMethod    = "/" + ServiceName + "/Save"
	loadMethod    = "/" + ServiceName + "/Load"
	watchMethod   = "/" + ServiceName + "/Watch"
)

// BoardServer is the server API for the Board service. Calls that act on
// behalf of an agent carry its id in MetadataAgent.
type BoardServer interface {
	Publish(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Fetch(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Save(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Load(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
}

// Register registers srv on s.
func Register(s grpc.ServiceRegistrar, srv BoardServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BoardServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Publish", publishMethod, func(s BoardServer, ctx context.Context, in *wrapperspb.BytesValue) (proto.Message, error) {
			return s.Publish(ctx, in)
		}),
		unary("Fetch", fetchMethod, func(s BoardServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.Fetch(ctx, in)
		}),
		unary("Save", saveMethod, func(s BoardServer, ctx context.Context, in *wrapperspb.BytesValue) (proto.Message, error) {
			return s.Save(ctx, in)
		}),
		unary("Load", loadMethod, func(s BoardServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.Load(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "lattice/swarm/v1/board.proto",
}

// unary builds the method descriptor protoc-gen-go-grpc would emit for a
// single request/response call.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](name, fullMethod string, call func(BoardServer, context.Context, PReq) (proto.Message, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BoardServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BoardServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BoardServer).Watch(in, &grpc.GenericServerStream[emptypb.Empty, wrapperspb.StringValue]{ServerStream: stream})
}
