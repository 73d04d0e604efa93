package network

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "benor.Node"

// NodeServer is the server API of the benor.Node service.
type NodeServer interface {
	// Status returns "live", or an Unavailable error with message "faulty".
	Status(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	// Message accepts a consensus message. It is always acknowledged.
	Message(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// Start enters round 1 once every node is ready.
	Start(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	// Stop kills the node.
	Stop(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	// GetState returns the node's state.
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unaryMethod[Req any](method string, call func(NodeServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(NodeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(NodeServer), ctx, req.(*Req))
			})
		},
	}
}

var nodeServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*NodeServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Status", func(s NodeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Status(ctx, in)
		}),
		unaryMethod("Message", func(s NodeServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Message(ctx, in)
		}),
		unaryMethod("Start", func(s NodeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Start(ctx, in)
		}),
		unaryMethod("Stop", func(s NodeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Stop(ctx, in)
		}),
		unaryMethod("GetState", func(s NodeServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.GetState(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "benor/node",
}

// RegisterNodeServer registers srv with the gRPC service registrar.
func RegisterNodeServer(s grpc.ServiceRegistrar, srv NodeServer) {
	s.RegisterService(&nodeServiceDesc, srv)
}
