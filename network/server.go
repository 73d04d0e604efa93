package network

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/relab/benor"
	"github.com/relab/benor/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Node is the local node served by a Server. It is implemented by *consensus.Engine.
type Node interface {
	Deliver(msg benor.Message)
	Start(ctx context.Context) error
	Stop()
	State() benor.NodeState
	Status() error
}

// Server exposes a node's endpoints over gRPC.
type Server struct {
	node    Node
	logger  logging.Logger
	grpcSrv *grpc.Server
}

// NewServer creates a new Server for node.
func NewServer(node Node, logger logging.Logger, opts ...grpc.ServerOption) *Server {
	srv := &Server{
		node:    node,
		logger:  logger,
		grpcSrv: grpc.NewServer(opts...),
	}
	RegisterNodeServer(srv.grpcSrv, &serviceImpl{srv})
	return srv
}

// Start creates a listener on the given address and starts the server.
func (srv *Server) Start(addr string) (net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv.StartOnListener(lis)
	return lis.Addr(), nil
}

// StartOnListener starts the server with the given listener.
func (srv *Server) StartOnListener(listener net.Listener) {
	go func() {
		err := srv.grpcSrv.Serve(listener)
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			srv.logger.Errorf("An error occurred while serving: %v", err)
		}
	}()
}

// Stop stops the server. It does not stop the node.
func (srv *Server) Stop() {
	srv.grpcSrv.Stop()
}

// serviceImpl implements NodeServer on top of the node.
type serviceImpl struct {
	srv *Server
}

func (impl *serviceImpl) Status(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	if err := impl.srv.node.Status(); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return wrapperspb.String("live"), nil
}

func (impl *serviceImpl) Message(_ context.Context, pb *structpb.Struct) (*emptypb.Empty, error) {
	msg, err := MessageFromProto(pb)
	if err != nil {
		impl.srv.logger.Debugf("Ignoring message: %v", err)
		return &emptypb.Empty{}, nil
	}
	impl.srv.node.Deliver(msg)
	return &emptypb.Empty{}, nil
}

func (impl *serviceImpl) Start(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	err := impl.srv.node.Start(ctx)
	switch {
	case err == nil:
		return &emptypb.Empty{}, nil
	case errors.Is(err, benor.ErrStopped):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	default:
		return nil, status.Error(codes.Internal, err.Error())
	}
}

func (impl *serviceImpl) Stop(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	impl.srv.node.Stop()
	return &emptypb.Empty{}, nil
}

func (impl *serviceImpl) GetState(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return StateToProto(impl.srv.node.State()), nil
}
