package network

import (
	"context"
	"fmt"

	"github.com/relab/benor"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the endpoints of a single remote node.
type Client struct {
	addr string
	conn *grpc.ClientConn
}

// Dial creates a client for the node at addr.
// The connection is established lazily, on the first call.
// Unless other credentials are given, the connection is not encrypted.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", addr, err)
	}
	return &Client{addr: addr, conn: conn}, nil
}

// Addr returns the address of the remote node.
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Status returns nil if the node is live and benor.ErrFaulty if it is faulty.
func (c *Client) Status(ctx context.Context) error {
	out := new(wrapperspb.StringValue)
	err := c.conn.Invoke(ctx, fullMethod("Status"), &emptypb.Empty{}, out)
	if s, ok := status.FromError(err); ok && s.Code() == codes.Unavailable && s.Message() == benor.ErrFaulty.Error() {
		return fmt.Errorf("node at %s: %w", c.addr, benor.ErrFaulty)
	}
	return err
}

// Send sends a consensus message to the node.
func (c *Client) Send(ctx context.Context, msg benor.Message) error {
	return c.conn.Invoke(ctx, fullMethod("Message"), MessageToProto(msg), &emptypb.Empty{})
}

// Start asks the node to start; it returns once the node has entered round 1.
func (c *Client) Start(ctx context.Context) error {
	err := c.conn.Invoke(ctx, fullMethod("Start"), &emptypb.Empty{}, &emptypb.Empty{})
	if status.Code(err) == codes.FailedPrecondition {
		return fmt.Errorf("node at %s: %w", c.addr, benor.ErrStopped)
	}
	return err
}

// Stop kills the node.
func (c *Client) Stop(ctx context.Context) error {
	return c.conn.Invoke(ctx, fullMethod("Stop"), &emptypb.Empty{}, &emptypb.Empty{})
}

// State returns the node's state.
func (c *Client) State(ctx context.Context) (benor.NodeState, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod("GetState"), &emptypb.Empty{}, out); err != nil {
		return benor.NodeState{}, err
	}
	return StateFromProto(out)
}
