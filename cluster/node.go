package cluster

import (
	"context"

	"github.com/relab/benor"
	"github.com/relab/benor/consensus"
	"github.com/relab/benor/network"
)

// Node is the driver's handle on a single node, local or remote.
type Node interface {
	// Status returns benor.ErrFaulty if the node is faulty.
	Status(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	State(ctx context.Context) (benor.NodeState, error)
}

var (
	_ Node = (*localNode)(nil)
	_ Node = (*network.Client)(nil)
)

// localNode calls an engine in the same process.
type localNode struct {
	engine *consensus.Engine
}

func (n localNode) Status(context.Context) error {
	return n.engine.Status()
}

func (n localNode) Start(ctx context.Context) error {
	return n.engine.Start(ctx)
}

func (n localNode) Stop(context.Context) error {
	n.engine.Stop()
	return nil
}

func (n localNode) State(context.Context) (benor.NodeState, error) {
	return n.engine.State(), nil
}
