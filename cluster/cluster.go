// Package cluster runs a network of Ben-Or nodes in a single process.
//
// A Cluster creates one consensus engine per node, connects the engines
// through the in-memory network or over gRPC on the loopback interface,
// and drives them: it starts the correct nodes, polls their state until
// they have decided, and checks the outcome.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/relab/benor"
	"github.com/relab/benor/consensus"
	"github.com/relab/benor/logging"
	"github.com/relab/benor/network"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Cluster is a set of nodes running in the same process.
type Cluster struct {
	setup  Setup
	opts   options
	logger logging.Logger

	engines []*consensus.Engine
	nodes   []Node
	addrs   []string

	memory  *network.Memory
	servers []*network.Server
	senders []*network.Sender
	clients []*network.Client

	ctx    context.Context
	cancel context.CancelFunc
	loops  errgroup.Group
}

// New creates the nodes described by setup and starts their event loops.
// The nodes do not enter round 1 until Start is called.
func New(setup Setup, opts ...Option) (*Cluster, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cluster{
		setup:  setup,
		opts:   o,
		logger: o.logger,
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	var err error
	switch o.transport {
	case Memory:
		err = c.buildMemory()
	case GRPC:
		err = c.buildGRPC()
	default:
		err = fmt.Errorf("%w: unknown transport %q", benor.ErrInvalidConfig, o.transport)
	}
	if err != nil {
		return nil, multierr.Append(err, c.Close())
	}
	c.logger.Infof("created %d nodes (f=%d, faulty=%v) using %s transport", setup.Config.N, setup.Config.F, setup.Faulty, o.transport)
	return c, nil
}

func (c *Cluster) engineOptions(id benor.ID) []consensus.Option {
	opts := []consensus.Option{consensus.WithMetrics(c.opts.metrics)}
	if c.opts.seed != nil {
		opts = append(opts, consensus.WithSeed(*c.opts.seed+uint64(id)))
	}
	return opts
}

func (c *Cluster) run(e *consensus.Engine) {
	c.loops.Go(func() error {
		e.Run(c.ctx)
		return nil
	})
}

func (c *Cluster) buildMemory() error {
	var netOpts []network.MemoryOption
	if c.opts.dropRate > 0 {
		seed := rand.Uint64()
		if c.opts.seed != nil {
			seed = *c.opts.seed
		}
		netOpts = append(netOpts, network.WithDropRate(c.opts.dropRate, seed))
	}
	c.memory = network.NewMemory(netOpts...)
	barrier := NewBarrier(c.setup.Config.N)

	for _, id := range c.setup.Config.IDs() {
		e, err := consensus.New(c.setup.Params(id), c.memory, barrier, c.engineOptions(id)...)
		if err != nil {
			return err
		}
		c.memory.Register(id, e)
		c.run(e)
		c.engines = append(c.engines, e)
		c.nodes = append(c.nodes, localNode{e})
		barrier.SetReady(id)
	}
	return nil
}

func (c *Cluster) buildGRPC() (err error) {
	ids := c.setup.Config.IDs()
	listeners := make([]net.Listener, 0, len(ids))
	defer func() {
		// listeners handed to a server are closed by the server
		for _, lis := range listeners[len(c.servers):] {
			err = multierr.Append(err, lis.Close())
		}
	}()

	peers := make(map[benor.ID]string, len(ids))
	for _, id := range ids {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("node %d: failed to listen: %w", id, err)
		}
		listeners = append(listeners, lis)
		peers[id] = lis.Addr().String()
		c.addrs = append(c.addrs, lis.Addr().String())
	}

	for _, id := range ids {
		client, err := network.Dial(peers[id])
		if err != nil {
			return err
		}
		c.clients = append(c.clients, client)
	}
	ready := Poll(c.serving, c.opts.pollInterval)

	for _, id := range ids {
		sender, err := network.NewSender(peers, c.opts.sendTimeout, logging.New(fmt.Sprintf("sender%d", id)))
		if err != nil {
			return err
		}
		c.senders = append(c.senders, sender)

		e, err := consensus.New(c.setup.Params(id), sender, ready, c.engineOptions(id)...)
		if err != nil {
			return err
		}
		srv := network.NewServer(e, logging.New(fmt.Sprintf("server%d", id)))
		srv.StartOnListener(listeners[id])
		c.servers = append(c.servers, srv)
		c.run(e)
		c.engines = append(c.engines, e)
		c.nodes = append(c.nodes, c.clients[id])
	}
	return nil
}

// serving reports whether every node answers Status.
func (c *Cluster) serving(ctx context.Context) bool {
	for _, client := range c.clients {
		cctx, cancel := context.WithTimeout(ctx, c.opts.pollInterval)
		err := client.Status(cctx)
		cancel()
		if err != nil && !errors.Is(err, benor.ErrFaulty) {
			return false
		}
	}
	return true
}

// Setup returns the setup the cluster was created with.
func (c *Cluster) Setup() Setup {
	return c.setup
}

// Node returns the handle of node id.
func (c *Cluster) Node(id benor.ID) Node {
	return c.nodes[id]
}

// Addr returns the gRPC address of node id, or the empty string if the cluster uses the in-memory network.
func (c *Cluster) Addr(id benor.ID) string {
	if int(id) >= len(c.addrs) {
		return ""
	}
	return c.addrs[id]
}

// Network returns the in-memory network, or nil if the cluster uses gRPC.
func (c *Cluster) Network() *network.Memory {
	return c.memory
}

// Start starts all correct nodes in parallel and returns when every one of them has entered round 1.
func (c *Cluster) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, n := range c.nodes {
		id := benor.ID(i)
		if c.setup.IsFaulty(id) {
			continue
		}
		g.Go(func() error {
			if err := n.Start(ctx); err != nil {
				return fmt.Errorf("node %d: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// States returns the state of every node, indexed by id.
func (c *Cluster) States(ctx context.Context) ([]benor.NodeState, error) {
	states := make([]benor.NodeState, len(c.nodes))
	var errs error
	for i, n := range c.nodes {
		s, err := n.State(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("node %d: %w", i, err))
			continue
		}
		states[i] = s
	}
	return states, errs
}

// Await polls the state of the nodes until done returns true.
func (c *Cluster) Await(ctx context.Context, done func([]benor.NodeState) bool) ([]benor.NodeState, error) {
	limiter := rate.NewLimiter(rate.Every(c.opts.pollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		states, err := c.States(ctx)
		if err != nil {
			c.logger.Debugf("Failed to poll states: %v", err)
			continue
		}
		if done(states) {
			return states, nil
		}
	}
}

// AwaitConsensus waits until every correct node that has not been stopped has decided.
func (c *Cluster) AwaitConsensus(ctx context.Context) ([]benor.NodeState, error) {
	return c.Await(ctx, func(states []benor.NodeState) bool {
		for i, s := range states {
			if c.setup.IsFaulty(benor.ID(i)) || s.Killed {
				continue
			}
			if !s.IsDecided() {
				return false
			}
		}
		return true
	})
}

// Stop kills every node.
func (c *Cluster) Stop(ctx context.Context) error {
	var errs error
	for i, n := range c.nodes {
		if err := n.Stop(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("node %d: %w", i, err))
		}
	}
	return errs
}

// Close stops the servers and event loops and closes all connections.
func (c *Cluster) Close() error {
	for _, e := range c.engines {
		e.Stop()
	}
	for _, srv := range c.servers {
		srv.Stop()
	}
	var errs error
	for _, s := range c.senders {
		errs = multierr.Append(errs, s.Close())
	}
	for _, client := range c.clients {
		errs = multierr.Append(errs, client.Close())
	}
	c.cancel()
	return multierr.Append(errs, c.loops.Wait())
}
