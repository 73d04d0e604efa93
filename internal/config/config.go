// Package config holds the configuration of a local Ben-Or cluster.
package config

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/relab/benor"
	"github.com/relab/benor/cluster"
)

// ClusterConfig holds the configuration for a run.
type ClusterConfig struct {
	// Nodes is the total number of nodes (N).
	Nodes int
	// Faults is the number of faulty nodes that can be tolerated (F).
	Faults int
	// Values holds the initial value of each node, indexed by id.
	// FromViper draws them at random if none are given.
	Values []int
	// Faulty lists the ids of the nodes that never participate.
	Faulty []uint32
	// Transport is either "memory" or "grpc".
	Transport string
	// Timeout bounds the time spent waiting for consensus.
	Timeout time.Duration
	// PollInterval is the interval at which node state is polled.
	PollInterval time.Duration
	// SendTimeout bounds the delivery of a single gRPC message.
	SendTimeout time.Duration
	// DropRate is the probability that the in-memory network loses a message.
	DropRate float64
	// Seed makes coin flips, message loss and random initial values reproducible. Zero means random.
	Seed uint64
	// MetricsAddr is the address of the Prometheus endpoint. Empty disables it.
	MetricsAddr string
}

// Validate checks that the configuration describes a cluster that can be run.
func (c *ClusterConfig) Validate() error {
	switch cluster.Transport(c.Transport) {
	case cluster.Memory, cluster.GRPC:
	default:
		return fmt.Errorf("%w: unknown transport %q", benor.ErrInvalidConfig, c.Transport)
	}
	if c.DropRate < 0 || c.DropRate >= 1 {
		return fmt.Errorf("%w: drop rate must be in [0, 1), got %v", benor.ErrInvalidConfig, c.DropRate)
	}
	if c.DropRate > 0 && cluster.Transport(c.Transport) != cluster.Memory {
		return fmt.Errorf("%w: drop rate requires the memory transport", benor.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", benor.ErrInvalidConfig)
	}
	_, err := c.Setup()
	return err
}

// Setup returns the cluster setup described by the configuration.
func (c *ClusterConfig) Setup() (cluster.Setup, error) {
	setup := cluster.Setup{
		Config: benor.Config{N: c.Nodes, F: c.Faults},
	}
	if err := setup.Config.Validate(); err != nil {
		return cluster.Setup{}, err
	}

	for i, v := range c.Values {
		b, err := benor.BinaryValue(v)
		if err != nil {
			return cluster.Setup{}, fmt.Errorf("%w: node %d: %v", benor.ErrInvalidConfig, i, err)
		}
		setup.Initial = append(setup.Initial, b)
	}
	for _, id := range c.Faulty {
		setup.Faulty = append(setup.Faulty, benor.ID(id))
	}
	return setup, setup.Validate()
}

// RandomValues returns n random binary values drawn from a generator seeded with seed.
// A zero seed is replaced by a random one.
func RandomValues(n int, seed uint64) []int {
	if n <= 0 {
		return nil
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	rnd := rand.New(rand.NewPCG(seed, seed))
	values := make([]int, n)
	for i := range values {
		values[i] = rnd.IntN(2)
	}
	return values
}

// Options returns the cluster options described by the configuration.
func (c *ClusterConfig) Options() []cluster.Option {
	opts := []cluster.Option{
		cluster.WithTransport(cluster.Transport(c.Transport)),
		cluster.WithDropRate(c.DropRate),
	}
	if c.PollInterval > 0 {
		opts = append(opts, cluster.WithPollInterval(c.PollInterval))
	}
	if c.SendTimeout > 0 {
		opts = append(opts, cluster.WithSendTimeout(c.SendTimeout))
	}
	if c.Seed != 0 {
		opts = append(opts, cluster.WithSeed(c.Seed))
	}
	return opts
}
