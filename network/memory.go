package network

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/relab/benor"
)

// Deliverer receives messages. It is implemented by *consensus.Engine.
type Deliverer interface {
	Deliver(msg benor.Message)
}

// Memory is a simulated in-process network.
// It can lose messages at random and cut nodes off entirely.
type Memory struct {
	mut   sync.RWMutex
	nodes map[benor.ID]Deliverer
	down  map[benor.ID]bool

	dropRate float64
	rndMut   sync.Mutex
	rnd      *rand.Rand

	delivered atomic.Uint64
	lost      atomic.Uint64
}

// MemoryOption configures a Memory network.
type MemoryOption func(*Memory)

// WithDropRate makes the network lose each message with probability p.
func WithDropRate(p float64, seed uint64) MemoryOption {
	return func(m *Memory) {
		m.dropRate = p
		m.rnd = rand.New(rand.NewPCG(seed, ^seed))
	}
}

// NewMemory creates an empty simulated network.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		nodes: make(map[benor.ID]Deliverer),
		down:  make(map[benor.ID]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register attaches a node to the network.
func (m *Memory) Register(id benor.ID, node Deliverer) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.nodes[id] = node
}

// Disconnect makes every message to id fail with ErrUnreachable.
func (m *Memory) Disconnect(id benor.ID) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.down[id] = true
}

// Reconnect undoes Disconnect.
func (m *Memory) Reconnect(id benor.ID) {
	m.mut.Lock()
	defer m.mut.Unlock()
	delete(m.down, id)
}

// Send delivers msg to the node's inbox, unless the message is lost.
// A lost message is not reported as an error, just like on a real network.
func (m *Memory) Send(to benor.ID, msg benor.Message) error {
	m.mut.RLock()
	node, ok := m.nodes[to]
	down := m.down[to]
	m.mut.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	if down {
		m.lost.Add(1)
		return fmt.Errorf("%w: %d", ErrUnreachable, to)
	}
	if m.drop() {
		m.lost.Add(1)
		return nil
	}
	m.delivered.Add(1)
	node.Deliver(msg)
	return nil
}

func (m *Memory) drop() bool {
	if m.dropRate <= 0 {
		return false
	}
	m.rndMut.Lock()
	defer m.rndMut.Unlock()
	return m.rnd.Float64() < m.dropRate
}

// Delivered returns the number of messages handed to a node.
func (m *Memory) Delivered() uint64 {
	return m.delivered.Load()
}

// Lost returns the number of messages that were dropped or sent to a disconnected node.
func (m *Memory) Lost() uint64 {
	return m.lost.Load()
}
