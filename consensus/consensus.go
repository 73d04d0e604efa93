// Package consensus implements the per-node Ben-Or consensus engine.
//
// An Engine owns the state of one node and the per-round proposal and vote buffers.
// Incoming messages are queued on the engine's event loop and handled one at a time,
// so appending to a buffer, checking the quorum and marking the transition as fired
// is atomic with respect to other messages for the same engine.
package consensus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relab/benor"
	"github.com/relab/benor/eventloop"
	"github.com/relab/benor/logging"
	"github.com/relab/benor/metrics"
)

//go:generate mockgen -destination=../internal/mocks/sender_mock.go -package=mocks . Sender

// Sender delivers a message to a single node, possibly the sender itself.
// Delivery is best-effort: Send must not block on network I/O,
// and it only returns errors that are detected immediately.
type Sender interface {
	Send(to benor.ID, msg benor.Message) error
}

//go:generate mockgen -destination=../internal/mocks/readiness_mock.go -package=mocks . Readiness

// Readiness blocks until every node in the network is ready to receive messages.
type Readiness interface {
	Wait(ctx context.Context) error
}

// Params are the immutable parameters of a node, assigned by the driver.
type Params struct {
	ID      benor.ID
	Config  benor.Config
	Initial benor.Value
	Faulty  bool
}

// Engine runs the Ben-Or protocol for a single node.
type Engine struct {
	id      benor.ID
	cfg     benor.Config
	initial benor.Value
	faulty  bool

	sender    Sender
	ready     Readiness
	coin      Coin
	logger    logging.Logger
	metrics   *metrics.NodeMetrics
	eventLoop *eventloop.EventLoop

	killed atomic.Bool

	mut       sync.Mutex // protects the following:
	state     benor.NodeState
	proposals buffer
	votes     buffer
	startedAt time.Time
}

// New creates an engine for the node described by p.
func New(p Params, sender Sender, ready Readiness, opts ...Option) (*Engine, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if int(p.ID) >= p.Config.N {
		return nil, fmt.Errorf("%w: node id %d out of range [0, %d)", benor.ErrInvalidConfig, p.ID, p.Config.N)
	}
	if !p.Faulty && !p.Initial.Binary() {
		return nil, fmt.Errorf("%w: initial value of node %d must be 0 or 1, got %s", benor.ErrInvalidConfig, p.ID, p.Initial)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.New(fmt.Sprintf("node%d", p.ID))
	}
	if o.coin == nil {
		o.coin = NewCoin(randomSeed())
	}

	e := &Engine{
		id:        p.ID,
		cfg:       p.Config,
		initial:   p.Initial,
		faulty:    p.Faulty,
		sender:    sender,
		ready:     ready,
		coin:      o.coin,
		logger:    o.logger,
		metrics:   o.metrics.Node(p.ID),
		eventLoop: eventloop.New(o.logger, o.bufferSize),
		proposals: newBuffer(),
		votes:     newBuffer(),
	}
	eventloop.Register(e.eventLoop, e.onMessage)
	return e, nil
}

// Run processes delivered messages until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	e.eventLoop.Run(ctx)
}

// Start waits until all nodes are ready and then enters round 1 by broadcasting the initial value.
// Start is a no-op for faulty nodes and for nodes that have already started.
// It returns benor.ErrStopped if the node has been stopped.
func (e *Engine) Start(ctx context.Context) error {
	if e.faulty {
		return nil
	}
	if e.killed.Load() {
		return benor.ErrStopped
	}
	if err := e.ready.Wait(ctx); err != nil {
		return fmt.Errorf("node %d: waiting for readiness: %w", e.id, err)
	}

	e.mut.Lock()
	defer e.mut.Unlock()

	if e.killed.Load() {
		return benor.ErrStopped
	}
	if e.state.K != 0 {
		return nil
	}

	e.state.X = e.initial
	e.state.Decided = benor.Undecided
	e.state.K = 1
	e.startedAt = time.Now()
	e.metrics.SetRound(1)
	e.logger.Infof("starting round 1 with x=%s", e.initial)

	e.broadcast(benor.Message{Round: 1, Value: e.initial, Phase: benor.Propose})
	// votes for round 1 may have arrived before we started
	e.advance()
	return nil
}

// Stop kills the node. Messages delivered afterwards are discarded and no more messages are sent.
// Calling Stop more than once has no effect.
// Stop waits for the message being handled, if any, so the state does not change once Stop returns.
func (e *Engine) Stop() {
	e.mut.Lock()
	defer e.mut.Unlock()
	if e.killed.CompareAndSwap(false, true) {
		e.logger.Info("stopped")
	}
}

// State returns a snapshot of the node's state.
func (e *Engine) State() benor.NodeState {
	e.mut.Lock()
	s := e.state
	e.mut.Unlock()
	s.Killed = e.killed.Load()
	return s
}

// Status returns benor.ErrFaulty if the node is faulty, and nil if it is live.
func (e *Engine) Status() error {
	if e.faulty {
		return benor.ErrFaulty
	}
	return nil
}

// Deliver hands a message to the engine. It never blocks on message processing.
// Messages are discarded if the node is faulty or killed, or if the message is malformed.
func (e *Engine) Deliver(msg benor.Message) {
	switch {
	case e.faulty:
		e.metrics.Ignored("faulty")
		return
	case e.killed.Load():
		e.metrics.Ignored("killed")
		return
	case !msg.Valid():
		e.metrics.Ignored("malformed")
		e.logger.Debugf("ignoring malformed message %v", msg)
		return
	}
	if e.eventLoop.AddEvent(msg) {
		e.metrics.InboxDropped()
	}
}

func (e *Engine) onMessage(msg benor.Message) {
	e.mut.Lock()
	defer e.mut.Unlock()

	if e.killed.Load() {
		e.metrics.Ignored("killed")
		return
	}

	switch msg.Phase {
	case benor.Propose:
		e.onPropose(msg)
	case benor.Vote:
		e.onVote(msg)
	}
}

// onPropose handles a Phase-1 message. Must be called with e.mut held.
func (e *Engine) onPropose(msg benor.Message) {
	if e.state.Decided == benor.Decided && msg.Round > e.state.K+1 {
		// a decided node only helps the round after its decision
		e.metrics.Ignored("decided")
		return
	}

	t := e.proposals.get(msg.Round)
	if t == nil {
		e.metrics.Ignored("evicted")
		return
	}
	e.metrics.Received(benor.Propose)
	t.add(msg.Value)

	if t.fired || t.len() < e.cfg.Quorum() {
		return
	}
	t.fired = true

	candidate := benor.Unknown
	switch {
	case e.cfg.Majority(t.zeros):
		candidate = benor.Zero
	case e.cfg.Majority(t.ones):
		candidate = benor.One
	}
	e.logger.Debugf("round %d: proposals %v, voting %s", msg.Round, t.values, candidate)

	e.broadcast(benor.Message{Round: msg.Round, Value: candidate, Phase: benor.Vote})
	e.prune()
}

// onVote handles a Phase-2 message. Must be called with e.mut held.
func (e *Engine) onVote(msg benor.Message) {
	if e.state.Decided == benor.Decided {
		e.metrics.Ignored("decided")
		return
	}

	t := e.votes.get(msg.Round)
	if t == nil {
		e.metrics.Ignored("evicted")
		return
	}
	e.metrics.Received(benor.Vote)
	t.add(msg.Value)

	e.advance()
}

// advance evaluates the vote quorum of the current round, if there is one,
// and keeps going for as long as the next round already has a quorum of votes.
// Vote quorums of later rounds wait in their buffer until the engine gets there.
// Must be called with e.mut held.
func (e *Engine) advance() {
	for e.state.Decided == benor.Undecided && !e.killed.Load() {
		k := e.state.K
		t := e.votes.peek(k)
		if t == nil || t.fired || t.len() < e.cfg.Quorum() {
			return
		}
		t.fired = true

		switch {
		case t.zeros >= e.cfg.F+1:
			e.decide(benor.Zero)
		case t.ones >= e.cfg.F+1:
			e.decide(benor.One)
		default:
			var x benor.Value
			switch {
			case t.zeros+t.ones == 0:
				x = e.coin.Flip()
				e.metrics.CoinFlip()
				e.logger.Debugf("round %d: no votes for 0 or 1, coin flip gave %s", k, x)
			case t.zeros > t.ones:
				x = benor.Zero
			default:
				x = benor.One
			}
			e.state.X = x
			e.state.K = k + 1
			e.metrics.SetRound(k + 1)
			e.logger.Debugf("round %d: votes %v, entering round %d with x=%s", k, t.values, k+1, x)
			e.broadcast(benor.Message{Round: k + 1, Value: x, Phase: benor.Propose})
		}
		e.prune()
	}
}

// decide freezes x and k. The node still proposes x in the next round,
// so that nodes which are one round behind can gather a quorum.
// Must be called with e.mut held.
func (e *Engine) decide(x benor.Value) {
	e.state.X = x
	e.state.Decided = benor.Decided
	e.metrics.Decided(x, e.state.K, time.Since(e.startedAt))
	e.logger.Infof("decided %s in round %d", x, e.state.K)
	e.broadcast(benor.Message{Round: e.state.K + 1, Value: x, Phase: benor.Propose})
}

// prune evicts the buffers of rounds below the current round whose two transitions have fired.
// Must be called with e.mut held.
func (e *Engine) prune() {
	for r := e.proposals.floor + 1; r < e.state.K; r++ {
		if !e.proposals.fired(r) || !e.votes.fired(r) {
			return
		}
		e.proposals.evict(r)
		e.votes.evict(r)
	}
}

// broadcast sends msg to every node, including this one.
func (e *Engine) broadcast(msg benor.Message) {
	for _, id := range e.cfg.IDs() {
		if e.killed.Load() {
			return
		}
		e.metrics.Sent(msg.Phase)
		if err := e.sender.Send(id, msg); err != nil {
			e.metrics.SendFailed()
			e.logger.Debugf("failed to send %v to node %d: %v", msg, id, err)
		}
	}
}
