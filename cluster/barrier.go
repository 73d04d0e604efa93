package cluster

import (
	"context"
	"sync"
	"time"

	"github.com/relab/benor"
	"github.com/relab/benor/consensus"
	"golang.org/x/time/rate"
)

// Barrier is released once every node of the network has reported ready.
type Barrier struct {
	mut   sync.Mutex
	n     int
	ready map[benor.ID]struct{}
	done  chan struct{}
}

// NewBarrier returns a barrier for n nodes.
func NewBarrier(n int) *Barrier {
	b := &Barrier{
		n:     n,
		ready: make(map[benor.ID]struct{}, n),
		done:  make(chan struct{}),
	}
	if n <= 0 {
		close(b.done)
	}
	return b
}

// SetReady marks the node as ready. Marking a node twice has no effect.
func (b *Barrier) SetReady(id benor.ID) {
	b.mut.Lock()
	defer b.mut.Unlock()
	if len(b.ready) >= b.n {
		return
	}
	b.ready[id] = struct{}{}
	if len(b.ready) == b.n {
		close(b.done)
	}
}

// AllReady reports whether every node is ready.
func (b *Barrier) AllReady() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Wait blocks until every node is ready or ctx is done.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DefaultPollInterval is the interval at which Poll checks its predicate.
const DefaultPollInterval = 50 * time.Millisecond

type pollReadiness struct {
	pred     func(ctx context.Context) bool
	interval time.Duration
}

// Poll returns a Readiness that checks pred at most once per interval until it returns true.
func Poll(pred func(ctx context.Context) bool, interval time.Duration) consensus.Readiness {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &pollReadiness{pred: pred, interval: interval}
}

func (p *pollReadiness) Wait(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if p.pred(ctx) {
			return nil
		}
	}
}
