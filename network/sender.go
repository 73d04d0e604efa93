package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/relab/benor"
	"github.com/relab/benor/logging"
	"go.uber.org/multierr"
	"google.golang.org/grpc"
)

// Errors returned by senders.
var (
	ErrUnknownNode = errors.New("unknown node")
	ErrUnreachable = errors.New("node unreachable")
	ErrClosed      = errors.New("sender closed")
)

// Sender sends consensus messages to remote nodes over gRPC.
// Each message is sent by its own goroutine, so a slow peer never delays the others.
// Failed deliveries are logged and dropped.
type Sender struct {
	logger  logging.Logger
	timeout time.Duration
	peers   map[benor.ID]*Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mut    sync.RWMutex
	closed bool
}

// NewSender creates clients for the given peer addresses.
// Every message gets timeout to be delivered.
func NewSender(peers map[benor.ID]string, timeout time.Duration, logger logging.Logger, opts ...grpc.DialOption) (*Sender, error) {
	s := &Sender{
		logger:  logger,
		timeout: timeout,
		peers:   make(map[benor.ID]*Client, len(peers)),
	}
	for id, addr := range peers {
		c, err := Dial(addr, opts...)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("peer %d: %w", id, err), s.closeClients())
		}
		s.peers[id] = c
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Send sends msg to the node with the given id without waiting for it to be delivered.
func (s *Sender) Send(to benor.ID, msg benor.Message) error {
	c, ok := s.peers[to]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}

	s.mut.RLock()
	defer s.mut.RUnlock()
	if s.closed {
		return ErrClosed
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		if err := c.Send(ctx, msg); err != nil {
			s.logger.Debugf("Failed to deliver %v to node %d at %s: %v", msg, to, c.Addr(), err)
		}
	}()
	return nil
}

// Close cancels outstanding sends, waits for them to return and closes all connections.
func (s *Sender) Close() error {
	s.mut.Lock()
	if s.closed {
		s.mut.Unlock()
		return nil
	}
	s.closed = true
	s.mut.Unlock()

	s.cancel()
	s.wg.Wait()
	return s.closeClients()
}

func (s *Sender) closeClients() error {
	var err error
	for _, c := range s.peers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
