// Package eventloop provides a single-consumer event loop.
// Events are queued by any goroutine and handled one at a time by the goroutine running the loop,
// so a handler always runs to completion before the next event is handled.
package eventloop

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/relab/benor/logging"
)

// EventLoop accepts events of any type and executes the handlers registered for the event's type.
type EventLoop struct {
	logger logging.Logger
	eventQ queue

	dropped atomic.Uint64

	mut      sync.Mutex // protects the following:
	handlers map[reflect.Type][]EventHandler
}

// New returns a new event loop with the requested buffer size.
// When the buffer is full, the oldest queued event is dropped.
func New(logger logging.Logger, bufferSize uint) *EventLoop {
	return &EventLoop{
		logger:   logger,
		eventQ:   newQueue(bufferSize),
		handlers: make(map[reflect.Type][]EventHandler),
	}
}

// Register registers a handler for events of type T.
// Handlers for the same type run in the order they were registered.
func Register[T any](el *EventLoop, handlerFunc func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	el.mut.Lock()
	defer el.mut.Unlock()
	el.handlers[t] = append(el.handlers[t], func(event any) {
		handlerFunc(event.(T))
	})
}

// AddEvent adds an event to the event queue.
// It returns true if the queue was full and the oldest event was dropped to make room.
func (el *EventLoop) AddEvent(event any) (dropped bool) {
	if event == nil {
		return false
	}
	old, dropped := el.eventQ.push(event)
	if dropped {
		el.dropped.Add(1)
		el.logger.Debugf("event queue full, dropped %T", old)
	}
	return dropped
}

// Dropped returns the number of events that were dropped because the queue was full.
func (el *EventLoop) Dropped() uint64 {
	return el.dropped.Load()
}

// Pending returns the number of queued events.
func (el *EventLoop) Pending() int {
	return el.eventQ.len()
}

// Run runs the event loop until the context is canceled.
func (el *EventLoop) Run(ctx context.Context) {
	for {
		event, ok := el.eventQ.pop()
		if !ok {
			select {
			case <-el.eventQ.ready():
				continue
			case <-ctx.Done():
				return
			}
		}
		el.processEvent(event)
	}
}

// Tick processes a single event. Returns true if an event was handled.
func (el *EventLoop) Tick() bool {
	event, ok := el.eventQ.pop()
	if !ok {
		return false
	}
	el.processEvent(event)
	return true
}

// processEvent dispatches the event to the handlers registered for its type.
func (el *EventLoop) processEvent(event any) {
	t := reflect.TypeOf(event)

	// the slice is copied so that the handlers can run without holding the mutex
	el.mut.Lock()
	handlers := append([]EventHandler(nil), el.handlers[t]...)
	el.mut.Unlock()

	if len(handlers) == 0 {
		el.logger.Debugf("no handler for event of type %v", t)
		return
	}
	for _, h := range handlers {
		h(event)
	}
}
