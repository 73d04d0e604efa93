// Package benor defines the core types of the Ben-Or asynchronous binary consensus protocol.
//
// Each node runs a consensus engine (package consensus) that alternates between two phases per round:
//
//	round k:  Phase 1 (propose) --quorum N-F--> Phase 2 (vote) --quorum N-F--> decide | round k+1
//
// In Phase 1 a node broadcasts its estimate x. After receiving N-F proposals for the round,
// it votes for a value that a strict majority of all N nodes proposed, or "?" if there is none.
// After receiving N-F votes, a node decides v if at least F+1 votes were for v.
// Otherwise it adopts any value it saw a vote for, or flips a coin if all votes were "?",
// and enters the next round.
//
// Messages are delivered by a best-effort transport (package network) and nodes are
// created and started by a driver (package cluster).
package benor

import (
	"errors"
	"fmt"
)

// Errors returned by nodes and their surrounding infrastructure.
var (
	// ErrFaulty is returned by the health probe of a node that is configured as faulty.
	ErrFaulty = errors.New("faulty")
	// ErrStopped is returned when an operation is attempted on a stopped node.
	ErrStopped = errors.New("node stopped")
	// ErrInvalidConfig is returned when N and F cannot guarantee agreement.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ID uniquely identifies a node. IDs are assigned in the range [0, N).
type ID uint32

// Round is a round number. Rounds start at 1; the zero value means that no round has started.
type Round uint64

// Phase identifies the sub-step of a round a message belongs to.
type Phase uint8

const (
	// Propose is the first phase of a round, where nodes broadcast their estimate.
	Propose Phase = 1
	// Vote is the second phase of a round, where nodes broadcast the outcome of the proposals.
	Vote Phase = 2
)

// Valid returns true if p is one of the two protocol phases.
func (p Phase) Valid() bool {
	return p == Propose || p == Vote
}

func (p Phase) String() string {
	switch p {
	case Propose:
		return "Phase1"
	case Vote:
		return "Phase2"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Message is the only message exchanged between nodes.
type Message struct {
	Round Round
	Value Value
	Phase Phase
}

// Valid returns true if the message can be processed by an engine.
// Messages that are not valid must be ignored.
func (m Message) Valid() bool {
	return m.Round >= 1 && m.Phase.Valid() && m.Value.Valid()
}

func (m Message) String() string {
	return fmt.Sprintf("%s{ k: %d, x: %s }", m.Phase, m.Round, m.Value)
}

// Config holds the size of the network.
type Config struct {
	// N is the total number of nodes.
	N int
	// F is the number of faulty nodes that must be tolerated.
	F int
}

// Quorum returns the number of messages a node waits for before evaluating a phase.
func (c Config) Quorum() int {
	return c.N - c.F
}

// Majority reports whether count is a strict majority of all N nodes.
func (c Config) Majority(count int) bool {
	return 2*count > c.N
}

// Validate returns an error unless N > 2F.
func (c Config) Validate() error {
	if c.N < 1 || c.F < 0 {
		return fmt.Errorf("%w: N=%d F=%d", ErrInvalidConfig, c.N, c.F)
	}
	if c.N <= 2*c.F {
		return fmt.Errorf("%w: N=%d must be greater than 2F=%d", ErrInvalidConfig, c.N, 2*c.F)
	}
	return nil
}

// IDs returns the IDs of all nodes in the network.
func (c Config) IDs() []ID {
	ids := make([]ID, c.N)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}
