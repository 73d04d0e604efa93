package cluster

import (
	"fmt"
	"slices"

	"github.com/relab/benor"
	"github.com/relab/benor/consensus"
)

// Setup describes the nodes of a cluster.
type Setup struct {
	Config benor.Config
	// Initial holds the initial value of each node, indexed by id.
	Initial []benor.Value
	// Faulty lists the ids of the nodes that never participate.
	Faulty []benor.ID
}

// Validate checks that the setup describes a network in which consensus can be reached.
func (s Setup) Validate() error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	if len(s.Initial) != s.Config.N {
		return fmt.Errorf("%w: got %d initial values for %d nodes", benor.ErrInvalidConfig, len(s.Initial), s.Config.N)
	}
	if len(s.Faulty) > s.Config.F {
		return fmt.Errorf("%w: %d faulty nodes, but at most %d are tolerated", benor.ErrInvalidConfig, len(s.Faulty), s.Config.F)
	}
	seen := make(map[benor.ID]bool, len(s.Faulty))
	for _, id := range s.Faulty {
		if int(id) >= s.Config.N {
			return fmt.Errorf("%w: faulty node %d out of range [0, %d)", benor.ErrInvalidConfig, id, s.Config.N)
		}
		if seen[id] {
			return fmt.Errorf("%w: faulty node %d listed twice", benor.ErrInvalidConfig, id)
		}
		seen[id] = true
	}
	for id, v := range s.Initial {
		if !s.IsFaulty(benor.ID(id)) && !v.Binary() {
			return fmt.Errorf("%w: initial value of node %d must be 0 or 1, got %s", benor.ErrInvalidConfig, id, v)
		}
	}
	return nil
}

// IsFaulty reports whether id is a faulty node.
func (s Setup) IsFaulty(id benor.ID) bool {
	return slices.Contains(s.Faulty, id)
}

// Params returns the parameters of node id.
func (s Setup) Params(id benor.ID) consensus.Params {
	return consensus.Params{
		ID:      id,
		Config:  s.Config,
		Initial: s.Initial[id],
		Faulty:  s.IsFaulty(id),
	}
}
