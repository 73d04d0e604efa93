package cluster

import (
	"errors"
	"fmt"

	"github.com/relab/benor"
	"go.uber.org/multierr"
)

// Violations reported by Check.
var (
	ErrAgreement = errors.New("correct nodes decided different values")
	ErrValidity  = errors.New("decided value was not proposed by any correct node")
	ErrActive    = errors.New("faulty node took part in the protocol")
)

// Check verifies the final states of a run against the setup.
// Decided correct nodes must agree on a value that some correct node started with,
// and faulty nodes must not have left their initial state.
func (s Setup) Check(states []benor.NodeState) error {
	if len(states) != s.Config.N {
		return fmt.Errorf("%w: got %d states for %d nodes", benor.ErrInvalidConfig, len(states), s.Config.N)
	}

	proposed := make(map[benor.Value]bool)
	for i, v := range s.Initial {
		if !s.IsFaulty(benor.ID(i)) {
			proposed[v] = true
		}
	}

	var (
		errs    error
		decided = benor.None
		first   benor.ID
	)
	for i, st := range states {
		id := benor.ID(i)
		if s.IsFaulty(id) {
			if !st.Inert() {
				errs = multierr.Append(errs, fmt.Errorf("%w: node %d has state %v", ErrActive, id, st))
			}
			continue
		}
		if !st.IsDecided() {
			continue
		}
		if !st.X.Binary() || !proposed[st.X] {
			errs = multierr.Append(errs, fmt.Errorf("%w: node %d decided %s", ErrValidity, id, st.X))
		}
		switch {
		case decided == benor.None:
			decided, first = st.X, id
		case decided != st.X:
			errs = multierr.Append(errs, fmt.Errorf("%w: node %d decided %s, node %d decided %s", ErrAgreement, first, decided, id, st.X))
		}
	}
	return errs
}
