package cluster

import (
	"errors"
	"testing"

	"github.com/relab/benor"
)

func decided(x benor.Value, k benor.Round) benor.NodeState {
	return benor.NodeState{X: x, Decided: benor.Decided, K: k}
}

func TestCheck(t *testing.T) {
	setup := Setup{
		Config:  benor.Config{N: 4, F: 1},
		Initial: []benor.Value{benor.Zero, benor.Zero, benor.Zero, benor.One},
		Faulty:  []benor.ID{3},
	}
	running := benor.NodeState{X: benor.One, Decided: benor.Undecided, K: 4}

	tests := []struct {
		name   string
		states []benor.NodeState
		want   error
	}{
		{"Agreement", []benor.NodeState{decided(benor.Zero, 1), decided(benor.Zero, 2), decided(benor.Zero, 1), {}}, nil},
		{"Undecided", []benor.NodeState{decided(benor.Zero, 1), running, decided(benor.Zero, 1), {}}, nil},
		{"Disagreement", []benor.NodeState{decided(benor.Zero, 1), decided(benor.Zero, 1), decided(benor.One, 1), {}}, ErrAgreement},
		{"OnlyFaultyProposedOne", []benor.NodeState{decided(benor.One, 3), decided(benor.One, 3), decided(benor.One, 3), {}}, ErrValidity},
		{"FaultyActive", []benor.NodeState{decided(benor.Zero, 1), decided(benor.Zero, 1), decided(benor.Zero, 1), running}, ErrActive},
		{"WrongLength", []benor.NodeState{{}}, benor.ErrInvalidConfig},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := setup.Check(test.states)
			if test.want == nil && err != nil {
				t.Errorf("Check() = %v, want nil", err)
			}
			if test.want != nil && !errors.Is(err, test.want) {
				t.Errorf("Check() = %v, want %v", err, test.want)
			}
		})
	}
}
