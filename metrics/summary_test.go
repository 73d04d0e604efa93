package metrics

import (
	"math"
	"testing"

	"github.com/relab/benor"
)

func TestSummary(t *testing.T) {
	var s Summary
	if !math.IsNaN(s.Mean()) || !math.IsNaN(s.StdDev()) {
		t.Errorf("empty summary: mean %v, stddev %v, want NaN", s.Mean(), s.StdDev())
	}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(v)
	}
	if got := s.Mean(); got != 5 {
		t.Errorf("Mean() = %v, want 5", got)
	}
	// sample variance is 32/7
	if got, want := s.StdDev(), math.Sqrt(32.0/7); math.Abs(got-want) > 1e-9 {
		t.Errorf("StdDev() = %v, want %v", got, want)
	}
	if got := s.Count(); got != 8 {
		t.Errorf("Count() = %d, want 8", got)
	}
}

func TestDecisionRounds(t *testing.T) {
	states := []benor.NodeState{
		{X: benor.One, Decided: benor.Decided, K: 1},
		{X: benor.One, Decided: benor.Decided, K: 3},
		{X: benor.Zero, Decided: benor.Undecided, K: 7},
		{},
	}
	s := DecisionRounds(states)
	if s.Count() != 2 || s.Mean() != 2 {
		t.Errorf("DecisionRounds() = %v, want mean 2 over 2 nodes", s)
	}
}
