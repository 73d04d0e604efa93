package metrics

import (
	"fmt"
	"math"

	"github.com/relab/benor"
)

// Summary keeps a running mean and sample variance using Welford's online algorithm.
type Summary struct {
	mean  float64
	m2    float64
	count uint64
}

// Add adds a sample.
func (s *Summary) Add(val float64) {
	s.count++
	delta := val - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (val - s.mean)
}

// Count returns the number of samples.
func (s *Summary) Count() uint64 {
	return s.count
}

// Mean returns the mean of the samples, or NaN if there are none.
func (s *Summary) Mean() float64 {
	if s.count == 0 {
		return math.NaN()
	}
	return s.mean
}

// StdDev returns the sample standard deviation, or NaN if there are fewer than two samples.
func (s *Summary) StdDev() float64 {
	if s.count < 2 {
		return math.NaN()
	}
	return math.Sqrt(s.m2 / float64(s.count-1))
}

func (s *Summary) String() string {
	return fmt.Sprintf("mean %.2f, stddev %.2f, n %d", s.Mean(), s.StdDev(), s.count)
}

// DecisionRounds summarizes the rounds in which the decided nodes reached their decision.
func DecisionRounds(states []benor.NodeState) *Summary {
	var s Summary
	for _, st := range states {
		if st.IsDecided() {
			s.Add(float64(st.K))
		}
	}
	return &s
}
