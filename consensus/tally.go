package consensus

import "github.com/relab/benor"

// tally holds the values received for one (round, phase) pair.
type tally struct {
	values []benor.Value
	zeros  int
	ones   int
	// fired is set once the quorum of this tally has been evaluated.
	fired bool
}

func (t *tally) add(v benor.Value) {
	t.values = append(t.values, v)
	switch v {
	case benor.Zero:
		t.zeros++
	case benor.One:
		t.ones++
	}
}

func (t *tally) len() int {
	return len(t.values)
}

// buffer maps rounds to tallies for a single phase.
// Rounds at or below floor have been evicted and are no longer accepted.
type buffer struct {
	rounds map[benor.Round]*tally
	floor  benor.Round
}

func newBuffer() buffer {
	return buffer{rounds: make(map[benor.Round]*tally)}
}

// get returns the tally for round r, creating it if needed.
// It returns nil if r has been evicted.
func (b *buffer) get(r benor.Round) *tally {
	if r <= b.floor {
		return nil
	}
	t, ok := b.rounds[r]
	if !ok {
		t = &tally{}
		b.rounds[r] = t
	}
	return t
}

// peek returns the tally for round r, or nil if there is none.
func (b *buffer) peek(r benor.Round) *tally {
	return b.rounds[r]
}

func (b *buffer) fired(r benor.Round) bool {
	t, ok := b.rounds[r]
	return ok && t.fired
}

// evict removes round r and raises the floor to r.
func (b *buffer) evict(r benor.Round) {
	delete(b.rounds, r)
	if r > b.floor {
		b.floor = r
	}
}
