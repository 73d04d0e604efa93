package consensus

import (
	"math/rand/v2"
	"sync"

	"github.com/relab/benor"
)

// Coin is the source of randomness used to pick a new estimate
// when every vote of a round was "?".
type Coin interface {
	// Flip returns benor.Zero or benor.One.
	Flip() benor.Value
}

type randomCoin struct {
	mut sync.Mutex
	rnd *rand.Rand
}

// NewCoin returns a fair coin seeded with seed.
func NewCoin(seed uint64) Coin {
	return &randomCoin{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *randomCoin) Flip() benor.Value {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.rnd.IntN(2) == 0 {
		return benor.Zero
	}
	return benor.One
}

type fixedCoin struct {
	mut    sync.Mutex
	values []benor.Value
	next   int
}

// FixedCoin returns a coin that cycles through the given outcomes.
// It is meant for tests that need to force a tie-break.
func FixedCoin(outcomes ...benor.Value) Coin {
	if len(outcomes) == 0 {
		panic("consensus: FixedCoin needs at least one outcome")
	}
	for _, v := range outcomes {
		if !v.Binary() {
			panic("consensus: FixedCoin outcomes must be 0 or 1")
		}
	}
	return &fixedCoin{values: outcomes}
}

func (c *fixedCoin) Flip() benor.Value {
	c.mut.Lock()
	defer c.mut.Unlock()
	v := c.values[c.next%len(c.values)]
	c.next++
	return v
}
