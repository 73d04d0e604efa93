package benor

import (
	"fmt"
	"strconv"
)

// Value is an estimate or a vote.
// The zero value is None, meaning that the node has not started.
type Value int8

const (
	// None means that there is no value yet.
	None Value = iota
	// Zero is the binary value 0.
	Zero
	// One is the binary value 1.
	One
	// Unknown is the "?" vote cast when no value has a strict majority.
	Unknown
)

// ParseValue parses "0", "1", "?" and "none".
func ParseValue(s string) (Value, error) {
	switch s {
	case "0":
		return Zero, nil
	case "1":
		return One, nil
	case "?":
		return Unknown, nil
	case "none", "":
		return None, nil
	}
	return None, fmt.Errorf("invalid value %q", s)
}

// BinaryValue returns the Value for the integer b, which must be 0 or 1.
func BinaryValue(b int) (Value, error) {
	switch b {
	case 0:
		return Zero, nil
	case 1:
		return One, nil
	}
	return None, fmt.Errorf("invalid binary value %d", b)
}

// Valid returns true if v may be carried by a message.
func (v Value) Valid() bool {
	return v == Zero || v == One || v == Unknown
}

// Binary returns true if v is 0 or 1.
func (v Value) Binary() bool {
	return v == Zero || v == One
}

func (v Value) String() string {
	switch v {
	case None:
		return "none"
	case Zero:
		return "0"
	case One:
		return "1"
	case Unknown:
		return "?"
	default:
		return "Value(" + strconv.Itoa(int(v)) + ")"
	}
}

// Decision is the tri-state decided flag of a node.
type Decision int8

const (
	// Unset means that round 1 has not started.
	Unset Decision = iota
	// Undecided means that the node is running but has not decided.
	Undecided
	// Decided means that the node has decided; x and k are frozen.
	Decided
)

func (d Decision) String() string {
	switch d {
	case Undecided:
		return "false"
	case Decided:
		return "true"
	default:
		return "none"
	}
}

// NodeState is a snapshot of the state of a node.
type NodeState struct {
	Killed  bool
	X       Value
	Decided Decision
	K       Round
}

// IsDecided returns true if the node has reached a decision.
func (s NodeState) IsDecided() bool {
	return s.Decided == Decided
}

// Inert returns true if the node never started: x, decided and k are all none.
func (s NodeState) Inert() bool {
	return s.X == None && s.Decided == Unset && s.K == 0
}

func (s NodeState) String() string {
	k := "none"
	if s.K > 0 {
		k = strconv.FormatUint(uint64(s.K), 10)
	}
	return fmt.Sprintf("{ killed: %t, x: %s, decided: %s, k: %s }", s.Killed, s.X, s.Decided, k)
}
