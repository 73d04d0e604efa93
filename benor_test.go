package benor

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		n, f    int
		wantErr bool
	}{
		{1, 0, false},
		{3, 1, false},
		{4, 1, false},
		{2, 1, true},
		{4, 2, true},
		{0, 0, true},
		{3, -1, true},
	}
	for _, test := range tests {
		err := Config{N: test.n, F: test.f}.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("Config{N: %d, F: %d}.Validate() = %v, wantErr %t", test.n, test.f, err, test.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("got error %v, want it to wrap %v", err, ErrInvalidConfig)
		}
	}
}

func TestQuorumAndMajority(t *testing.T) {
	cfg := Config{N: 4, F: 1}
	if got := cfg.Quorum(); got != 3 {
		t.Errorf("Quorum() = %d, want 3", got)
	}
	// N/2 = 2, so 2 is not a strict majority.
	if cfg.Majority(2) {
		t.Error("Majority(2) = true with N=4, want false")
	}
	if !cfg.Majority(3) {
		t.Error("Majority(3) = false with N=4, want true")
	}
}

func TestMessageValid(t *testing.T) {
	tests := []struct {
		msg  Message
		want bool
	}{
		{Message{Round: 1, Value: Zero, Phase: Propose}, true},
		{Message{Round: 7, Value: Unknown, Phase: Vote}, true},
		{Message{Round: 0, Value: One, Phase: Propose}, false},
		{Message{Round: 1, Value: None, Phase: Vote}, false},
		{Message{Round: 1, Value: One, Phase: 3}, false},
		{Message{Round: 1, Value: Value(9), Phase: Propose}, false},
	}
	for _, test := range tests {
		if got := test.msg.Valid(); got != test.want {
			t.Errorf("%v.Valid() = %t, want %t", test.msg, got, test.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	for _, s := range []string{"0", "1", "?", "none"} {
		v, err := ParseValue(s)
		if err != nil {
			t.Fatalf("ParseValue(%q): %v", s, err)
		}
		if v.String() != s {
			t.Errorf("ParseValue(%q).String() = %q", s, v.String())
		}
	}
	if _, err := ParseValue("2"); err == nil {
		t.Error("ParseValue(\"2\") succeeded, want error")
	}
}

func TestNodeStateInert(t *testing.T) {
	var s NodeState
	if !s.Inert() {
		t.Errorf("zero NodeState %v is not inert", s)
	}
	s = NodeState{X: Zero, Decided: Undecided, K: 1}
	if s.Inert() || s.IsDecided() {
		t.Errorf("%v: got inert=%t decided=%t", s, s.Inert(), s.IsDecided())
	}
}
