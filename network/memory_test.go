package network

import (
	"errors"
	"testing"

	"github.com/relab/benor"
)

type inbox []benor.Message

func (in *inbox) Deliver(msg benor.Message) {
	*in = append(*in, msg)
}

func TestMemorySend(t *testing.T) {
	m := NewMemory()
	var a, b inbox
	m.Register(0, &a)
	m.Register(1, &b)

	msg := benor.Message{Round: 1, Value: benor.One, Phase: benor.Propose}
	for id := range benor.ID(2) {
		if err := m.Send(id, msg); err != nil {
			t.Fatalf("Send(%d) = %v", id, err)
		}
	}
	if len(a) != 1 || len(b) != 1 || a[0] != msg {
		t.Errorf("inboxes = %v, %v, want one %v each", a, b, msg)
	}
	if got := m.Delivered(); got != 2 {
		t.Errorf("Delivered() = %d, want 2", got)
	}

	if err := m.Send(5, msg); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Send(5) = %v, want %v", err, ErrUnknownNode)
	}
}

func TestMemoryDisconnect(t *testing.T) {
	m := NewMemory()
	var in inbox
	m.Register(0, &in)
	msg := benor.Message{Round: 2, Value: benor.Unknown, Phase: benor.Vote}

	m.Disconnect(0)
	if err := m.Send(0, msg); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Send() = %v, want %v", err, ErrUnreachable)
	}
	m.Reconnect(0)
	if err := m.Send(0, msg); err != nil {
		t.Errorf("Send() = %v, want nil", err)
	}
	if len(in) != 1 {
		t.Errorf("got %d messages, want 1", len(in))
	}
	if got := m.Lost(); got != 1 {
		t.Errorf("Lost() = %d, want 1", got)
	}
}

func TestMemoryDropRate(t *testing.T) {
	tests := []struct {
		rate          float64
		wantDelivered uint64
	}{
		{rate: 0, wantDelivered: 100},
		{rate: 1, wantDelivered: 0},
	}
	for _, test := range tests {
		m := NewMemory(WithDropRate(test.rate, 1))
		var in inbox
		m.Register(0, &in)
		for range 100 {
			if err := m.Send(0, benor.Message{Round: 1, Value: benor.Zero, Phase: benor.Propose}); err != nil {
				t.Fatalf("Send() = %v", err)
			}
		}
		if got := m.Delivered(); got != test.wantDelivered {
			t.Errorf("rate %v: Delivered() = %d, want %d", test.rate, got, test.wantDelivered)
		}
		if got := m.Delivered() + m.Lost(); got != 100 {
			t.Errorf("rate %v: Delivered()+Lost() = %d, want 100", test.rate, got)
		}
	}
}
