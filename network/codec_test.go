package network

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/relab/benor"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestMessageWireFormat(t *testing.T) {
	msg := benor.Message{Round: 7, Value: benor.Unknown, Phase: benor.Vote}
	got := MessageToProto(msg).AsMap()
	want := map[string]any{"round": 7.0, "value": "?", "phase": 2.0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wire format mismatch (-want +got):\n%s", diff)
	}

	back, err := MessageFromProto(MessageToProto(msg))
	if err != nil {
		t.Fatalf("MessageFromProto: %v", err)
	}
	if back != msg {
		t.Errorf("MessageFromProto() = %v, want %v", back, msg)
	}
}

func TestMalformedMessages(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"Empty", map[string]any{}},
		{"MissingValue", map[string]any{"round": 1, "phase": 1}},
		{"RoundZero", map[string]any{"round": 0, "value": 1, "phase": 1}},
		{"NegativeRound", map[string]any{"round": -1, "value": 1, "phase": 1}},
		{"FractionalRound", map[string]any{"round": 1.5, "value": 1, "phase": 1}},
		{"RoundAsString", map[string]any{"round": "1", "value": 1, "phase": 1}},
		{"ValueTwo", map[string]any{"round": 1, "value": 2, "phase": 1}},
		{"ValueBool", map[string]any{"round": 1, "value": true, "phase": 1}},
		{"NullValue", map[string]any{"round": 1, "value": nil, "phase": 1}},
		{"PhaseThree", map[string]any{"round": 1, "value": 0, "phase": 3}},
		{"PhaseOverflow", map[string]any{"round": 1, "value": 0, "phase": 257}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pb, err := structpb.NewStruct(test.fields)
			if err != nil {
				t.Fatal(err)
			}
			if msg, err := MessageFromProto(pb); err == nil {
				t.Errorf("MessageFromProto() = %v, want error", msg)
			}
		})
	}
}

func TestStateWireFormat(t *testing.T) {
	tests := []struct {
		name  string
		state benor.NodeState
		want  map[string]any
	}{
		{"NotStarted", benor.NodeState{}, map[string]any{"killed": false, "x": nil, "decided": nil, "k": nil}},
		{"Running", benor.NodeState{X: benor.One, Decided: benor.Undecided, K: 3}, map[string]any{"killed": false, "x": 1.0, "decided": false, "k": 3.0}},
		{"Decided", benor.NodeState{X: benor.Zero, Decided: benor.Decided, K: 2}, map[string]any{"killed": false, "x": 0.0, "decided": true, "k": 2.0}},
		{"Killed", benor.NodeState{Killed: true, X: benor.One, Decided: benor.Undecided, K: 1}, map[string]any{"killed": true, "x": 1.0, "decided": false, "k": 1.0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pb := StateToProto(test.state)
			if diff := cmp.Diff(test.want, pb.AsMap()); diff != "" {
				t.Errorf("wire format mismatch (-want +got):\n%s", diff)
			}
			got, err := StateFromProto(pb)
			if err != nil {
				t.Fatalf("StateFromProto: %v", err)
			}
			if diff := cmp.Diff(test.state, got); diff != "" {
				t.Errorf("StateFromProto() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateFromProtoErrors(t *testing.T) {
	for _, fields := range []map[string]any{
		{"x": "maybe"},
		{"decided": "yes"},
		{"k": -2},
	} {
		pb, err := structpb.NewStruct(fields)
		if err != nil {
			t.Fatal(err)
		}
		if s, err := StateFromProto(pb); err == nil {
			t.Errorf("StateFromProto(%v) = %v, want error", fields, s)
		}
	}
}
