package network

import (
	"fmt"
	"math"

	"github.com/relab/benor"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages and states travel as google.protobuf.Struct, which is the JSON data model:
// {"round": 1, "value": 0 | 1 | "?", "phase": 1 | 2} and
// {"killed": false, "x": 0 | 1 | "?" | null, "decided": true | false | null, "k": 3 | null}.

func valueToProto(v benor.Value) *structpb.Value {
	switch v {
	case benor.Zero:
		return structpb.NewNumberValue(0)
	case benor.One:
		return structpb.NewNumberValue(1)
	case benor.Unknown:
		return structpb.NewStringValue("?")
	default:
		return structpb.NewNullValue()
	}
}

func valueFromProto(pv *structpb.Value) (benor.Value, error) {
	switch kind := pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return benor.None, nil
	case *structpb.Value_NumberValue:
		if kind.NumberValue == 0 || kind.NumberValue == 1 {
			return benor.BinaryValue(int(kind.NumberValue))
		}
		return benor.None, fmt.Errorf("invalid value %v", kind.NumberValue)
	case *structpb.Value_StringValue:
		return benor.ParseValue(kind.StringValue)
	default:
		return benor.None, fmt.Errorf("invalid value type %T", kind)
	}
}

func uintFromProto(pv *structpb.Value, name string) (uint64, error) {
	n, ok := pv.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: not a number", name)
	}
	f := n.NumberValue
	if f < 0 || f != math.Trunc(f) || f > 1<<53 {
		return 0, fmt.Errorf("%s: invalid number %v", name, f)
	}
	return uint64(f), nil
}

// MessageToProto converts a message to its wire format.
func MessageToProto(msg benor.Message) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"round": structpb.NewNumberValue(float64(msg.Round)),
		"value": valueToProto(msg.Value),
		"phase": structpb.NewNumberValue(float64(msg.Phase)),
	}}
}

// MessageFromProto converts a message from its wire format.
// It returns an error if a field is missing or has the wrong type or range.
func MessageFromProto(pb *structpb.Struct) (benor.Message, error) {
	fields := pb.GetFields()
	round, err := uintFromProto(fields["round"], "round")
	if err != nil {
		return benor.Message{}, err
	}
	phase, err := uintFromProto(fields["phase"], "phase")
	if err != nil {
		return benor.Message{}, err
	}
	value, err := valueFromProto(fields["value"])
	if err != nil {
		return benor.Message{}, err
	}
	msg := benor.Message{Round: benor.Round(round), Value: value, Phase: benor.Phase(phase)}
	if phase > math.MaxUint8 || !msg.Valid() {
		return benor.Message{}, fmt.Errorf("malformed message %v", msg)
	}
	return msg, nil
}

// StateToProto converts a node state to its wire format.
func StateToProto(s benor.NodeState) *structpb.Struct {
	decided := structpb.NewNullValue()
	if s.Decided != benor.Unset {
		decided = structpb.NewBoolValue(s.IsDecided())
	}
	k := structpb.NewNullValue()
	if s.K > 0 {
		k = structpb.NewNumberValue(float64(s.K))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"killed":  structpb.NewBoolValue(s.Killed),
		"x":       valueToProto(s.X),
		"decided": decided,
		"k":       k,
	}}
}

// StateFromProto converts a node state from its wire format.
func StateFromProto(pb *structpb.Struct) (benor.NodeState, error) {
	fields := pb.GetFields()
	var s benor.NodeState
	s.Killed = fields["killed"].GetBoolValue()

	x, err := valueFromProto(fields["x"])
	if err != nil {
		return benor.NodeState{}, fmt.Errorf("x: %w", err)
	}
	s.X = x

	switch d := fields["decided"].GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		s.Decided = benor.Unset
	case *structpb.Value_BoolValue:
		s.Decided = benor.Undecided
		if d.BoolValue {
			s.Decided = benor.Decided
		}
	default:
		return benor.NodeState{}, fmt.Errorf("decided: invalid type %T", d)
	}

	if _, isNull := fields["k"].GetKind().(*structpb.Value_NullValue); fields["k"] != nil && !isNull {
		k, err := uintFromProto(fields["k"], "k")
		if err != nil {
			return benor.NodeState{}, err
		}
		s.K = benor.Round(k)
	}
	return s, nil
}
