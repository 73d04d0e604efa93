package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/relab/benor"
	"github.com/relab/benor/internal/config"
)

func TestRunCluster(t *testing.T) {
	cfg := &config.ClusterConfig{
		Nodes:        4,
		Faults:       1,
		Values:       []int{0, 0, 1, 0},
		Faulty:       []uint32{3},
		Transport:    "memory",
		Timeout:      10 * time.Second,
		PollInterval: 10 * time.Millisecond,
		Seed:         1,
	}
	var out bytes.Buffer
	if err := runCluster(context.Background(), cfg, &out); err != nil {
		t.Fatalf("runCluster: %v\n%s", err, out.String())
	}
	for _, want := range []string{"node 3 (faulty, initial 0)", "consensus on", " delivered, 0 lost"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}
}

func TestRunClusterInvalidConfig(t *testing.T) {
	cfg := &config.ClusterConfig{Nodes: 2, Faults: 1, Values: []int{0, 1}, Transport: "memory", Timeout: time.Second}
	if err := runCluster(context.Background(), cfg, &bytes.Buffer{}); !errors.Is(err, benor.ErrInvalidConfig) {
		t.Errorf("runCluster() = %v, want %v", err, benor.ErrInvalidConfig)
	}
}

func TestSetLogLevels(t *testing.T) {
	tests := []struct {
		level   string
		pkgs    []string
		wantErr bool
	}{
		{level: "info"},
		{level: "debug", pkgs: []string{"consensus:warn"}},
		{level: "verbose", wantErr: true},
		{level: "info", pkgs: []string{"consensus"}, wantErr: true},
		{level: "info", pkgs: []string{"consensus:loud"}, wantErr: true},
	}
	for _, test := range tests {
		err := setLogLevels(test.level, test.pkgs)
		if (err != nil) != test.wantErr {
			t.Errorf("setLogLevels(%q, %v) = %v, want error: %v", test.level, test.pkgs, err, test.wantErr)
		}
	}
	if err := setLogLevels("info", nil); err != nil {
		t.Fatal(err)
	}
}
