package config

import (
	"fmt"

	"github.com/relab/benor"
	"github.com/spf13/viper"
)

// NewViper reads the cluster configuration from viper's flags, environment and config file.
func NewViper() (*ClusterConfig, error) {
	return FromViper(viper.GetViper())
}

// FromViper reads the cluster configuration from v.
func FromViper(v *viper.Viper) (*ClusterConfig, error) {
	intFaulty := v.GetIntSlice("faulty")
	faulty := make([]uint32, len(intFaulty))
	for i, id := range intFaulty {
		if id < 0 {
			return nil, fmt.Errorf("%w: faulty node id %d is negative", benor.ErrInvalidConfig, id)
		}
		faulty[i] = uint32(id)
	}

	cfg := &ClusterConfig{
		Nodes:        v.GetInt("nodes"),
		Faults:       v.GetInt("faults"),
		Values:       v.GetIntSlice("values"),
		Faulty:       faulty,
		Transport:    v.GetString("transport"),
		Timeout:      v.GetDuration("timeout"),
		PollInterval: v.GetDuration("poll-interval"),
		SendTimeout:  v.GetDuration("send-timeout"),
		DropRate:     v.GetFloat64("drop-rate"),
		Seed:         v.GetUint64("seed"),
		MetricsAddr:  v.GetString("metrics-addr"),
	}
	if len(cfg.Values) == 0 {
		cfg.Values = RandomValues(cfg.Nodes, cfg.Seed)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
