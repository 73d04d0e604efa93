package cluster

import (
	"time"

	"github.com/relab/benor/logging"
	"github.com/relab/benor/metrics"
)

// Transport selects how the nodes of a cluster talk to each other.
type Transport string

// Supported transports.
const (
	Memory Transport = "memory"
	GRPC   Transport = "grpc"
)

type options struct {
	transport    Transport
	dropRate     float64
	seed         *uint64
	pollInterval time.Duration
	sendTimeout  time.Duration
	metrics      *metrics.Metrics
	logger       logging.Logger
}

func defaultOptions() options {
	return options{
		transport:    Memory,
		pollInterval: DefaultPollInterval,
		sendTimeout:  time.Second,
		logger:       logging.New("cluster"),
	}
}

// Option configures a Cluster.
type Option func(*options)

// WithTransport selects the transport. Default: Memory.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithDropRate makes the in-memory network lose each message with probability p.
func WithDropRate(p float64) Option {
	return func(o *options) {
		o.dropRate = p
	}
}

// WithSeed makes coin flips and message loss reproducible.
// Node i flips a coin seeded with seed+i.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithPollInterval sets how often the driver polls node state. Default: 50ms.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithSendTimeout bounds the time spent delivering a single gRPC message. Default: 1s.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sendTimeout = d
	}
}

// WithMetrics records the activity of every node in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger sets the driver's logger. Default: logging.New("cluster").
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
