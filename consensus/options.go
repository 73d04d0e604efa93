package consensus

import (
	"math/rand/v2"

	"github.com/relab/benor/logging"
	"github.com/relab/benor/metrics"
)

type options struct {
	coin       Coin
	logger     logging.Logger
	metrics    *metrics.Metrics
	bufferSize uint
}

func defaultOptions() options {
	return options{
		bufferSize: 1000,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithCoin sets the source of randomness for tie-breaks.
// Default: a fair coin with a random seed.
func WithCoin(coin Coin) Option {
	return func(o *options) {
		o.coin = coin
	}
}

// WithSeed uses a fair coin seeded with seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.coin = NewCoin(seed)
	}
}

// WithLogger sets the logger. Default: logging.New("node<id>").
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records the engine's activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithBufferSize sets the capacity of the engine's inbox.
// When the inbox is full the oldest message is dropped.
// Default: 1000
func WithBufferSize(size uint) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

func randomSeed() uint64 {
	return rand.Uint64()
}
