package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relab/benor"
)

// Metrics holds the Prometheus collectors shared by all nodes in a process.
// Every collector is labeled by node id.
type Metrics struct {
	MessagesReceived *prometheus.CounterVec
	MessagesIgnored  *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec
	SendFailures     *prometheus.CounterVec
	InboxDropped     *prometheus.CounterVec
	Round            *prometheus.GaugeVec
	Decisions        *prometheus.CounterVec
	CoinFlips        *prometheus.CounterVec
	DecisionLatency  *prometheus.HistogramVec
	RoundsToDecide   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Number of consensus messages processed, by phase",
		}, []string{"node", "phase"}),
		MessagesIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_ignored_total",
			Help:      "Number of consensus messages discarded without processing, by reason",
		}, []string{"node", "reason"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Number of consensus messages handed to the transport, by phase",
		}, []string{"node", "phase"}),
		SendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Number of messages the transport failed to deliver",
		}, []string{"node"}),
		InboxDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_dropped_total",
			Help:      "Number of queued messages dropped because the node's inbox was full",
		}, []string{"node"}),
		Round: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "round",
			Help:      "Current round of the node",
		}, []string{"node"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Number of decisions, by decided value",
		}, []string{"node", "value"}),
		CoinFlips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coin_flips_total",
			Help:      "Number of rounds in which the node had to flip a coin",
		}, []string{"node"}),
		DecisionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_latency_seconds",
			Help:      "Time from start to decision",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"node"}),
		RoundsToDecide: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rounds_to_decide",
			Help:      "Round in which the node decided",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13, 21},
		}, []string{"node"}),
	}
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Node returns the collectors of a single node.
// Calling Node on a nil *Metrics returns a nil *NodeMetrics, whose methods are no-ops.
func (m *Metrics) Node(id benor.ID) *NodeMetrics {
	if m == nil {
		return nil
	}
	return &NodeMetrics{m: m, node: strconv.FormatUint(uint64(id), 10)}
}

// NodeMetrics records the metrics of a single node.
type NodeMetrics struct {
	m    *Metrics
	node string
}

// Received counts a message of the given phase that was added to a round buffer.
func (nm *NodeMetrics) Received(phase benor.Phase) {
	if nm == nil {
		return
	}
	nm.m.MessagesReceived.WithLabelValues(nm.node, phase.String()).Inc()
}

// Ignored counts a message that was discarded for the given reason.
func (nm *NodeMetrics) Ignored(reason string) {
	if nm == nil {
		return
	}
	nm.m.MessagesIgnored.WithLabelValues(nm.node, reason).Inc()
}

// Sent counts a message of the given phase handed to the transport.
func (nm *NodeMetrics) Sent(phase benor.Phase) {
	if nm == nil {
		return
	}
	nm.m.MessagesSent.WithLabelValues(nm.node, phase.String()).Inc()
}

// SendFailed counts a message the transport rejected.
func (nm *NodeMetrics) SendFailed() {
	if nm == nil {
		return
	}
	nm.m.SendFailures.WithLabelValues(nm.node).Inc()
}

// InboxDropped counts a queued message that was dropped from a full inbox.
func (nm *NodeMetrics) InboxDropped() {
	if nm == nil {
		return
	}
	nm.m.InboxDropped.WithLabelValues(nm.node).Inc()
}

// SetRound sets the node's current round.
func (nm *NodeMetrics) SetRound(k benor.Round) {
	if nm == nil {
		return
	}
	nm.m.Round.WithLabelValues(nm.node).Set(float64(k))
}

// CoinFlip counts a round that ended with a coin flip.
func (nm *NodeMetrics) CoinFlip() {
	if nm == nil {
		return
	}
	nm.m.CoinFlips.WithLabelValues(nm.node).Inc()
}

// Decided records a decision for x in round k, latency after the node started.
func (nm *NodeMetrics) Decided(x benor.Value, k benor.Round, latency time.Duration) {
	if nm == nil {
		return
	}
	nm.m.Decisions.WithLabelValues(nm.node, x.String()).Inc()
	nm.m.DecisionLatency.WithLabelValues(nm.node).Observe(latency.Seconds())
	nm.m.RoundsToDecide.WithLabelValues(nm.node).Observe(float64(k))
}
