// Package metrics collects measurements of consensus runs.
//
// Live counters, gauges and histograms are exported through Prometheus.
// Every node in a process shares the same Metrics and is told apart by its node label;
// an engine records into the NodeMetrics returned by Metrics.Node.
// A nil *Metrics or *NodeMetrics records nothing.
//
// Summary computes offline statistics over the final states of a run.
package metrics
