// Package kmetrics is a Prometheus-backed implementation of
// kernel.Metrics, grounded on the telemetry provider pattern in
// engine/telemetry/metrics/prometheus.go: a handful of Counter/Gauge/
// Histogram instruments registered against one *prometheus.Registry,
// updated from the coordinator's hot path with no synchronization of our
// own (the client library's instruments are already safe for concurrent
// use, though the coordinator itself is single-goroutine).
package kmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements kernel.Metrics. Construct with NewCollector and
// pass to Coordinator.SetMetrics; kernel does not import this package, so
// wiring is the embedder's job.
type Collector struct {
	bagsProcessed     prometheus.Counter
	bagSize           prometheus.Histogram
	tombstonesSkipped prometheus.Counter
	eventTableDepth   prometheus.Gauge
}

// NewCollector registers its instruments against reg and returns a
// Collector ready to pass to kernel.Coordinator.SetMetrics.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		bagsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devskernel",
			Name:      "bags_processed_total",
			Help:      "Total number of CompleteEventBags processed by the coordinator.",
		}),
		bagSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "devskernel",
			Name:      "bag_size",
			Help:      "Number of simulators transitioning per processed bag.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		tombstonesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "devskernel",
			Name:      "tombstones_skipped_total",
			Help:      "Total number of lazily-invalidated heap entries discarded by the event table.",
		}),
		eventTableDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "devskernel",
			Name:      "event_table_depth",
			Help:      "Number of events still pending in the event table after the last processed bag.",
		}),
	}
	reg.MustRegister(c.bagsProcessed, c.bagSize, c.tombstonesSkipped, c.eventTableDepth)
	return c
}

// BagProcessed records one processed bag of the given size.
func (c *Collector) BagProcessed(size int) {
	c.bagsProcessed.Inc()
	c.bagSize.Observe(float64(size))
}

// TombstonesSkipped records n lazily-discarded heap entries.
func (c *Collector) TombstonesSkipped(n int) {
	c.tombstonesSkipped.Add(float64(n))
}

// EventTableDepth records the event table's current pending-event count.
func (c *Collector) EventTableDepth(n int) {
	c.eventTableDepth.Set(float64(n))
}
