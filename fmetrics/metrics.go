// Package fmetrics exposes frame graph execution as Prometheus metrics.
package fmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Splice operations counted by Spliced.
const (
	OpInsert = "insert"
	OpRemove = "remove"
)

var frameBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 16.6, 33.3, 50, 100}

// Metrics holds the collectors of one engine. It implements fgraph.Observer.
type Metrics struct {
	FrameDuration    prometheus.Histogram
	NodeDuration     *prometheus.HistogramVec
	NodeErrors       *prometheus.CounterVec
	FramesTotal      prometheus.Counter
	FrameErrors      prometheus.Counter
	FinalizeTotal    prometheus.Counter
	SpliceTotal      *prometheus.CounterVec
	LinearizedNodes  prometheus.Gauge
	UnreachableNodes prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "framegraph_frame_duration_ms",
			Help:    "CPU time spent computing one frame in milliseconds.",
			Buckets: frameBuckets,
		}),
		NodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "framegraph_node_duration_ms",
			Help:    "CPU time spent in one node's compute in milliseconds, labelled by node.",
			Buckets: frameBuckets,
		}, []string{"node"}),
		NodeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "framegraph_node_errors_total",
			Help: "Total number of failed node computes, labelled by node.",
		}, []string{"node"}),
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "framegraph_frames_total",
			Help: "Total number of frames computed.",
		}),
		FrameErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "framegraph_frame_errors_total",
			Help: "Total number of frames aborted by a node error.",
		}),
		FinalizeTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "framegraph_finalize_total",
			Help: "Total number of graph finalizations.",
		}),
		SpliceTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "framegraph_splice_total",
			Help: "Total number of structural splice edits, labelled by operation.",
		}, []string{"op"}),
		LinearizedNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "framegraph_linearized_nodes",
			Help: "Number of nodes in the current execution order.",
		}),
		UnreachableNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "framegraph_unreachable_nodes",
			Help: "Number of registered nodes excluded from execution.",
		}),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// NodeComputed records one node compute.
func (m *Metrics) NodeComputed(node string, elapsed time.Duration, err error) {
	m.NodeDuration.WithLabelValues(node).Observe(ms(elapsed))
	if err != nil {
		m.NodeErrors.WithLabelValues(node).Inc()
	}
}

// FrameComputed records one frame.
func (m *Metrics) FrameComputed(elapsed time.Duration, err error) {
	m.FramesTotal.Inc()
	m.FrameDuration.Observe(ms(elapsed))
	if err != nil {
		m.FrameErrors.Inc()
	}
}

// Finalized records a finalization and the resulting graph shape.
func (m *Metrics) Finalized(linearized, unreachable int) {
	m.FinalizeTotal.Inc()
	m.LinearizedNodes.Set(float64(linearized))
	m.UnreachableNodes.Set(float64(unreachable))
}

// Spliced records a splice edit.
func (m *Metrics) Spliced(op string) {
	m.SpliceTotal.WithLabelValues(op).Inc()
}
