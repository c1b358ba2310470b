// Package metrics exposes Prometheus collectors for the server side of the
// pipeline: how many sessions and segments are flowing, how long
// recognition takes, and how often things fail.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capswriter_sessions_active",
		Help: "Currently open client WebSocket connections",
	})

	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capswriter_sessions_total",
		Help: "Total client WebSocket connections accepted",
	})

	SegmentsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capswriter_segments_dispatched_total",
		Help: "Audio segments handed to the ASR worker",
	})

	SegmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capswriter_segment_duration_seconds",
		Help:    "Audio duration per dispatched segment",
		Buckets: []float64{1, 2, 5, 10, 15, 20, 30},
	})

	ASRLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capswriter_asr_latency_seconds",
		Help:    "Time from segment submit to worker output for one segment",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	MergeQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "capswriter_merge_inflight_tasks",
		Help: "Number of task_ids with an in-flight PartialResult in the merger",
	})

	DeadLettersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capswriter_dead_letters_total",
		Help: "Worker outputs recorded to the dead-letter store",
	})

	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capswriter_malformed_frames_total",
		Help: "Inbound frames rejected as malformed, closing the connection",
	})
)
