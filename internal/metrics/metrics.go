// Package metrics exposes Prometheus instrumentation for the frame pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holofan_frames_sent_total",
			Help: "Frames the fan accepted (HTTP 200)",
		},
	)

	FramesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holofan_frames_failed_total",
			Help: "Frames dropped after exhausting upload retries",
		},
	)

	SendAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holofan_send_attempts_total",
			Help: "Individual frame upload attempts, retries included",
		},
	)

	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "holofan_send_duration_seconds",
			Help: "Wall time of a single frame upload attempt",
		},
	)

	StreamSessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holofan_stream_sessions_total",
			Help: "Completed frame streaming sessions",
		},
	)

	FramesRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holofan_frames_rendered_total",
			Help: "Frames produced by the renderer",
		},
	)

	FramesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holofan_frames_processed_total",
			Help: "Frames passed through display optimization",
		},
	)
)
