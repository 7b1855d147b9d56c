// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesDecodedTotal counts successfully decoded frames by device class.
	FramesDecodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_frames_decoded_total",
			Help: "Total number of successfully decoded frames",
		},
		[]string{"device_class"},
	)

	// DecodeErrorsTotal counts decode failures by reason.
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_decode_errors_total",
			Help: "Total number of frames rejected by the codec",
		},
		[]string{"reason"},
	)

	// PacketsDroppedTotal counts frames presumed lost via sequence gaps.
	PacketsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_packets_dropped_total",
			Help: "Total number of frames presumed dropped in transit",
		},
	)

	// SignalQualityScore tracks the most recent per-frame quality score.
	SignalQualityScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortex_signal_quality_score",
			Help: "Most recent signal quality score (0-100)",
		},
	)

	// ArtifactFramesTotal counts frames with at least one artifact flag set.
	ArtifactFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_artifact_frames_total",
			Help: "Total number of frames flagged with signal artifacts",
		},
		[]string{"kind"},
	)

	// LinkRSSI tracks the most recent RSSI reading.
	LinkRSSI = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortex_link_rssi_dbm",
			Help: "Most recent RSSI reading in dBm",
		},
	)

	// LinkQualityScore tracks the composite link quality score.
	LinkQualityScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortex_link_quality_score",
			Help: "Composite link quality score (0-100)",
		},
	)

	// LinkLevelChangesTotal counts link quality tier transitions.
	LinkLevelChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_link_level_changes_total",
			Help: "Total number of link quality level transitions",
		},
	)

	// FrameSamples measures samples-per-channel distribution per frame.
	FrameSamples = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_frame_samples_per_channel",
			Help:    "Samples per channel carried by decoded frames",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		},
	)
)
