package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Streamer metrics collectors
var (
	// Streams

	StreamsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamer_streams_active",
			Help: "Number of client streams currently running",
		},
		[]string{"kind"},
	)

	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_streams_total",
			Help: "Total number of finished client streams",
		},
		[]string{"kind", "transport", "outcome"},
	)

	StreamFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_stream_frames_total",
			Help: "Total number of image parts written to clients",
		},
		[]string{"kind"},
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_stream_bytes_total",
			Help: "Total number of payload bytes written to clients",
		},
		[]string{"kind"},
	)

	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamer_stream_duration_seconds",
			Help:    "Lifetime of client streams",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"kind"},
	)

	// Producers

	ProducerFramesPublished = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamer_producer_frames_published",
			Help: "Frames or chunks published by each producer since start",
		},
		[]string{"producer"},
	)

	MicrophoneSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamer_microphone_subscribers",
			Help: "Number of audio clients subscribed to the microphone",
		},
	)

	MicrophoneDroppedChunks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamer_microphone_dropped_chunks",
			Help: "PCM chunks dropped for slow audio clients since start",
		},
	)

	// HTTP

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)
