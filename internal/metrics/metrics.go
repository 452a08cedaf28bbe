package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds counters for the frame loop. A nil *Metrics is a no-op.
type Metrics struct {
	FramesProcessed   atomic.Uint64
	DetectionFailures atomic.Uint64
	DisplayFailures   atomic.Uint64
	VehiclesCounted   atomic.Uint64
	LastCount         atomic.Int64
	PeakCount         atomic.Int64

	detectLatency prometheus.Histogram
	registry      *prometheus.Registry
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		detectLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "traffic_detect_duration_seconds",
			Help:    "Time spent in the detector per frame",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "traffic_frames_processed_total",
			Help: "Frames taken through the counting loop",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "traffic_detection_failures_total",
			Help: "Frames whose detection failed and were counted as zero",
		},
		func() float64 { return float64(m.DetectionFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "traffic_display_failures_total",
			Help: "Frames that could not be annotated or shown",
		},
		func() float64 { return float64(m.DisplayFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "traffic_vehicles_counted_total",
			Help: "Sum of per-frame vehicle counts",
		},
		func() float64 { return float64(m.VehiclesCounted.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "traffic_vehicles_current",
			Help: "Vehicle count of the most recent frame",
		},
		func() float64 { return float64(m.LastCount.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "traffic_vehicles_peak",
			Help: "Highest single-frame vehicle count in this run",
		},
		func() float64 { return float64(m.PeakCount.Load()) },
	))

	m.registry.MustRegister(m.detectLatency)
}

// ObserveFrame records one processed frame's count.
func (m *Metrics) ObserveFrame(vehicles int) {
	if m == nil {
		return
	}
	m.FramesProcessed.Add(1)
	m.VehiclesCounted.Add(uint64(vehicles))
	m.LastCount.Store(int64(vehicles))
	for {
		peak := m.PeakCount.Load()
		if int64(vehicles) <= peak || m.PeakCount.CompareAndSwap(peak, int64(vehicles)) {
			return
		}
	}
}

// ObserveDetect records detector latency and outcome.
func (m *Metrics) ObserveDetect(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.detectLatency.Observe(elapsed.Seconds())
	if err != nil {
		m.DetectionFailures.Add(1)
	}
}

// ObserveDisplayFailure counts a failed annotate or show.
func (m *Metrics) ObserveDisplayFailure() {
	if m == nil {
		return
	}
	m.DisplayFailures.Add(1)
}

// Snapshot is a JSON-friendly view of the counters.
type Snapshot struct {
	FramesProcessed   uint64 `json:"frames_processed"`
	DetectionFailures uint64 `json:"detection_failures"`
	DisplayFailures   uint64 `json:"display_failures"`
	VehiclesCounted   uint64 `json:"vehicles_counted"`
	LastCount         int64  `json:"last_count"`
	PeakCount         int64  `json:"peak_count"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		FramesProcessed:   m.FramesProcessed.Load(),
		DetectionFailures: m.DetectionFailures.Load(),
		DisplayFailures:   m.DisplayFailures.Load(),
		VehiclesCounted:   m.VehiclesCounted.Load(),
		LastCount:         m.LastCount.Load(),
		PeakCount:         m.PeakCount.Load(),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
