package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Episode ingestion metrics
var (
	// Episode write outcomes
	EpisodeWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "automagik",
			Subsystem: "ingest",
			Name:      "episode_writes_total",
			Help:      "Episode write outcomes by status",
		},
		[]string{"status"},
	)

	// Write attempt duration histogram
	WriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "automagik",
			Subsystem: "ingest",
			Name:      "write_duration_seconds",
			Help:      "Knowledge-graph write attempt duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	// Queue depth gauge
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "automagik",
			Subsystem: "ingest",
			Name:      "queue_depth",
			Help:      "Episode tasks resident in the ingestion queue",
		},
	)

	// In-flight gauge
	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "automagik",
			Subsystem: "ingest",
			Name:      "in_flight",
			Help:      "Episode tasks currently owned by a worker",
		},
	)

	// Oldest pending age gauge
	OldestPendingAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "automagik",
			Subsystem: "ingest",
			Name:      "oldest_pending_age_seconds",
			Help:      "Age of the longest-waiting undequeued episode task",
		},
	)
)

// RecordEpisodeWrite records one episode write outcome.
// Status is one of: succeeded, failed, retried, rejected, dropped.
func RecordEpisodeWrite(status string) {
	EpisodeWritesTotal.WithLabelValues(status).Inc()
}

// ObserveWriteAttempt records one write attempt duration.
func ObserveWriteAttempt(status string, durationSec float64) {
	WriteDuration.WithLabelValues(status).Observe(durationSec)
}

// SetQueueGauges updates the queue gauges from a pool snapshot.
func SetQueueGauges(depth, inFlight int, oldestAgeSec float64) {
	QueueDepth.Set(float64(depth))
	InFlight.Set(float64(inFlight))
	OldestPendingAge.Set(oldestAgeSec)
}
