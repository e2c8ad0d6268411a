package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var (
	// Score buckets biased towards the decision region around common
	// thresholds (0.5, 0.7).
	scoreBuckets = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99}

	trainingDurationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}

	VerdictTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamguard_verdicts_total",
			Help: "Moderation verdicts by reason",
		},
		[]string{"reason"},
	)

	ScamScore = promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scamguard_scam_score",
			Help:    "Classifier scam-score distribution",
			Buckets: scoreBuckets,
		},
	)

	TrainingRunsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "scamguard_training_runs_total",
			Help: "Training pipeline runs by outcome",
		},
		[]string{"status"},
	)

	TrainingDuration = promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scamguard_training_duration_seconds",
			Help:    "Wall time of completed training runs",
			Buckets: trainingDurationBuckets,
		},
	)
)

// Registry exposes the scamguard metrics registry so the embedding
// process can mount it on whatever metrics endpoint it already serves.
func Registry() *prometheus.Registry {
	return registry
}
