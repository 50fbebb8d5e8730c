package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks price submissions by resulting state (pending, verified, invalid).
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_submissions_total",
			Help: "Total number of price submissions (by resulting state).",
		},
		[]string{"state"},
	)

	// Tracks votes cast, labeled by whether they finalized the record.
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_votes_total",
			Help: "Total number of votes cast (by outcome).",
		},
		[]string{"outcome"},
	)

	AlertsFiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatch_alerts_fired_total",
			Help: "Total number of price-drop notifications produced.",
		},
	)

	NotifyErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_notify_errors_total",
			Help: "Number of notification publish failures.",
		},
		[]string{"channel"},
	)

	// Measures duration of comparison queries.
	CompareDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricewatch_compare_duration_seconds",
			Help:    "Duration of cross-store comparison queries in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100µs → ~1.6s
		},
	)
)

// ObserveCompare records the time taken by a comparison query.
func ObserveCompare(start time.Time) {
	CompareDuration.Observe(time.Since(start).Seconds())
}
