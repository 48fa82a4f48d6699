// Package observability holds the prometheus collectors of the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SamplesIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wearable",
		Name:      "samples_ingested_total",
		Help:      "Sensor samples stored, by ingestion source.",
	}, []string{"source"})

	IngestFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wearable",
		Name:      "ingest_failures_total",
		Help:      "Sensor batches rejected, by ingestion source.",
	}, []string{"source"})

	StatisticsDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wearable",
		Name:      "statistics_duration_seconds",
		Help:      "Time spent computing statistics, by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	GoalsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wearable",
		Name:      "goals_completed_total",
		Help:      "Goals that reached their target.",
	})

	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wearable",
		Name:      "events_published_total",
		Help:      "Domain events forwarded to the broker, by event type and result.",
	}, []string{"event_type", "result"})
)

func init() {
	prometheus.MustRegister(SamplesIngested, IngestFailures, StatisticsDuration, GoalsCompleted, EventsPublished)
}

// ObserveSince records the time elapsed since start for operation.
func ObserveSince(operation string, start time.Time) {
	StatisticsDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
