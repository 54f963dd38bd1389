package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Wall-clock duration of one full stage drain
	EtlStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etl_stage_duration_seconds",
		Help:    "Duration of one full ETL stage drain",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})

	// Rows written per stage
	EtlRowsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_rows_processed_total",
		Help: "Total rows processed per ETL stage",
	}, []string{"stage"})

	// Batches committed per stage
	EtlBatchesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_batches_processed_total",
		Help: "Total batches committed per ETL stage",
	}, []string{"stage"})

	// Fact rows skipped because a dimension key was not resolvable yet
	EtlFactRowsDeferred = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_fact_rows_deferred_total",
		Help: "Fact rows deferred to a later run due to unresolved dimension keys",
	})

	// Failed pipeline runs
	EtlRunFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_run_failures_total",
		Help: "Total failed pipeline runs",
	})
)

func Init() {
	prometheus.MustRegister(
		EtlStageDuration,
		EtlRowsProcessed,
		EtlBatchesProcessed,
		EtlFactRowsDeferred,
		EtlRunFailures,
	)
}
