package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	uploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetqa_uploads_total",
			Help: "Total number of workbook uploads processed.",
		},
	)
	sheetsMaterializedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetqa_sheets_materialized_total",
			Help: "Total number of sheets materialized as tables.",
		},
	)
	sheetFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetqa_sheet_failures_total",
			Help: "Total number of sheets that failed to materialize.",
		},
	)
	ingestDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheetqa_ingest_duration_seconds",
			Help:    "Workbook ingestion latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetqa_questions_total",
			Help: "Total number of questions answered.",
		},
	)
	oracleCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sheetqa_oracle_call_duration_seconds",
			Help:    "Oracle completion latency by pipeline stage.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	oracleFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetqa_oracle_failures_total",
			Help: "Total number of failed oracle completions by stage.",
		},
		[]string{"stage"},
	)
	sqlRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetqa_sql_rejections_total",
			Help: "Total number of generated statements rejected by the validation gate.",
		},
	)
	executionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetqa_execution_failures_total",
			Help: "Total number of gated statements the store failed to execute.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		uploadsTotal,
		sheetsMaterializedTotal,
		sheetFailuresTotal,
		ingestDurationSeconds,
		questionsTotal,
		oracleCallDurationSeconds,
		oracleFailuresTotal,
		sqlRejectionsTotal,
		executionFailuresTotal,
	)
}

func ObserveUpload(materialized, failed int, duration time.Duration) {
	uploadsTotal.Inc()
	sheetsMaterializedTotal.Add(float64(materialized))
	sheetFailuresTotal.Add(float64(failed))
	ingestDurationSeconds.Observe(duration.Seconds())
}

func ObserveQuestion() {
	questionsTotal.Inc()
}

func ObserveOracleCall(stage string, duration time.Duration, failed bool) {
	oracleCallDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
	if failed {
		oracleFailuresTotal.WithLabelValues(stage).Inc()
	}
}

func IncrementSQLRejection() {
	sqlRejectionsTotal.Inc()
}

func IncrementExecutionFailure() {
	executionFailuresTotal.Inc()
}
