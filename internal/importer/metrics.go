package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// rowsProcessed counts data rows by validation outcome.
	rowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total data rows processed by outcome",
	}, []string{"outcome"})

	// candidatesProposed counts category candidates sent for approval.
	candidatesProposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "import_category_candidates_total",
		Help: "Total category candidates proposed for approval",
	})

	// runDuration tracks end-to-end import batch duration, approval wait
	// included.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_run_duration_seconds",
		Help:    "End-to-end import batch duration",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 30, 60, 300, 1800},
	})
)

func observeValidation(valid, rejected, warned int) {
	rowsProcessed.WithLabelValues("valid").Add(float64(valid))
	rowsProcessed.WithLabelValues("rejected").Add(float64(rejected))
	rowsProcessed.WithLabelValues("warned").Add(float64(warned))
}

func observeCandidates(n int) {
	candidatesProposed.Add(float64(n))
}

func observeRunDuration(d time.Duration) {
	runDuration.Observe(d.Seconds())
}
