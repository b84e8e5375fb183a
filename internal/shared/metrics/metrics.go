package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	extractionTasks = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "extraction_tasks_total",
		Help: "Extraction task transitions by resulting status.",
	}, []string{"status"})

	extractionDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "extraction_duration_seconds",
		Help:    "Time from processing start to a terminal extraction status.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	deviationRecords = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "deviation_records_total",
		Help: "Deviation records computed by classification.",
	}, []string{"classification"})

	checkupRuns = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "checkup_runs_total",
		Help: "Completed checkup runs by overall status.",
	}, []string{"status"})

	checkupDuration = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "checkup_duration_seconds",
		Help:    "Checkup run duration.",
		Buckets: prometheus.DefBuckets,
	})

	qualificationAlerts = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "qualification_alerts_total",
		Help: "Qualifications reported by expiry scans by status.",
	}, []string{"status"})

	workerJobs = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "worker_jobs_total",
		Help: "Queue jobs handled by the worker by outcome.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncExtraction counts an extraction task reaching status.
func IncExtraction(status string) {
	extractionTasks.WithLabelValues(status).Inc()
}

// ObserveExtractionDuration records how long an extraction ran.
func ObserveExtractionDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	extractionDuration.Observe(d.Seconds())
}

// AddDeviations counts n records of the given classification.
func AddDeviations(classification string, n int) {
	if n <= 0 {
		return
	}
	deviationRecords.WithLabelValues(classification).Add(float64(n))
}

// IncCheckup counts a completed checkup.
func IncCheckup(status string, d time.Duration) {
	checkupRuns.WithLabelValues(status).Inc()
	if d >= 0 {
		checkupDuration.Observe(d.Seconds())
	}
}

// AddQualificationAlerts counts qualifications flagged by a scan.
func AddQualificationAlerts(status string, n int) {
	if n <= 0 {
		return
	}
	qualificationAlerts.WithLabelValues(status).Add(float64(n))
}

// IncWorkerJob counts a queue job outcome (received, completed, failed, deleted_unrecoverable).
func IncWorkerJob(outcome string) {
	workerJobs.WithLabelValues(outcome).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
	return gin.WrapH(h)
}
