package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "complementor_nodes_total",
			Help: "Total number of nodes by occupancy",
		},
		[]string{"occupancy"}, // empty, partial, full
	)

	ContainersAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "complementor_containers_available",
			Help: "Total number of free container slots across the cluster",
		},
	)

	ApplicationsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "complementor_applications_total",
			Help: "Total number of applications by state",
		},
		[]string{"state"}, // the Collector sets only "running"
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "complementor_queue_depth",
			Help: "Number of applications waiting in the scheduling queue",
		},
	)

	// Scheduler metrics
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complementor_scheduling_latency_seconds",
			Help:    "Time taken to place one application's containers",
			Buckets: prometheus.DefBuckets,
		},
	)

	ApplicationsScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complementor_applications_scheduled_total",
			Help: "Total number of applications scheduled by policy",
		},
		[]string{"policy"},
	)

	ApplicationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complementor_applications_failed_total",
			Help: "Total number of applications that failed to schedule or launch",
		},
		[]string{"reason"},
	)

	ApplicationRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complementor_application_run_duration_seconds",
			Help:    "Wall-clock duration from application start to finish",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 600, 1800, 3600},
		},
	)

	// Estimator metrics
	EstimatorUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complementor_estimator_updates_total",
			Help: "Total number of estimator updates by kind",
		},
		[]string{"kind"},
	)

	EstimatorUpdateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complementor_estimator_update_duration_seconds",
			Help:    "Time taken to apply one estimator update",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Sampler metrics
	SamplerQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complementor_sampler_query_duration_seconds",
			Help:    "Time taken to query one resource across all hosts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	SamplerQueryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complementor_sampler_query_failures_total",
			Help: "Total number of failed sampler queries by resource",
		},
		[]string{"resource"},
	)

	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complementor_reconciliation_duration_seconds",
			Help:    "Time taken for one estimator-update cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "complementor_reconciliation_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	// Resource manager metrics
	ResourceManagerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "complementor_resource_manager_request_duration_seconds",
			Help:    "Resource manager request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ResourceManagerRequestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complementor_resource_manager_request_failures_total",
			Help: "Total number of failed resource manager requests by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(ContainersAvailable)
	prometheus.MustRegister(ApplicationsTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(ApplicationsScheduled)
	prometheus.MustRegister(ApplicationsFailed)
	prometheus.MustRegister(ApplicationRunDuration)
	prometheus.MustRegister(EstimatorUpdatesTotal)
	prometheus.MustRegister(EstimatorUpdateDuration)
	prometheus.MustRegister(SamplerQueryDuration)
	prometheus.MustRegister(SamplerQueryFailures)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ResourceManagerRequestDuration)
	prometheus.MustRegister(ResourceManagerRequestFailures)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
