// Package metrics provides Prometheus metrics for the KPI engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Catalog and ledger state
	catalogSize      prometheus.Gauge
	assignmentsTotal prometheus.Gauge
	lecturersTotal   prometheus.Gauge
	historyEntries   prometheus.Gauge

	// Mutation counters
	kpiCreated            prometheus.Counter
	kpiUpdated            prometheus.Counter
	kpiDeleted            prometheus.Counter
	assignmentsToggled    prometheus.Counter
	progressUpdates       prometheus.Counter
	snapshotsCommitted    prometheus.Counter
	snapshotsDeduplicated prometheus.Counter
	workplansSubmitted    prometheus.Counter

	// Latency histograms
	scoringDuration       prometheus.Histogram
	rankingUpdateDuration prometheus.Histogram
	evaluationRunDuration prometheus.Histogram
	reportQueryDuration   *prometheus.HistogramVec

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "staffkpi",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_size",
		Help:      "Current number of KPI definitions in the catalog",
	})
	m.assignmentsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assignments_total",
		Help:      "Current number of (kpi, lecturer) assignment pairs",
	})
	m.lecturersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lecturers_total",
		Help:      "Number of lecturers in the directory",
	})
	m.historyEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_entries",
		Help:      "Total committed score snapshots held in memory",
	})

	m.kpiCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kpi_created_total",
		Help:      "Total KPI definitions created",
	})
	m.kpiUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kpi_updated_total",
		Help:      "Total KPI definitions updated",
	})
	m.kpiDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "kpi_deleted_total",
		Help:      "Total KPI definitions deleted",
	})
	m.assignmentsToggled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "assignments_toggled_total",
		Help:      "Total assignment toggle operations applied",
	})
	m.progressUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "progress_updates_total",
		Help:      "Total progress values recorded",
	})
	m.snapshotsCommitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_committed_total",
		Help:      "Total score snapshots appended to history",
	})
	m.snapshotsDeduplicated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_deduplicated_total",
		Help:      "Total snapshot commits suppressed as duplicates",
	})
	m.workplansSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "workplans_submitted_total",
		Help:      "Total workplans submitted",
	})

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Histogram of overall score computation time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.rankingUpdateDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_update_duration_milliseconds",
		Help:      "Histogram of ranking index update time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.evaluationRunDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_run_duration_milliseconds",
		Help:      "Histogram of batch evaluation run time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.reportQueryDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_query_duration_milliseconds",
		Help:      "Histogram of report query time in milliseconds by report kind",
		Buckets:   m.histogramBuckets,
	}, []string{"report"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Total errors by component and kind",
	}, []string{"component", "kind"})
}

// Package-level helpers against the global manager.

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(size int) {
	globalManager.catalogSize.Set(float64(size))
}

// UpdateAssignmentsTotal sets the assignment pair gauge.
func UpdateAssignmentsTotal(count int) {
	globalManager.assignmentsTotal.Set(float64(count))
}

// UpdateLecturersTotal sets the directory size gauge.
func UpdateLecturersTotal(count int) {
	globalManager.lecturersTotal.Set(float64(count))
}

// UpdateHistoryEntries sets the snapshot history gauge.
func UpdateHistoryEntries(count int) {
	globalManager.historyEntries.Set(float64(count))
}

// RecordKPICreated increments the create counter.
func RecordKPICreated() {
	globalManager.kpiCreated.Inc()
}

// RecordKPIUpdated increments the update counter.
func RecordKPIUpdated() {
	globalManager.kpiUpdated.Inc()
}

// RecordKPIDeleted increments the delete counter.
func RecordKPIDeleted() {
	globalManager.kpiDeleted.Inc()
}

// RecordAssignmentToggled increments the toggle counter.
func RecordAssignmentToggled() {
	globalManager.assignmentsToggled.Inc()
}

// RecordProgressUpdate increments the progress counter.
func RecordProgressUpdate() {
	globalManager.progressUpdates.Inc()
}

// RecordSnapshotCommitted increments the commit counter.
func RecordSnapshotCommitted() {
	globalManager.snapshotsCommitted.Inc()
}

// RecordSnapshotDeduplicated increments the duplicate-commit counter.
func RecordSnapshotDeduplicated() {
	globalManager.snapshotsDeduplicated.Inc()
}

// RecordWorkplanSubmitted increments the workplan counter.
func RecordWorkplanSubmitted() {
	globalManager.workplansSubmitted.Inc()
}

// RecordScoringDuration observes one overall score computation.
func RecordScoringDuration(ms float64) {
	globalManager.scoringDuration.Observe(ms)
}

// RecordRankingUpdateDuration observes one ranking index update.
func RecordRankingUpdateDuration(ms float64) {
	globalManager.rankingUpdateDuration.Observe(ms)
}

// RecordEvaluationRun observes one batch evaluation run.
func RecordEvaluationRun(ms float64) {
	globalManager.evaluationRunDuration.Observe(ms)
}

// RecordReportQueryDuration observes one report query by kind.
func RecordReportQueryDuration(report string, ms float64) {
	globalManager.reportQueryDuration.WithLabelValues(report).Observe(ms)
}

// RecordErrorByComponent increments the error counter for a component/kind.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom registry for exposition by the host.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
