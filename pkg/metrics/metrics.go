// Package metrics defines the Prometheus metric collectors used by the build
// stages and exposes an HTTP handler for scraping. All recording methods are
// safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for a build.
type Metrics struct {
	TasksTotal           *prometheus.CounterVec
	TaskDuration         *prometheus.HistogramVec
	MergeQueueDepth      *prometheus.GaugeVec
	RecordsTotal         *prometheus.CounterVec
	APSSCandidatesTotal  prometheus.Counter
	APSSComparisonsTotal prometheus.Counter
	APSSProductionsTotal prometheus.Counter
	KnnDroppedTotal      prometheus.Counter
	EnumeratorSize       *prometheus.GaugeVec
	StageDuration        *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them with reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "byblo_tasks_total",
				Help: "Total scheduler tasks by kind and status.",
			},
			[]string{"kind", "status"},
		),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "byblo_task_duration_seconds",
				Help:    "Scheduler task run time in seconds.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"kind"},
		),
		MergeQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "byblo_merge_queue_depth",
				Help: "Sorted runs waiting for a merge partner.",
			},
			[]string{"tree"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "byblo_records_total",
				Help: "Records read by each stage.",
			},
			[]string{"stage"},
		),
		APSSCandidatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "byblo_apss_candidates_total",
				Help: "Vector pairs considered by the similarity search.",
			},
		),
		APSSComparisonsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "byblo_apss_comparisons_total",
				Help: "Vector pairs scored by the similarity search.",
			},
		),
		APSSProductionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "byblo_apss_productions_total",
				Help: "Similarity pairs written by the similarity search.",
			},
		),
		KnnDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "byblo_knn_dropped_total",
				Help: "Neighbour records dropped beyond the K limit.",
			},
		),
		EnumeratorSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "byblo_enumerator_size",
				Help: "Distinct strings held by each enumerator.",
			},
			[]string{"role"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "byblo_stage_duration_seconds",
				Help:    "Pipeline stage wall time in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"stage"},
		),
	}

	reg.MustRegister(
		m.TasksTotal,
		m.TaskDuration,
		m.MergeQueueDepth,
		m.RecordsTotal,
		m.APSSCandidatesTotal,
		m.APSSComparisonsTotal,
		m.APSSProductionsTotal,
		m.KnnDroppedTotal,
		m.EnumeratorSize,
		m.StageDuration,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	return m
}

// ObserveTask records the outcome and duration of one scheduler task.
func (m *Metrics) ObserveTask(kind string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.TasksTotal.WithLabelValues(kind, status).Inc()
	m.TaskDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetQueueDepth reports the merge queue length of a named merge tree.
func (m *Metrics) SetQueueDepth(tree string, depth int) {
	if m == nil {
		return
	}
	m.MergeQueueDepth.WithLabelValues(tree).Set(float64(depth))
}

// AddRecords counts records read by a stage.
func (m *Metrics) AddRecords(stage string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(stage).Add(float64(n))
}

// AddAPSS adds similarity search counters.
func (m *Metrics) AddAPSS(candidates, comparisons, productions int64) {
	if m == nil {
		return
	}
	m.APSSCandidatesTotal.Add(float64(candidates))
	m.APSSComparisonsTotal.Add(float64(comparisons))
	m.APSSProductionsTotal.Add(float64(productions))
}

// AddKnnDropped counts records removed by the K-first reducer.
func (m *Metrics) AddKnnDropped(n int64) {
	if m == nil || n == 0 {
		return
	}
	m.KnnDroppedTotal.Add(float64(n))
}

// SetEnumeratorSize reports the number of strings an enumerator holds.
func (m *Metrics) SetEnumeratorSize(role string, n int) {
	if m == nil {
		return
	}
	m.EnumeratorSize.WithLabelValues(role).Set(float64(n))
}

// ObserveStage records a pipeline stage's wall time.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape HTTP handler for the registry the
// metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
