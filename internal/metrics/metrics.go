// Package metrics holds the Prometheus collectors for heaplab.
//
// Collectors are registered on an injected Registerer so tests and the
// collector service each get their own registry. All methods are no-ops on
// a nil *Metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "heaplab"

// Metrics is the set of heaplab collectors.
type Metrics struct {
	transitions       *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	recorderFailures  *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	collectorRequests *prometheus.CounterVec
}

// New registers the collectors on reg.
// Panics if they are already registered there, like promauto.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: stage, action
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Accepted experiment transitions",
		}, []string{"stage", "action"}),

		// Labels: stage, kind (violation kind or StageComplete)
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected experiment actions",
		}, []string{"stage", "kind"}),

		// Labels: sink (store, http, kafka, log)
		recorderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_failures_total",
			Help:      "Run-recorder deliveries that failed and were dropped",
		}, []string{"sink"}),

		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recorder_queue_depth",
			Help:      "Notifications waiting in the asynchronous recorder queue",
		}),

		// Labels: route, code
		collectorRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_requests_total",
			Help:      "Requests handled by the run-logging service",
		}, []string{"route", "code"}),
	}
}

// ObserveTransition counts an accepted action.
func (m *Metrics) ObserveTransition(stage, action string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(stage, action).Inc()
}

// ObserveRejection counts a rejected action.
func (m *Metrics) ObserveRejection(stage, kind string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(stage, kind).Inc()
}

// ObserveRecorderFailure counts a dropped delivery.
func (m *Metrics) ObserveRecorderFailure(sink string) {
	if m == nil {
		return
	}
	m.recorderFailures.WithLabelValues(sink).Inc()
}

// SetQueueDepth reports the recorder queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// ObserveRequest counts a collector request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.collectorRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
