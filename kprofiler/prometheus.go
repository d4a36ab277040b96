package kprofiler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vingarcia/kquery"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

var _ kquery.Profiler = &PrometheusProfiler{}

// PrometheusProfiler exports the duration and the count of the
// profiled queries labeled by event, connection and status.
type PrometheusProfiler struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewPrometheusProfiler registers the query metrics on reg,
// if reg is nil the metrics are created but not registered.
//
// It panics if the metrics were already registered on reg.
func NewPrometheusProfiler(reg prometheus.Registerer) *PrometheusProfiler {
	factory := promauto.With(reg)

	return &PrometheusProfiler{
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kquery_query_duration_seconds",
				Help:    "Duration of the queries executed by kquery",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event", "connection", "status"},
		),
		total: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kquery_queries_total",
				Help: "Total number of queries executed by kquery",
			},
			[]string{"event", "connection", "status"},
		),
	}
}

// Profile implements the kquery.Profiler interface
func (p *PrometheusProfiler) Profile(event string, payload kquery.ProfilerPayload) kquery.ProfilerAction {
	start := time.Now()
	return kquery.ActionFunc(func(err error) {
		status := statusOK
		if err != nil {
			status = statusError
		}

		p.duration.WithLabelValues(event, payload.Connection, status).Observe(time.Since(start).Seconds())
		p.total.WithLabelValues(event, payload.Connection, status).Inc()
	})
}
