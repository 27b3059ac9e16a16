package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects pipeline metrics. It satisfies the fetch and oracle
// observer interfaces of the sources and processor packages.
type Recorder struct {
	registry *prometheus.Registry

	fetchedRecords *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	oracleCalls    *prometheus.CounterVec
	oracleLatency  *prometheus.HistogramVec
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	persistErrors  *prometheus.CounterVec
	lastRun        prometheus.Gauge
}

// New registers the techpulse metrics on reg. A nil reg gets a fresh
// registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchedRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_fetched_records_total",
				Help: "Records fetched per source",
			},
			[]string{"source"},
		),
		fetchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_fetch_errors_total",
				Help: "Failed source fetches",
			},
			[]string{"source"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "techpulse_fetch_duration_seconds",
				Help:    "Duration of source fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		oracleCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_oracle_calls_total",
				Help: "Oracle calls by call site and outcome",
			},
			[]string{"site", "outcome"},
		),
		oracleLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "techpulse_oracle_duration_seconds",
				Help:    "Duration of oracle calls in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"site"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_runs_total",
				Help: "Completed pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "techpulse_run_duration_seconds",
			Help:    "Duration of a full pipeline run in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		persistErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_persist_errors_total",
				Help: "Failed writes by destination",
			},
			[]string{"destination"},
		),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "techpulse_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

func (r *Recorder) ObserveFetch(source string, records int, err error, elapsed time.Duration) {
	r.fetchLatency.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(source).Inc()
		return
	}
	r.fetchedRecords.WithLabelValues(source).Add(float64(records))
}

func (r *Recorder) ObserveOracleCall(site string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.oracleCalls.WithLabelValues(site, outcome).Inc()
	r.oracleLatency.WithLabelValues(site).Observe(elapsed.Seconds())
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(elapsed time.Duration, err error, finishedAt time.Time) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(elapsed.Seconds())
	r.lastRun.Set(float64(finishedAt.Unix()))
}

func (r *Recorder) RecordPersistError(destination string) {
	r.persistErrors.WithLabelValues(destination).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
