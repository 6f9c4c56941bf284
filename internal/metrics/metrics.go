// Package metrics exposes traversal statistics as Prometheus collectors. The
// Observer is registered with the executor and updated from worker
// goroutines; Handler serves the registry on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/dagwalk/internal/executor"
)

// Observer records arrivals and runs. It implements executor.RunObserver and
// is safe for concurrent use.
type Observer struct {
	arrivals      *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runsInFlight  prometheus.Gauge
	runDuration   prometheus.Histogram
	traceLength   prometheus.Histogram
	workerCounter *prometheus.CounterVec
}

var _ executor.RunObserver = (*Observer)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		arrivals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dagwalk",
			Name:      "node_arrivals_total",
			Help:      "Node arrivals by node kind and status transition",
		}, []string{"kind", "transition"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dagwalk",
			Name:      "runs_total",
			Help:      "Traversal runs by outcome",
		}, []string{"outcome"}),
		runsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "dagwalk",
			Name:      "runs_in_flight",
			Help:      "Traversal runs currently in progress",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dagwalk",
			Name:      "run_wall_seconds",
			Help:      "Wall time of successful traversal runs",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),
		traceLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dagwalk",
			Name:      "trace_length",
			Help:      "Number of labels in the merged trace of successful runs",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		workerCounter: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dagwalk",
			Name:      "worker_arrivals_total",
			Help:      "Node arrivals by worker index",
		}, []string{"worker"}),
	}
}

// OnRunStart implements executor.RunObserver.
func (o *Observer) OnRunStart(context.Context, string, string, int) {
	o.runsInFlight.Inc()
}

// OnArrival implements executor.Observer.
func (o *Observer) OnArrival(_ context.Context, a executor.Arrival) {
	kind, transition := "leaf", "none"
	if !a.Leaf {
		kind = "branch"
		transition = a.From.String() + "->" + a.To.String()
	}
	o.arrivals.WithLabelValues(kind, transition).Inc()
	o.workerCounter.WithLabelValues(strconv.Itoa(a.Worker)).Inc()
}

// OnRunEnd implements executor.RunObserver.
func (o *Observer) OnRunEnd(_ context.Context, _ string, res *executor.Result, err error) {
	o.runsInFlight.Dec()
	if err != nil {
		o.runs.WithLabelValues("error").Inc()
		return
	}
	o.runs.WithLabelValues("ok").Inc()
	o.runDuration.Observe(res.Duration.Seconds())
	o.traceLength.Observe(float64(len(res.Trace)))
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
