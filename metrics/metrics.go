/*
Package metrics exposes planner activity to Prometheus.

PURPOSE:
  Implements planner.Observer so the assembler and service report model
  sizes, assembly and solve times without knowing about Prometheus, and
  records HTTP requests for the API.

METRICS (namespace harvest_planner):
  model_variables, model_constraints, model_nonzeros  gauges, last model
  model_assembly_seconds                              histogram
  solves_total{solver,status}                         counter
  solve_duration_seconds{solver}                      histogram
  http_requests_total{method,route,code}              counter
  http_request_duration_seconds{method,route}         histogram

Each Collector owns its registry, so tests and several servers in one
process never collide on registration.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/harvest-planner/generic"
)

const namespace = "harvest_planner"

// Collector holds every planner metric.
type Collector struct {
	registry *prometheus.Registry

	modelVariables   prometheus.Gauge
	modelConstraints prometheus.Gauge
	modelNonZeros    prometheus.Gauge
	assemblyDuration prometheus.Histogram

	solvesTotal   *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates and registers all metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		modelVariables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_variables",
			Help:      "Variables in the most recently assembled model",
		}),
		modelConstraints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_constraints",
			Help:      "Constraints in the most recently assembled model",
		}),
		modelNonZeros: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_nonzeros",
			Help:      "Non-zero coefficients in the most recently assembled model",
		}),
		assemblyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_assembly_seconds",
			Help:      "Time spent assembling a model",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Solves by solver and outcome",
			},
			[]string{"solver", "status"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Solver wall-clock time",
				Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0},
			},
			[]string{"solver"},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.modelVariables,
		c.modelConstraints,
		c.modelNonZeros,
		c.assemblyDuration,
		c.solvesTotal,
		c.solveDuration,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// planner.Observer
// =============================================================================

func (c *Collector) ObserveAssembly(stats generic.Stats, took time.Duration) {
	c.modelVariables.Set(float64(stats.Variables))
	c.modelConstraints.Set(float64(stats.Constraints))
	c.modelNonZeros.Set(float64(stats.NonZeros))
	c.assemblyDuration.Observe(took.Seconds())
}

// ObserveSolve counts every outcome. Duration is recorded only when the
// solver returned one.
func (c *Collector) ObserveSolve(solver string, status generic.Status, took time.Duration) {
	c.solvesTotal.WithLabelValues(solver, string(status)).Inc()
	if took > 0 {
		c.solveDuration.WithLabelValues(solver).Observe(took.Seconds())
	}
}

// =============================================================================
// HTTP
// =============================================================================

// RecordRequest records a completed HTTP request. route is the pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordRequest(method, route string, code int, took time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
