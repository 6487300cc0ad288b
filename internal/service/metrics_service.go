package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scheduling run outcomes used as metric labels.
const (
	RunOutcomeSuccess    = "success"
	RunOutcomeInfeasible = "infeasible"
	RunOutcomeBudget     = "budget_exhausted"
	RunOutcomeInvalid    = "invalid_input"
	RunOutcomeError      = "error"
)

// MetricsService owns the Prometheus registry for HTTP, cache and scheduler instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	searchNodes     prometheus.Histogram
	searchBacktrack prometheus.Histogram
	calendarEvents  prometheus.Counter
	jobsTotal       *prometheus.CounterVec
	jobWait         *prometheus.HistogramVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Scheduling runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_search_duration_seconds",
			Help:    "Wall time spent in the backtracking search",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		}),
		searchNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_search_nodes",
			Help:    "Candidate placements evaluated per run",
			Buckets: prometheus.ExponentialBuckets(10, 10, 7),
		}),
		searchBacktrack: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_search_backtracks",
			Help:    "Undone commitments per run",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		}),
		calendarEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calendar_events_rendered_total",
			Help: "VEVENT blocks written to iCalendar exports",
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_attempts_total",
			Help: "Background job attempts by queue, type and outcome",
		}, []string{"queue", "type", "outcome"}),
		jobWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_queue_wait_seconds",
			Help:    "Time a job spent buffered before a worker picked it up",
			Buckets: prometheus.DefBuckets,
		}, []string{"queue"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite,
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.runsTotal, m.runDuration, m.searchNodes, m.searchBacktrack, m.calendarEvents,
		m.jobsTotal, m.jobWait,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSchedulerRun records the outcome and search effort of one run.
func (m *MetricsService) ObserveSchedulerRun(outcome string, nodes, backtracks int, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.searchNodes.Observe(float64(nodes))
	m.searchBacktrack.Observe(float64(backtracks))
}

// AddCalendarEvents counts rendered calendar events.
func (m *MetricsService) AddCalendarEvents(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.calendarEvents.Add(float64(n))
}

// ObserveJob records one background job attempt.
func (m *MetricsService) ObserveJob(queue, jobType, outcome string, wait, _ time.Duration) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(queue, jobType, outcome).Inc()
	m.jobWait.WithLabelValues(queue).Observe(wait.Seconds())
}
