// Package metrics holds the Prometheus collectors shared by the scoring,
// search and HTTP layers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lmexplorer"

var (
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state_cache",
			Name:      "lookups_total",
			Help:      "State cache lookups by result.",
		},
		[]string{"result"},
	)
	cacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state_cache",
			Name:      "evictions_total",
			Help:      "Entries dropped because the state cache was full.",
		},
	)

	scoringCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "calls_total",
			Help:      "Scoring calls by recomputation mode (cached, incremental, scratch) and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	scoringTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_total",
			Help:      "Tokens fed to the model by recomputation mode.",
		},
		[]string{"mode"},
	)
	scoringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "duration_seconds",
			Help:      "Latency of model scoring calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	searchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Query operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)
	searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Latency of query operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		cacheLookups, cacheEvictions,
		scoringCalls, scoringTokens, scoringDuration,
		searchRequests, searchDuration,
		httpRequests, httpDuration,
	)
}

// RecordCacheLookup counts a state cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// RecordCacheEviction counts one capacity eviction.
func RecordCacheEviction() {
	cacheEvictions.Inc()
}

// RecordScoring records one call to the scoring layer.
func RecordScoring(mode string, tokens int, d time.Duration, err error) {
	scoringCalls.WithLabelValues(mode, outcome(err)).Inc()
	scoringTokens.WithLabelValues(mode).Add(float64(tokens))
	scoringDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordSearch records one query operation (predict, random, beam, generate).
func RecordSearch(op string, d time.Duration, err error) {
	searchRequests.WithLabelValues(op, outcome(err)).Inc()
	searchDuration.WithLabelValues(op).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Instrument wraps next with request counting and latency observation.
// Paths outside known are reported as "other" to bound label cardinality.
func Instrument(next http.Handler, known ...string) http.Handler {
	paths := make(map[string]struct{}, len(known))
	for _, p := range known {
		paths[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if _, ok := paths[path]; !ok {
			path = "other"
		}
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		status := strconv.Itoa(sr.status)
		httpRequests.WithLabelValues(path, r.Method, status).Inc()
		httpDuration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}
