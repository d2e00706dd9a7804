// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailynews_crawl_runs_total",
			Help: "Total number of crawl runs, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	crawlRunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dailynews_crawl_run_duration_seconds",
			Help:    "Histogram of full crawl run durations.",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailynews_fetches_total",
			Help: "Total number of origin fetches, labeled by stage and result.",
		},
		[]string{"stage", "result"},
	)

	articlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailynews_articles_total",
			Help: "Total number of articles processed, labeled by result.",
		},
		[]string{"result"},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dailynews_extraction_fallbacks_total",
			Help: "Total number of sentinel substitutions, labeled by field.",
		},
		[]string{"field"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records the outcome (succeeded, skipped, failed) of one run.
func ObserveRun(outcome string, duration time.Duration) {
	crawlRunsTotal.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		crawlRunDurationSeconds.Observe(duration.Seconds())
	}
}

// ObserveFetch counts one origin GET for stage (list, abstract or article).
func ObserveFetch(stage, result string) {
	fetchesTotal.WithLabelValues(stage, result).Inc()
}

// ObserveArticle counts one article, ok or failed.
func ObserveArticle(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	articlesTotal.WithLabelValues(result).Inc()
}

// ObserveFallback counts a sentinel substitution for field.
func ObserveFallback(field string) {
	fallbacksTotal.WithLabelValues(field).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
