// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proforma"

var (
	// DocumentsTotal counts per-document outcomes by status and extraction method.
	DocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_total",
		Help:      "Uploaded documents by terminal status and extraction method.",
	}, []string{"status", "method"})

	// ExtractionSeconds observes native and OCR extraction time per document.
	ExtractionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_seconds",
		Help:      "Time spent extracting text from one document.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	// SubmissionBytes observes the PDF bytes accepted per submission.
	SubmissionBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submission_bytes",
		Help:      "Cumulative PDF bytes per submission.",
		Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 10),
	})

	// LLMRequestsTotal counts structured-extraction calls by outcome (ok, repaired, malformed, error).
	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "Structured extraction calls by outcome.",
	}, []string{"outcome"})

	LLMSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_seconds",
		Help:      "Structured extraction latency including a repair round trip.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	HTTPSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
