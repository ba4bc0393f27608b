package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	generationReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Name:      "generation_requests_total",
			Help:      "Generation requests by model and result (ok, transport_error)",
		},
		[]string{"model", "result"},
	)

	generationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Name:      "generation_request_duration_seconds",
			Help:      "Duration of generation requests by model",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model"},
	)

	chunksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Name:      "chunks_processed_total",
			Help:      "Chunks processed by result (success, transport_error, parse_error, persist_error)",
		},
		[]string{"result"},
	)

	pairsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Name:      "pairs_generated_total",
			Help:      "Question-answer elements appended to the result set",
		},
	)

	pagesExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfqa",
			Name:      "pages_extracted_total",
			Help:      "Document pages extracted by mode (ocr, text)",
		},
		[]string{"mode"},
	)

	ocrLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfqa",
			Name:      "ocr_page_duration_seconds",
			Help:      "Render plus OCR time per page",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

var initOnce sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(generationReqs, generationLatency, chunksProcessed, pairsGenerated, pagesExtracted, ocrLatency)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveGeneration(model, result string, dur time.Duration) {
	generationReqs.WithLabelValues(model, result).Inc()
	if result == "ok" {
		generationLatency.WithLabelValues(model).Observe(dur.Seconds())
	}
}

func IncChunk(result string) { chunksProcessed.WithLabelValues(result).Inc() }
func AddPairs(n int)         { pairsGenerated.Add(float64(n)) }

func ObservePage(mode string, dur time.Duration) {
	pagesExtracted.WithLabelValues(mode).Inc()
	if mode == "ocr" {
		ocrLatency.Observe(dur.Seconds())
	}
}
