package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Service struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	pagesProcessed     prometheus.Counter
	tablesFound        prometheus.Histogram
	ocrFallbacks       prometheus.Counter

	observersActive prometheus.Gauge
	eventsDropped   prometheus.Counter
}

func New(service string) *Service {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tableminer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tableminer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tableminer",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tableminer",
			Subsystem: "extraction",
			Name:      "runs_total",
			Help:      "Total extraction calls by status.",
		},
		[]string{"service", "status"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tableminer",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Extraction call duration in seconds by status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	pagesProcessed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tableminer",
			Subsystem: "extraction",
			Name:      "pages_total",
			Help:      "Total document pages run through table detection.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	tablesFound := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tableminer",
			Subsystem: "extraction",
			Name:      "tables_found",
			Help:      "Distribution of tables found per extraction.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ocrFallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tableminer",
			Subsystem: "extraction",
			Name:      "ocr_fallbacks_total",
			Help:      "Total pages that fell back to the OCR strategy.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	observersActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tableminer",
			Subsystem: "progress",
			Name:      "observers_active",
			Help:      "Number of connected progress stream observers.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventsDropped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tableminer",
			Subsystem: "progress",
			Name:      "events_dropped_total",
			Help:      "Progress events dropped for slow observers.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		extractionsTotal,
		extractionDuration,
		pagesProcessed,
		tablesFound,
		ocrFallbacks,
		observersActive,
		eventsDropped,
	)

	return &Service{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		extractionsTotal:   extractionsTotal,
		extractionDuration: extractionDuration,
		pagesProcessed:     pagesProcessed,
		tablesFound:        tablesFound,
		ocrFallbacks:       ocrFallbacks,
		observersActive:    observersActive,
		eventsDropped:      eventsDropped,
	}
}

func (m *Service) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Service) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/tables/"):
		return "/v1/tables/{index}/export"
	default:
		return path
	}
}

func (m *Service) RecordExtraction(service string, duration time.Duration, pages, tables int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.extractionsTotal.WithLabelValues(service, status).Inc()
	m.extractionDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if pages > 0 {
		m.pagesProcessed.Add(float64(pages))
	}
	if err == nil {
		m.tablesFound.Observe(float64(tables))
	}
}

func (m *Service) RecordOCRFallback() {
	m.ocrFallbacks.Inc()
}

func (m *Service) RecordDroppedEvent() {
	m.eventsDropped.Inc()
}

func (m *Service) ObserverConnected() {
	m.observersActive.Inc()
}

func (m *Service) ObserverDisconnected() {
	m.observersActive.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
