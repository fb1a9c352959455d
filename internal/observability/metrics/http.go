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

// HTTPServerMetrics owns a private registry so the API process exposes
// only its own series on /metrics.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysesTotal        *prometheus.CounterVec
	analysesDegraded     *prometheus.CounterVec
	analysisDuration     *prometheus.HistogramVec
	complianceScore      *prometheus.HistogramVec
	recommendationsCount *prometheus.HistogramVec
	requirementsMatched  *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiact",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiact",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aiact",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiact",
			Subsystem: "analysis",
			Name:      "completed_total",
			Help:      "Total completed compliance analyses by risk tier.",
		},
		[]string{"service", "tier"},
	)
	analysesDegraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiact",
			Subsystem: "analysis",
			Name:      "degraded_total",
			Help:      "Total analyses completed on fallback paths.",
		},
		[]string{"service", "tier"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiact",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "tier"},
	)
	complianceScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiact",
			Subsystem: "analysis",
			Name:      "compliance_score",
			Help:      "Distribution of compliance scores per completed analysis.",
			Buckets:   []float64{0, 0.1, 0.25, 0.4, 0.55, 0.7, 0.85, 0.95, 1},
		},
		[]string{"service", "tier"},
	)
	recommendationsCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiact",
			Subsystem: "analysis",
			Name:      "recommendations",
			Help:      "Distribution of recommendations per completed analysis.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "tier"},
	)
	requirementsMatched := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiact",
			Subsystem: "analysis",
			Name:      "matched_requirements",
			Help:      "Distribution of matched requirements per completed analysis.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "tier"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		analysesTotal,
		analysesDegraded,
		analysisDuration,
		complianceScore,
		recommendationsCount,
		requirementsMatched,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		analysesTotal:        analysesTotal,
		analysesDegraded:     analysesDegraded,
		analysisDuration:     analysisDuration,
		complianceScore:      complianceScore,
		recommendationsCount: recommendationsCount,
		requirementsMatched:  requirementsMatched,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
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
	case strings.HasPrefix(path, "/v1/analyses/"):
		return "/v1/analyses/{analysis_id}"
	case strings.HasPrefix(path, "/v1/reports/"):
		return "/v1/reports/{report_id}"
	default:
		return path
	}
}

// RecordAnalysis observes one completed analysis. tier is the final
// risk tier label, not the requested one.
func (m *HTTPServerMetrics) RecordAnalysis(service, tier string, degraded bool, score float64, matched, recommendations int, duration time.Duration) {
	if tier == "" {
		tier = "unknown"
	}
	m.analysesTotal.WithLabelValues(service, tier).Inc()
	m.analysisDuration.WithLabelValues(service, tier).Observe(duration.Seconds())
	m.complianceScore.WithLabelValues(service, tier).Observe(score)
	m.recommendationsCount.WithLabelValues(service, tier).Observe(float64(recommendations))
	m.requirementsMatched.WithLabelValues(service, tier).Observe(float64(matched))
	if degraded {
		m.analysesDegraded.WithLabelValues(service, tier).Inc()
	}
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
