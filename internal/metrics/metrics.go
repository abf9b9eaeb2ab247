// Package metrics exposes Prometheus collectors for question generation,
// feedback synthesis, AI calls and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adaptilearn/quizsynth/internal/llm"
)

const namespace = "quizsynth"

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	questions *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	padded    prometheus.Counter
	feedback  *prometheus.CounterVec

	llmCalls   *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
	llmTokens  *prometheus.CounterVec
	llmCost    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_generated_total",
			Help:      "Questions returned to callers, by source and question type.",
		}, []string{"source", "type"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_total",
			Help:      "Question requests served by the fallback synthesizer, by reason.",
		}, []string{"reason"}),
		padded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "padded_questions_total",
			Help:      "Fallback questions appended to short model batches.",
		}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Feedback reports produced, by source and fallback reason.",
		}, []string{"source", "reason"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "AI provider calls, by provider, purpose and outcome.",
		}, []string{"provider", "purpose", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "AI provider call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider", "purpose"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed, by provider and direction.",
		}, []string{"provider", "direction"}),
		llmCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Estimated AI spend in US dollars.",
		}, []string{"provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15, 60},
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.questions, m.fallbacks, m.padded, m.feedback,
		m.llmCalls, m.llmLatency, m.llmTokens, m.llmCost,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGeneration implements questiongen.Recorder.
func (m *Metrics) ObserveGeneration(source, questionType string, n int) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(source, questionType).Add(float64(n))
}

// IncFallback implements questiongen.Recorder.
func (m *Metrics) IncFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

// AddPadded implements questiongen.Recorder.
func (m *Metrics) AddPadded(n int) {
	if m == nil {
		return
	}
	m.padded.Add(float64(n))
}

// ObserveFeedback implements feedback.Recorder.
func (m *Metrics) ObserveFeedback(source, reason string) {
	if m == nil {
		return
	}
	m.feedback.WithLabelValues(source, reason).Inc()
}

// RecordUsage implements llm.UsageSink.
func (m *Metrics) RecordUsage(_ context.Context, rec llm.UsageRecord) error {
	if m == nil {
		return nil
	}
	outcome := "success"
	if !rec.Success {
		outcome = rec.ErrorKind
	}
	m.llmCalls.WithLabelValues(rec.Provider, rec.Purpose, outcome).Inc()
	m.llmLatency.WithLabelValues(rec.Provider, rec.Purpose).Observe(float64(rec.LatencyMs) / 1000)
	m.llmTokens.WithLabelValues(rec.Provider, "input").Add(float64(rec.InputTokens))
	m.llmTokens.WithLabelValues(rec.Provider, "output").Add(float64(rec.OutputTokens))
	if rec.CostUSD > 0 {
		m.llmCost.WithLabelValues(rec.Provider).Add(rec.CostUSD)
	}
	return nil
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
