package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptilearn/quizsynth/internal/feedback"
	"github.com/adaptilearn/quizsynth/internal/llm"
	"github.com/adaptilearn/quizsynth/internal/questiongen"
)

var (
	_ questiongen.Recorder = (*Metrics)(nil)
	_ feedback.Recorder    = (*Metrics)(nil)
	_ llm.UsageSink        = (*Metrics)(nil)
)

func TestRecorders(t *testing.T) {
	m := New()

	m.ObserveGeneration("ai", "mcq", 8)
	m.ObserveGeneration("ai", "mcq", 2)
	m.IncFallback("rate_limit")
	m.AddPadded(3)
	m.ObserveFeedback("rules", "unavailable")

	assert.Equal(t, 10.0, testutil.ToFloat64(m.questions.WithLabelValues("ai", "mcq")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("rate_limit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.padded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedback.WithLabelValues("rules", "unavailable")))
}

func TestRecordUsage(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.RecordUsage(ctx, llm.UsageRecord{
		Provider: "openai", Purpose: llm.PurposeQuestions, Success: true,
		InputTokens: 100, OutputTokens: 40, LatencyMs: 1200, CostUSD: 0.002,
	}))
	require.NoError(t, m.RecordUsage(ctx, llm.UsageRecord{
		Provider: "openai", Purpose: llm.PurposeQuestions, ErrorKind: "timeout",
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("openai", llm.PurposeQuestions, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("openai", llm.PurposeQuestions, "timeout")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("openai", "input")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("openai", "output")))
	assert.InDelta(t, 0.002, testutil.ToFloat64(m.llmCost.WithLabelValues("openai")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.llmLatency))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("ai", "mcq", 1)
	m.IncFallback("parse")
	m.AddPadded(1)
	m.ObserveFeedback("ai", "")
	assert.NoError(t, m.RecordUsage(context.Background(), llm.UsageRecord{}))

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/items/{id}", "202")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "quizsynth_http_requests_total"))
	assert.Contains(t, body, "go_goroutines")
}
