package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptilearn/quizsynth/internal/catalog"
	"github.com/adaptilearn/quizsynth/internal/config"
	"github.com/adaptilearn/quizsynth/internal/feedback"
	"github.com/adaptilearn/quizsynth/internal/llm"
	"github.com/adaptilearn/quizsynth/internal/metrics"
	"github.com/adaptilearn/quizsynth/internal/questiongen"
)

var fixedNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, provider llm.Provider) (*Server, *metrics.Metrics) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	m := metrics.New()
	synth := questiongen.NewSynthesizer(cat)
	s := New(config.ServerConfig{RequestTimeout: 5 * time.Second}, Deps{
		Questions: questiongen.NewOrchestrator(provider, cat, synth, questiongen.WithRecorder(m)),
		Feedback:  feedback.NewService(provider, feedback.WithRecorder(m)),
		Metrics:   m,
		Version:   "1.2.3",
		Now:       func() time.Time { return fixedNow },
	})
	return s, m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestGenerateQuestions_Fallback(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/ai/generate-questions",
		`{"content": "", "num_questions": 4, "branch": "CSE", "subject": "Data Structures"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success   bool                   `json:"success"`
		Questions []questiongen.Question `json:"questions"`
		Metadata  questionsMetadata      `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.Len(t, resp.Questions, 4)
	assert.Equal(t, questionsMetadata{
		TotalQuestions: 4,
		Difficulty:     "medium",
		QuestionType:   "mcq",
		Subject:        "Data Structures",
		GeneratedAt:    "2024-03-01T10:30:00Z",
	}, resp.Metadata)

	for _, q := range resp.Questions {
		assert.Len(t, q.Options, 4)
		idx, ok := q.CorrectAnswer.Index()
		assert.True(t, ok)
		assert.True(t, idx >= 0 && idx < 4)
		assert.Equal(t, "CSE", q.Branch)
	}
}

func TestGenerateQuestions_ModelReply(t *testing.T) {
	reply := `{"questions": [
		{"id": "q1", "question": "What does a hash table trade for O(1) lookups?", "type": "short_answer", "correct_answer": "Memory"},
		{"id": "q2", "question": "Explain open addressing.", "type": "short_answer", "correct_answer": "Probing for free slots"}
	]}`
	s, _ := newTestServer(t, llm.NewMockProvider(llm.MockText(reply)))

	rec := do(t, s.Handler(), http.MethodPost, "/api/ai/generate-questions",
		`{"content": "Hash tables", "num_questions": 2, "question_type": "short_answer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateQuestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, "q1", resp.Questions[0].ID)
	assert.Equal(t, "Memory", resp.Questions[0].CorrectAnswer.String())
}

func TestGenerateQuestions_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"bad json", `{"content":`, http.StatusBadRequest, "Invalid JSON"},
		{"empty body", ``, http.StatusBadRequest, "Invalid JSON"},
		{"missing content", `{"num_questions": 5}`, http.StatusUnprocessableEntity, "content is required"},
		{"too many", `{"content": "x", "num_questions": 51}`, http.StatusUnprocessableEntity, "num_questions must be at most 50"},
		{"zero", `{"content": "x", "num_questions": 0}`, http.StatusUnprocessableEntity, "num_questions must be at least 1"},
		{"difficulty", `{"content": "x", "difficulty": "extreme"}`, http.StatusUnprocessableEntity, "difficulty must be one of [easy medium hard]"},
		{"type", `{"content": "x", "question_type": "true_false"}`, http.StatusUnprocessableEntity, "question_type must be one of"},
		{"semester", `{"content": "x", "semester": 9}`, http.StatusUnprocessableEntity, "semester must be at most 8"},
	}
	s, _ := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, "/api/ai/generate-questions", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.msg)
		})
	}
}

func TestGenerateQuestions_Defaults(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/ai/generate-questions", `{"content": "Some notes"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateQuestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Questions, questiongen.DefaultCount)
	assert.Equal(t, "General", resp.Metadata.Subject)
	assert.Equal(t, 1, resp.Questions[0].Semester)
}

func TestEnhanceFeedback(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := `{
		"performance_data": {"average_score": 85},
		"test_results": [{"score": 60, "subject": "DBMS"}, {"score": 70}, {"score": 80}],
		"learning_goals": ["Pass finals"],
		"weak_areas": ["Joins"]
	}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/ai/enhance-feedback", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp enhanceFeedbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, feedback.TrendImproving, resp.EnhancedFeedback.PerformanceTrend)
	assert.Equal(t, []string{"Joins"}, resp.EnhancedFeedback.AreasForImprovement)
	assert.Equal(t, "2024-03-01T10:30:00Z", resp.Metadata.GeneratedAt)
}

func TestEnhanceFeedback_EmptyObject(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/ai/enhance-feedback", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"performance_trend":"insufficient_data"`)
}

func TestEnhanceFeedback_BadScore(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/ai/enhance-feedback", `{"test_results": [{"score": "A+"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, llm.NewMockProvider())
	s.deps.Provider = "gemini"

	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, true, resp.AIServices["gemini"])
	assert.Equal(t, true, resp.AIServices["question_generator"])
}

func TestHealth_NoAI(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp.AIServices["llm"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s.Handler(), http.MethodPost, "/api/ai/generate-questions", `{"content": "", "num_questions": 3}`)

	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `quizsynth_fallback_total{reason="unavailable"} 1`)
	assert.Contains(t, body, `quizsynth_questions_generated_total{source="fallback",type="mcq"} 3`)
	assert.Contains(t, body, `route="/api/ai/generate-questions"`)
}

func TestNotFoundAndMethod(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s.Handler(), http.MethodGet, "/api/ai/generate-questions", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodOptions, "/api/ai/generate-questions", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, r)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	s := New(config.ServerConfig{Addr: "127.0.0.1:0", RequestTimeout: time.Second}, Deps{
		Questions: questiongen.NewOrchestrator(nil, cat, questiongen.NewSynthesizer(cat)),
		Feedback:  feedback.NewService(nil),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestDescribeValidation_PlainError(t *testing.T) {
	assert.Equal(t, assert.AnError.Error(), describeValidation(assert.AnError))
	assert.True(t, strings.HasPrefix(describeValidation(newValidator().Struct(&GenerateQuestionsRequest{})), "content is required"))
}
