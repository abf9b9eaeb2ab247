package questiongen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adaptilearn/quizsynth/internal/llm"
)

type countingRecorder struct {
	mu        sync.Mutex
	sources   []string
	fallbacks []string
	padded    int
}

func (r *countingRecorder) ObserveGeneration(source, _ string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *countingRecorder) IncFallback(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, reason)
}

func (r *countingRecorder) AddPadded(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.padded += n
}

const twoQuestionReply = `{"questions": [
  {"id": "q1", "question": "Which data structure is LIFO?", "type": "mcq",
   "options": ["Queue", "Stack", "Array", "Tree"], "correct_answer": 1,
   "topic": "Stacks", "bloom_level": "remember", "estimated_time": 1},
  {"id": "q2", "question": "Which data structure is FIFO?", "type": "mcq",
   "options": ["Queue", "Stack", "Array", "Tree"], "correct_answer": "A",
   "topic": "Queues", "bloom_level": "remember", "estimated_time": 1}
]}`

func TestOrchestrator_AISuccess(t *testing.T) {
	cat := testCatalog(t)
	mock := llm.NewMockProvider(llm.MockText(twoQuestionReply))
	rec := &countingRecorder{}
	o := NewOrchestrator(mock, cat, NewSynthesizer(cat, WithRand(seeded())), WithRecorder(rec))

	got := o.Generate(context.Background(), Params{Count: 2, Type: TypeMCQ, Subject: "Data Structures", Branch: "CSE", Semester: 2})
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].ID)
	idx, _ := got[1].CorrectAnswer.Index()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "CSE", got[1].Branch)

	assert.Equal(t, 1, mock.CallCount())
	assert.Contains(t, mock.LastPrompt(), "Generate 2 high-quality MCQ questions")
	assert.Equal(t, []string{SourceAI}, rec.sources)
	assert.Empty(t, rec.fallbacks)
	assert.True(t, o.HasAI())
}

func TestOrchestrator_PurposeLabel(t *testing.T) {
	cat := testCatalog(t)
	var purpose string
	p := providerFunc(func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
		purpose = llm.PurposeFrom(ctx)
		return &llm.Response{Content: []byte(twoQuestionReply)}, nil
	})
	o := NewOrchestrator(p, cat, NewSynthesizer(cat))
	o.Generate(context.Background(), Params{Count: 2})
	assert.Equal(t, llm.PurposeQuestions, purpose)
}

func TestOrchestrator_PadsShortAIBatch(t *testing.T) {
	cat := testCatalog(t)
	mock := llm.NewMockProvider(llm.MockText(twoQuestionReply))
	rec := &countingRecorder{}
	o := NewOrchestrator(mock, cat, NewSynthesizer(cat, WithRand(seeded())), WithRecorder(rec))

	p := Params{Count: 5, Type: TypeMCQ, Subject: "Data Structures", Branch: "CSE"}
	got := o.Generate(context.Background(), p)

	require.Len(t, got, 5)
	assert.Equal(t, "q1", got[0].ID)
	assert.Equal(t, "q2", got[1].ID)
	for _, q := range got {
		assertWellFormed(t, q)
	}
	for i, q := range got[2:] {
		// Padding never draws from the knowledge bank.
		assert.False(t, strings.Contains(q.ID, "_bank_"), "pad %d id %s", i, q.ID)
	}
	assert.Equal(t, []string{"shortfall"}, rec.fallbacks)
	assert.Equal(t, 3, rec.padded)
	assert.Equal(t, []string{SourceAI}, rec.sources)
}

func TestOrchestrator_FailOpenMatchesFallback(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name     string
		provider llm.Provider
		reason   string
	}{
		{"no provider", nil, "unavailable"},
		{"provider error", llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("quota")}}), "rate_limit"},
		{"empty queue", llm.NewMockProvider(), "unavailable"},
		{"blank reply", llm.NewMockProvider(llm.MockText("   ")), "invalid_response"},
		{"garbage reply", llm.NewMockProvider(llm.MockText("I cannot help with that.")), "parse"},
		{"timeout", providerFunc(func(context.Context, llm.Request) (*llm.Response, error) {
			return nil, context.DeadlineExceeded
		}), "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{
				Content:  "Binary search trees keep keys ordered. Traversal visits every node.",
				Count:    7,
				Type:     TypeMCQ,
				Subject:  "Data Structures",
				Branch:   "CSE",
				Semester: 3,
			}
			rec := &countingRecorder{}
			o := NewOrchestrator(tt.provider, cat, NewSynthesizer(cat, WithRand(seeded())), WithRecorder(rec))

			got := o.Generate(context.Background(), p)
			want := NewSynthesizer(cat, WithRand(seeded())).Generate(p)

			assert.Equal(t, want, got)
			assert.Equal(t, []string{tt.reason}, rec.fallbacks)
			assert.Equal(t, []string{SourceFallback}, rec.sources)
		})
	}
}

func TestOrchestrator_NilProviderDecidedAtConstruction(t *testing.T) {
	cat := testCatalog(t)
	o := NewOrchestrator(nil, cat, NewSynthesizer(cat))
	assert.False(t, o.HasAI())

	for _, typ := range []QuestionType{TypeMCQ, TypeShortAnswer, TypeEssay} {
		got := o.Generate(context.Background(), Params{Count: 4, Type: typ})
		require.Len(t, got, 4)
		for _, q := range got {
			assertWellFormed(t, q)
		}
	}
}

func TestOrchestrator_LogsFallback(t *testing.T) {
	cat := testCatalog(t)
	core, logs := observer.New(zap.WarnLevel)
	mock := llm.NewMockProvider(llm.MockText("nothing useful"))
	o := NewOrchestrator(mock, cat, NewSynthesizer(cat), WithLogger(zap.New(core)))

	o.Generate(context.Background(), Params{Count: 2})

	entries := logs.FilterMessage("model question generation failed, using fallback").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "parse", entries[0].ContextMap()["reason"])
}

func TestOrchestrator_CanceledContext(t *testing.T) {
	cat := testCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := llm.NewMockProvider(llm.MockText(twoQuestionReply))
	rec := &countingRecorder{}
	o := NewOrchestrator(mock, cat, NewSynthesizer(cat), WithRecorder(rec))

	got := o.Generate(ctx, Params{Count: 3})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"canceled"}, rec.fallbacks)
}

type providerFunc func(context.Context, llm.Request) (*llm.Response, error)

func (f providerFunc) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

func (providerFunc) ModelID() string { return "func" }
