package questiongen

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/adaptilearn/quizsynth/internal/llm"
)

// Recorder receives generation metrics. A nil Recorder is replaced by a
// no-op.
type Recorder interface {
	// ObserveGeneration counts a finished batch by source ("ai" or
	// "fallback") and question type.
	ObserveGeneration(source, questionType string, n int)
	// IncFallback counts a fall-through to synthesized items.
	IncFallback(reason string)
	// AddPadded counts synthesized items used to fill a short AI batch.
	AddPadded(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(string, string, int) {}
func (nopRecorder) IncFallback(string)                    {}
func (nopRecorder) AddPadded(int)                         {}

type settings struct {
	rng        *rand.Rand
	logger     *zap.Logger
	recorder   Recorder
	validator  *Validator
	completion llm.CompleteOptions
}

// Option configures a Synthesizer or an Orchestrator.
type Option func(*settings)

// WithRand sets the random source used to pick templates, terms and
// concepts. Pin it with rand.New(rand.NewPCG(a, b)) for reproducible
// output.
func WithRand(r *rand.Rand) Option {
	return func(s *settings) { s.rng = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *settings) { s.recorder = r }
}

// WithValidator replaces the default rule chain.
func WithValidator(v *Validator) Option {
	return func(s *settings) { s.validator = v }
}

// WithCompletion sets the token budget and temperature of model calls.
func WithCompletion(opts llm.CompleteOptions) Option {
	return func(s *settings) { s.completion = opts }
}

func newSettings(opts []Option) settings {
	s := settings{
		completion: llm.CompleteOptions{MaxTokens: 4096, Temperature: 0.7},
	}
	for _, o := range opts {
		o(&s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.validator == nil {
		s.validator = NewValidator()
	}
	return s
}
