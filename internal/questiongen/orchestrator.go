package questiongen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adaptilearn/quizsynth/internal/catalog"
	"github.com/adaptilearn/quizsynth/internal/llm"
)

// Sources reported to the Recorder.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// Orchestrator runs the model path and falls back to the Synthesizer on
// any failure. Generate never fails.
type Orchestrator struct {
	provider   llm.Provider
	hasAI      bool
	cat        *catalog.Catalog
	synth      *Synthesizer
	validator  *Validator
	logger     *zap.Logger
	recorder   Recorder
	completion llm.CompleteOptions
}

// NewOrchestrator wires a provider and a synthesizer. A nil provider puts
// the orchestrator in fallback-only mode for its whole lifetime.
func NewOrchestrator(provider llm.Provider, cat *catalog.Catalog, synth *Synthesizer, opts ...Option) *Orchestrator {
	s := newSettings(opts)
	return &Orchestrator{
		provider:   provider,
		hasAI:      provider != nil,
		cat:        cat,
		synth:      synth,
		validator:  s.validator,
		logger:     s.logger,
		recorder:   s.recorder,
		completion: s.completion,
	}
}

// HasAI reports whether a model provider is configured.
func (o *Orchestrator) HasAI() bool { return o.hasAI }

// Generate returns exactly p.Normalize().Count items.
func (o *Orchestrator) Generate(ctx context.Context, p Params) []Question {
	p = p.Normalize()
	start := time.Now()

	if !o.hasAI {
		o.recorder.IncFallback("unavailable")
		return o.fallback(p, start)
	}

	qs, err := o.generateWithAI(ctx, p)
	switch {
	case err == nil:
	case errors.Is(err, ErrShortfall):
		var se *ShortfallError
		errors.As(err, &se)
		o.logger.Warn("padded model questions",
			zap.Int("valid", se.Valid),
			zap.Int("target", se.Target),
		)
		o.recorder.IncFallback("shortfall")
		o.recorder.AddPadded(se.Padded())
	default:
		reason := "parse"
		if !errors.Is(err, ErrParse) {
			reason = llm.Kind(err)
		}
		o.logger.Warn("model question generation failed, using fallback",
			zap.String("reason", reason),
			zap.Error(err),
		)
		o.recorder.IncFallback(reason)
		return o.fallback(p, start)
	}

	o.recorder.ObserveGeneration(SourceAI, string(p.Type), len(qs))
	o.logger.Info("generated questions",
		zap.String("source", SourceAI),
		zap.Int("count", len(qs)),
		zap.String("type", string(p.Type)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return qs
}

// generateWithAI returns a complete batch with a nil or *ShortfallError
// error, or a nil batch with any other error.
func (o *Orchestrator) generateWithAI(ctx context.Context, p Params) ([]Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestions)

	text, err := llm.Complete(ctx, o.provider, BuildPrompt(o.cat, p), o.completion)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	cands := ParseResponse(text, p.Type)
	if len(cands) == 0 {
		return nil, fmt.Errorf("parse model reply: %w", ErrParse)
	}

	return o.validator.Validate(cands, p, o.synth.Item)
}

func (o *Orchestrator) fallback(p Params, start time.Time) []Question {
	qs := o.synth.Generate(p)
	o.recorder.ObserveGeneration(SourceFallback, string(p.Type), len(qs))
	o.logger.Info("generated questions",
		zap.String("source", SourceFallback),
		zap.Int("count", len(qs)),
		zap.String("type", string(p.Type)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return qs
}
