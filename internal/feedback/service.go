package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adaptilearn/quizsynth/internal/llm"
)

// Sources reported to the Recorder.
const (
	SourceAI    = "ai"
	SourceRules = "rules"
)

// Recorder receives feedback metrics.
type Recorder interface {
	// ObserveFeedback counts a finished report by source ("ai" or
	// "rules"). reason is empty for model reports and names the failure
	// otherwise.
	ObserveFeedback(source, reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFeedback(string, string) {}

// Config tunes model calls.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}

// Service produces feedback reports. Generate never fails: any model
// problem yields the rule-based report.
type Service struct {
	provider llm.Provider
	hasAI    bool
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// NewService creates a feedback service. If provider is nil, only
// rule-based reports are produced.
func NewService(provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		hasAI:    provider != nil,
		cfg:      DefaultConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s
}

// HasAI reports whether a model provider is configured.
func (s *Service) HasAI() bool { return s.hasAI }

// Generate returns a report for in.
func (s *Service) Generate(ctx context.Context, in Input) Report {
	if !s.hasAI {
		s.recorder.ObserveFeedback(SourceRules, "unavailable")
		return RuleBased(in)
	}

	report, err := s.fromModel(ctx, in)
	if err != nil {
		reason := llm.Kind(err)
		s.logger.Warn("model feedback failed, using rules",
			zap.String("reason", reason),
			zap.Error(err),
		)
		s.recorder.ObserveFeedback(SourceRules, reason)
		return RuleBased(in)
	}

	s.recorder.ObserveFeedback(SourceAI, "")
	return report
}

func (s *Service) fromModel(ctx context.Context, in Input) (Report, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeFeedback)

	prompt, err := BuildPrompt(in)
	if err != nil {
		return Report{}, fmt.Errorf("build feedback prompt: %w", err)
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      ReportSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Report{}, fmt.Errorf("generate feedback: %w", err)
	}

	obj, ok := llm.ExtractObject(resp.Text())
	if !ok {
		return Report{}, &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("no JSON object in reply")}
	}
	if err := llm.ValidateJSON(ReportSchema, obj); err != nil {
		return Report{}, err
	}

	var r Report
	if err := json.Unmarshal(obj, &r); err != nil {
		return Report{}, &llm.ErrInvalidResponse{Content: obj, Err: err}
	}
	if strings.TrimSpace(r.OverallAssessment) == "" {
		return Report{}, &llm.ErrInvalidResponse{Content: obj, Err: errors.New("empty overall_assessment")}
	}

	r.AreasForImprovement = head(r.AreasForImprovement, MaxAreas)
	r.StudyPlan.FocusAreas = head(r.StudyPlan.FocusAreas, MaxFocusAreas)
	r.PerformanceTrend = ClassifyTrend(in.TestResults)
	return r, nil
}
