package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adaptilearn/quizsynth/internal/catalog"
	"github.com/adaptilearn/quizsynth/internal/config"
	"github.com/adaptilearn/quizsynth/internal/feedback"
	"github.com/adaptilearn/quizsynth/internal/llm"
	"github.com/adaptilearn/quizsynth/internal/logging"
	"github.com/adaptilearn/quizsynth/internal/metrics"
	"github.com/adaptilearn/quizsynth/internal/questiongen"
	"github.com/adaptilearn/quizsynth/internal/store"
)

// app holds the dependencies shared by generate, feedback and serve.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	catalog  *catalog.Catalog
	metrics  *metrics.Metrics
	audit    *store.Store
	provider llm.Provider
	// providerName is empty when running fallback-only.
	providerName string
}

// newApp loads config and builds the logger, catalog, metrics, optional
// audit ledger and AI provider. A provider that fails to initialise is
// logged and treated as absent.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		catalog: cat,
		metrics: metrics.New(),
	}

	sinks := []llm.UsageSink{a.metrics}
	if cfg.Audit.DBPath != "" {
		if err := store.EnsureDir(cfg.Audit.DBPath); err != nil {
			return nil, fmt.Errorf("audit db dir: %w", err)
		}
		a.audit, err = store.Open(cfg.Audit.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open audit db: %w", err)
		}
		sinks = append(sinks, a.audit)
	}

	llmCfg := cfg.LLMConfig()
	provider, err := llm.NewProvider(cmd.Context(), llmCfg, logger, sinks...)
	switch {
	case err != nil:
		logger.Warn("AI provider unavailable, using fallback only", zap.String("provider", llmCfg.Provider), zap.Error(err))
	case provider == nil:
		logger.Info("no AI provider configured, using fallback only")
	default:
		a.provider = provider
		a.providerName = llmCfg.Provider
		logger.Info("AI provider ready", zap.String("provider", llmCfg.Provider), zap.String("model", provider.ModelID()))
	}
	return a, nil
}

func (a *app) orchestrator(extra ...questiongen.Option) *questiongen.Orchestrator {
	opts := append([]questiongen.Option{
		questiongen.WithLogger(a.logger),
		questiongen.WithRecorder(a.metrics),
		questiongen.WithCompletion(a.cfg.Completion()),
	}, extra...)
	synth := questiongen.NewSynthesizer(a.catalog, opts...)
	return questiongen.NewOrchestrator(a.provider, a.catalog, synth, opts...)
}

func (a *app) feedbackService() *feedback.Service {
	return feedback.NewService(a.provider,
		feedback.WithLogger(a.logger),
		feedback.WithRecorder(a.metrics),
		feedback.WithConfig(feedback.Config{
			MaxTokens:   a.cfg.Feedback.MaxTokens,
			Temperature: a.cfg.Feedback.Temperature,
		}),
	)
}

func (a *app) Close() error {
	var errs []error
	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
