package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// UsageRecord describes one completed provider call.
type UsageRecord struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	CostUSD      float64
	Success      bool
	ErrorKind    string
	ErrorMessage string
}

// UsageSink receives a UsageRecord after every call. The audit ledger and
// the metrics collectors implement it.
type UsageSink interface {
	RecordUsage(ctx context.Context, rec UsageRecord) error
}

// LoggingProvider logs every call through zap and forwards a UsageRecord
// to each sink. Sink failures are logged and never fail the call.
type LoggingProvider struct {
	inner  Provider
	name   string
	logger *zap.Logger
	sinks  []UsageSink
}

// WithLogging wraps p. name is the vendor label ("gemini", "openai", ...).
func WithLogging(p Provider, name string, logger *zap.Logger, sinks ...UsageSink) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, name: name, logger: logger, sinks: sinks}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	rec := UsageRecord{
		Provider:  l.name,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			rec.Model = resp.Model
		}
	}
	if cost := LookupCost(rec.Model); cost != nil {
		rec.CostUSD = cost.Cost(rec.InputTokens, rec.OutputTokens)
	}

	fields := []zap.Field{
		zap.String("provider", rec.Provider),
		zap.String("model", rec.Model),
		zap.String("purpose", rec.Purpose),
		zap.Int64("latency_ms", rec.LatencyMs),
		zap.Int("input_tokens", rec.InputTokens),
		zap.Int("output_tokens", rec.OutputTokens),
		zap.Float64("cost_usd", rec.CostUSD),
	}
	if err != nil {
		rec.ErrorKind = Kind(err)
		rec.ErrorMessage = err.Error()
		l.logger.Warn("llm call failed", append(fields, zap.String("kind", rec.ErrorKind), zap.Error(err))...)
	} else {
		l.logger.Debug("llm call", fields...)
	}

	for _, s := range l.sinks {
		if s == nil {
			continue
		}
		if sinkErr := s.RecordUsage(context.WithoutCancel(ctx), rec); sinkErr != nil {
			l.logger.Warn("record llm usage", zap.Error(sinkErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
