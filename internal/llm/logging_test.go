package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type recordingSink struct {
	mu      sync.Mutex
	records []UsageRecord
	err     error
}

func (s *recordingSink) RecordUsage(_ context.Context, rec UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := &recordingSink{}
	mock := NewMockProvider(MockResponse{Content: []byte("hi"), Usage: Usage{InputTokens: 12, OutputTokens: 3}})
	p := WithLogging(mock, "mock", zap.New(core), sink)

	ctx := WithPurpose(context.Background(), PurposeQuestions)
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 usage record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if !rec.Success || rec.Purpose != PurposeQuestions || rec.InputTokens != 12 || rec.Provider != "mock" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if logs.FilterMessage("llm call").Len() != 1 {
		t.Fatalf("expected one debug log entry, got %v", logs.All())
	}
}

func TestLogging_RecordsFailureAndSurvivesSinkError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := &recordingSink{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(), "mock", zap.New(core), sink, nil)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}

	rec := sink.records[0]
	if rec.Success || rec.ErrorKind != "unavailable" || rec.ErrorMessage == "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if logs.FilterMessage("llm call failed").Len() != 1 {
		t.Fatal("expected a warn entry for the failed call")
	}
	if logs.FilterMessage("record llm usage").Len() != 1 {
		t.Fatal("expected a warn entry for the sink failure")
	}
}
