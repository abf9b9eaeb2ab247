package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// CompleteOptions tunes a single-prompt completion.
type CompleteOptions struct {
	System      string
	MaxTokens   int
	Temperature float64
}

// Complete sends prompt as one user message and returns the reply text.
// A blank reply is reported as *ErrInvalidResponse so callers can treat
// it like any other failed call.
func Complete(ctx context.Context, p Provider, prompt string, opts CompleteOptions) (string, error) {
	if p == nil {
		return "", &ErrProviderUnavailable{Err: errors.New("no provider configured")}
	}

	resp, err := p.Generate(ctx, Request{
		System:      opts.System,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &ErrInvalidResponse{Err: errors.New("empty reply")}
	}
	if resp.StopReason == "max_tokens" {
		return text, &ErrMaxTokensExceeded{Content: []byte(text)}
	}
	return text, nil
}

// ExtractObject returns the span from the first '{' to the last '}' in
// text. Models often wrap JSON in prose or markdown fences; this recovers
// the object without trying to balance braces. ok is false when no such
// span exists.
func ExtractObject(text string) (obj json.RawMessage, ok bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return json.RawMessage(text[start : end+1]), true
}
