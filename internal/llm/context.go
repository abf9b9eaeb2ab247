package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purposes attached to outgoing calls.
const (
	PurposeQuestions = "question-gen"
	PurposeFeedback  = "feedback"
)

// WithPurpose labels the context so logging and the usage ledger can
// tell question calls from feedback calls.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
