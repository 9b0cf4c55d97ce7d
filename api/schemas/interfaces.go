// File: api/schemas/interfaces.go
package schemas

import (
	"context"
)

// -- Service Interfaces --

// Generator drafts a candidate reply for an inbound message. When feedback
// is non-empty the call is a revision of the previous round's candidate and
// the feedback is the critic's verdict on it.
//
// A generator call is a single blocking suspension point; the caller
// enforces the timeout through ctx. On error no partial candidate is
// trusted.
type Generator interface {
	Generate(ctx context.Context, msg InboundMessage, feedback string) (Candidate, error)
}

// Scorer evaluates one candidate reply against the inbound message and
// returns a fresh, validated Assessment. Implementations must reject
// malformed model output at this boundary rather than letting it propagate.
type Scorer interface {
	Score(ctx context.Context, msg InboundMessage, response string) (*Assessment, error)
}

// Notifier is the escalation sink. Notify is best-effort: implementations
// deliver asynchronously where possible and callers ignore the returned
// error for outcome purposes.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AuditStore records terminal outcomes for later analysis. The review core
// itself persists nothing; this is the logging collaborator at the edge.
type AuditStore interface {
	RecordOutcome(ctx context.Context, outcome *Outcome) error
}

// -- LLM Transport --

// CompletionRequest is a provider-agnostic chat completion request.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
	// ForceJSON asks the provider for a JSON-mode response where supported.
	ForceJSON bool
}

// LLMClient abstracts one chat-completion provider. Both the drafter and
// the critic sit on top of this interface so providers can be swapped (or
// mocked) without touching the review logic.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
