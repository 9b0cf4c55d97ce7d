// File: internal/drafter/drafter.go
// The drafter is the generation service: it turns an inbound employer
// message (plus optional critic feedback) into a candidate reply with its
// declared actions. All model output crosses a validating parse at this
// boundary; nothing malformed reaches the review controller.
package drafter

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

// Drafter implements schemas.Generator on top of an LLM client.
type Drafter struct {
	client  schemas.LLMClient
	logger  *zap.Logger
	cfg     config.LLMModelConfig
	name    string
	profile string
}

var _ schemas.Generator = (*Drafter)(nil)

// New creates a Drafter speaking for the named applicant. profile is the
// plain-text career summary threaded into the system prompt; it may be
// empty.
func New(client schemas.LLMClient, cfg config.LLMModelConfig, name, profile string, logger *zap.Logger) *Drafter {
	return &Drafter{
		client:  client,
		logger:  logger.Named("drafter"),
		cfg:     cfg,
		name:    name,
		profile: profile,
	}
}

// candidatePayload is the JSON contract the model is instructed to return.
type candidatePayload struct {
	Reply   string                   `json:"reply"`
	Actions []schemas.DeclaredAction `json:"actions"`
}

// Generate drafts one candidate reply. A non-empty feedback marks this as a
// revision round; only the most recent critic feedback is included, never
// the accumulated history.
func (d *Drafter) Generate(ctx context.Context, msg schemas.InboundMessage, feedback string) (schemas.Candidate, error) {
	req := schemas.CompletionRequest{
		SystemPrompt: d.systemPrompt(),
		UserPrompt:   buildUserPrompt(msg, feedback),
		Temperature:  d.cfg.Temperature,
		MaxTokens:    d.cfg.MaxTokens,
		ForceJSON:    true,
	}

	raw, err := d.client.Complete(ctx, req)
	if err != nil {
		return schemas.Candidate{}, fmt.Errorf("draft generation failed: %w", err)
	}

	candidate, err := parseCandidate(raw)
	if err != nil {
		// A candidate we cannot parse is a candidate we cannot trust.
		return schemas.Candidate{}, fmt.Errorf("draft generation returned invalid output: %w", err)
	}

	d.logger.Debug("Draft generated",
		zap.String("message_id", msg.ID),
		zap.Bool("revision", feedback != ""),
		zap.Int("declared_actions", len(candidate.DeclaredActions)),
	)
	return candidate, nil
}

// parseCandidate validates the model's JSON into a Candidate. Every
// declared action must be a known kind with a well-formed payload.
func parseCandidate(raw string) (schemas.Candidate, error) {
	var payload candidatePayload
	if err := json.UnmarshalFromString(stripCodeFence(raw), &payload); err != nil {
		return schemas.Candidate{}, fmt.Errorf("decode candidate JSON: %w", err)
	}
	if strings.TrimSpace(payload.Reply) == "" {
		return schemas.Candidate{}, fmt.Errorf("candidate reply is empty")
	}
	for i, action := range payload.Actions {
		if err := action.Validate(); err != nil {
			return schemas.Candidate{}, fmt.Errorf("declared action %d: %w", i, err)
		}
	}
	return schemas.Candidate{
		Text:            strings.TrimSpace(payload.Reply),
		DeclaredActions: payload.Actions,
	}, nil
}

// stripCodeFence unwraps a ```json ... ``` fenced block, which models emit
// even when asked for bare JSON.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
