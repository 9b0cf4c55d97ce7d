// File: internal/critic/critic.go
// The critic is the scoring service: an independent LLM pass that grades a
// drafted reply on the configured quality dimensions. The critic trusts
// nothing the model says about overall quality; the overall score and the
// pass decision are always recomputed by the gate from the per-dimension
// scores.
package critic

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
	"github.com/knakar/replyvet/internal/gate"
)

// Critic implements schemas.Scorer on top of an LLM client.
type Critic struct {
	client schemas.LLMClient
	logger *zap.Logger
	cfg    config.LLMModelConfig
	gate   *gate.Gate
}

var _ schemas.Scorer = (*Critic)(nil)

// New creates a Critic. The gate supplies the dimension set the model must
// score and validates everything it returns.
func New(client schemas.LLMClient, cfg config.LLMModelConfig, g *gate.Gate, logger *zap.Logger) *Critic {
	return &Critic{
		client: client,
		logger: logger.Named("critic"),
		cfg:    cfg,
		gate:   g,
	}
}

// assessmentPayload is the JSON contract the evaluator model must return.
// Duplicate or extra verdict fields the model might add (an overall score,
// a pass flag) are deliberately absent: they are derived, never supplied.
type assessmentPayload struct {
	Scores      map[string]float64 `json:"scores"`
	Feedback    string             `json:"feedback"`
	Suggestions string             `json:"suggested_improvements"`
}

// Score evaluates one candidate reply against the employer message and
// returns a fresh, validated Assessment. Malformed evaluator output is
// rejected here, wrapping gate.ErrMalformedAssessment.
func (c *Critic) Score(ctx context.Context, msg schemas.InboundMessage, response string) (*schemas.Assessment, error) {
	req := schemas.CompletionRequest{
		UserPrompt:  c.buildEvaluatorPrompt(msg, response),
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ForceJSON:   true,
	}

	raw, err := c.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scoring call failed: %w", err)
	}

	assessment, err := c.parseAssessment(raw)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Candidate scored",
		zap.String("message_id", msg.ID),
		zap.Float64("overall_score", assessment.OverallScore),
	)
	return assessment, nil
}

// parseAssessment validates raw evaluator output into an Assessment via the
// gate's validating constructor.
func (c *Critic) parseAssessment(raw string) (*schemas.Assessment, error) {
	var payload assessmentPayload
	if err := json.UnmarshalFromString(stripCodeFence(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode evaluator JSON: %v", gate.ErrMalformedAssessment, err)
	}

	assessment, err := c.gate.Build(payload.Scores, strings.TrimSpace(payload.Feedback), strings.TrimSpace(payload.Suggestions))
	if err != nil {
		return nil, fmt.Errorf("evaluator output rejected: %w", err)
	}
	return assessment, nil
}

func (c *Critic) buildEvaluatorPrompt(msg schemas.InboundMessage, response string) string {
	var sb strings.Builder

	sb.WriteString("You are a response evaluator for career communication. Critique the generated reply below.\n\n")
	fmt.Fprintf(&sb, "EMPLOYER MESSAGE (from %s):\n%s\n\n", msg.Sender, msg.Body)
	fmt.Fprintf(&sb, "GENERATED REPLY:\n%s\n\n", response)

	sb.WriteString("Score each criterion from 0 to 10:\n")
	for _, d := range c.gate.Dimensions() {
		fmt.Fprintf(&sb, "- %s\n", d)
	}

	sb.WriteString(`
CRITICAL CHECKS:
- Does the reply make claims the profile does not support?
- Does it commit to things requiring human approval (salary, contracts)?
- Is the tone appropriate for employer communication?

Respond with ONLY a JSON object:
{
  "scores": {`)
	dims := c.gate.Dimensions()
	for i, d := range dims {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q: <0-10>", d)
	}
	sb.WriteString(`},
  "feedback": "<brief explanation of issues, required if any score is low>",
  "suggested_improvements": "<specific suggestions, or empty>"
}`)
	return sb.String()
}

// stripCodeFence unwraps a ```json ... ``` fenced block.
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
