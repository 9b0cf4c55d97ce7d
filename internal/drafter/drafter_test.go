// File: internal/drafter/drafter_test.go
package drafter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

type fakeLLM struct {
	response string
	err      error
	lastReq  schemas.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req schemas.CompletionRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestDrafter(llm schemas.LLMClient) *Drafter {
	cfg := config.LLMModelConfig{Temperature: 0.7, MaxTokens: 2000}
	return New(llm, cfg, "Ada", "Senior data engineer, 8 years of Go and Python.", zap.NewNop())
}

func inbound(body string) schemas.InboundMessage {
	return schemas.InboundMessage{
		ID:         "msg-1",
		Sender:     "Sarah from TechCorp",
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

func TestGenerate_ParsesReplyAndActions(t *testing.T) {
	llm := &fakeLLM{response: `{
		"reply": "Tuesday at 2pm works well for me.",
		"actions": [
			{"kind": "schedule-interview", "schedule": {"date": "Tuesday", "time": "2pm", "format": "video"}}
		]
	}`}
	d := newTestDrafter(llm)

	candidate, err := d.Generate(context.Background(), inbound("Are you available Tuesday at 2pm?"), "")

	require.NoError(t, err)
	assert.Equal(t, "Tuesday at 2pm works well for me.", candidate.Text)
	require.Len(t, candidate.DeclaredActions, 1)
	assert.Equal(t, schemas.ActionScheduleInterview, candidate.DeclaredActions[0].Kind)
	require.NotNil(t, candidate.DeclaredActions[0].Schedule)
	assert.Equal(t, "Tuesday", candidate.DeclaredActions[0].Schedule.Date)
	assert.False(t, candidate.RequiresHumanReview())

	assert.True(t, llm.lastReq.ForceJSON)
	assert.Contains(t, llm.lastReq.SystemPrompt, "Ada's career assistant")
	assert.Contains(t, llm.lastReq.SystemPrompt, "Senior data engineer")
}

func TestGenerate_HumanReviewAction(t *testing.T) {
	llm := &fakeLLM{response: `{
		"reply": "That is a great question about compensation; let me get back to you.",
		"actions": [
			{"kind": "needs-human-review", "human_review": {"question": "Expected salary range?", "confidence": 0.2}}
		]
	}`}
	d := newTestDrafter(llm)

	candidate, err := d.Generate(context.Background(), inbound("What is your expected salary?"), "")

	require.NoError(t, err)
	assert.True(t, candidate.RequiresHumanReview())
}

func TestGenerate_RevisionIncludesFeedbackOnly(t *testing.T) {
	llm := &fakeLLM{response: `{"reply": "Shorter reply.", "actions": []}`}
	d := newTestDrafter(llm)

	_, err := d.Generate(context.Background(), inbound("Tell me about your experience."), "too verbose")

	require.NoError(t, err)
	assert.Contains(t, llm.lastReq.UserPrompt, "REVIEWER FEEDBACK:\ntoo verbose")
	assert.Contains(t, llm.lastReq.UserPrompt, "EMPLOYER MESSAGE")
}

func TestGenerate_FreshDraftHasNoFeedbackSection(t *testing.T) {
	llm := &fakeLLM{response: `{"reply": "Hello!", "actions": []}`}
	d := newTestDrafter(llm)

	_, err := d.Generate(context.Background(), inbound("Hi"), "")

	require.NoError(t, err)
	assert.NotContains(t, llm.lastReq.UserPrompt, "REVIEWER FEEDBACK")
}

func TestGenerate_ContextTurnsIncluded(t *testing.T) {
	llm := &fakeLLM{response: `{"reply": "Following up as promised.", "actions": []}`}
	d := newTestDrafter(llm)

	msg := inbound("Any update?")
	msg.Context = []schemas.Turn{
		{Role: "user", Content: "We would like to interview you."},
		{Role: "assistant", Content: "Happy to; what times work?"},
	}

	_, err := d.Generate(context.Background(), msg, "")
	require.NoError(t, err)
	assert.Contains(t, llm.lastReq.UserPrompt, "PRIOR CONVERSATION")
	assert.Contains(t, llm.lastReq.UserPrompt, "what times work?")
}

func TestGenerate_ClientErrorPropagates(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	d := newTestDrafter(llm)

	_, err := d.Generate(context.Background(), inbound("Hi"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft generation failed")
}

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name: "fenced JSON accepted",
			raw:  "```json\n{\"reply\": \"Hello.\", \"actions\": []}\n```",
		},
		{
			name:    "invalid JSON rejected",
			raw:     "I think the reply should be...",
			wantErr: "decode candidate JSON",
		},
		{
			name:    "empty reply rejected",
			raw:     `{"reply": "  ", "actions": []}`,
			wantErr: "reply is empty",
		},
		{
			name:    "unknown action kind rejected",
			raw:     `{"reply": "Hi.", "actions": [{"kind": "launch-rocket"}]}`,
			wantErr: "unknown action kind",
		},
		{
			name:    "action payload mismatch rejected",
			raw:     `{"reply": "Hi.", "actions": [{"kind": "decline-offer"}]}`,
			wantErr: "missing decline payload",
		},
		{
			name:    "confidence out of range rejected",
			raw:     `{"reply": "Hi.", "actions": [{"kind": "needs-human-review", "human_review": {"question": "q", "confidence": 1.5}}]}`,
			wantErr: "out of range",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			candidate, err := parseCandidate(tc.raw)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.NotEmpty(t, candidate.Text)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
