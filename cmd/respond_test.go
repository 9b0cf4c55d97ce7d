// File: cmd/respond_test.go
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knakar/replyvet/api/schemas"
)

func TestReadMessageBody(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		cmd := newRespondCmd()
		body, err := readMessageBody(cmd, []string{"Hello there"})
		require.NoError(t, err)
		assert.Equal(t, "Hello there", body)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "msg.txt")
		require.NoError(t, os.WriteFile(path, []byte("  Interview on Tuesday?\n"), 0o644))

		cmd := newRespondCmd()
		require.NoError(t, cmd.Flags().Set("file", path))
		body, err := readMessageBody(cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, "Interview on Tuesday?", body)
	})

	t.Run("from stdin", func(t *testing.T) {
		cmd := newRespondCmd()
		cmd.SetIn(strings.NewReader("From stdin\n"))
		require.NoError(t, cmd.Flags().Set("file", "-"))
		body, err := readMessageBody(cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, "From stdin", body)
	})

	t.Run("rejects both argument and file", func(t *testing.T) {
		cmd := newRespondCmd()
		require.NoError(t, cmd.Flags().Set("file", "some.txt"))
		_, err := readMessageBody(cmd, []string{"also an argument"})
		assert.Error(t, err)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		cmd := newRespondCmd()
		_, err := readMessageBody(cmd, []string{"   "})
		assert.Error(t, err)

		cmd = newRespondCmd()
		_, err = readMessageBody(cmd, nil)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		cmd := newRespondCmd()
		require.NoError(t, cmd.Flags().Set("file", filepath.Join(t.TempDir(), "nope.txt")))
		_, err := readMessageBody(cmd, nil)
		assert.Error(t, err)
	})
}

func TestPrintOutcome(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		out := &bytes.Buffer{}
		printOutcome(out, &schemas.Outcome{
			Kind: schemas.OutcomeApproved,
			Candidate: &schemas.Candidate{
				Text: "Tuesday works for me.",
				DeclaredActions: []schemas.DeclaredAction{{
					Kind: schemas.ActionScheduleInterview,
					Schedule: &schemas.ScheduleInterviewPayload{
						Date: "2026-09-01", Time: "10:00", Format: "video",
					},
				}},
			},
			RoundCount: 2,
		})

		assert.Contains(t, out.String(), "Approved after 2 round(s)")
		assert.Contains(t, out.String(), "Tuesday works for me.")
		assert.Contains(t, out.String(), string(schemas.ActionScheduleInterview))
	})

	t.Run("escalated", func(t *testing.T) {
		out := &bytes.Buffer{}
		printOutcome(out, &schemas.Outcome{
			Kind:       schemas.OutcomeEscalated,
			Reason:     schemas.ReasonMaxRoundsExceeded,
			RoundCount: 3,
			Candidate:  &schemas.Candidate{Text: "best draft"},
			Assessment: &schemas.Assessment{
				DimensionScores: map[string]float64{"clarity": 6},
				OverallScore:    6.0,
				Feedback:        "Still too vague.",
			},
		})

		assert.Contains(t, out.String(), "max-rounds-exceeded")
		assert.Contains(t, out.String(), "best draft")
		assert.Contains(t, out.String(), "Still too vague.")
	})

	t.Run("escalated without a draft", func(t *testing.T) {
		out := &bytes.Buffer{}
		printOutcome(out, &schemas.Outcome{
			Kind:       schemas.OutcomeEscalated,
			Reason:     schemas.ReasonGenerationFailure,
			RoundCount: 1,
		})
		assert.Contains(t, out.String(), "generation-failure")
	})
}

func TestPrintOutcomeJSON(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, printOutcomeJSON(out, &schemas.Outcome{
		Kind:       schemas.OutcomeApproved,
		SessionID:  "s1",
		RoundCount: 1,
		Candidate:  &schemas.Candidate{Text: "ok"},
	}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "approved", decoded["kind"])
	assert.Equal(t, "s1", decoded["session_id"])
}
