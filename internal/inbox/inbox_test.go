// File: internal/inbox/inbox_test.go
package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

func TestParseLine(t *testing.T) {
	t.Run("valid message", func(t *testing.T) {
		msg, err := ParseLine(`{"id":"m1","sender":"recruiter@example.com","body":"Hello"}`)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "m1", msg.ID)
		assert.Equal(t, "recruiter@example.com", msg.Sender)
		assert.Equal(t, "Hello", msg.Body)
	})

	t.Run("assigns an id when missing", func(t *testing.T) {
		msg, err := ParseLine(`{"sender":"a@b.c","body":"hi"}`)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.NotEmpty(t, msg.ID)
	})

	t.Run("blank line is skipped silently", func(t *testing.T) {
		msg, err := ParseLine("   ")
		require.NoError(t, err)
		assert.Nil(t, msg)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := map[string]string{
			"not json":    "not json at all",
			"no sender":   `{"body":"hi"}`,
			"empty body":  `{"sender":"a@b.c","body":"  "}`,
			"wrong shape": `["a","b"]`,
			"bare number": `42`,
		}
		for name, line := range cases {
			t.Run(name, func(t *testing.T) {
				msg, err := ParseLine(line)
				assert.Error(t, err)
				assert.Nil(t, msg)
			})
		}
	})
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	_, err := NewWatcher(config.InboxConfig{}, make(chan schemas.InboundMessage), zap.NewNop())
	assert.Error(t, err)
}

func TestWatcher_Start(t *testing.T) {
	t.Run("fails when the inbox file does not exist", func(t *testing.T) {
		w, err := NewWatcher(config.InboxConfig{
			Path: filepath.Join(t.TempDir(), "missing.jsonl"),
		}, make(chan schemas.InboundMessage), zap.NewNop())
		require.NoError(t, err)

		err = w.Start(context.Background())
		assert.Error(t, err)
	})

	t.Run("delivers replayed and appended messages", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inbox.jsonl")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"id":"m1","sender":"a@b.c","body":"first"}`+"\n"), 0o644))

		msgChan := make(chan schemas.InboundMessage, 4)
		w, err := NewWatcher(config.InboxConfig{Path: path, Replay: true}, msgChan, zap.NewNop())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, w.Start(ctx))

		select {
		case msg := <-msgChan:
			assert.Equal(t, "m1", msg.ID)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for replayed message")
		}

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString("not json\n" + `{"id":"m2","sender":"a@b.c","body":"second"}` + "\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		select {
		case msg := <-msgChan:
			assert.Equal(t, "m2", msg.ID, "malformed line must be skipped")
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for appended message")
		}
	})
}
