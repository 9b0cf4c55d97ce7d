// File: internal/inbox/inbox.go
// Package inbox tails a JSONL inbox file and turns each line into an
// inbound employer message. One line is one message; malformed lines are
// logged and skipped so a single bad write never wedges the watcher.
package inbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hpcloud/tail"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Watcher monitors the inbox file and emits parsed messages on its channel.
type Watcher struct {
	logger  *zap.Logger
	path    string
	replay  bool
	msgChan chan<- schemas.InboundMessage
}

// NewWatcher initializes a watcher for the configured inbox file. Messages
// are delivered on msgChan until the context given to Start is cancelled.
func NewWatcher(cfg config.InboxConfig, msgChan chan<- schemas.InboundMessage, logger *zap.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("inbox.path must be configured")
	}
	return &Watcher{
		logger:  logger.Named("inbox"),
		path:    cfg.Path,
		replay:  cfg.Replay,
		msgChan: msgChan,
	}, nil
}

// Start begins tailing the inbox file in a separate goroutine. With replay
// disabled only lines appended after this call are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("Starting inbox watcher", zap.String("path", w.path), zap.Bool("replay", w.replay))

	tailCfg := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	if !w.replay {
		tailCfg.Location = &tail.SeekInfo{Offset: 0, Whence: 2}
	}

	t, err := tail.TailFile(w.path, tailCfg)
	if err != nil {
		return fmt.Errorf("failed to tail inbox file: %w", err)
	}

	go w.monitorLoop(ctx, t)
	return nil
}

func (w *Watcher) monitorLoop(ctx context.Context, t *tail.Tail) {
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping inbox watcher")
			return

		case line, ok := <-t.Lines:
			if !ok {
				w.logger.Info("Inbox tailer channel closed")
				return
			}
			if line.Err != nil {
				w.logger.Warn("Error reading from inbox file", zap.Error(line.Err))
				continue
			}

			msg, err := ParseLine(line.Text)
			if err != nil {
				w.logger.Warn("Skipping malformed inbox line", zap.Error(err))
				continue
			}
			if msg == nil {
				continue
			}

			select {
			case w.msgChan <- *msg:
			case <-ctx.Done():
				w.logger.Warn("Context cancelled while delivering inbox message",
					zap.String("message_id", msg.ID))
				return
			}
		}
	}
}

// ParseLine decodes one inbox line. Blank lines yield a nil message and no
// error. Messages without an id get a generated one.
func ParseLine(line string) (*schemas.InboundMessage, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, nil
	}

	var msg schemas.InboundMessage
	if err := json.UnmarshalFromString(trimmed, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse inbox line: %w", err)
	}
	if msg.Sender == "" {
		return nil, fmt.Errorf("inbox message is missing a sender")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, fmt.Errorf("inbox message from %q has an empty body", msg.Sender)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return &msg, nil
}
