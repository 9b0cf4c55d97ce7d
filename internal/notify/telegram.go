// File: internal/notify/telegram.go
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

const defaultTelegramEndpoint = "https://api.telegram.org"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TelegramChannel delivers notifications through the Telegram Bot API's
// sendMessage method. It takes every priority; Telegram is the primary
// channel.
type TelegramChannel struct {
	endpoint   string
	botToken   string
	chatID     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTelegramChannel creates the channel from its configuration.
func NewTelegramChannel(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramChannel, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram channel requires a bot token and chat id")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultTelegramEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TelegramChannel{
		endpoint:   endpoint,
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("telegram"),
	}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Accepts(schemas.Priority) bool { return true }

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts the formatted notification. Telegram reports API failures in
// the body with a 200-range status, so both the status and the ok flag are
// checked.
func (c *TelegramChannel) Send(ctx context.Context, n schemas.Notification) error {
	payload, err := json.Marshal(telegramSendRequest{
		ChatID: c.chatID,
		Text:   formatBody(n),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.endpoint, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed telegramSendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse telegram response: %w", err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram API rejected message: %s", parsed.Description)
	}

	c.logger.Debug("Telegram notification delivered",
		zap.String("event", string(n.Event)))
	return nil
}
