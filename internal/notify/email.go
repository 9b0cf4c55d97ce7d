// File: internal/notify/email.go
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

// sender abstracts gomail's dialer so tests can stub SMTP delivery.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailChannel delivers notifications over SMTP. Email is deliberately
// reserved for emergency priority so the mailbox only sees sessions that
// actually need a human.
type EmailChannel struct {
	from   string
	to     string
	dialer sender
	logger *zap.Logger
}

// NewEmailChannel creates the channel from its configuration.
func NewEmailChannel(cfg config.EmailConfig, logger *zap.Logger) (*EmailChannel, error) {
	if cfg.Host == "" || cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("email channel requires host, from, and to addresses")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &EmailChannel{
		from:   cfg.From,
		to:     cfg.To,
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		logger: logger.Named("email"),
	}, nil
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Accepts(p schemas.Priority) bool {
	return priorityRank(p) >= priorityRank(schemas.PriorityEmergency)
}

func (c *EmailChannel) Send(_ context.Context, n schemas.Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", c.to)
	m.SetHeader("Subject", formatSubject(n))
	m.SetBody("text/plain", formatBody(n))

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	c.logger.Debug("Email notification delivered",
		zap.String("event", string(n.Event)))
	return nil
}
