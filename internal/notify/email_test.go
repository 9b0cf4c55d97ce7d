// File: internal/notify/email_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
)

type fakeSender struct {
	messages []*gomail.Message
	err      error
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m...)
	return nil
}

func emailCfg() config.EmailConfig {
	return config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "bot@example.com",
		To:      "owner@example.com",
	}
}

func TestEmailChannel_OnlyAcceptsEmergencies(t *testing.T) {
	ch, err := NewEmailChannel(emailCfg(), zap.NewNop())
	require.NoError(t, err)

	assert.False(t, ch.Accepts(schemas.PriorityNormal))
	assert.False(t, ch.Accepts(schemas.PriorityHigh))
	assert.True(t, ch.Accepts(schemas.PriorityEmergency))
}

func TestEmailChannel_Send(t *testing.T) {
	ch, err := NewEmailChannel(emailCfg(), zap.NewNop())
	require.NoError(t, err)
	sender := &fakeSender{}
	ch.dialer = sender

	err = ch.Send(context.Background(), schemas.Notification{
		Priority:   schemas.PriorityEmergency,
		Event:      schemas.EventHumanIntervention,
		Sender:     "recruiter@example.com",
		Message:    "Can you start Monday?",
		Reason:     "max-rounds-exceeded",
		RoundCount: 3,
	})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	m := sender.messages[0]
	assert.Equal(t, []string{"bot@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"owner@example.com"}, m.GetHeader("To"))
	require.Len(t, m.GetHeader("Subject"), 1)
	assert.Contains(t, m.GetHeader("Subject")[0], "Human attention needed")
}

func TestEmailChannel_SendFailure(t *testing.T) {
	ch, err := NewEmailChannel(emailCfg(), zap.NewNop())
	require.NoError(t, err)
	ch.dialer = &fakeSender{err: errors.New("connection refused")}

	err = ch.Send(context.Background(), schemas.Notification{
		Event: schemas.EventHumanIntervention,
	})
	assert.Error(t, err)
}

func TestEmailChannel_RequiresAddresses(t *testing.T) {
	_, err := NewEmailChannel(config.EmailConfig{Enabled: true, Host: "smtp.example.com"}, zap.NewNop())
	assert.Error(t, err)
}
