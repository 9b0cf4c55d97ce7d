// File: internal/notify/notify.go
// Package notify implements the escalation sink: an asynchronous dispatcher
// fanning notifications out to the configured channels. Delivery is
// best-effort by contract; a dead channel never stalls a review session.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/knakar/replyvet/api/schemas"
)

// Channel delivers one notification over one medium.
type Channel interface {
	Name() string
	// Accepts reports whether this channel wants notifications of the
	// given priority. Quieter channels only take the urgent ones.
	Accepts(p schemas.Priority) bool
	Send(ctx context.Context, n schemas.Notification) error
}

func priorityRank(p schemas.Priority) int {
	switch p {
	case schemas.PriorityEmergency:
		return 2
	case schemas.PriorityHigh:
		return 1
	default:
		return 0
	}
}

// -- Message Formatting --

func formatSubject(n schemas.Notification) string {
	switch n.Event {
	case schemas.EventMessageReceived:
		return fmt.Sprintf("New employer message from %s", n.Sender)
	case schemas.EventResponseApproved:
		return fmt.Sprintf("Reply approved for %s", n.Sender)
	case schemas.EventHumanIntervention:
		return fmt.Sprintf("Human attention needed: message from %s", n.Sender)
	default:
		return fmt.Sprintf("Notification (%s) for %s", n.Event, n.Sender)
	}
}

func formatBody(n schemas.Notification) string {
	var b strings.Builder
	b.WriteString(formatSubject(n))
	b.WriteString("\n\n")

	if n.Message != "" {
		fmt.Fprintf(&b, "Message:\n%s\n", n.Message)
	}
	if n.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s\n", n.Reason)
	}
	if n.RoundCount > 0 {
		fmt.Fprintf(&b, "Rounds: %d\n", n.RoundCount)
	}
	if n.CandidateText != "" {
		switch n.Event {
		case schemas.EventHumanIntervention:
			fmt.Fprintf(&b, "\nBest draft so far:\n%s\n", n.CandidateText)
		default:
			fmt.Fprintf(&b, "\nReply:\n%s\n", n.CandidateText)
		}
	}
	return b.String()
}
