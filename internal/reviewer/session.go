// File: internal/reviewer/session.go
package reviewer

import (
	"time"

	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
)

// session accumulates per-message state across revision rounds.
type session struct {
	id     string
	msg    schemas.InboundMessage
	rounds []schemas.RevisionRound
	state  state
	logger *zap.Logger
}

func (s *session) setState(next state, round int) {
	s.state = next
	s.logger.Debug("Session state changed",
		zap.String("state", string(next)), zap.Int("round", round))
}

// recordRound appends the completed round. A nil assessment marks a round
// whose candidate was never scored.
func (s *session) recordRound(candidate schemas.Candidate, assessment *schemas.Assessment, passed bool) {
	s.rounds = append(s.rounds, schemas.RevisionRound{
		Index:      len(s.rounds) + 1,
		Candidate:  candidate,
		Assessment: assessment,
		Passed:     passed,
	})
}

// latest returns the most recent round, or nil before the first one.
func (s *session) latest() *schemas.RevisionRound {
	if len(s.rounds) == 0 {
		return nil
	}
	return &s.rounds[len(s.rounds)-1]
}

// best returns the scored round with the highest overall score. Ties keep
// the earliest round. Rounds without an assessment never win.
func (s *session) best() *schemas.RevisionRound {
	var b *schemas.RevisionRound
	for i := range s.rounds {
		rd := &s.rounds[i]
		if rd.Assessment == nil {
			continue
		}
		if b == nil || rd.Assessment.OverallScore > b.Assessment.OverallScore {
			b = rd
		}
	}
	return b
}

// approve builds the terminal outcome for the latest, passing candidate.
func (s *session) approve(roundCount int) *schemas.Outcome {
	rd := s.latest()
	return &schemas.Outcome{
		Kind:        schemas.OutcomeApproved,
		SessionID:   s.id,
		Message:     s.msg,
		Candidate:   &rd.Candidate,
		Assessment:  rd.Assessment,
		RoundCount:  roundCount,
		Rounds:      s.rounds,
		CompletedAt: time.Now().UTC(),
	}
}

// escalate builds the terminal outcome for a session that needs a human.
// The attached candidate is a draft for the reviewer, never a commitment:
// flagged sessions carry the flagged candidate, exhausted sessions carry
// the best-scoring one, and failed sessions carry whatever was drafted
// last, if anything.
func (s *session) escalate(reason schemas.EscalationReason, roundCount int) *schemas.Outcome {
	out := &schemas.Outcome{
		Kind:        schemas.OutcomeEscalated,
		SessionID:   s.id,
		Message:     s.msg,
		RoundCount:  roundCount,
		Reason:      reason,
		Rounds:      s.rounds,
		CompletedAt: time.Now().UTC(),
	}

	var rd *schemas.RevisionRound
	switch reason {
	case schemas.ReasonMaxRoundsExceeded:
		rd = s.best()
	default:
		rd = s.latest()
	}
	if rd != nil {
		out.Candidate = &rd.Candidate
		out.Assessment = rd.Assessment
	}
	return out
}
