// File: api/schemas/schemas.go
package schemas

import (
	"time"
)

// -- Inbound Message Schemas --

// Turn is a single prior exchange in a conversation, used as context for
// drafting. Role follows chat-completion conventions ("user", "assistant").
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InboundMessage is one message from an employer awaiting a reply. Each
// inbound message is processed by exactly one review session.
type InboundMessage struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	Context    []Turn    `json:"context,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// -- Assessment Schemas --

// Assessment is the critic's structured verdict on one candidate reply.
// OverallScore is always derived from DimensionScores by the quality gate;
// any overall or pass value the model emits is discarded and recomputed.
// An Assessment is immutable once built.
type Assessment struct {
	// DimensionScores maps each configured quality dimension to a score
	// in [0,10].
	DimensionScores map[string]float64 `json:"dimension_scores"`

	// OverallScore is the (weighted) mean of DimensionScores.
	OverallScore float64 `json:"overall_score"`

	// Feedback explains what is wrong with the candidate. Required when
	// the gate fails the assessment, optional otherwise.
	Feedback string `json:"feedback,omitempty"`

	// Suggestions carries the critic's concrete improvement hints. They
	// are folded into the revision prompt together with Feedback.
	Suggestions string `json:"suggestions,omitempty"`
}

// RevisionFeedback returns the text handed back to the drafter when a
// revision is requested. Only the most recent failing assessment feeds the
// next round, so prompt growth stays bounded.
func (a *Assessment) RevisionFeedback() string {
	if a == nil {
		return ""
	}
	if a.Suggestions == "" {
		return a.Feedback
	}
	if a.Feedback == "" {
		return a.Suggestions
	}
	return a.Feedback + " " + a.Suggestions
}

// -- Candidate Schemas --

// Candidate is one drafted reply plus the side-effecting actions the drafter
// declared alongside it. A candidate is never mutated; a revision produces a
// new candidate that supersedes it.
type Candidate struct {
	Text            string           `json:"text"`
	DeclaredActions []DeclaredAction `json:"declared_actions,omitempty"`
}

// RequiresHumanReview reports whether any declared action flags the reply
// for human judgment. A declared uncertainty is authoritative over any
// numeric score.
func (c Candidate) RequiresHumanReview() bool {
	for _, a := range c.DeclaredActions {
		if a.Kind == ActionNeedsHumanReview {
			return true
		}
	}
	return false
}

// -- Session Schemas --

// RevisionRound is one generate-then-score attempt. The round owns its
// candidate and assessment; later rounds supersede it without mutating it.
type RevisionRound struct {
	// Index is 1-based and equals the number of generation calls made so
	// far when this round was produced.
	Index      int         `json:"index"`
	Candidate  Candidate   `json:"candidate"`
	Assessment *Assessment `json:"assessment,omitempty"`
	Passed     bool        `json:"passed"`
}

// OutcomeKind tags the terminal result of a review session.
type OutcomeKind string

const (
	OutcomeApproved  OutcomeKind = "approved"
	OutcomeEscalated OutcomeKind = "escalated"
)

// EscalationReason records why a session ended in escalation.
type EscalationReason string

const (
	ReasonGenerationFailure EscalationReason = "generation-failure"
	ReasonEvaluationFailure EscalationReason = "evaluation-failure"
	ReasonFlaggedByAgent    EscalationReason = "flagged-by-agent"
	ReasonMaxRoundsExceeded EscalationReason = "max-rounds-exceeded"
)

// Outcome is the single terminal result of processing one inbound message.
//
// For an approved outcome, Candidate is the final approved reply and
// Assessment the assessment that passed the gate. For an escalated outcome,
// Candidate is the best-scoring candidate seen across all rounds (ties
// resolved to the earliest round) and Assessment the last one produced;
// either may be nil when the corresponding service call failed before
// producing anything.
type Outcome struct {
	Kind       OutcomeKind    `json:"kind"`
	SessionID  string         `json:"session_id"`
	Message    InboundMessage `json:"message"`
	Candidate  *Candidate     `json:"candidate,omitempty"`
	Assessment *Assessment    `json:"assessment,omitempty"`

	// RoundCount equals the number of generation calls actually made.
	RoundCount int `json:"round_count"`

	// Reason is set only on escalated outcomes.
	Reason EscalationReason `json:"reason,omitempty"`

	// Rounds is the full session history, retained for audit and
	// escalation payloads only.
	Rounds []RevisionRound `json:"rounds,omitempty"`

	CompletedAt time.Time `json:"completed_at"`
}

// CommittedActions returns the declared actions that may actually be
// applied. Only the final approved candidate's actions are authoritative;
// actions attached to superseded candidates, or to any candidate of an
// escalated session, are never committed.
func (o *Outcome) CommittedActions() []DeclaredAction {
	if o.Kind != OutcomeApproved || o.Candidate == nil {
		return nil
	}
	return o.Candidate.DeclaredActions
}

// Approved reports whether the reply may be delivered to the sender.
// Delivery must gate strictly on this; an escalated outcome never produces
// a sent reply.
func (o *Outcome) Approved() bool {
	return o.Kind == OutcomeApproved
}

// -- Notification Schemas --

// Priority orders escalation notifications for the human on the other end.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

// NotificationEvent distinguishes the situations that produce an alert.
type NotificationEvent string

const (
	EventMessageReceived   NotificationEvent = "message-received"
	EventResponseApproved  NotificationEvent = "response-approved"
	EventHumanIntervention NotificationEvent = "human-intervention"
)

// Notification is the payload handed to the escalation sink. The sink is a
// side channel: delivering it is best-effort and its failure never alters
// an already-computed outcome.
type Notification struct {
	Priority      Priority          `json:"priority"`
	Event         NotificationEvent `json:"event"`
	Sender        string            `json:"sender"`
	Message       string            `json:"message"`
	CandidateText string            `json:"candidate_text,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	RoundCount    int               `json:"round_count,omitempty"`
}
