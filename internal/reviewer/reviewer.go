// File: internal/reviewer/reviewer.go
// The reviewer drives the generate -> evaluate -> revise state machine for
// one inbound message to a single terminal outcome. It holds no state
// across sessions; independent messages may be processed by concurrent
// Process calls without locking.
package reviewer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/config"
	"github.com/knakar/replyvet/internal/gate"
)

// state tracks where a session is in its lifecycle, for logging only.
type state string

const (
	stateGenerating state = "generating"
	stateEvaluating state = "evaluating"
	stateRevising   state = "revising"
	stateApproved   state = "approved"
	stateEscalating state = "escalating"
)

// Reviewer coordinates the drafter, the critic, and the quality gate.
type Reviewer struct {
	cfg       config.ReviewConfig
	gate      *gate.Gate
	generator schemas.Generator
	scorer    schemas.Scorer
	notifier  schemas.Notifier
	audit     schemas.AuditStore
	logger    *zap.Logger
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithNotifier attaches an escalation sink. Without one, notifications are
// silently skipped.
func WithNotifier(n schemas.Notifier) Option {
	return func(r *Reviewer) { r.notifier = n }
}

// WithAuditStore attaches an outcome audit store.
func WithAuditStore(s schemas.AuditStore) Option {
	return func(r *Reviewer) { r.audit = s }
}

// New creates a Reviewer. The configuration is assumed validated.
func New(cfg config.ReviewConfig, g *gate.Gate, generator schemas.Generator, scorer schemas.Scorer, logger *zap.Logger, opts ...Option) *Reviewer {
	r := &Reviewer{
		cfg:       cfg,
		gate:      g,
		generator: generator,
		scorer:    scorer,
		logger:    logger.Named("reviewer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process reviews one inbound message and always returns exactly one
// terminal outcome; every failure mode folds into an escalated outcome
// rather than an error. The returned outcome's RoundCount equals the number
// of generation calls made, never more than MaxRounds+1.
func (r *Reviewer) Process(ctx context.Context, msg schemas.InboundMessage) *schemas.Outcome {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	s := &session{
		id:  uuid.NewString(),
		msg: msg,
	}
	s.logger = r.logger.With(
		zap.String("session_id", s.id),
		zap.String("message_id", msg.ID),
		zap.String("sender", msg.Sender),
	)

	if r.cfg.SessionBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.SessionBudget)
		defer cancel()
	}

	r.notify(ctx, schemas.Notification{
		Priority: schemas.PriorityHigh,
		Event:    schemas.EventMessageReceived,
		Sender:   msg.Sender,
		Message:  msg.Body,
	})

	outcome := r.run(ctx, s)

	r.notifyTerminal(ctx, outcome)
	r.record(ctx, outcome)
	return outcome
}

// run executes the round loop. Each generation or scoring call is a single
// suspension point bounded by the configured call timeout.
func (r *Reviewer) run(ctx context.Context, s *session) *schemas.Outcome {
	feedback := ""

	for round := 1; ; round++ {
		s.setState(stateGenerating, round)
		candidate, err := r.generate(ctx, s.msg, feedback)
		if err != nil {
			s.logger.Warn("Generation failed, escalating",
				zap.Int("round", round), zap.Error(err))
			return s.escalate(schemas.ReasonGenerationFailure, round)
		}

		s.setState(stateEvaluating, round)
		assessment, err := r.score(ctx, s.msg, candidate.Text)
		if err != nil {
			// Covers transport failures, timeouts, and malformed
			// evaluator output alike; none of them consume a
			// revision round.
			s.logger.Warn("Evaluation failed, escalating",
				zap.Int("round", round), zap.Error(err))
			s.recordRound(candidate, nil, false)
			return s.escalate(schemas.ReasonEvaluationFailure, round)
		}

		verdict, err := r.gate.Evaluate(assessment)
		if err != nil {
			s.logger.Warn("Gate rejected assessment, escalating",
				zap.Int("round", round), zap.Error(err))
			s.recordRound(candidate, assessment, false)
			return s.escalate(schemas.ReasonEvaluationFailure, round)
		}
		s.recordRound(candidate, assessment, verdict.Passed)

		// A declared uncertainty is authoritative over any score, even
		// a passing one.
		if candidate.RequiresHumanReview() {
			s.setState(stateEscalating, round)
			s.logger.Info("Candidate flagged for human review",
				zap.Int("round", round),
				zap.Float64("overall_score", verdict.OverallScore))
			return s.escalate(schemas.ReasonFlaggedByAgent, round)
		}

		if verdict.Passed {
			s.setState(stateApproved, round)
			s.logger.Info("Reply approved",
				zap.Int("round", round),
				zap.Float64("overall_score", verdict.OverallScore))
			return s.approve(round)
		}

		if round <= r.cfg.MaxRounds {
			s.setState(stateRevising, round)
			s.logger.Info("Reply rejected, revising",
				zap.Int("round", round),
				zap.Float64("overall_score", verdict.OverallScore),
				zap.Strings("floor_breaches", verdict.FloorBreaches),
				zap.String("feedback", assessment.Feedback))
			// Only the most recent failing feedback feeds the next
			// round, to bound prompt growth.
			feedback = assessment.RevisionFeedback()
			continue
		}

		s.setState(stateEscalating, round)
		s.logger.Info("Revision rounds exhausted, escalating",
			zap.Int("round", round),
			zap.Float64("overall_score", verdict.OverallScore))
		return s.escalate(schemas.ReasonMaxRoundsExceeded, round)
	}
}

func (r *Reviewer) generate(ctx context.Context, msg schemas.InboundMessage, feedback string) (schemas.Candidate, error) {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.generator.Generate(cctx, msg, feedback)
}

func (r *Reviewer) score(ctx context.Context, msg schemas.InboundMessage, response string) (*schemas.Assessment, error) {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.scorer.Score(cctx, msg, response)
}

// notify hands an event to the escalation sink. The sink is a side channel:
// errors are logged and swallowed, and a nil notifier is fine.
func (r *Reviewer) notify(ctx context.Context, n schemas.Notification) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, n); err != nil {
		r.logger.Debug("Notification failed", zap.String("event", string(n.Event)), zap.Error(err))
	}
}

func (r *Reviewer) notifyTerminal(ctx context.Context, outcome *schemas.Outcome) {
	n := schemas.Notification{
		Sender:     outcome.Message.Sender,
		Message:    outcome.Message.Body,
		RoundCount: outcome.RoundCount,
	}
	if outcome.Candidate != nil {
		n.CandidateText = outcome.Candidate.Text
	}

	if outcome.Approved() {
		n.Priority = schemas.PriorityNormal
		n.Event = schemas.EventResponseApproved
	} else {
		n.Priority = schemas.PriorityEmergency
		n.Event = schemas.EventHumanIntervention
		n.Reason = string(outcome.Reason)
	}
	r.notify(ctx, n)
}

// record hands the outcome to the audit store. Auditing is best-effort and
// detached from the session's own deadline, which may already be spent.
func (r *Reviewer) record(ctx context.Context, outcome *schemas.Outcome) {
	if r.audit == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.audit.RecordOutcome(actx, outcome); err != nil {
		r.logger.Error("Failed to record outcome", zap.Error(err))
	}
}
