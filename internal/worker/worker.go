// File: internal/worker/worker.go
// Package worker fans a stream of inbound messages out to concurrent review
// sessions. Sessions are independent, so the pool only bounds parallelism;
// it never reorders or retries.
package worker

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/knakar/replyvet/api/schemas"
)

// Processor reviews one message to a terminal outcome.
type Processor interface {
	Process(ctx context.Context, msg schemas.InboundMessage) *schemas.Outcome
}

// Pool runs review sessions concurrently over an inbound message stream.
type Pool struct {
	processor   Processor
	concurrency int
	logger      *zap.Logger
	onOutcome   func(*schemas.Outcome)
}

// Option is a function that configures a Pool.
type Option func(*Pool)

// WithOutcomeHandler registers a callback invoked with every terminal
// outcome. The callback runs on worker goroutines and must be safe for
// concurrent use.
func WithOutcomeHandler(fn func(*schemas.Outcome)) Option {
	return func(p *Pool) { p.onOutcome = fn }
}

// NewPool initializes a pool with the given parallelism.
func NewPool(processor Processor, concurrency int, logger *zap.Logger, opts ...Option) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	p := &Pool{
		processor:   processor,
		concurrency: concurrency,
		logger:      logger.With(zap.String("component", "worker")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes messages until the channel closes or ctx is cancelled, then
// waits for in-flight sessions to finish before returning.
func (p *Pool) Run(ctx context.Context, msgs <-chan schemas.InboundMessage) error {
	g := &errgroup.Group{}
	g.SetLimit(p.concurrency)

	p.logger.Info("Worker pool started", zap.Int("concurrency", p.concurrency))

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case msg, ok := <-msgs:
			if !ok {
				break loop
			}
			g.Go(func() error {
				p.handle(ctx, msg)
				return nil
			})
		}
	}

	err := g.Wait()
	p.logger.Info("Worker pool drained")
	return err
}

func (p *Pool) handle(ctx context.Context, msg schemas.InboundMessage) {
	outcome := p.processor.Process(ctx, msg)

	fields := []zap.Field{
		zap.String("session_id", outcome.SessionID),
		zap.String("sender", msg.Sender),
		zap.String("kind", string(outcome.Kind)),
		zap.Int("rounds", outcome.RoundCount),
	}
	if outcome.Reason != "" {
		fields = append(fields, zap.String("reason", string(outcome.Reason)))
	}
	p.logger.Info("Review session completed", fields...)

	if p.onOutcome != nil {
		p.onOutcome(outcome)
	}
}
