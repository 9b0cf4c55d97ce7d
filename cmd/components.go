// File: cmd/components.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/knakar/replyvet/internal/config"
	"github.com/knakar/replyvet/internal/critic"
	"github.com/knakar/replyvet/internal/drafter"
	"github.com/knakar/replyvet/internal/gate"
	"github.com/knakar/replyvet/internal/llmclient"
	"github.com/knakar/replyvet/internal/notify"
	"github.com/knakar/replyvet/internal/reviewer"
	"github.com/knakar/replyvet/internal/store"
)

// reviewComponents holds the initialized services behind one Reviewer.
type reviewComponents struct {
	Reviewer   *reviewer.Reviewer
	Store      *store.Store
	dispatcher *notify.Dispatcher
	dbPool     interface{ Close() }
	logger     *zap.Logger
}

// Shutdown releases resources in reverse construction order.
func (c *reviewComponents) Shutdown() {
	if c.dispatcher != nil {
		c.dispatcher.Stop()
	}
	if c.dbPool != nil {
		c.dbPool.Close()
	}
}

// initializeReviewComponents wires the drafter, critic, gate, escalation
// sink, and audit store into a ready Reviewer.
func initializeReviewComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*reviewComponents, error) {
	components := &reviewComponents{logger: logger}

	drafterClient, err := llmclient.NewClient(ctx, cfg.LLM.Drafter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create drafter client: %w", err)
	}
	criticClient, err := llmclient.NewClient(ctx, cfg.LLM.Critic, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create critic client: %w", err)
	}
	// One bucket for both roles, so the configured rate caps total LLM
	// traffic rather than each client separately.
	limiter := llmclient.NewRateLimiter(cfg.LLM.RequestsPerMinute)
	drafterClient = llmclient.NewRateLimitedClient(drafterClient, limiter)
	criticClient = llmclient.NewRateLimitedClient(criticClient, limiter)

	profile, err := loadProfileSummary(cfg.Profile)
	if err != nil {
		return nil, err
	}

	qualityGate := gate.New(cfg.Review)
	gen := drafter.New(drafterClient, cfg.LLM.Drafter, cfg.Profile.Name, profile, logger)
	scorer := critic.New(criticClient, cfg.LLM.Critic, qualityGate, logger)

	var opts []reviewer.Option

	if cfg.Notify.Telegram.Enabled || cfg.Notify.Email.Enabled {
		dispatcher, err := notify.NewDispatcher(cfg.Notify, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create notification dispatcher: %w", err)
		}
		components.dispatcher = dispatcher
		opts = append(opts, reviewer.WithNotifier(dispatcher))
	}

	if cfg.Audit.Enabled {
		pool, err := store.Connect(ctx, cfg.Audit.DatabaseURL)
		if err != nil {
			components.Shutdown()
			return nil, err
		}
		components.dbPool = pool

		auditStore, err := store.New(ctx, pool, logger)
		if err != nil {
			components.Shutdown()
			return nil, err
		}
		if err := auditStore.EnsureSchema(ctx); err != nil {
			components.Shutdown()
			return nil, err
		}
		components.Store = auditStore
		opts = append(opts, reviewer.WithAuditStore(auditStore))
	}

	components.Reviewer = reviewer.New(cfg.Review, qualityGate, gen, scorer, logger, opts...)
	return components, nil
}

// loadProfileSummary reads the applicant background the drafter speaks
// from. An unset summary file is fine; an unreadable one is not.
func loadProfileSummary(cfg config.ProfileConfig) (string, error) {
	if cfg.SummaryFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(cfg.SummaryFile)
	if err != nil {
		return "", fmt.Errorf("failed to read profile summary file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
