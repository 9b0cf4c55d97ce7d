// File: cmd/watch.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/inbox"
	"github.com/knakar/replyvet/internal/observability"
	"github.com/knakar/replyvet/internal/worker"
)

// newWatchCmd creates the `watch` command, which tails the inbox file and
// reviews every incoming message until interrupted.
func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the inbox file and review messages as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}

			// Explicit flags override the config file and environment.
			if cmd.Flags().Changed("inbox") {
				cfg.Inbox.Path, _ = cmd.Flags().GetString("inbox")
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Inbox.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			}
			if cmd.Flags().Changed("replay") {
				cfg.Inbox.Replay, _ = cmd.Flags().GetBool("replay")
			}
			if cfg.Inbox.Concurrency <= 0 {
				return fmt.Errorf("concurrency must be a positive integer")
			}

			components, err := initializeReviewComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize review components: %w", err)
			}
			defer components.Shutdown()

			msgChan := make(chan schemas.InboundMessage, cfg.Inbox.Concurrency)
			watcher, err := inbox.NewWatcher(cfg.Inbox, msgChan, logger)
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}

			pool := worker.NewPool(components.Reviewer, cfg.Inbox.Concurrency, logger,
				worker.WithOutcomeHandler(func(outcome *schemas.Outcome) {
					printOutcome(cmd.OutOrStdout(), outcome)
				}))

			logger.Info("Watching inbox",
				zap.String("path", cfg.Inbox.Path),
				zap.Int("concurrency", cfg.Inbox.Concurrency))
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", cfg.Inbox.Path)

			return pool.Run(ctx, msgChan)
		},
	}

	watchCmd.Flags().String("inbox", "", "Path to the JSONL inbox file (overrides config)")
	watchCmd.Flags().IntP("concurrency", "j", 0, "Number of concurrent review sessions (overrides config)")
	watchCmd.Flags().Bool("replay", false, "Also review messages already present in the inbox file")

	return watchCmd
}
