// File: cmd/history.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knakar/replyvet/internal/observability"
	"github.com/knakar/replyvet/internal/store"
)

// newHistoryCmd creates the `history` command, which lists recent review
// outcomes from the audit store.
func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent review outcomes from the audit store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				return fmt.Errorf("the audit store is disabled; enable audit and set REPLYVET_DATABASE_URL")
			}

			pool, err := store.Connect(ctx, cfg.Audit.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			auditStore, err := store.New(ctx, pool, logger)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			records, err := auditStore.ListRecentOutcomes(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No review outcomes recorded yet.")
				return nil
			}

			for _, rec := range records {
				printRecord(cmd, rec)
			}
			return nil
		},
	}

	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of outcomes to list")
	return historyCmd
}

func printRecord(cmd *cobra.Command, rec store.OutcomeRecord) {
	w := cmd.OutOrStdout()

	score := "-"
	if rec.OverallScore != nil {
		score = fmt.Sprintf("%.1f", *rec.OverallScore)
	}
	fmt.Fprintf(w, "%s  %-9s  score=%s  rounds=%d  %s\n",
		rec.CompletedAt, rec.Kind, score, rec.RoundCount, rec.Sender)
	if rec.Reason != "" {
		fmt.Fprintf(w, "    reason: %s\n", rec.Reason)
	}
}
