// File: cmd/respond.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/knakar/replyvet/api/schemas"
	"github.com/knakar/replyvet/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newRespondCmd creates the `respond` command, which reviews a single
// employer message and prints the resulting reply or escalation.
func newRespondCmd() *cobra.Command {
	respondCmd := &cobra.Command{
		Use:   "respond [message]",
		Short: "Draft and quality-check a reply to one employer message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}

			body, err := readMessageBody(cmd, args)
			if err != nil {
				return err
			}

			sender, _ := cmd.Flags().GetString("sender")
			msg := schemas.InboundMessage{
				Sender: sender,
				Body:   body,
			}

			components, err := initializeReviewComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize review components: %w", err)
			}
			defer components.Shutdown()

			logger.Info("Reviewing message", zap.String("sender", sender))
			outcome := components.Reviewer.Process(ctx, msg)

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printOutcomeJSON(cmd.OutOrStdout(), outcome)
			}
			printOutcome(cmd.OutOrStdout(), outcome)
			return nil
		},
	}

	respondCmd.Flags().StringP("sender", "s", "unknown", "Sender of the message (email or name)")
	respondCmd.Flags().StringP("file", "f", "", "Read the message body from a file ('-' for stdin)")
	respondCmd.Flags().Bool("json", false, "Print the full outcome as JSON")

	return respondCmd
}

// readMessageBody resolves the message text from the positional argument,
// the --file flag, or stdin.
func readMessageBody(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")

	switch {
	case len(args) == 1 && file != "":
		return "", fmt.Errorf("provide the message as an argument or with --file, not both")
	case len(args) == 1:
		if strings.TrimSpace(args[0]) == "" {
			return "", fmt.Errorf("message body must not be empty")
		}
		return args[0], nil
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read message from stdin: %w", err)
		}
		return validateBody(string(data))
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read message file: %w", err)
		}
		return validateBody(string(data))
	default:
		return "", fmt.Errorf("no message provided; pass it as an argument or with --file")
	}
}

func validateBody(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", fmt.Errorf("message body must not be empty")
	}
	return trimmed, nil
}

func printOutcomeJSON(w io.Writer, outcome *schemas.Outcome) error {
	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}
	fmt.Fprintln(w, string(encoded))
	return nil
}

func printOutcome(w io.Writer, outcome *schemas.Outcome) {
	if outcome.Approved() {
		fmt.Fprintf(w, "Approved after %d round(s).\n\n", outcome.RoundCount)
		fmt.Fprintln(w, outcome.Candidate.Text)
		if actions := outcome.CommittedActions(); len(actions) > 0 {
			fmt.Fprintln(w, "\nActions:")
			for _, a := range actions {
				fmt.Fprintf(w, "  - %s\n", a.Kind)
			}
		}
		return
	}

	fmt.Fprintf(w, "Escalated to you after %d round(s): %s\n", outcome.RoundCount, outcome.Reason)
	if outcome.Candidate != nil {
		fmt.Fprintf(w, "\nBest draft so far:\n%s\n", outcome.Candidate.Text)
	}
	if outcome.Assessment != nil {
		fmt.Fprintf(w, "\nLast score: %.1f\n", outcome.Assessment.OverallScore)
		if outcome.Assessment.Feedback != "" {
			fmt.Fprintf(w, "Critic feedback: %s\n", outcome.Assessment.Feedback)
		}
	}
}
