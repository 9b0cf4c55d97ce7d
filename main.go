// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/knakar/replyvet/cmd"
	"github.com/knakar/replyvet/internal/observability"
)

// main is the entry point for the replyvet CLI.
func main() {
	// A signal-aware context lets Ctrl+C drain in-flight review sessions
	// before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
