package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *slog.Logger
)

// invocation is what PersistentPreRun leaves in the command context.
type invocation struct {
	correlationID string
	timer         *observability.Timer
}

type invocationKey struct{}

var rootCmd = &cobra.Command{
	Use:   "repertoire",
	Short: "Daily practice queues for a tune repertoire",
	Long: `repertoire builds a frozen daily review queue from your tunes.

The queue is drawn in priority order: tunes due today, then recently
lapsed tunes, then new tunes, then the old backlog, up to your daily
review limit. It stays fixed for the day unless regenerated, and
refill extends it from the backlog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log := currentLogger()
		inv := invocation{
			correlationID: uuid.NewString(),
			timer:         observability.StartTimer(cmd.CommandPath()),
		}
		if app != nil {
			inv.timer.WithMetrics(app.Metrics)
		}
		ctx := observability.WithCorrelationID(cmd.Context(), inv.correlationID)
		cmd.SetContext(context.WithValue(ctx, invocationKey{}, inv))
		log.DebugContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		inv, ok := cmd.Context().Value(invocationKey{}).(invocation)
		if !ok {
			return
		}
		elapsed := inv.timer.Stop(nil)
		currentLogger().DebugContext(cmd.Context(), "command end",
			"command", cmd.CommandPath(),
			"duration_ms", elapsed.Milliseconds(),
		)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// ExecuteContext runs the command tree. The error is printed to stderr and returned.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

// AddCommand registers a top-level command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}

// SetLogger sets the logger used by the command hooks.
func SetLogger(l *slog.Logger) {
	logger = l
}

func currentLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
