package queue

import (
	"fmt"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/spf13/cobra"
)

var (
	generateWindow cli.WindowFlags
	forceRegen     bool
	maxReviews     int
	windowDays     int
	noNewItems     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate today's queue, or return it if already frozen",
	Long: `Generate today's practice queue.

The first call for a day freezes the queue; later calls return it unchanged.
Use --force to discard today's queue and build it again from current data.

Examples:
  repertoire queue generate
  repertoire queue generate --force
  repertoire queue generate --max 20 --window-days 14
  repertoire queue generate --no-new`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}
		params, err := generateWindow.Params()
		if err != nil {
			return err
		}

		command := commands.GenerateQueueCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			WindowParams:  params,
			ForceRegen:    forceRegen,
		}
		if cmd.Flags().Changed("max") {
			command.MaxDailyReviews = &maxReviews
		}
		if cmd.Flags().Changed("window-days") {
			command.DelinquencyWindowDays = &windowDays
		}
		if noNewItems {
			enabled := false
			command.EnableNewItems = &enabled
		}

		result, err := app.GenerateQueueHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to generate queue: %w", err)
		}

		out := cmd.OutOrStdout()
		if result.Outcome == commands.OutcomeNotReady {
			if jsonOutput {
				return printQueue(out, queries.ToQueueDTO(result.Key, result.Windows, nil, false), false)
			}
			fmt.Fprintln(out, "No tunes in this repertoire yet. Add some with 'repertoire tune add'.")
			return nil
		}
		if !jsonOutput {
			fmt.Fprintf(out, "Queue %s.\n", result.Outcome)
		}
		return printQueue(out, queries.ToQueueDTO(result.Key, result.Windows, result.Entries, false), false)
	},
}

func init() {
	generateWindow.Register(generateCmd)
	generateCmd.Flags().BoolVarP(&forceRegen, "force", "f", false, "discard today's queue and rebuild it")
	generateCmd.Flags().IntVar(&maxReviews, "max", 0, "override max daily reviews (0 = uncapped)")
	generateCmd.Flags().IntVar(&windowDays, "window-days", 0, "override the delinquency window in days")
	generateCmd.Flags().BoolVar(&noNewItems, "no-new", false, "skip never-practiced tunes")
}
