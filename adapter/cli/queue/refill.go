package queue

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/spf13/cobra"
)

var refillWindow cli.WindowFlags

var refillCmd = &cobra.Command{
	Use:   "refill [count]",
	Short: "Append backlog tunes to today's queue",
	Long: `Append up to count backlog tunes (default 5) to today's frozen queue.

Existing entries are left untouched. Refill never creates a queue.

Examples:
  repertoire queue refill
  repertoire queue refill 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}
		params, err := refillWindow.Params()
		if err != nil {
			return err
		}

		count := 5
		if len(args) == 1 {
			count, err = strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
		}

		result, err := app.RefillQueueHandler.Handle(cmd.Context(), commands.RefillQueueCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			WindowParams:  params,
			Count:         count,
		})
		if err != nil {
			return fmt.Errorf("failed to refill queue: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(result.Added) == 0 && !jsonOutput {
			fmt.Fprintln(out, "Nothing added. Either there is no queue for today or the backlog is exhausted.")
			return nil
		}
		if !jsonOutput {
			fmt.Fprintf(out, "Added %d tune(s):\n", len(result.Added))
		}
		dto := queries.ToQueueDTO(result.Key, result.Windows, result.Added, false)
		return printQueue(out, dto, false)
	},
}

func init() {
	refillWindow.Register(refillCmd)
}
