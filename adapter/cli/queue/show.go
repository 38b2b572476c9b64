package queue

import (
	"fmt"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/spf13/cobra"
)

var (
	showWindow   cli.WindowFlags
	showAnnotate bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show today's frozen queue without generating one",
	Long: `Show today's frozen queue in practice order.

With --annotate, entries whose due date would classify differently today
show their current label next to the bucket they were filled from.

Examples:
  repertoire queue show
  repertoire queue show --annotate
  repertoire queue show --tz-offset -240`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}
		params, err := showWindow.Params()
		if err != nil {
			return err
		}

		dto, err := app.GetActiveQueueHandler.Handle(cmd.Context(), queries.GetActiveQueueQuery{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			WindowParams:  params,
			Annotate:      showAnnotate,
		})
		if err != nil {
			return fmt.Errorf("failed to load queue: %w", err)
		}
		return printQueue(cmd.OutOrStdout(), *dto, showAnnotate)
	},
}

func init() {
	showWindow.Register(showCmd)
	showCmd.Flags().BoolVar(&showAnnotate, "annotate", false, "show each entry's current bucket label")
}
