package tune

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/spf13/cobra"
)

var (
	addTitle     string
	addScheduled string
)

var addCmd = &cobra.Command{
	Use:   "add <tune-id>",
	Short: "Add a tune to the repertoire",
	Long: `Add a tune to the repertoire. A tune that was removed earlier is restored.

Examples:
  repertoire tune add kesh --title "The Kesh"
  repertoire tune add kesh --scheduled 2025-10-16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		var scheduled *time.Time
		if addScheduled != "" {
			t, err := cli.ParseInstant(addScheduled)
			if err != nil {
				return fmt.Errorf("invalid --scheduled: %w", err)
			}
			scheduled = &t
		}

		err = app.AddTuneHandler.Handle(cmd.Context(), commands.AddTuneCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			TuneID:        args[0],
			Title:         addTitle,
			Scheduled:     scheduled,
		})
		if err != nil {
			return fmt.Errorf("failed to add tune: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %s.\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "display title (defaults to the id)")
	addCmd.Flags().StringVar(&addScheduled, "scheduled", "", "put the tune up for review at this time")
}
