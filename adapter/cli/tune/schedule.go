package tune

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/spf13/cobra"
)

var (
	scheduleAt    string
	scheduleClear bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <tune-id>",
	Short: "Set or clear a tune's manual review date",
	Long: `Set or clear a tune's manual review date. A scheduled date takes
precedence over the due date from practice history.

Examples:
  repertoire tune schedule kesh                  # review today
  repertoire tune schedule kesh --at 2025-10-20
  repertoire tune schedule kesh --clear`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		var scheduled *time.Time
		if !scheduleClear {
			t := time.Now().UTC()
			if scheduleAt != "" {
				if t, err = cli.ParseInstant(scheduleAt); err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
			}
			scheduled = &t
		}

		err = app.ScheduleTuneHandler.Handle(cmd.Context(), commands.ScheduleTuneCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			TuneID:        args[0],
			Scheduled:     scheduled,
		})
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return fmt.Errorf("%s is not in the repertoire", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to schedule tune: %w", err)
		}

		out := cmd.OutOrStdout()
		if scheduled == nil {
			fmt.Fprintf(out, "Cleared schedule for %s.\n", args[0])
		} else {
			fmt.Fprintf(out, "Scheduled %s for %s.\n", args[0], scheduled.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "review time (defaults to now)")
	scheduleCmd.Flags().BoolVar(&scheduleClear, "clear", false, "remove the manual review date")
}
