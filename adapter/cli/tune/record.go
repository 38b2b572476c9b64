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
	recordDue       string
	recordInDays    int
	recordPracticed string
	recordKeep      bool
)

var recordCmd = &cobra.Command{
	Use:   "record <tune-id>",
	Short: "Record a practice session and the next due date",
	Long: `Record a practice session with the next due date your scheduler computed.
The manual review date is cleared unless --keep-schedule is given.

Examples:
  repertoire tune record kesh --in 3
  repertoire tune record kesh --due 2025-10-20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		practicedAt := time.Now().UTC()
		if recordPracticed != "" {
			if practicedAt, err = cli.ParseInstant(recordPracticed); err != nil {
				return fmt.Errorf("invalid --practiced: %w", err)
			}
		}

		var due time.Time
		switch {
		case recordDue != "":
			if due, err = cli.ParseInstant(recordDue); err != nil {
				return fmt.Errorf("invalid --due: %w", err)
			}
		case recordInDays > 0:
			due = practicedAt.AddDate(0, 0, recordInDays)
		default:
			return errors.New("one of --due or --in is required")
		}

		err = app.RecordPracticeHandler.Handle(cmd.Context(), commands.RecordPracticeCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			TuneID:        args[0],
			PracticedAt:   practicedAt,
			Due:           due,
			ClearSchedule: !recordKeep,
		})
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return fmt.Errorf("%s is not in the repertoire", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to record practice: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s, next due %s.\n", args[0], due.Format("2006-01-02"))
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordDue, "due", "", "next due date")
	recordCmd.Flags().IntVar(&recordInDays, "in", 0, "next due in this many days")
	recordCmd.Flags().StringVar(&recordPracticed, "practiced", "", "when the practice happened (defaults to now)")
	recordCmd.Flags().BoolVar(&recordKeep, "keep-schedule", false, "keep the manual review date")
}
