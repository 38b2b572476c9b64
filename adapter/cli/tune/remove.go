package tune

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <tune-id>",
	Short:   "Remove a tune from the repertoire",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		err = app.RemoveTuneHandler.Handle(cmd.Context(), commands.RemoveTuneCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			TuneID:        args[0],
		})
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return fmt.Errorf("%s is not in the repertoire", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to remove tune: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
		return nil
	},
}
