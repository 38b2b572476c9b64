package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/spf13/cobra"
)

var doneWindow cli.WindowFlags

var doneCmd = &cobra.Command{
	Use:   "done <tune-id>",
	Short: "Mark a tune in today's queue as reviewed",
	Long: `Mark a tune in today's queue as reviewed.

This only records completion on the queue. Use 'repertoire tune record'
to store the next due date from your scheduler.

Examples:
  repertoire queue done banish-misfortune`,
	Aliases: []string{"complete", "x"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}
		params, err := doneWindow.Params()
		if err != nil {
			return err
		}

		entry, err := app.CompleteEntryHandler.Handle(cmd.Context(), commands.CompleteEntryCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			WindowParams:  params,
			TuneRef:       args[0],
		})
		switch {
		case errors.Is(err, domain.ErrEntryNotFound):
			return fmt.Errorf("%s is not in today's queue", args[0])
		case errors.Is(err, domain.ErrEntryAlreadyCompleted):
			return fmt.Errorf("%s is already done today", args[0])
		case err != nil:
			return fmt.Errorf("failed to complete entry: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return json.NewEncoder(out).Encode(map[string]any{
				"tune_ref":     entry.TuneRef,
				"completed_at": entry.CompletedAt,
			})
		}
		fmt.Fprintf(out, "Done: %s\n", entry.TuneRef)
		return nil
	},
}

func init() {
	doneWindow.Register(doneCmd)
}
