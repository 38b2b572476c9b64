package tune

import (
	"errors"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the tune command group
var Cmd = &cobra.Command{
	Use:   "tune",
	Short: "Manage the tunes in your repertoire",
	Long:  `Add, schedule, record practice for, remove, and import tunes.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(scheduleCmd)
	Cmd.AddCommand(recordCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(importCmd)
}

func currentApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil {
		return nil, errors.New("application not initialized - database connection required")
	}
	if app.CurrentUserID == uuid.Nil || app.CurrentRepertoireID == uuid.Nil {
		return nil, errors.New("current learner and repertoire not configured")
	}
	return app, nil
}
