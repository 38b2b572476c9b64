package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/preferences"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	prefsJSON  bool
	windowDays int
	maxReviews int
	enableNew  bool
)

var Cmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage practice preferences",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show practice preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		prefs, err := app.PreferencesService.Get(cmd.Context(), app.CurrentUserID)
		if err != nil {
			return err
		}
		return printPrefs(cmd.OutOrStdout(), prefs, false)
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Update practice preferences",
	Long: `Update practice preferences. Only the flags you pass are changed.

Examples:
  repertoire prefs set --max 20
  repertoire prefs set --window-days 14 --new=false
  repertoire prefs set --max 0               # uncapped`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		var upd preferences.Update
		if cmd.Flags().Changed("window-days") {
			upd.DelinquencyWindowDays = &windowDays
		}
		if cmd.Flags().Changed("max") {
			upd.MaxDailyReviews = &maxReviews
		}
		if cmd.Flags().Changed("new") {
			upd.EnableNewItems = &enableNew
		}
		if upd == (preferences.Update{}) {
			return errors.New("nothing to update; pass --window-days, --max or --new")
		}

		prefs, err := app.PreferencesService.Set(cmd.Context(), app.CurrentUserID, upd)
		if err != nil {
			return err
		}
		return printPrefs(cmd.OutOrStdout(), prefs, true)
	},
}

func currentApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.PreferencesService == nil {
		return nil, errors.New("preferences service not configured")
	}
	if app.CurrentUserID == uuid.Nil {
		return nil, errors.New("current user not configured")
	}
	return app, nil
}

func printPrefs(out io.Writer, prefs domain.Preferences, updated bool) error {
	if prefsJSON {
		payload := map[string]any{
			"delinquency_window_days": prefs.DelinquencyWindowDays,
			"max_daily_reviews":       prefs.MaxDailyReviews,
			"enable_new_items":        prefs.EnableNewItems,
		}
		if updated {
			payload["updated"] = true
		}
		return json.NewEncoder(out).Encode(payload)
	}

	limit := fmt.Sprintf("%d", prefs.MaxDailyReviews)
	if prefs.MaxDailyReviews == 0 {
		limit = "uncapped"
	}
	fmt.Fprintf(out, "Delinquency window: %d days\n", prefs.DelinquencyWindowDays)
	fmt.Fprintf(out, "Max daily reviews:  %s\n", limit)
	fmt.Fprintf(out, "New tunes:          %t\n", prefs.EnableNewItems)
	if updated {
		fmt.Fprintln(out, "Preferences saved.")
	}
	return nil
}

func init() {
	Cmd.PersistentFlags().BoolVar(&prefsJSON, "json", false, "output as JSON")

	setCmd.Flags().IntVar(&windowDays, "window-days", 0, "days past due that still count as recently lapsed")
	setCmd.Flags().IntVar(&maxReviews, "max", 0, "daily review cap (0 = uncapped)")
	setCmd.Flags().BoolVar(&enableNew, "new", true, "include never-practiced tunes")

	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(setCmd)
}
