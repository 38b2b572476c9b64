package queue

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/spf13/cobra"
)

var classifyWindow cli.WindowFlags

var classifyCmd = &cobra.Command{
	Use:   "classify <timestamp>",
	Short: "Show which urgency bucket a due timestamp falls into today",
	Long: `Classify a due timestamp against today's windows.

Timestamps are "YYYY-MM-DD HH:MM:SS" (UTC) or ISO-8601. Anything
unparsable is reported as due today and flagged as lenient.

Examples:
  repertoire queue classify "2025-10-09 12:00:00" --at 2025-10-16T14:30:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}
		params, err := classifyWindow.Params()
		if err != nil {
			return err
		}
		prefs, err := app.PreferencesService.Get(cmd.Context(), app.CurrentUserID)
		if err != nil {
			return fmt.Errorf("failed to load preferences: %w", err)
		}

		result := app.ClassifyTimestampHandler.Handle(queries.ClassifyTimestampQuery{
			Timestamp:             args[0],
			WindowParams:          params,
			DelinquencyWindowDays: prefs.DelinquencyWindowDays,
		})

		out := cmd.OutOrStdout()
		if jsonOutput {
			return json.NewEncoder(out).Encode(result)
		}
		fmt.Fprintf(out, "%s (%d)", result.Bucket, result.BucketID)
		if result.Lenient {
			fmt.Fprint(out, " [unparsable, defaulted]")
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	classifyWindow.Register(classifyCmd)
}
