package tune

import (
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout accepted by tune import.
type catalogFile struct {
	Tunes []catalogTune `yaml:"tunes"`
}

type catalogTune struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Scheduled string `yaml:"scheduled"`
	Practiced string `yaml:"practiced"`
	Due       string `yaml:"due"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import tunes from a YAML file",
	Long: `Import tunes from a YAML file in a single transaction.

File format:
  tunes:
    - id: kesh
      title: The Kesh
      scheduled: 2025-10-16          # optional manual review date
    - id: cooleys
      practiced: 2025-10-01 19:00:00 # optional, needs due as well
      due: 2025-10-08

Examples:
  repertoire tune import session-tunes.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := currentApp()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		tunes, err := parseCatalog(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		n, err := app.ImportTunesHandler.Handle(cmd.Context(), commands.ImportTunesCommand{
			UserRef:       app.CurrentUserID,
			RepertoireRef: app.CurrentRepertoireID,
			Tunes:         tunes,
		})
		if err != nil {
			return fmt.Errorf("failed to import tunes: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tune(s).\n", n)
		return nil
	},
}

func parseCatalog(data []byte) ([]commands.ImportedTune, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	tunes := make([]commands.ImportedTune, 0, len(file.Tunes))
	for i, t := range file.Tunes {
		if t.ID == "" {
			return nil, fmt.Errorf("tune %d: missing id", i+1)
		}
		imported := commands.ImportedTune{ID: t.ID, Title: t.Title}

		var err error
		if imported.Scheduled, err = optionalInstant(t.Scheduled); err != nil {
			return nil, fmt.Errorf("tune %s: scheduled: %w", t.ID, err)
		}
		if imported.PracticedAt, err = optionalInstant(t.Practiced); err != nil {
			return nil, fmt.Errorf("tune %s: practiced: %w", t.ID, err)
		}
		if imported.Due, err = optionalInstant(t.Due); err != nil {
			return nil, fmt.Errorf("tune %s: due: %w", t.ID, err)
		}
		tunes = append(tunes, imported)
	}
	return tunes, nil
}

func optionalInstant(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := cli.ParseInstant(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
