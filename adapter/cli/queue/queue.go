package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errNotInitialized = errors.New("application not initialized - database connection required")

var jsonOutput bool

// Cmd is the queue command group
var Cmd = &cobra.Command{
	Use:   "queue",
	Short: "Work with today's practice queue",
	Long:  `Generate, show, refill, and complete the frozen daily practice queue.`,
}

func init() {
	Cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(refillCmd)
	Cmd.AddCommand(classifyCmd)
	Cmd.AddCommand(doneCmd)
}

func currentApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil {
		return nil, errNotInitialized
	}
	if app.CurrentUserID == uuid.Nil || app.CurrentRepertoireID == uuid.Nil {
		return nil, errors.New("current learner and repertoire not configured")
	}
	return app, nil
}

func printQueue(out io.Writer, dto queries.QueueDTO, annotate bool) error {
	if jsonOutput {
		return json.NewEncoder(out).Encode(dto)
	}

	if len(dto.Entries) == 0 {
		fmt.Fprintln(out, "No queue for today. Run 'repertoire queue generate'.")
		return nil
	}

	fmt.Fprintf(out, "Queue for %s (%d/%d done):\n",
		dto.WindowStartUTC.Format("2006-01-02 15:04 MST"), dto.Completed, len(dto.Entries))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, e := range dto.Entries {
		mark := " "
		if e.CompletedAt != nil {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %2d. %-30s %s", mark, e.OrderIndex+1, e.TuneRef, e.Bucket)
		if e.DueAt != nil {
			line += "  due " + e.DueAt.Format("2006-01-02")
		}
		if annotate && e.NaturalBucket != "" && e.NaturalBucket != e.Bucket {
			line += "  (now " + e.NaturalBucket + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
