package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/spf13/cobra"
)

// WindowFlags are the --at and --tz-offset flags shared by queue commands.
type WindowFlags struct {
	At        string
	TZOffset  int
	tzFlagSet func() bool
}

// Register binds the flags to cmd.
func (f *WindowFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.At, "at", "", "sit-down instant (RFC3339 or YYYY-MM-DD HH:MM:SS), defaults to now")
	cmd.Flags().IntVar(&f.TZOffset, "tz-offset", 0, "local offset from UTC in minutes, e.g. -240")
	f.tzFlagSet = func() bool { return cmd.Flags().Changed("tz-offset") }
}

// Params converts the flags into window parameters.
func (f *WindowFlags) Params() (services.WindowParams, error) {
	var params services.WindowParams
	if f.At != "" {
		anchor, err := ParseInstant(f.At)
		if err != nil {
			return params, fmt.Errorf("invalid --at: %w", err)
		}
		params.Anchor = anchor
	}
	if f.tzFlagSet != nil && f.tzFlagSet() {
		offset := f.TZOffset
		params.TZOffsetMinutes = &offset
	}
	return params, nil
}

// ParseInstant accepts RFC3339, a UTC "YYYY-MM-DD HH:MM:SS" or a bare UTC date.
func ParseInstant(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", value)
}
