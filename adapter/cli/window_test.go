package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstant(t *testing.T) {
	want := time.Date(2025, 10, 16, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-10-16T14:30:00Z", want},
		{"2025-10-16T10:30:00-04:00", want},
		{"2025-10-16 14:30:00", want},
		{"2025-10-16", time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), tt.in)
	}

	_, err := ParseInstant("yesterday")
	assert.Error(t, err)
}

func TestWindowFlags_Params(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var flags WindowFlags
	flags.Register(cmd)

	params, err := flags.Params()
	require.NoError(t, err)
	assert.True(t, params.Anchor.IsZero())
	assert.Nil(t, params.TZOffsetMinutes)

	require.NoError(t, cmd.Flags().Set("at", "2025-10-16 14:30:00"))
	require.NoError(t, cmd.Flags().Set("tz-offset", "-240"))
	params, err = flags.Params()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 16, 14, 30, 0, 0, time.UTC), params.Anchor)
	require.NotNil(t, params.TZOffsetMinutes)
	assert.Equal(t, -240, *params.TZOffsetMinutes)

	require.NoError(t, cmd.Flags().Set("at", "soon"))
	_, err = flags.Params()
	assert.Error(t, err)
}
