package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	internalApp "github.com/felixgeelhaar/repertoire/internal/app"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/felixgeelhaar/repertoire/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sitDown = "2025-10-16T14:30:00Z"

// setupLocalModeTestApp creates a test application with SQLite for integration tests.
func setupLocalModeTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                       "test",
		LocalMode:                    true,
		DatabaseDriver:               "sqlite",
		SQLitePath:                   filepath.Join(t.TempDir(), "test.db"),
		UserID:                       "00000000-0000-0000-0000-000000000001",
		RepertoireID:                 "00000000-0000-0000-0000-000000000002",
		DefaultDelinquencyWindowDays: 7,
		DefaultMaxDailyReviews:       10,
		DefaultEnableNewItems:        true,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)

	app := cli.NewApp(container)
	cli.SetApp(app)
	jsonOutput = false
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return app
}

func seedTunes(t *testing.T, app *cli.App) {
	t.Helper()
	dueToday := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	lapsed := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	backlog := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	_, err := app.ImportTunesHandler.Handle(context.Background(), commands.ImportTunesCommand{
		UserRef:       app.CurrentUserID,
		RepertoireRef: app.CurrentRepertoireID,
		Tunes: []commands.ImportedTune{
			{ID: "banish-misfortune", Scheduled: &dueToday},
			{ID: "cooleys", Scheduled: &lapsed},
			{ID: "butterfly", Scheduled: &backlog},
		},
	})
	require.NoError(t, err)
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Flags().Set("at", sitDown))
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func generate(t *testing.T, max string) string {
	t.Helper()
	require.NoError(t, generateCmd.Flags().Set("max", max))
	out, err := run(t, generateCmd)
	require.NoError(t, err)
	return out
}

func TestGenerateCmd_FreezesQueue(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTunes(t, app)

	out := generate(t, "2")
	assert.Contains(t, out, "Queue generated.")
	assert.Contains(t, out, "banish-misfortune")
	assert.Contains(t, out, "cooleys")
	assert.NotContains(t, out, "butterfly")

	out = generate(t, "10")
	assert.Contains(t, out, "Queue frozen.")
	assert.NotContains(t, out, "butterfly")
}

func TestGenerateCmd_NotReady(t *testing.T) {
	setupLocalModeTestApp(t)

	out := generate(t, "10")
	assert.Contains(t, out, "No tunes in this repertoire yet")
}

func TestShowCmd_JSON(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTunes(t, app)
	generate(t, "10")

	jsonOutput = true
	out, err := run(t, showCmd)
	require.NoError(t, err)

	var dto queries.QueueDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	require.Len(t, dto.Entries, 3)
	assert.Equal(t, "banish-misfortune", dto.Entries[0].TuneRef)
	assert.Equal(t, 1, dto.Entries[0].BucketID)
	assert.Equal(t, "cooleys", dto.Entries[1].TuneRef)
	assert.Equal(t, 2, dto.Entries[1].BucketID)
	assert.Equal(t, "butterfly", dto.Entries[2].TuneRef)
	assert.Equal(t, 4, dto.Entries[2].BucketID)
}

func TestShowCmd_NoQueue(t *testing.T) {
	setupLocalModeTestApp(t)

	out, err := run(t, showCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No queue for today")
}

func TestRefillCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTunes(t, app)

	out, err := run(t, refillCmd, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing added")

	generate(t, "2")
	out, err = run(t, refillCmd, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 1 tune(s)")
	assert.Contains(t, out, "butterfly")

	_, err = run(t, refillCmd, "many")
	assert.Error(t, err)
}

func TestDoneCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTunes(t, app)
	generate(t, "10")

	out, err := run(t, doneCmd, "cooleys")
	require.NoError(t, err)
	assert.Contains(t, out, "Done: cooleys")

	_, err = run(t, doneCmd, "cooleys")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already done")

	_, err = run(t, doneCmd, "kesh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in today's queue")
}

func TestClassifyCmd(t *testing.T) {
	setupLocalModeTestApp(t)

	tests := []struct {
		in   string
		want string
	}{
		{"2025-10-16 23:59:59", "due_today (1)"},
		{"2025-10-09 12:00:00", "recently_lapsed (2)"},
		{"2025-10-08 12:00:00", "old_lapsed (4)"},
		{"garbage", "due_today (1) [unparsable, defaulted]"},
	}
	for _, tt := range tests {
		out, err := run(t, classifyCmd, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want+"\n", out, tt.in)
	}
}

func TestCommands_RequireApp(t *testing.T) {
	cli.SetApp(nil)
	_, err := run(t, showCmd)
	assert.ErrorIs(t, err, errNotInitialized)
}
