package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	for _, dir := range []string{"sqlite", "postgres"} {
		files, err := Files(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_practice.up.sql", "000002_outbox.up.sql"}, files, dir)
	}
}

func TestRun_SQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Run(ctx, conn))
	require.NoError(t, Run(ctx, conn))

	for _, table := range []string{"tunes", "repertoire_tunes", "practice_records", "practice_queue", "practice_preferences", "outbox"} {
		var name string
		err := conn.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var view string
	require.NoError(t, conn.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type = 'view'`).Scan(&view))
	assert.Equal(t, "practice_candidates", view)
}
