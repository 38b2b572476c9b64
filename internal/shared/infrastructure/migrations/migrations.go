package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// Run executes all migrations for the connection's driver in order.
// Every statement is idempotent, so Run is safe on each startup.
func Run(ctx context.Context, conn database.Connection) error {
	dir := "sqlite"
	if conn.Driver() == database.DriverPostgres {
		dir = "postgres"
	}
	return run(ctx, conn, dir)
}

// Files lists the up migrations for a driver directory in execution order.
func Files(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}

func run(ctx context.Context, exec database.Executor, dir string) error {
	upFiles, err := Files(dir)
	if err != nil {
		return err
	}

	for _, file := range upFiles {
		migration, err := migrationsFS.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := exec.Exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}
