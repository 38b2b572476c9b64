package database

import (
	"context"
	"fmt"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	// Driver is "postgres", "sqlite", or empty to detect from URL.
	Driver Driver

	// URL is the PostgreSQL connection string.
	URL string

	// SQLitePath is the database file for the local store. Empty uses ~/.repertoire/data.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// Opener opens a connection for one driver.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a driver available to NewConnection. Driver packages call it from init.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens a connection for the configured driver.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver, err := ParseDriver(string(cfg.Driver), cfg.URL)
	if err != nil {
		return nil, err
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database driver %s not registered", driver)
	}

	cfg.Driver = driver
	return open(ctx, cfg)
}
