package app

import (
	"fmt"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/practice/infrastructure/persistence"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
)

// Repositories is the set of stores backing one database connection.
type Repositories struct {
	Candidates  domain.CandidateRepository
	Queue       domain.QueueStore
	Preferences domain.PreferencesRepository
	Catalog     domain.CatalogRepository
	Outbox      outbox.Repository
}

// NewRepositories builds the stores matching conn's driver.
func NewRepositories(conn database.Connection) (*Repositories, error) {
	switch driver := conn.Driver(); driver {
	case database.DriverPostgres:
		return &Repositories{
			Candidates:  persistence.NewPostgresCandidateRepository(conn),
			Queue:       persistence.NewPostgresQueueStore(conn),
			Preferences: persistence.NewPostgresPreferencesRepository(conn),
			Catalog:     persistence.NewPostgresCatalogRepository(conn),
			Outbox:      outbox.NewPostgresRepository(conn),
		}, nil
	case database.DriverSQLite:
		return &Repositories{
			Candidates:  persistence.NewSQLiteCandidateRepository(conn),
			Queue:       persistence.NewSQLiteQueueStore(conn),
			Preferences: persistence.NewSQLitePreferencesRepository(conn),
			Catalog:     persistence.NewSQLiteCatalogRepository(conn),
			Outbox:      outbox.NewSQLiteRepository(conn),
		}, nil
	default:
		return nil, fmt.Errorf("no repositories for driver %q", driver)
	}
}
