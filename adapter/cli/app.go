package cli

import (
	internalApp "github.com/felixgeelhaar/repertoire/internal/app"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/preferences"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Queue Command Handlers
	GenerateQueueHandler *commands.GenerateQueueHandler
	RefillQueueHandler   *commands.RefillQueueHandler
	CompleteEntryHandler *commands.CompleteEntryHandler

	// Queue Query Handlers
	GetActiveQueueHandler    *queries.GetActiveQueueHandler
	ClassifyTimestampHandler *queries.ClassifyTimestampHandler

	// Catalog Command Handlers
	AddTuneHandler        *commands.AddTuneHandler
	ScheduleTuneHandler   *commands.ScheduleTuneHandler
	RecordPracticeHandler *commands.RecordPracticeHandler
	RemoveTuneHandler     *commands.RemoveTuneHandler
	ImportTunesHandler    *commands.ImportTunesHandler

	// Preferences
	PreferencesService *preferences.Service

	Metrics observability.Metrics

	// Current learner and repertoire (configured per environment)
	CurrentUserID       uuid.UUID
	CurrentRepertoireID uuid.UUID
}

// NewApp creates a CLI application from the wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		GenerateQueueHandler:     c.GenerateQueueHandler,
		RefillQueueHandler:       c.RefillQueueHandler,
		CompleteEntryHandler:     c.CompleteEntryHandler,
		GetActiveQueueHandler:    c.GetActiveQueueHandler,
		ClassifyTimestampHandler: c.ClassifyTimestampHandler,
		AddTuneHandler:           c.AddTuneHandler,
		ScheduleTuneHandler:      c.ScheduleTuneHandler,
		RecordPracticeHandler:    c.RecordPracticeHandler,
		RemoveTuneHandler:        c.RemoveTuneHandler,
		ImportTunesHandler:       c.ImportTunesHandler,
		PreferencesService:       c.PreferencesService,
		Metrics:                  c.Metrics,
		CurrentUserID:            c.UserRef,
		CurrentRepertoireID:      c.RepertoireRef,
	}
}

// SetCurrentUser updates the learner and repertoire the commands act on.
func (a *App) SetCurrentUser(userID, repertoireID uuid.UUID) {
	a.CurrentUserID = userID
	a.CurrentRepertoireID = repertoireID
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
