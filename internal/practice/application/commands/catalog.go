package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	sharedApplication "github.com/felixgeelhaar/repertoire/internal/shared/application"
	"github.com/google/uuid"
)

var ErrTuneIDRequired = errors.New("tune id is required")

// AddTuneCommand registers a tune and puts it in a repertoire.
type AddTuneCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	TuneID        string
	Title         string

	// Scheduled optionally sets the manual review override right away.
	Scheduled *time.Time
}

// AddTuneHandler handles the AddTuneCommand.
type AddTuneHandler struct {
	catalog domain.CatalogRepository
	uow     sharedApplication.UnitOfWork
}

// NewAddTuneHandler creates a new AddTuneHandler.
func NewAddTuneHandler(catalog domain.CatalogRepository, uow sharedApplication.UnitOfWork) *AddTuneHandler {
	return &AddTuneHandler{catalog: catalog, uow: uow}
}

// Handle executes the AddTuneCommand.
func (h *AddTuneHandler) Handle(ctx context.Context, cmd AddTuneCommand) error {
	tuneID := strings.TrimSpace(cmd.TuneID)
	if tuneID == "" {
		return ErrTuneIDRequired
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		title = tuneID
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return addTune(txCtx, h.catalog, cmd.UserRef, cmd.RepertoireRef, domain.Tune{ID: tuneID, Title: title}, cmd.Scheduled)
	})
}

func addTune(ctx context.Context, catalog domain.CatalogRepository, userRef, repertoireRef uuid.UUID, tune domain.Tune, scheduled *time.Time) error {
	if err := catalog.SaveTune(ctx, tune); err != nil {
		return err
	}
	if err := catalog.AddToRepertoire(ctx, userRef, repertoireRef, tune.ID); err != nil {
		return err
	}
	if scheduled != nil {
		return catalog.SetScheduled(ctx, userRef, repertoireRef, tune.ID, scheduled)
	}
	return nil
}

// ScheduleTuneCommand sets or clears the manual review override.
type ScheduleTuneCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	TuneID        string

	// Scheduled nil clears the override.
	Scheduled *time.Time
}

// ScheduleTuneHandler handles the ScheduleTuneCommand.
type ScheduleTuneHandler struct {
	catalog domain.CatalogRepository
}

// NewScheduleTuneHandler creates a new ScheduleTuneHandler.
func NewScheduleTuneHandler(catalog domain.CatalogRepository) *ScheduleTuneHandler {
	return &ScheduleTuneHandler{catalog: catalog}
}

// Handle executes the ScheduleTuneCommand.
func (h *ScheduleTuneHandler) Handle(ctx context.Context, cmd ScheduleTuneCommand) error {
	if strings.TrimSpace(cmd.TuneID) == "" {
		return ErrTuneIDRequired
	}
	return h.catalog.SetScheduled(ctx, cmd.UserRef, cmd.RepertoireRef, cmd.TuneID, cmd.Scheduled)
}

// RecordPracticeCommand stores a practice event and the due date an external scheduler computed.
type RecordPracticeCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	TuneID        string
	PracticedAt   time.Time
	Due           time.Time

	// ClearSchedule drops the manual override once the tune has been practiced.
	ClearSchedule bool
}

// RecordPracticeHandler handles the RecordPracticeCommand.
type RecordPracticeHandler struct {
	catalog domain.CatalogRepository
	uow     sharedApplication.UnitOfWork
	now     func() time.Time
}

// NewRecordPracticeHandler creates a new RecordPracticeHandler.
func NewRecordPracticeHandler(catalog domain.CatalogRepository, uow sharedApplication.UnitOfWork) *RecordPracticeHandler {
	return &RecordPracticeHandler{catalog: catalog, uow: uow, now: time.Now}
}

// Handle executes the RecordPracticeCommand.
func (h *RecordPracticeHandler) Handle(ctx context.Context, cmd RecordPracticeCommand) error {
	if strings.TrimSpace(cmd.TuneID) == "" {
		return ErrTuneIDRequired
	}
	practicedAt := cmd.PracticedAt
	if practicedAt.IsZero() {
		practicedAt = h.now()
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.catalog.RecordPractice(txCtx, cmd.UserRef, cmd.RepertoireRef, cmd.TuneID, practicedAt.UTC(), cmd.Due.UTC()); err != nil {
			return err
		}
		if cmd.ClearSchedule {
			return h.catalog.SetScheduled(txCtx, cmd.UserRef, cmd.RepertoireRef, cmd.TuneID, nil)
		}
		return nil
	})
}

// RemoveTuneCommand removes a tune from a repertoire.
type RemoveTuneCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	TuneID        string
}

// RemoveTuneHandler handles the RemoveTuneCommand.
type RemoveTuneHandler struct {
	catalog domain.CatalogRepository
}

// NewRemoveTuneHandler creates a new RemoveTuneHandler.
func NewRemoveTuneHandler(catalog domain.CatalogRepository) *RemoveTuneHandler {
	return &RemoveTuneHandler{catalog: catalog}
}

// Handle executes the RemoveTuneCommand.
func (h *RemoveTuneHandler) Handle(ctx context.Context, cmd RemoveTuneCommand) error {
	if strings.TrimSpace(cmd.TuneID) == "" {
		return ErrTuneIDRequired
	}
	return h.catalog.RemoveFromRepertoire(ctx, cmd.UserRef, cmd.RepertoireRef, cmd.TuneID)
}

// ImportedTune is one tune from a catalog import.
type ImportedTune struct {
	ID          string
	Title       string
	Scheduled   *time.Time
	PracticedAt *time.Time
	Due         *time.Time
}

// ImportTunesCommand seeds a repertoire in one unit of work.
type ImportTunesCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	Tunes         []ImportedTune
}

// ImportTunesHandler handles the ImportTunesCommand.
type ImportTunesHandler struct {
	catalog domain.CatalogRepository
	uow     sharedApplication.UnitOfWork
}

// NewImportTunesHandler creates a new ImportTunesHandler.
func NewImportTunesHandler(catalog domain.CatalogRepository, uow sharedApplication.UnitOfWork) *ImportTunesHandler {
	return &ImportTunesHandler{catalog: catalog, uow: uow}
}

// Handle executes the ImportTunesCommand and returns the number of tunes imported.
func (h *ImportTunesHandler) Handle(ctx context.Context, cmd ImportTunesCommand) (int, error) {
	for _, t := range cmd.Tunes {
		if strings.TrimSpace(t.ID) == "" {
			return 0, ErrTuneIDRequired
		}
	}

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		for _, t := range cmd.Tunes {
			title := t.Title
			if title == "" {
				title = t.ID
			}
			if err := addTune(txCtx, h.catalog, cmd.UserRef, cmd.RepertoireRef, domain.Tune{ID: t.ID, Title: title}, t.Scheduled); err != nil {
				return err
			}
			// A practice record needs both halves; a lone due date is ignored.
			if t.PracticedAt != nil && t.Due != nil {
				if err := h.catalog.RecordPractice(txCtx, cmd.UserRef, cmd.RepertoireRef, t.ID, t.PracticedAt.UTC(), t.Due.UTC()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(cmd.Tunes), nil
}
