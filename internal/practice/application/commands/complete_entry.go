package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	sharedApplication "github.com/felixgeelhaar/repertoire/internal/shared/application"
	"github.com/google/uuid"
)

// CompleteEntryCommand marks one tune in today's queue as reviewed.
type CompleteEntryCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	services.WindowParams

	TuneRef     string
	CompletedAt time.Time
}

// CompleteEntryHandler handles the CompleteEntryCommand.
type CompleteEntryHandler struct {
	store domain.QueueStore
	uow   sharedApplication.UnitOfWork
	now   func() time.Time
}

// NewCompleteEntryHandler creates a new CompleteEntryHandler.
func NewCompleteEntryHandler(store domain.QueueStore, uow sharedApplication.UnitOfWork) *CompleteEntryHandler {
	return &CompleteEntryHandler{
		store: store,
		uow:   uow,
		now:   time.Now,
	}
}

// Handle executes the CompleteEntryCommand.
func (h *CompleteEntryHandler) Handle(ctx context.Context, cmd CompleteEntryCommand) (*domain.QueueEntry, error) {
	// The window key depends only on the start of day, so the delinquency window is irrelevant here.
	windows := domain.ComputeWindows(cmd.AnchorOr(h.now), 0, cmd.TZOffsetMinutes)
	key := domain.NewQueueKey(cmd.UserRef, cmd.RepertoireRef, windows)

	completedAt := cmd.CompletedAt
	if completedAt.IsZero() {
		completedAt = h.now()
	}

	var completed *domain.QueueEntry
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		entries, err := h.store.FindActive(txCtx, key)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if e.TuneRef != cmd.TuneRef {
				continue
			}
			if err := e.Complete(completedAt); err != nil {
				return err
			}
			if err := h.store.Update(txCtx, e); err != nil {
				return err
			}
			completed = e
			return nil
		}
		return domain.ErrEntryNotFound
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}
