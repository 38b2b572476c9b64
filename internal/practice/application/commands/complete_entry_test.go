package commands

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompleteEntryHandler_Handle(t *testing.T) {
	userRef := uuid.New()
	repertoireRef := uuid.New()
	key, w := testKey(userRef, repertoireRef)
	doneAt := testAnchor.Add(time.Hour)

	cmd := CompleteEntryCommand{
		UserRef:       userRef,
		RepertoireRef: repertoireRef,
		WindowParams:  services.WindowParams{Anchor: testAnchor},
		TuneRef:       "b",
		CompletedAt:   doneAt,
	}

	t.Run("marks the entry completed", func(t *testing.T) {
		store := new(mockQueueStore)
		uow := new(mockUnitOfWork)
		handler := NewCompleteEntryHandler(store, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		entries := frozenEntries(t, key, w, "a", "b")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		store.On("FindActive", txCtx, key).Return(entries, nil)
		store.On("Update", txCtx, entries[1]).Return(nil)

		entry, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		require.NotNil(t, entry.CompletedAt)
		assert.True(t, doneAt.Equal(*entry.CompletedAt))
		require.NotNil(t, entry.ExposuresCompleted)
		assert.Equal(t, 1, *entry.ExposuresCompleted)
		store.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("returns ErrEntryNotFound for a tune outside the queue", func(t *testing.T) {
		store := new(mockQueueStore)
		uow := new(mockUnitOfWork)
		handler := NewCompleteEntryHandler(store, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		store.On("FindActive", txCtx, key).Return(frozenEntries(t, key, w, "a"), nil)

		_, err := handler.Handle(ctx, cmd)

		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("rejects completing twice", func(t *testing.T) {
		store := new(mockQueueStore)
		uow := new(mockUnitOfWork)
		handler := NewCompleteEntryHandler(store, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		entries := frozenEntries(t, key, w, "b")
		require.NoError(t, entries[0].Complete(testAnchor))

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		store.On("FindActive", txCtx, key).Return(entries, nil)

		_, err := handler.Handle(ctx, cmd)

		assert.ErrorIs(t, err, domain.ErrEntryAlreadyCompleted)
	})
}
