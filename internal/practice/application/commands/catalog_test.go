package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCatalogRepo is a mock implementation of domain.CatalogRepository.
type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) SaveTune(ctx context.Context, tune domain.Tune) error {
	return m.Called(ctx, tune).Error(0)
}

func (m *mockCatalogRepo) AddToRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error {
	return m.Called(ctx, userRef, repertoireRef, tuneRef).Error(0)
}

func (m *mockCatalogRepo) RemoveFromRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error {
	return m.Called(ctx, userRef, repertoireRef, tuneRef).Error(0)
}

func (m *mockCatalogRepo) SetScheduled(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, scheduled *time.Time) error {
	return m.Called(ctx, userRef, repertoireRef, tuneRef, scheduled).Error(0)
}

func (m *mockCatalogRepo) RecordPractice(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, practicedAt, due time.Time) error {
	return m.Called(ctx, userRef, repertoireRef, tuneRef, practicedAt, due).Error(0)
}

func TestAddTuneHandler_Handle(t *testing.T) {
	userRef := uuid.New()
	repertoireRef := uuid.New()

	t.Run("saves the tune and joins the repertoire", func(t *testing.T) {
		catalog := new(mockCatalogRepo)
		uow := new(mockUnitOfWork)
		handler := NewAddTuneHandler(catalog, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		catalog.On("SaveTune", txCtx, domain.Tune{ID: "kesh", Title: "kesh"}).Return(nil)
		catalog.On("AddToRepertoire", txCtx, userRef, repertoireRef, "kesh").Return(nil)

		err := handler.Handle(ctx, AddTuneCommand{UserRef: userRef, RepertoireRef: repertoireRef, TuneID: " kesh "})

		require.NoError(t, err)
		catalog.AssertExpectations(t)
		catalog.AssertNotCalled(t, "SetScheduled", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("sets the schedule override when given", func(t *testing.T) {
		catalog := new(mockCatalogRepo)
		uow := new(mockUnitOfWork)
		handler := NewAddTuneHandler(catalog, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		when := testAnchor

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		catalog.On("SaveTune", txCtx, domain.Tune{ID: "kesh", Title: "The Kesh"}).Return(nil)
		catalog.On("AddToRepertoire", txCtx, userRef, repertoireRef, "kesh").Return(nil)
		catalog.On("SetScheduled", txCtx, userRef, repertoireRef, "kesh", &when).Return(nil)

		err := handler.Handle(ctx, AddTuneCommand{
			UserRef: userRef, RepertoireRef: repertoireRef,
			TuneID: "kesh", Title: "The Kesh", Scheduled: &when,
		})

		require.NoError(t, err)
		catalog.AssertExpectations(t)
	})

	t.Run("requires a tune id", func(t *testing.T) {
		handler := NewAddTuneHandler(new(mockCatalogRepo), new(mockUnitOfWork))

		err := handler.Handle(context.Background(), AddTuneCommand{TuneID: "  "})

		assert.ErrorIs(t, err, ErrTuneIDRequired)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		catalog := new(mockCatalogRepo)
		uow := new(mockUnitOfWork)
		handler := NewAddTuneHandler(catalog, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")
		dbErr := errors.New("disk full")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		catalog.On("SaveTune", txCtx, mock.Anything).Return(dbErr)

		err := handler.Handle(ctx, AddTuneCommand{UserRef: userRef, RepertoireRef: repertoireRef, TuneID: "kesh"})

		assert.ErrorIs(t, err, dbErr)
		uow.AssertExpectations(t)
	})
}

func TestRecordPracticeHandler_Handle(t *testing.T) {
	userRef := uuid.New()
	repertoireRef := uuid.New()
	practiced := testAnchor
	due := testAnchor.AddDate(0, 0, 3)

	catalog := new(mockCatalogRepo)
	uow := new(mockUnitOfWork)
	handler := NewRecordPracticeHandler(catalog, uow)
	ctx := context.Background()
	txCtx := context.WithValue(ctx, "tx", "transaction")

	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Commit", txCtx).Return(nil)
	catalog.On("RecordPractice", txCtx, userRef, repertoireRef, "kesh", practiced, due).Return(nil)
	catalog.On("SetScheduled", txCtx, userRef, repertoireRef, "kesh", (*time.Time)(nil)).Return(nil)

	err := handler.Handle(ctx, RecordPracticeCommand{
		UserRef: userRef, RepertoireRef: repertoireRef, TuneID: "kesh",
		PracticedAt: practiced, Due: due, ClearSchedule: true,
	})

	require.NoError(t, err)
	catalog.AssertExpectations(t)
}

func TestScheduleAndRemoveHandlers(t *testing.T) {
	userRef := uuid.New()
	repertoireRef := uuid.New()
	ctx := context.Background()

	catalog := new(mockCatalogRepo)
	catalog.On("SetScheduled", ctx, userRef, repertoireRef, "kesh", (*time.Time)(nil)).Return(nil)
	catalog.On("RemoveFromRepertoire", ctx, userRef, repertoireRef, "kesh").Return(nil)

	require.NoError(t, NewScheduleTuneHandler(catalog).Handle(ctx, ScheduleTuneCommand{UserRef: userRef, RepertoireRef: repertoireRef, TuneID: "kesh"}))
	require.NoError(t, NewRemoveTuneHandler(catalog).Handle(ctx, RemoveTuneCommand{UserRef: userRef, RepertoireRef: repertoireRef, TuneID: "kesh"}))
	assert.ErrorIs(t, NewRemoveTuneHandler(catalog).Handle(ctx, RemoveTuneCommand{}), ErrTuneIDRequired)
	catalog.AssertExpectations(t)
}

func TestImportTunesHandler_Handle(t *testing.T) {
	userRef := uuid.New()
	repertoireRef := uuid.New()
	practiced := testAnchor.AddDate(0, 0, -10)
	due := testAnchor.AddDate(0, 0, -2)

	t.Run("imports tunes with history", func(t *testing.T) {
		catalog := new(mockCatalogRepo)
		uow := new(mockUnitOfWork)
		handler := NewImportTunesHandler(catalog, uow)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		catalog.On("SaveTune", txCtx, mock.Anything).Return(nil).Twice()
		catalog.On("AddToRepertoire", txCtx, userRef, repertoireRef, mock.Anything).Return(nil).Twice()
		catalog.On("RecordPractice", txCtx, userRef, repertoireRef, "banish", practiced, due).Return(nil).Once()

		n, err := handler.Handle(ctx, ImportTunesCommand{
			UserRef:       userRef,
			RepertoireRef: repertoireRef,
			Tunes: []ImportedTune{
				{ID: "banish", Title: "Banish Misfortune", PracticedAt: &practiced, Due: &due},
				{ID: "kesh", Due: &due},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		catalog.AssertExpectations(t)
	})

	t.Run("rejects entries without ids before writing", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		handler := NewImportTunesHandler(new(mockCatalogRepo), uow)

		_, err := handler.Handle(context.Background(), ImportTunesCommand{Tunes: []ImportedTune{{Title: "nameless"}}})

		assert.ErrorIs(t, err, ErrTuneIDRequired)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
