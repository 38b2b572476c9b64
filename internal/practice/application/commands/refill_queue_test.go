package commands

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRefillQueueHandler_Handle(t *testing.T) {
	userRef := uuid.New()
	repertoireRef := uuid.New()
	key, w := testKey(userRef, repertoireRef)
	defaults := stubPrefs{prefs: domain.DefaultPreferences(uuid.Nil)}

	newCmd := func(count int) RefillQueueCommand {
		return RefillQueueCommand{
			UserRef:       userRef,
			RepertoireRef: repertoireRef,
			WindowParams:  services.WindowParams{Anchor: testAnchor},
			Count:         count,
		}
	}

	t.Run("returns empty for a non-positive count", func(t *testing.T) {
		store := new(mockQueueStore)
		handler := NewRefillQueueHandler(new(mockCandidateRepo), store, defaults, new(mockOutboxRepo), new(mockUnitOfWork), nil)

		result, err := handler.Handle(context.Background(), newCmd(0))

		require.NoError(t, err)
		assert.Empty(t, result.Added)
		store.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything)
	})

	t.Run("never creates a queue", func(t *testing.T) {
		repo := new(mockCandidateRepo)
		store := new(mockQueueStore)
		handler := NewRefillQueueHandler(repo, store, defaults, new(mockOutboxRepo), new(mockUnitOfWork), nil)
		ctx := context.Background()

		store.On("FindActive", ctx, key).Return(nil, nil)

		result, err := handler.Handle(ctx, newCmd(3))

		require.NoError(t, err)
		assert.Empty(t, result.Added)
		repo.AssertNotCalled(t, "FindBacklog", mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("returns empty when every backlog item is already queued", func(t *testing.T) {
		repo := new(mockCandidateRepo)
		store := new(mockQueueStore)
		uow := new(mockUnitOfWork)
		handler := NewRefillQueueHandler(repo, store, defaults, new(mockOutboxRepo), uow, nil)
		ctx := context.Background()

		store.On("FindActive", ctx, key).Return(frozenEntries(t, key, w, "a", "b"), nil)
		repo.On("FindBacklog", ctx, limitIs(5)).Return([]domain.CandidateRecord{{TuneRef: "b"}, {TuneRef: "a"}}, nil)

		result, err := handler.Handle(ctx, newCmd(3))

		require.NoError(t, err)
		assert.Empty(t, result.Added)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("appends unseen backlog items as recently lapsed", func(t *testing.T) {
		repo := new(mockCandidateRepo)
		store := new(mockQueueStore)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		metrics := observability.NewInMemoryMetrics()
		handler := NewRefillQueueHandler(repo, store, defaults, outboxRepo, uow, nil).WithMetrics(metrics)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		existing := frozenEntries(t, key, w, "a", "b", "c")
		backlog := []domain.CandidateRecord{{TuneRef: "b"}, {TuneRef: "x"}, {TuneRef: "y"}, {TuneRef: "z"}}

		store.On("FindActive", ctx, key).Return(existing, nil)
		repo.On("FindBacklog", ctx, mock.MatchedBy(func(q domain.CandidateQuery) bool {
			return q.Limit == 5 && q.Windows.WindowFloorUTC.Equal(w.WindowFloorUTC)
		})).Return(backlog, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		store.On("InsertEntries", txCtx, mock.AnythingOfType("[]*domain.QueueEntry")).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return len(msgs) == 1 && msgs[0].RoutingKey == domain.RoutingKeyQueueRefilled
		})).Return(nil)

		result, err := handler.Handle(ctx, newCmd(2))

		require.NoError(t, err)
		require.Len(t, result.Added, 2)
		assert.Equal(t, "x", result.Added[0].TuneRef)
		assert.Equal(t, "y", result.Added[1].TuneRef)
		assert.Equal(t, 3, result.Added[0].OrderIndex)
		assert.Equal(t, 4, result.Added[1].OrderIndex)
		for _, e := range result.Added {
			assert.Equal(t, domain.BucketRecentlyLapsed, e.Bucket)
			assert.Equal(t, key.WindowStartUTC, e.WindowStartUTC)
		}
		assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricQueueRefilled))

		repo.AssertExpectations(t)
		store.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("continues numbering after gaps", func(t *testing.T) {
		repo := new(mockCandidateRepo)
		store := new(mockQueueStore)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewRefillQueueHandler(repo, store, defaults, outboxRepo, uow, nil)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		existing := frozenEntries(t, key, w, "a")
		existing[0].OrderIndex = 11

		store.On("FindActive", ctx, key).Return(existing, nil)
		repo.On("FindBacklog", ctx, mock.Anything).Return([]domain.CandidateRecord{{TuneRef: "n"}}, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		store.On("InsertEntries", txCtx, mock.Anything).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.Anything).Return(nil)

		result, err := handler.Handle(ctx, newCmd(4))

		require.NoError(t, err)
		require.Len(t, result.Added, 1)
		assert.Equal(t, 12, result.Added[0].OrderIndex)
	})

	t.Run("a conflicting insert adds nothing", func(t *testing.T) {
		repo := new(mockCandidateRepo)
		store := new(mockQueueStore)
		uow := new(mockUnitOfWork)
		handler := NewRefillQueueHandler(repo, store, defaults, new(mockOutboxRepo), uow, nil)
		ctx := context.Background()
		txCtx := context.WithValue(ctx, "tx", "transaction")

		store.On("FindActive", ctx, key).Return(frozenEntries(t, key, w, "a"), nil)
		repo.On("FindBacklog", ctx, mock.Anything).Return([]domain.CandidateRecord{{TuneRef: "n"}}, nil)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		store.On("InsertEntries", txCtx, mock.Anything).Return(domain.ErrQueueConflict)

		result, err := handler.Handle(ctx, newCmd(1))

		require.NoError(t, err)
		assert.Empty(t, result.Added)
		uow.AssertExpectations(t)
	})
}
