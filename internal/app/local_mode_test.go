package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/repertoire/pkg/config"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                       "test",
		LocalMode:                    true,
		DatabaseDriver:               "sqlite",
		SQLitePath:                   filepath.Join(t.TempDir(), "test.db"),
		UserID:                       "00000000-0000-0000-0000-000000000001",
		RepertoireID:                 "00000000-0000-0000-0000-000000000002",
		DefaultDelinquencyWindowDays: 7,
		DefaultMaxDailyReviews:       10,
		DefaultEnableNewItems:        true,
	}
}

func newLocalContainer(t *testing.T) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(context.Background(), localConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_LocalMode(t *testing.T) {
	c := newLocalContainer(t)

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.Nil(t, c.RedisClient)
	assert.IsType(t, domain.NoopLock{}, c.QueueLock)

	assert.NotNil(t, c.CandidateRepo)
	assert.NotNil(t, c.QueueStore)
	assert.NotNil(t, c.PreferencesRepo)
	assert.NotNil(t, c.CatalogRepo)
	assert.NotNil(t, c.OutboxRepo)
	assert.NotNil(t, c.GenerateQueueHandler)
	assert.NotNil(t, c.RefillQueueHandler)
	assert.NotNil(t, c.GetActiveQueueHandler)
}

func TestNewContainer_InvalidIdentity(t *testing.T) {
	cfg := localConfig(t)
	cfg.UserID = "nope"
	_, err := NewContainer(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewContainer_UnreachableRedisInDevelopment(t *testing.T) {
	cfg := localConfig(t)
	cfg.AppEnv = "development"
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	c, err := NewContainer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.RedisClient)
	assert.IsType(t, domain.NoopLock{}, c.QueueLock)
}

func TestLocalModePracticeWorkflow(t *testing.T) {
	c := newLocalContainer(t)
	ctx := context.Background()
	anchor := time.Date(2025, 10, 16, 14, 30, 0, 0, time.UTC)
	window := services.WindowParams{Anchor: anchor}

	dueToday := time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	longAgo := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	imported, err := c.ImportTunesHandler.Handle(ctx, commands.ImportTunesCommand{
		UserRef:       c.UserRef,
		RepertoireRef: c.RepertoireRef,
		Tunes: []commands.ImportedTune{
			{ID: "banish-misfortune", Title: "Banish Misfortune", Scheduled: &dueToday},
			{ID: "kesh", Title: "The Kesh"},
			{ID: "butterfly", Title: "The Butterfly", Scheduled: &longAgo},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, imported)

	capacity := 2
	first, err := c.GenerateQueueHandler.Handle(ctx, commands.GenerateQueueCommand{
		UserRef:         c.UserRef,
		RepertoireRef:   c.RepertoireRef,
		WindowParams:    window,
		MaxDailyReviews: &capacity,
	})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeGenerated, first.Outcome)
	require.Len(t, first.Entries, 2)
	assert.Equal(t, "banish-misfortune", first.Entries[0].TuneRef)
	assert.Equal(t, "kesh", first.Entries[1].TuneRef)

	again, err := c.GenerateQueueHandler.Handle(ctx, commands.GenerateQueueCommand{
		UserRef:       c.UserRef,
		RepertoireRef: c.RepertoireRef,
		WindowParams:  window,
	})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeFrozen, again.Outcome)
	assert.Len(t, again.Entries, 2)

	refill, err := c.RefillQueueHandler.Handle(ctx, commands.RefillQueueCommand{
		UserRef:       c.UserRef,
		RepertoireRef: c.RepertoireRef,
		WindowParams:  window,
		Count:         5,
	})
	require.NoError(t, err)
	require.Len(t, refill.Added, 1)
	assert.Equal(t, "butterfly", refill.Added[0].TuneRef)
	assert.Equal(t, domain.BucketRecentlyLapsed, refill.Added[0].Bucket)
	assert.Equal(t, 2, refill.Added[0].OrderIndex)

	_, err = c.CompleteEntryHandler.Handle(ctx, commands.CompleteEntryCommand{
		UserRef:       c.UserRef,
		RepertoireRef: c.RepertoireRef,
		WindowParams:  window,
		TuneRef:       "kesh",
		CompletedAt:   anchor,
	})
	require.NoError(t, err)

	queue, err := c.GetActiveQueueHandler.Handle(ctx, queries.GetActiveQueueQuery{
		UserRef:       c.UserRef,
		RepertoireRef: c.RepertoireRef,
		WindowParams:  window,
	})
	require.NoError(t, err)
	require.Len(t, queue.Entries, 3)
	assert.Equal(t, 1, queue.Completed)

	assert.Equal(t, int64(1), c.Metrics.GetCounter(observability.MetricQueueGenerated))
	assert.Equal(t, int64(1), c.Metrics.GetCounter(observability.MetricQueueFrozenHit))

	pending, err := c.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestNewRepositories_SQLite(t *testing.T) {
	c := newLocalContainer(t)

	repos, err := NewRepositories(c.DBConn)
	require.NoError(t, err)
	assert.NotNil(t, repos.Candidates)
	assert.NotNil(t, repos.Queue)
	assert.NotNil(t, repos.Preferences)
	assert.NotNil(t, repos.Catalog)
	assert.NotNil(t, repos.Outbox)
}
