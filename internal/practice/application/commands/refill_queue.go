package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	sharedApplication "github.com/felixgeelhaar/repertoire/internal/shared/application"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
)

// RefillQueueCommand appends backlog items to an existing frozen queue.
type RefillQueueCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	services.WindowParams

	DelinquencyWindowDays *int
	Count                 int
}

// RefillQueueResult holds only the rows added by this refill.
type RefillQueueResult struct {
	Key     domain.QueueKey
	Windows domain.SchedulingWindows
	Added   []*domain.QueueEntry
}

// RefillQueueHandler handles the RefillQueueCommand.
type RefillQueueHandler struct {
	candidates domain.CandidateRepository
	store      domain.QueueStore
	prefs      services.PreferencesReader
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	lock       domain.QueueLock
	logger     *slog.Logger
	metrics    observability.Metrics
	now        func() time.Time
}

// NewRefillQueueHandler creates a new RefillQueueHandler.
func NewRefillQueueHandler(
	candidates domain.CandidateRepository,
	store domain.QueueStore,
	prefs services.PreferencesReader,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *RefillQueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefillQueueHandler{
		candidates: candidates,
		store:      store,
		prefs:      prefs,
		outboxRepo: outboxRepo,
		uow:        uow,
		lock:       domain.NoopLock{},
		logger:     logger,
		metrics:    observability.NoopMetrics{},
		now:        time.Now,
	}
}

// WithLock serialises refills against generation of the same queue.
func (h *RefillQueueHandler) WithLock(lock domain.QueueLock) *RefillQueueHandler {
	if lock != nil {
		h.lock = lock
	}
	return h
}

// WithMetrics sets the metrics collector.
func (h *RefillQueueHandler) WithMetrics(metrics observability.Metrics) *RefillQueueHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// WithClock replaces the time source.
func (h *RefillQueueHandler) WithClock(now func() time.Time) *RefillQueueHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Handle executes the RefillQueueCommand.
func (h *RefillQueueHandler) Handle(ctx context.Context, cmd RefillQueueCommand) (*RefillQueueResult, error) {
	result := &RefillQueueResult{Added: []*domain.QueueEntry{}}

	if cmd.Count < 1 {
		h.logger.Info("refill ignored, count must be positive", "count", cmd.Count)
		return result, nil
	}

	prefs, err := h.prefs.Get(ctx, cmd.UserRef)
	if err != nil {
		return nil, err
	}
	if cmd.DelinquencyWindowDays != nil {
		prefs.DelinquencyWindowDays = *cmd.DelinquencyWindowDays
	}

	now := cmd.AnchorOr(h.now)
	windows := domain.ComputeWindows(now, prefs.DelinquencyWindowDays, cmd.TZOffsetMinutes)
	key := domain.NewQueueKey(cmd.UserRef, cmd.RepertoireRef, windows)
	result.Key = key
	result.Windows = windows
	logger := h.logger.With("queue", key.String())

	release := acquireLock(ctx, h.lock, key, logger, h.metrics)
	defer release(ctx)

	existing, err := h.store.FindActive(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load active queue: %w", err)
	}
	if len(existing) == 0 {
		logger.Info("refill ignored, no active queue for window")
		return result, nil
	}

	backlog, err := h.candidates.FindBacklog(ctx, domain.CandidateQuery{
		UserRef:       cmd.UserRef,
		RepertoireRef: cmd.RepertoireRef,
		Windows:       windows,
		Limit:         cmd.Count + len(existing),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch backlog: %w", err)
	}

	queued := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		queued[e.TuneRef] = struct{}{}
	}

	selections := make([]services.Selection, 0, cmd.Count)
	for _, r := range backlog {
		if len(selections) == cmd.Count {
			break
		}
		if _, ok := queued[r.TuneRef]; ok {
			continue
		}
		queued[r.TuneRef] = struct{}{}
		// Refilled rows always render as recently lapsed.
		selections = append(selections, services.Selection{Bucket: domain.BucketRecentlyLapsed, Record: r})
	}
	if len(selections) == 0 {
		logger.Info("refill found no backlog items outside the queue")
		return result, nil
	}

	added, err := services.Materialize(key, windows, selections, domain.MaxOrderIndex(existing)+1, now)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.store.InsertEntries(txCtx, added); err != nil {
			return err
		}
		return appendToOutbox(txCtx, h.outboxRepo, cmd.UserRef, domain.NewQueueRefilled(key, added, h.now()))
	})
	if errors.Is(err, domain.ErrQueueConflict) {
		logger.Warn("refill conflicted with a concurrent change, nothing added")
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricQueueRefilled, int64(len(added)))
	logger.Info("queue refilled", "added", len(added), "requested", cmd.Count)

	result.Added = added
	return result, nil
}
