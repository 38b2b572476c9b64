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

// Outcome reports which path a generation took.
type Outcome string

const (
	OutcomeNotReady          Outcome = "not_ready"
	OutcomeFrozen            Outcome = "frozen"
	OutcomeGenerated         Outcome = "generated"
	OutcomeRegenerated       Outcome = "regenerated"
	OutcomeConflictRecovered Outcome = "conflict_recovered"
)

// GenerateQueueCommand requests the frozen queue for a learner's current day.
type GenerateQueueCommand struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	services.WindowParams

	// Overrides for stored preferences; nil uses the stored value.
	DelinquencyWindowDays *int
	MaxDailyReviews       *int
	EnableNewItems        *bool

	ForceRegen bool
}

// GenerateQueueResult is the authoritative queue for the window key.
// Entries may differ from what this call built when another caller won the insert race.
type GenerateQueueResult struct {
	Key     domain.QueueKey
	Windows domain.SchedulingWindows
	Entries []*domain.QueueEntry
	Outcome Outcome
}

// GenerateQueueHandler handles the GenerateQueueCommand.
type GenerateQueueHandler struct {
	candidates domain.CandidateRepository
	store      domain.QueueStore
	builder    *services.QueueBuilder
	prefs      services.PreferencesReader
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	lock       domain.QueueLock
	logger     *slog.Logger
	metrics    observability.Metrics
	now        func() time.Time
}

// NewGenerateQueueHandler creates a new GenerateQueueHandler.
func NewGenerateQueueHandler(
	candidates domain.CandidateRepository,
	store domain.QueueStore,
	prefs services.PreferencesReader,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *GenerateQueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateQueueHandler{
		candidates: candidates,
		store:      store,
		builder:    services.NewQueueBuilder(candidates, logger),
		prefs:      prefs,
		outboxRepo: outboxRepo,
		uow:        uow,
		lock:       domain.NoopLock{},
		logger:     logger,
		metrics:    observability.NoopMetrics{},
		now:        time.Now,
	}
}

// WithLock serialises generation per window key.
func (h *GenerateQueueHandler) WithLock(lock domain.QueueLock) *GenerateQueueHandler {
	if lock != nil {
		h.lock = lock
	}
	return h
}

// WithMetrics sets the metrics collector.
func (h *GenerateQueueHandler) WithMetrics(metrics observability.Metrics) *GenerateQueueHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// WithClock replaces the time source.
func (h *GenerateQueueHandler) WithClock(now func() time.Time) *GenerateQueueHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Handle executes the GenerateQueueCommand.
func (h *GenerateQueueHandler) Handle(ctx context.Context, cmd GenerateQueueCommand) (*GenerateQueueResult, error) {
	prefs, err := h.prefs.Get(ctx, cmd.UserRef)
	if err != nil {
		return nil, err
	}
	if cmd.DelinquencyWindowDays != nil {
		prefs.DelinquencyWindowDays = *cmd.DelinquencyWindowDays
	}
	if cmd.MaxDailyReviews != nil {
		prefs.MaxDailyReviews = *cmd.MaxDailyReviews
	}
	if cmd.EnableNewItems != nil {
		prefs.EnableNewItems = *cmd.EnableNewItems
	}

	now := cmd.AnchorOr(h.now)
	windows := domain.ComputeWindows(now, prefs.DelinquencyWindowDays, cmd.TZOffsetMinutes)
	key := domain.NewQueueKey(cmd.UserRef, cmd.RepertoireRef, windows)
	logger := h.logger.With("queue", key.String())

	result := &GenerateQueueResult{
		Key:     key,
		Windows: windows,
		Entries: []*domain.QueueEntry{},
	}

	release := acquireLock(ctx, h.lock, key, logger, h.metrics)
	defer release(ctx)

	if !cmd.ForceRegen {
		ready, err := h.candidates.HasCandidates(ctx, cmd.UserRef, cmd.RepertoireRef)
		if err != nil {
			return nil, fmt.Errorf("check candidates: %w", err)
		}
		if !ready {
			logger.Info("no candidate data yet, returning empty queue")
			h.metrics.Counter(observability.MetricQueueNotReady, 1)
			result.Outcome = OutcomeNotReady
			return result, nil
		}
	}

	existing, err := h.store.FindActive(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load active queue: %w", err)
	}
	if len(existing) > 0 && !cmd.ForceRegen {
		logger.Debug("returning frozen queue", "entries", len(existing))
		h.metrics.Counter(observability.MetricQueueFrozenHit, 1)
		result.Entries = existing
		result.Outcome = OutcomeFrozen
		return result, nil
	}

	timer := observability.StartTimer("queue.build").WithMetrics(h.metrics)
	entries, err := h.builder.Build(ctx, services.BuildRequest{
		Key:            key,
		Windows:        windows,
		Capacity:       prefs.MaxDailyReviews,
		EnableNewItems: prefs.EnableNewItems,
		Now:            now,
	})
	timer.Stop(err)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && !cmd.ForceRegen {
		logger.Info("no eligible candidates, nothing persisted")
		result.Outcome = OutcomeGenerated
		return result, nil
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if cmd.ForceRegen {
			deleted, err := h.store.DeleteByKey(txCtx, key)
			if err != nil {
				return fmt.Errorf("delete queue: %w", err)
			}
			if deleted > 0 {
				logger.Info("force regeneration replaced queue", "deleted", deleted)
			}
		} else {
			current, err := h.store.FindActive(txCtx, key)
			if err != nil {
				return fmt.Errorf("probe active queue: %w", err)
			}
			if len(current) > 0 {
				return domain.ErrQueueConflict
			}
		}

		if len(entries) > 0 {
			if err := h.store.InsertEntries(txCtx, entries); err != nil {
				return err
			}
		}

		return appendToOutbox(txCtx, h.outboxRepo, cmd.UserRef, domain.NewQueueGenerated(key, entries, cmd.ForceRegen, h.now()))
	})
	if errors.Is(err, domain.ErrQueueConflict) {
		logger.Warn("queue insert conflicted, returning existing rows")
		h.metrics.Counter(observability.MetricQueueConflictRecovered, 1)

		winner, err := h.store.FindActive(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reload active queue: %w", err)
		}
		result.Entries = winner
		result.Outcome = OutcomeConflictRecovered
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricQueueGenerated, 1)
	logger.Info("queue generated",
		"entries", len(entries),
		"forced", cmd.ForceRegen,
		"capacity", prefs.MaxDailyReviews,
	)

	result.Entries = entries
	result.Outcome = OutcomeGenerated
	if cmd.ForceRegen && len(existing) > 0 {
		result.Outcome = OutcomeRegenerated
	}
	return result, nil
}
