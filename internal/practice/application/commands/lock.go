package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
)

// acquireLock takes the queue lock. Lock failures never block the caller; they are logged
// and the operation proceeds on the store's uniqueness constraint alone.
func acquireLock(
	ctx context.Context,
	lock domain.QueueLock,
	key domain.QueueKey,
	logger *slog.Logger,
	metrics observability.Metrics,
) domain.ReleaseFunc {
	release, err := lock.Acquire(ctx, key)
	if err == nil {
		return release
	}

	metrics.Counter(observability.MetricLockUnavailable, 1)
	if errors.Is(err, domain.ErrLockTimeout) {
		logger.Warn("queue lock wait timed out, proceeding unlocked", "queue", key.String())
	} else {
		logger.Warn("queue lock unavailable, proceeding unlocked", "queue", key.String(), "error", err)
	}
	return func(context.Context) {}
}
