// Package redislock serialises queue generation across processes with a Redis lease.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const keyPrefix = "repertoire:queue-lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Config configures the generation lock.
type Config struct {
	// TTL bounds how long a lease is held and how long a waiter polls.
	TTL time.Duration

	// PollInterval is the wait between acquisition attempts under contention.
	PollInterval time.Duration

	// BreakerFailures is the number of consecutive Redis failures that open the breaker.
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the default lock configuration.
func DefaultConfig() Config {
	return Config{
		TTL:             10 * time.Second,
		PollInterval:    100 * time.Millisecond,
		BreakerFailures: 3,
		BreakerTimeout:  30 * time.Second,
	}
}

// backend is the pair of Redis operations the lock needs.
type backend interface {
	tryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	release(ctx context.Context, key, token string) error
}

type redisBackend struct {
	client *redis.Client
}

func (b redisBackend) tryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return b.client.SetNX(ctx, key, token, ttl).Result()
}

func (b redisBackend) release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, b.client, []string{key}, token).Err()
}

// GenerationLock implements domain.QueueLock with SET NX PX leases.
type GenerationLock struct {
	backend backend
	breaker *gobreaker.CircuitBreaker[bool]
	config  Config
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a GenerationLock on a Redis client.
func New(client *redis.Client, config Config, logger *slog.Logger) *GenerationLock {
	return newLock(redisBackend{client: client}, config, logger)
}

func newLock(b backend, config Config, logger *slog.Logger) *GenerationLock {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = defaults.BreakerFailures
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = defaults.BreakerTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "redis-queue-lock",
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &GenerationLock{
		backend: b,
		breaker: breaker,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Acquire waits for the lease on key. It returns domain.ErrLockTimeout when another
// holder keeps the lease for a full TTL, and a wrapped error when Redis is unreachable
// or the breaker is open.
func (l *GenerationLock) Acquire(ctx context.Context, key domain.QueueKey) (domain.ReleaseFunc, error) {
	redisKey := keyPrefix + key.String()
	token := uuid.NewString()
	deadline := l.now().Add(l.config.TTL)

	for {
		ok, err := l.breaker.Execute(func() (bool, error) {
			return l.backend.tryAcquire(ctx, redisKey, token, l.config.TTL)
		})
		if err != nil {
			return nil, fmt.Errorf("acquire queue lock: %w", err)
		}
		if ok {
			return l.releaseFunc(redisKey, token), nil
		}
		if !l.now().Before(deadline) {
			return nil, domain.ErrLockTimeout
		}

		timer := time.NewTimer(l.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *GenerationLock) releaseFunc(redisKey, token string) domain.ReleaseFunc {
	return func(ctx context.Context) {
		_, err := l.breaker.Execute(func() (bool, error) {
			return true, l.backend.release(ctx, redisKey, token)
		})
		if err != nil {
			// The lease expires on its own after the TTL.
			l.logger.Warn("failed to release queue lock", "key", redisKey, "error", err)
		}
	}
}

// State reports the circuit breaker state.
func (l *GenerationLock) State() gobreaker.State {
	return l.breaker.State()
}
