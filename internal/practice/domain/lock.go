package domain

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("timed out waiting for queue lock")

// ReleaseFunc releases a held queue lock.
type ReleaseFunc func(ctx context.Context)

// QueueLock serialises generation and refill of one frozen queue across callers.
type QueueLock interface {
	Acquire(ctx context.Context, key QueueKey) (ReleaseFunc, error)
}

// NoopLock never blocks. Concurrency then falls back to insert conflict recovery.
type NoopLock struct{}

// Acquire returns immediately.
func (NoopLock) Acquire(context.Context, QueueKey) (ReleaseFunc, error) {
	return func(context.Context) {}, nil
}
