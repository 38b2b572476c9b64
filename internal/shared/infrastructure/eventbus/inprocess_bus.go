package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// InProcessBus delivers envelopes synchronously to local consumers.
// It stands in for the broker in local mode.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewInProcessBus creates an in-process bus dispatching through registry.
func NewInProcessBus(registry *ConsumerRegistry, logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewConsumerRegistry(logger)
	}
	return &InProcessBus{registry: registry, logger: logger}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it. Decode and consumer failures are
// logged, never returned, so the outbox does not retry local deliveries.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event, err := DecodeEvent(payload, routingKey)
	if err != nil {
		b.logger.Error("dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}

	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.Error("event dispatch failed", "routing_key", routingKey, "event_id", event.EventID, "error", err)
	}
	return nil
}

func (b *InProcessBus) Close() error {
	return nil
}

// Registry returns the underlying consumer registry.
func (b *InProcessBus) Registry() *ConsumerRegistry {
	return b.registry
}
