package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	generatedKey = "practice.queue.generated"
	refilledKey  = "practice.queue.refilled"
)

type recordingConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (c *recordingConsumer) EventTypes() []string {
	return c.eventTypes
}

func (c *recordingConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func newEvent(routingKey string) *eventbus.ConsumedEvent {
	return &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   uuid.New(),
		AggregateType: "PracticeQueue",
		RoutingKey:    routingKey,
		OccurredAt:    time.Now().UTC(),
		Payload:       []byte(`{"entry_count":2}`),
	}
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	registry.Register(&recordingConsumer{eventTypes: []string{refilledKey, generatedKey}})
	registry.Register(&recordingConsumer{eventTypes: []string{generatedKey}})

	assert.Len(t, registry.GetConsumers(generatedKey), 2)
	assert.Len(t, registry.GetConsumers(refilledKey), 1)
	assert.Empty(t, registry.GetConsumers("practice.unknown"))
	assert.Equal(t, []string{generatedKey, refilledKey}, registry.EventTypes())
	assert.Equal(t, 3, registry.ConsumerCount())
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	t.Run("delivers to matching consumers only", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(nil)
		generated := &recordingConsumer{eventTypes: []string{generatedKey}}
		refilled := &recordingConsumer{eventTypes: []string{refilledKey}}
		registry.Register(generated)
		registry.Register(refilled)

		event := newEvent(generatedKey)
		require.NoError(t, registry.Dispatch(context.Background(), event))

		require.Len(t, generated.events, 1)
		assert.Equal(t, event.EventID, generated.events[0].EventID)
		assert.Empty(t, refilled.events)
	})

	t.Run("no consumers is not an error", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(nil)
		assert.NoError(t, registry.Dispatch(context.Background(), newEvent(generatedKey)))
	})

	t.Run("runs every consumer and joins failures", func(t *testing.T) {
		metrics := observability.NewInMemoryMetrics()
		registry := eventbus.NewConsumerRegistry(nil).WithMetrics(metrics)
		failErr := errors.New("audit sink down")
		failing := &recordingConsumer{eventTypes: []string{generatedKey}, err: failErr}
		healthy := &recordingConsumer{eventTypes: []string{generatedKey}}
		registry.Register(failing)
		registry.Register(healthy)

		err := registry.Dispatch(context.Background(), newEvent(generatedKey))
		assert.ErrorIs(t, err, failErr)
		assert.Len(t, failing.events, 1)
		assert.Len(t, healthy.events, 1)
		assert.EqualValues(t, 1, metrics.GetCounter(observability.MetricEventsConsumed, observability.T("routing_key", generatedKey)))
	})
}
