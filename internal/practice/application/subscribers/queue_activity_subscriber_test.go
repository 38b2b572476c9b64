package subscribers_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/subscribers"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consumed(t *testing.T, routingKey string, payload any) *eventbus.ConsumedEvent {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	}
}

func queueKey() domain.QueueKey {
	return domain.QueueKey{
		UserRef:        uuid.New(),
		RepertoireRef:  uuid.New(),
		WindowStartUTC: time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestQueueActivitySubscriber_EventTypes(t *testing.T) {
	sub := subscribers.NewQueueActivitySubscriber(nil, nil)
	assert.ElementsMatch(t, []string{"practice.queue.generated", "practice.queue.refilled"}, sub.EventTypes())
}

func TestQueueActivitySubscriber_Generated(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	sub := subscribers.NewQueueActivitySubscriber(nil, metrics)

	entries := []*domain.QueueEntry{
		{TuneRef: "a", Bucket: domain.BucketDueToday},
		{TuneRef: "b", Bucket: domain.BucketDueToday},
		{TuneRef: "c", Bucket: domain.BucketNew},
	}
	event := consumed(t, domain.RoutingKeyQueueGenerated, domain.NewQueueGenerated(queueKey(), entries, false, time.Now()))

	require.NoError(t, sub.Handle(context.Background(), event))
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricQueueEntriesQueued, observability.T("bucket", "1")))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricQueueEntriesQueued, observability.T("bucket", "3")))
	assert.Zero(t, metrics.GetCounter(observability.MetricQueueEntriesQueued, observability.T("bucket", "2")))
}

func TestQueueActivitySubscriber_Refilled(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	sub := subscribers.NewQueueActivitySubscriber(nil, metrics)

	added := []*domain.QueueEntry{{TuneRef: "x"}, {TuneRef: "y"}}
	event := consumed(t, domain.RoutingKeyQueueRefilled, domain.NewQueueRefilled(queueKey(), added, time.Now()))

	require.NoError(t, sub.Handle(context.Background(), event))
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricQueueEntriesQueued, observability.T("bucket", "2")))
}

func TestQueueActivitySubscriber_BadPayload(t *testing.T) {
	sub := subscribers.NewQueueActivitySubscriber(nil, nil)
	event := &eventbus.ConsumedEvent{
		RoutingKey: domain.RoutingKeyQueueGenerated,
		Payload:    json.RawMessage(`"not an object"`),
	}
	assert.Error(t, sub.Handle(context.Background(), event))
}

func TestQueueActivitySubscriber_IgnoresUnknown(t *testing.T) {
	sub := subscribers.NewQueueActivitySubscriber(nil, nil)
	event := &eventbus.ConsumedEvent{RoutingKey: "practice.other", Payload: json.RawMessage(`{}`)}
	assert.NoError(t, sub.Handle(context.Background(), event))
}
