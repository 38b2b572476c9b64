package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
)

// QueueActivitySubscriber records queue generation and refill activity
// published by the outbox.
type QueueActivitySubscriber struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewQueueActivitySubscriber creates a new queue activity subscriber.
func NewQueueActivitySubscriber(logger *slog.Logger, metrics observability.Metrics) *QueueActivitySubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &QueueActivitySubscriber{logger: logger, metrics: metrics}
}

// EventTypes returns the event types this subscriber handles.
func (s *QueueActivitySubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeyQueueGenerated,
		domain.RoutingKeyQueueRefilled,
	}
}

// Handle processes an event.
func (s *QueueActivitySubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	switch event.RoutingKey {
	case domain.RoutingKeyQueueGenerated:
		return s.handleGenerated(ctx, event)
	case domain.RoutingKeyQueueRefilled:
		return s.handleRefilled(ctx, event)
	default:
		s.logger.Debug("ignoring event", "routing_key", event.RoutingKey)
		return nil
	}
}

type queueGeneratedPayload struct {
	QueueID      string         `json:"queue_id"`
	EntryCount   int            `json:"entry_count"`
	BucketCounts map[string]int `json:"bucket_counts"`
	Forced       bool           `json:"forced"`
}

type queueRefilledPayload struct {
	QueueID  string   `json:"queue_id"`
	TuneRefs []string `json:"tune_refs"`
}

func (s *QueueActivitySubscriber) handleGenerated(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload queueGeneratedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}

	for _, bucket := range domain.FillOrder {
		count := payload.BucketCounts[strconv.Itoa(int(bucket))]
		if count == 0 {
			continue
		}
		s.metrics.Counter(observability.MetricQueueEntriesQueued, int64(count),
			observability.T("bucket", strconv.Itoa(int(bucket))))
	}

	s.logger.InfoContext(ctx, "practice queue generated",
		"queue_id", payload.QueueID,
		"user_id", event.Metadata.UserID,
		"entries", payload.EntryCount,
		"forced", payload.Forced,
		"event_id", event.EventID,
	)
	return nil
}

func (s *QueueActivitySubscriber) handleRefilled(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload queueRefilledPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}

	if len(payload.TuneRefs) > 0 {
		s.metrics.Counter(observability.MetricQueueEntriesQueued, int64(len(payload.TuneRefs)),
			observability.T("bucket", strconv.Itoa(int(domain.BucketRecentlyLapsed))))
	}

	s.logger.InfoContext(ctx, "practice queue refilled",
		"queue_id", payload.QueueID,
		"user_id", event.Metadata.UserID,
		"added", len(payload.TuneRefs),
		"event_id", event.EventID,
	)
	return nil
}
