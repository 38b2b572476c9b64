package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPublisher records publishes and fails for selected routing keys.
type stubPublisher struct {
	mu          sync.Mutex
	published   []string
	failForKeys map[string]bool
}

func newStubPublisher(failing ...string) *stubPublisher {
	p := &stubPublisher{failForKeys: make(map[string]bool)}
	for _, key := range failing {
		p.failForKeys[key] = true
	}
	return p
}

func (p *stubPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failForKeys[routingKey] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type failingRepository struct {
	*outbox.InMemoryRepository
}

func (failingRepository) GetUnpublished(context.Context, int) ([]*outbox.Message, error) {
	return nil, errors.New("database locked")
}

func queueMessage(routingKey string) *outbox.Message {
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "PracticeQueue",
		AggregateID:   uuid.New(),
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       []byte(`{"entry_count":1}`),
		Metadata:      []byte(`{"correlation_id":"` + uuid.NewString() + `"}`),
		CreatedAt:     time.Now().Add(-time.Second),
	}
}

func seed(t *testing.T, repo outbox.Repository, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, repo.SaveBatch(context.Background(), []*outbox.Message{queueMessage(key)}))
	}
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newStubPublisher()
	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil).WithMetrics(metrics)
	seed(t, repo, "practice.queue.generated", "practice.queue.refilled")

	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, 2, publisher.count())
	for _, msg := range repo.Messages() {
		assert.True(t, msg.IsPublished())
	}
	assert.EqualValues(t, 1, metrics.GetCounter(observability.MetricEventsPublished, observability.T("routing_key", "practice.queue.generated")))

	stats := processor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.NotNil(t, stats.LastProcessedAt)
	assert.NotNil(t, stats.OldestMessageAt)
	assert.GreaterOrEqual(t, stats.LagSeconds, 0.0)

	// Nothing left to send.
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Equal(t, 2, publisher.count())
	assert.Nil(t, processor.GetStats().OldestMessageAt)
}

func TestProcessor_ProcessOnce_PublishFailure(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newStubPublisher("practice.queue.refilled")
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)
	seed(t, repo, "practice.queue.generated", "practice.queue.refilled")

	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, 1, publisher.count())
	failed := repo.Messages()[1]
	assert.False(t, failed.IsPublished())
	assert.Equal(t, 1, failed.RetryCount)
	require.NotNil(t, failed.NextRetryAt)
	assert.True(t, failed.NextRetryAt.After(time.Now()))

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.PublishedCount)
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "broker unavailable", stats.LastError)
	assert.NotNil(t, stats.LastErrorAt)
}

func TestProcessor_ProcessOnce_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newStubPublisher("practice.queue.generated")
	config := outbox.DefaultProcessorConfig()
	config.MaxRetries = 1
	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, publisher, config, nil).WithMetrics(metrics)
	seed(t, repo, "practice.queue.generated")

	require.NoError(t, processor.ProcessOnce(context.Background()))

	msg := repo.Messages()[0]
	assert.NotNil(t, msg.DeadLetteredAt)
	assert.Zero(t, msg.RetryCount)
	assert.Equal(t, uint64(1), processor.GetStats().DeadCount)
	assert.EqualValues(t, 1, metrics.GetCounter(observability.MetricOutboxDeadLettered, observability.T("routing_key", "practice.queue.generated")))
}

func TestProcessor_ProcessOnce_RepositoryError(t *testing.T) {
	processor := outbox.NewProcessor(failingRepository{outbox.NewInMemoryRepository()}, newStubPublisher(), outbox.DefaultProcessorConfig(), nil)

	err := processor.ProcessOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, "database locked", processor.GetStats().LastError)
}

func TestProcessor_Cleanup(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	config := outbox.DefaultProcessorConfig()
	config.RetentionDays = 0
	processor := outbox.NewProcessor(repo, newStubPublisher(), config, nil)
	seed(t, repo, "practice.queue.generated", "practice.queue.refilled")

	require.NoError(t, repo.MarkPublished(context.Background(), repo.Messages()[0].ID))
	time.Sleep(5 * time.Millisecond)

	deleted, err := processor.Cleanup(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	require.Len(t, repo.Messages(), 1)
	assert.Equal(t, "practice.queue.refilled", repo.Messages()[0].RoutingKey)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newStubPublisher()
	config := outbox.ProcessorConfig{
		PollInterval:     10 * time.Millisecond,
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: time.Millisecond,
		RetryBackoffMax:  10 * time.Millisecond,
		CleanupInterval:  10 * time.Millisecond,
		RetentionDays:    14,
	}
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()))
	assert.True(t, processor.IsRunning())
	assert.True(t, processor.GetStats().IsRunning)

	seed(t, repo, "practice.queue.generated")
	assert.Eventually(t, func() bool { return publisher.count() == 1 }, time.Second, 5*time.Millisecond)

	processor.Stop()
	processor.Stop()
	assert.False(t, processor.IsRunning())
	assert.False(t, processor.GetStats().IsRunning)
}

func TestProcessor_RunReturnsOnCancel(t *testing.T) {
	processor := outbox.NewProcessor(outbox.NewInMemoryRepository(), newStubPublisher(), outbox.DefaultProcessorConfig(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
