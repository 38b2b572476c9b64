package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics receives counters, gauges and timings from the queue handlers,
// the outbox processor and the event consumers.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{Key: key, Value: value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in process. The worker logs its
// snapshot periodically; tests read individual series back.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics returns an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	m := &InMemoryMetrics{}
	m.reset()
	return m
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

// GetCounter returns the counter for name and tags, zero when unseen.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

// GetGauge returns the last gauge value for name and tags.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[seriesKey(name, tags)]
}

// GetTimings returns a copy of the recorded durations.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recorded := m.timings[seriesKey(name, tags)]
	if len(recorded) == 0 {
		return nil
	}
	return append([]time.Duration(nil), recorded...)
}

// Snapshot flattens counters and gauges into one map keyed by series.
// Timings are reported as their count under "<series>.count".
func (m *InMemoryMetrics) Snapshot() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.counters)+len(m.gauges)+len(m.timings))
	for k, v := range m.counters {
		out[k] = float64(v)
	}
	for k, v := range m.gauges {
		out[k] = v
	}
	for k, v := range m.timings {
		out[k+".count"] = float64(len(v))
	}
	return out
}

// Reset drops every series.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *InMemoryMetrics) reset() {
	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timings = make(map[string][]time.Duration)
}

// seriesKey renders name{k=v,...} with tags sorted by key, so tag order at
// the call site does not split a series.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Metric names.
const (
	MetricOperationTotal    = "repertoire.operation.total"
	MetricOperationDuration = "repertoire.operation.duration"
	MetricOperationErrors   = "repertoire.operation.errors"

	MetricQueueGenerated         = "queue.generated"
	MetricQueueFrozenHit         = "queue.frozen_hit"
	MetricQueueNotReady          = "queue.not_ready"
	MetricQueueConflictRecovered = "queue.conflict_recovered"
	MetricQueueRefilled          = "queue.refilled"
	MetricQueueEntriesQueued     = "queue.entries_queued"
	MetricLockUnavailable        = "queue.lock_unavailable"

	MetricClassifierLenientDefault = "classifier.lenient_default"

	MetricEventsPublished = "repertoire.events.published"
	MetricEventsConsumed  = "repertoire.events.consumed"

	MetricOutboxPublishFailed = "outbox.publish_failed"
	MetricOutboxDeadLettered  = "outbox.dead_lettered"
	MetricOutboxLagSeconds    = "outbox.lag_seconds"
	MetricOutboxCleaned       = "outbox.cleaned"
)
