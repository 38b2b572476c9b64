package observability

import "time"

// Timer measures one operation and reports it to a metrics collector.
type Timer struct {
	operation string
	start     time.Time
	metrics   Metrics
	tags      []Tag
	now       func() time.Time
}

// StartTimer starts timing operation.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
		metrics:   NoopMetrics{},
		now:       time.Now,
	}
}

// WithMetrics sets the collector the timer reports to.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	if metrics != nil {
		t.metrics = metrics
	}
	return t
}

// WithTags adds tags to every metric the timer records.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records the duration and an error count when err is non-nil.
func (t *Timer) Stop(err error) time.Duration {
	duration := t.now().Sub(t.start)

	tags := make([]Tag, 0, len(t.tags)+1)
	tags = append(tags, t.tags...)
	tags = append(tags, T("operation", t.operation))

	t.metrics.Timing(MetricOperationDuration, duration, tags...)
	t.metrics.Counter(MetricOperationTotal, 1, tags...)
	if err != nil {
		t.metrics.Counter(MetricOperationErrors, 1, tags...)
	}
	return duration
}
