package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/repertoire/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "PracticeQueue"

const (
	RoutingKeyQueueGenerated = "practice.queue.generated"
	RoutingKeyQueueRefilled  = "practice.queue.refilled"
)

// QueueGenerated is emitted when a frozen queue is persisted.
type QueueGenerated struct {
	sharedDomain.BaseEvent
	QueueID        uuid.UUID      `json:"queue_id"`
	UserRef        uuid.UUID      `json:"user_ref"`
	RepertoireRef  uuid.UUID      `json:"repertoire_ref"`
	WindowStartUTC time.Time      `json:"window_start_utc"`
	EntryCount     int            `json:"entry_count"`
	BucketCounts   map[Bucket]int `json:"bucket_counts"`
	Forced         bool           `json:"forced"`
}

// NewQueueGenerated creates a QueueGenerated event.
func NewQueueGenerated(key QueueKey, entries []*QueueEntry, forced bool, at time.Time) *QueueGenerated {
	return &QueueGenerated{
		BaseEvent:      sharedDomain.NewBaseEventAt(key.QueueID(), aggregateType, RoutingKeyQueueGenerated, at),
		QueueID:        key.QueueID(),
		UserRef:        key.UserRef,
		RepertoireRef:  key.RepertoireRef,
		WindowStartUTC: key.WindowStartUTC,
		EntryCount:     len(entries),
		BucketCounts:   CountByBucket(entries),
		Forced:         forced,
	}
}

// QueueRefilled is emitted when backlog entries are appended to a frozen queue.
type QueueRefilled struct {
	sharedDomain.BaseEvent
	QueueID        uuid.UUID `json:"queue_id"`
	UserRef        uuid.UUID `json:"user_ref"`
	RepertoireRef  uuid.UUID `json:"repertoire_ref"`
	WindowStartUTC time.Time `json:"window_start_utc"`
	TuneRefs       []string  `json:"tune_refs"`
}

// NewQueueRefilled creates a QueueRefilled event.
func NewQueueRefilled(key QueueKey, added []*QueueEntry, at time.Time) *QueueRefilled {
	refs := make([]string, 0, len(added))
	for _, e := range added {
		refs = append(refs, e.TuneRef)
	}
	return &QueueRefilled{
		BaseEvent:      sharedDomain.NewBaseEventAt(key.QueueID(), aggregateType, RoutingKeyQueueRefilled, at),
		QueueID:        key.QueueID(),
		UserRef:        key.UserRef,
		RepertoireRef:  key.RepertoireRef,
		WindowStartUTC: key.WindowStartUTC,
		TuneRefs:       refs,
	}
}

// CountByBucket tallies entries per bucket.
func CountByBucket(entries []*QueueEntry) map[Bucket]int {
	counts := make(map[Bucket]int, len(FillOrder))
	for _, e := range entries {
		counts[e.Bucket]++
	}
	return counts
}
