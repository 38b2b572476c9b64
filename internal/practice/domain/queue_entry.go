package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueConflict         = errors.New("queue entries already exist for window")
	ErrEntryNotFound         = errors.New("queue entry not found")
	ErrEntryAlreadyCompleted = errors.New("queue entry already completed")
	ErrInvalidBucket         = errors.New("invalid bucket")
)

// queueNamespace seeds deterministic queue identifiers.
var queueNamespace = uuid.MustParse("6f1c3b8e-2d4a-4f5e-9a7b-1c2d3e4f5a6b")

// QueueKey identifies one frozen queue.
type QueueKey struct {
	UserRef        uuid.UUID
	RepertoireRef  uuid.UUID
	WindowStartUTC time.Time
}

// NewQueueKey builds a key for the windows' start of day.
func NewQueueKey(userRef, repertoireRef uuid.UUID, w SchedulingWindows) QueueKey {
	return QueueKey{
		UserRef:        userRef,
		RepertoireRef:  repertoireRef,
		WindowStartUTC: w.StartOfDayUTC.UTC(),
	}
}

// String renders the key as user/repertoire/window.
func (k QueueKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.UserRef, k.RepertoireRef, FormatTimestamp(k.WindowStartUTC))
}

// QueueID derives a stable identifier for the frozen queue behind this key.
func (k QueueKey) QueueID() uuid.UUID {
	return uuid.NewSHA1(queueNamespace, []byte(k.String()))
}

// QueueEntry is one persisted row of a frozen daily queue.
type QueueEntry struct {
	ID             uuid.UUID
	UserRef        uuid.UUID
	RepertoireRef  uuid.UUID
	WindowStartUTC time.Time
	WindowEndUTC   time.Time
	TuneRef        string
	Bucket         Bucket
	OrderIndex     int

	// Captured at generation time and never recomputed.
	SnapshotCoalescedTS *time.Time
	ScheduledSnapshot   *time.Time
	LatestDueSnapshot   *time.Time

	GeneratedAt time.Time
	CompletedAt *time.Time

	// Reserved for multi-exposure goals.
	ExposuresRequired  *int
	ExposuresCompleted *int
	Outcome            *string

	Active bool
}

// NewQueueEntry snapshots a candidate into a queue row.
func NewQueueEntry(
	key QueueKey,
	w SchedulingWindows,
	c CandidateRecord,
	bucket Bucket,
	orderIndex int,
	now time.Time,
) (*QueueEntry, error) {
	if !bucket.IsValid() {
		return nil, ErrInvalidBucket
	}
	return &QueueEntry{
		ID:                  uuid.New(),
		UserRef:             key.UserRef,
		RepertoireRef:       key.RepertoireRef,
		WindowStartUTC:      key.WindowStartUTC,
		WindowEndUTC:        w.EndOfDayUTC.UTC(),
		TuneRef:             c.TuneRef,
		Bucket:              bucket,
		OrderIndex:          orderIndex,
		SnapshotCoalescedTS: copyTime(c.Coalesced()),
		ScheduledSnapshot:   copyTime(c.Scheduled),
		LatestDueSnapshot:   copyTime(c.LatestDue),
		GeneratedAt:         now.UTC(),
		Active:              true,
	}, nil
}

// Key returns the frozen-queue key this entry belongs to.
func (e *QueueEntry) Key() QueueKey {
	return QueueKey{
		UserRef:        e.UserRef,
		RepertoireRef:  e.RepertoireRef,
		WindowStartUTC: e.WindowStartUTC,
	}
}

// IsCompleted reports whether the review workflow finished this entry.
func (e *QueueEntry) IsCompleted() bool {
	return e.CompletedAt != nil
}

// Complete marks the entry done and counts one exposure.
func (e *QueueEntry) Complete(at time.Time) error {
	if e.IsCompleted() {
		return ErrEntryAlreadyCompleted
	}
	t := at.UTC()
	e.CompletedAt = &t
	done := 1
	if e.ExposuresCompleted != nil {
		done = *e.ExposuresCompleted + 1
	}
	e.ExposuresCompleted = &done
	return nil
}

// NaturalBucket classifies the entry's snapshot as it would be labeled today.
// This is informational; the stored Bucket stays authoritative.
func (e *QueueEntry) NaturalBucket(w SchedulingWindows) Bucket {
	if e.SnapshotCoalescedTS == nil {
		return BucketDueToday
	}
	return ClassifyTime(*e.SnapshotCoalescedTS, w)
}

// MaxOrderIndex returns the largest order index in entries, or -1 when empty.
func MaxOrderIndex(entries []*QueueEntry) int {
	max := -1
	for _, e := range entries {
		if e.OrderIndex > max {
			max = e.OrderIndex
		}
	}
	return max
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
