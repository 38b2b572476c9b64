package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CandidateRepository reads eligible records per bucket predicate.
// Each Find method returns at most q.Limit records, already sorted per bucket policy.
type CandidateRepository interface {
	// HasCandidates reports whether any eligible record exists for the pair.
	HasCandidates(ctx context.Context, userRef, repertoireRef uuid.UUID) (bool, error)

	// FindDueToday: coalesced in [start, end), earliest first.
	FindDueToday(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error)

	// FindRecentlyLapsed: coalesced in [floor, start), least overdue first.
	FindRecentlyLapsed(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error)

	// FindNew: unscheduled and (never due or due before floor), by tune ref.
	FindNew(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error)

	// FindStaleUnscheduled: unscheduled, practiced, due before floor, by tune ref.
	FindStaleUnscheduled(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error)

	// FindOldLapsed: scheduled before floor, most overdue first.
	FindOldLapsed(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error)

	// FindBacklog: coalesced before floor, closest to due first.
	FindBacklog(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error)
}

// QueueStore persists frozen queues.
type QueueStore interface {
	// FindActive returns the active rows for key ordered by order index.
	FindActive(ctx context.Context, key QueueKey) ([]*QueueEntry, error)

	// InsertEntries stores entries, returning ErrQueueConflict on a uniqueness violation.
	InsertEntries(ctx context.Context, entries []*QueueEntry) error

	// DeleteByKey hard-deletes every row for key.
	DeleteByKey(ctx context.Context, key QueueKey) (int64, error)

	// Update persists the mutable review fields of an entry.
	Update(ctx context.Context, entry *QueueEntry) error
}

// PreferencesRepository stores per-learner preferences.
type PreferencesRepository interface {
	// Find returns nil when the learner has no stored preferences.
	Find(ctx context.Context, userRef uuid.UUID) (*Preferences, error)
	Save(ctx context.Context, prefs Preferences) error
}

// ErrMembershipNotFound is returned when a tune is not in the learner's repertoire.
var ErrMembershipNotFound = errors.New("repertoire membership not found")

// Tune is a catalog item.
type Tune struct {
	ID    string
	Title string
}

// CatalogRepository maintains the records the candidate view is built from.
type CatalogRepository interface {
	SaveTune(ctx context.Context, tune Tune) error
	AddToRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error
	RemoveFromRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error

	// SetScheduled sets or, with nil, clears the manual review override.
	SetScheduled(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, scheduled *time.Time) error

	// RecordPractice stores a practice event with its externally computed due date.
	RecordPractice(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, practicedAt, due time.Time) error
}
