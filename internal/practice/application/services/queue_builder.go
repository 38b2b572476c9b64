package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
)

// UncappedLimit bounds the work done for an uncapped (capacity 0) queue.
const UncappedLimit = 10000

// BuildRequest describes one queue build.
type BuildRequest struct {
	Key     domain.QueueKey
	Windows domain.SchedulingWindows

	// Capacity is the global cap across all buckets. Zero means uncapped.
	Capacity int

	// EnableNewItems admits never-practiced items into the new bucket.
	// When false the bucket only draws unscheduled items practiced before the floor.
	EnableNewItems bool

	Now time.Time
}

// Selection is a candidate picked for the queue together with the bucket that produced it.
type Selection struct {
	Bucket domain.Bucket
	Record domain.CandidateRecord
}

// BucketResult is one bucket query's ordered output.
type BucketResult struct {
	Bucket  domain.Bucket
	Records []domain.CandidateRecord
}

// budget tracks the global capacity. It is a value type; spending returns a new budget.
type budget struct {
	limit int
	used  int
}

func newBudget(capacity int) budget {
	if capacity <= 0 {
		capacity = UncappedLimit
	}
	return budget{limit: capacity}
}

func (b budget) remaining() int {
	return b.limit - b.used
}

func (b budget) exhausted() bool {
	return b.remaining() <= 0
}

func (b budget) spend(n int) budget {
	b.used += n
	return b
}

// accumulator carries the merge state from one bucket step to the next.
type accumulator struct {
	selected []Selection
	budget   budget
	skipped  int
}

// accumulate appends records from one bucket, skipping tune refs already selected
// and stopping when the budget runs out. acc is not modified.
func accumulate(acc accumulator, bucket domain.Bucket, records []domain.CandidateRecord) accumulator {
	seen := make(map[string]struct{}, len(acc.selected))
	for _, s := range acc.selected {
		seen[s.Record.TuneRef] = struct{}{}
	}

	next := accumulator{
		selected: make([]Selection, len(acc.selected), len(acc.selected)+len(records)),
		budget:   acc.budget,
		skipped:  acc.skipped,
	}
	copy(next.selected, acc.selected)

	for _, r := range records {
		if next.budget.exhausted() {
			break
		}
		if _, dup := seen[r.TuneRef]; dup {
			next.skipped++
			continue
		}
		seen[r.TuneRef] = struct{}{}
		next.selected = append(next.selected, Selection{Bucket: bucket, Record: r})
		next.budget = next.budget.spend(1)
	}
	return next
}

// Merge concatenates bucket results in the order given, dropping duplicate tune refs
// and truncating at capacity (0 = uncapped).
func Merge(results []BucketResult, capacity int) []Selection {
	acc := accumulator{budget: newBudget(capacity)}
	for _, r := range results {
		acc = accumulate(acc, r.Bucket, r.Records)
	}
	return acc.selected
}

// Materialize turns selections into queue entries numbered densely from startIndex.
func Materialize(
	key domain.QueueKey,
	w domain.SchedulingWindows,
	selections []Selection,
	startIndex int,
	now time.Time,
) ([]*domain.QueueEntry, error) {
	entries := make([]*domain.QueueEntry, 0, len(selections))
	for i, s := range selections {
		entry, err := domain.NewQueueEntry(key, w, s.Record, s.Bucket, startIndex+i, now)
		if err != nil {
			return nil, fmt.Errorf("materialize %s: %w", s.Record.TuneRef, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// QueueBuilder draws candidates bucket by bucket under a shrinking global budget.
type QueueBuilder struct {
	candidates domain.CandidateRepository
	logger     *slog.Logger
}

// NewQueueBuilder creates a new QueueBuilder.
func NewQueueBuilder(candidates domain.CandidateRepository, logger *slog.Logger) *QueueBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueBuilder{
		candidates: candidates,
		logger:     logger,
	}
}

// Build fetches Q1..Q4 in priority order and returns densely numbered entries.
func (b *QueueBuilder) Build(ctx context.Context, req BuildRequest) ([]*domain.QueueEntry, error) {
	acc := accumulator{budget: newBudget(req.Capacity)}

	for _, bucket := range domain.FillOrder {
		if acc.budget.exhausted() {
			break
		}

		q := domain.CandidateQuery{
			UserRef:       req.Key.UserRef,
			RepertoireRef: req.Key.RepertoireRef,
			Windows:       req.Windows,
			Limit:         acc.budget.remaining(),
		}
		records, err := b.fetch(ctx, bucket, q, req.EnableNewItems)
		if err != nil {
			return nil, fmt.Errorf("fetch %s candidates: %w", bucket, err)
		}
		acc = accumulate(acc, bucket, records)
	}

	if acc.skipped > 0 {
		b.logger.Warn("duplicate candidates dropped across buckets",
			"queue", req.Key.String(),
			"skipped", acc.skipped,
		)
	}

	return Materialize(req.Key, req.Windows, acc.selected, 0, req.Now)
}

func (b *QueueBuilder) fetch(ctx context.Context, bucket domain.Bucket, q domain.CandidateQuery, enableNew bool) ([]domain.CandidateRecord, error) {
	switch bucket {
	case domain.BucketDueToday:
		return b.candidates.FindDueToday(ctx, q)
	case domain.BucketRecentlyLapsed:
		return b.candidates.FindRecentlyLapsed(ctx, q)
	case domain.BucketNew:
		if !enableNew {
			return b.candidates.FindStaleUnscheduled(ctx, q)
		}
		return b.candidates.FindNew(ctx, q)
	case domain.BucketOldLapsed:
		return b.candidates.FindOldLapsed(ctx, q)
	default:
		return nil, domain.ErrInvalidBucket
	}
}
