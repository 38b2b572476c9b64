package queries

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
)

// QueueEntryDTO is a read model of one queue row.
type QueueEntryDTO struct {
	ID          uuid.UUID  `json:"id"`
	TuneRef     string     `json:"tune_ref"`
	Bucket      string     `json:"bucket"`
	BucketID    int        `json:"bucket_id"`
	OrderIndex  int        `json:"order_index"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// NaturalBucket is how the snapshot would be labeled against the current windows.
	NaturalBucket string `json:"natural_bucket,omitempty"`
}

// QueueDTO is a read model of a frozen queue.
type QueueDTO struct {
	QueueID        uuid.UUID       `json:"queue_id"`
	WindowStartUTC time.Time       `json:"window_start_utc"`
	WindowEndUTC   time.Time       `json:"window_end_utc"`
	Entries        []QueueEntryDTO `json:"entries"`
	Completed      int             `json:"completed"`
}

// ToQueueDTO maps queue rows to the read model.
func ToQueueDTO(key domain.QueueKey, w domain.SchedulingWindows, entries []*domain.QueueEntry, annotate bool) QueueDTO {
	dto := QueueDTO{
		QueueID:        key.QueueID(),
		WindowStartUTC: w.StartOfDayUTC,
		WindowEndUTC:   w.EndOfDayUTC,
		Entries:        make([]QueueEntryDTO, 0, len(entries)),
	}
	for _, e := range entries {
		item := QueueEntryDTO{
			ID:          e.ID,
			TuneRef:     e.TuneRef,
			Bucket:      e.Bucket.String(),
			BucketID:    int(e.Bucket),
			OrderIndex:  e.OrderIndex,
			DueAt:       e.SnapshotCoalescedTS,
			CompletedAt: e.CompletedAt,
		}
		if annotate {
			item.NaturalBucket = e.NaturalBucket(w).String()
		}
		if e.IsCompleted() {
			dto.Completed++
		}
		dto.Entries = append(dto.Entries, item)
	}
	return dto
}

// GetActiveQueueQuery reads the frozen queue for a learner's day without generating one.
type GetActiveQueueQuery struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	services.WindowParams

	// Annotate adds the natural bucket label of each snapshot.
	Annotate bool
}

// GetActiveQueueHandler handles the GetActiveQueueQuery.
type GetActiveQueueHandler struct {
	store  domain.QueueStore
	prefs  services.PreferencesReader
	logger *slog.Logger
	now    func() time.Time
}

// NewGetActiveQueueHandler creates a new GetActiveQueueHandler.
func NewGetActiveQueueHandler(store domain.QueueStore, prefs services.PreferencesReader, logger *slog.Logger) *GetActiveQueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetActiveQueueHandler{
		store:  store,
		prefs:  prefs,
		logger: logger,
		now:    time.Now,
	}
}

// Handle executes the GetActiveQueueQuery. A missing queue yields an empty DTO.
func (h *GetActiveQueueHandler) Handle(ctx context.Context, query GetActiveQueueQuery) (*QueueDTO, error) {
	prefs, err := h.prefs.Get(ctx, query.UserRef)
	if err != nil {
		return nil, err
	}

	w := query.Windows(h.now, prefs.DelinquencyWindowDays)
	key := domain.NewQueueKey(query.UserRef, query.RepertoireRef, w)

	entries, err := h.store.FindActive(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		h.logger.Debug("no active queue for window", "queue", key.String())
	}

	dto := ToQueueDTO(key, w, entries, query.Annotate)
	return &dto, nil
}
