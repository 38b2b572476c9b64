package queries

import (
	"log/slog"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/services"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
)

// ClassifyTimestampQuery labels a raw due timestamp against a day's windows.
type ClassifyTimestampQuery struct {
	Timestamp string
	services.WindowParams
	DelinquencyWindowDays int
}

// ClassificationDTO is the classifier's answer.
type ClassificationDTO struct {
	Bucket   string                   `json:"bucket"`
	BucketID int                      `json:"bucket_id"`
	Lenient  bool                     `json:"lenient"`
	Windows  domain.SchedulingWindows `json:"-"`
}

// ClassifyTimestampHandler handles the ClassifyTimestampQuery.
type ClassifyTimestampHandler struct {
	logger  *slog.Logger
	metrics observability.Metrics
	now     func() time.Time
}

// NewClassifyTimestampHandler creates a new ClassifyTimestampHandler.
func NewClassifyTimestampHandler(logger *slog.Logger, metrics observability.Metrics) *ClassifyTimestampHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ClassifyTimestampHandler{logger: logger, metrics: metrics, now: time.Now}
}

// Handle executes the ClassifyTimestampQuery. Absent or unparsable input falls back to
// due today, which is recorded so corrupt data stays visible.
func (h *ClassifyTimestampHandler) Handle(query ClassifyTimestampQuery) ClassificationDTO {
	w := query.Windows(h.now, query.DelinquencyWindowDays)

	bucket, err := domain.ClassifyStrict(query.Timestamp, w)
	lenient := err != nil
	if lenient {
		bucket = domain.BucketDueToday
		h.metrics.Counter(observability.MetricClassifierLenientDefault, 1)
		h.logger.Warn("timestamp not classifiable, defaulting to due today",
			"timestamp", query.Timestamp,
			"error", err,
		)
	}

	return ClassificationDTO{
		Bucket:   bucket.String(),
		BucketID: int(bucket),
		Lenient:  lenient,
		Windows:  w,
	}
}
