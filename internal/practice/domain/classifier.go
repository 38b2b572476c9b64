package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrUnparsableTimestamp is returned when a timestamp matches none of the accepted layouts.
var ErrUnparsableTimestamp = errors.New("unparsable timestamp")

// zoneless layouts are interpreted as UTC.
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a stored timestamp into a UTC instant.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrUnparsableTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrUnparsableTimestamp
}

// ClassifyStrict labels a coalesced timestamp with its natural bucket.
// It never yields BucketNew: "new" means no due signal at all, not a timestamp value.
// Absent or unparsable input yields BucketDueToday together with ErrUnparsableTimestamp.
func ClassifyStrict(raw string, w SchedulingWindows) (Bucket, error) {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return BucketDueToday, err
	}
	return ClassifyTime(t, w), nil
}

// Classify is ClassifyStrict with the lenient default: any parse failure counts as due today.
func Classify(raw string, w SchedulingWindows) Bucket {
	b, _ := ClassifyStrict(raw, w)
	return b
}

// ClassifyTime labels an instant against the windows.
func ClassifyTime(t time.Time, w SchedulingWindows) Bucket {
	t = t.UTC()
	switch {
	case !t.Before(w.StartOfDayUTC) && t.Before(w.EndOfDayUTC):
		return BucketDueToday
	case !t.Before(w.WindowFloorUTC) && t.Before(w.StartOfDayUTC):
		return BucketRecentlyLapsed
	default:
		return BucketOldLapsed
	}
}
