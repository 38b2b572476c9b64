package domain

import "time"

const (
	// DefaultDelinquencyWindowDays is how many days past due still count as recently lapsed.
	DefaultDelinquencyWindowDays = 7

	// TimestampLayout is the canonical one-second resolution form used for stored timestamps.
	TimestampLayout = "2006-01-02 15:04:05"
)

// SchedulingWindows bounds "today" in the learner's local calendar, expressed in UTC.
type SchedulingWindows struct {
	StartOfDayUTC  time.Time
	EndOfDayUTC    time.Time
	WindowFloorUTC time.Time

	DelinquencyWindowDays int
}

// ComputeWindows derives the scheduling windows for an anchor instant.
//
// A non-nil tzOffsetMinutes shifts the anchor into local wall-clock time before
// truncating to midnight and shifts the result back to UTC. A nil offset treats
// the anchor's UTC calendar date as the local date.
func ComputeWindows(anchor time.Time, delinquencyWindowDays int, tzOffsetMinutes *int) SchedulingWindows {
	if delinquencyWindowDays < 0 {
		delinquencyWindowDays = 0
	}

	utc := anchor.UTC()
	var start time.Time
	if tzOffsetMinutes != nil {
		offset := time.Duration(*tzOffsetMinutes) * time.Minute
		local := utc.Add(offset)
		start = midnight(local).Add(-offset)
	} else {
		start = midnight(utc)
	}

	return SchedulingWindows{
		StartOfDayUTC:         start,
		EndOfDayUTC:           start.Add(24 * time.Hour),
		WindowFloorUTC:        start.Add(-time.Duration(delinquencyWindowDays) * 24 * time.Hour),
		DelinquencyWindowDays: delinquencyWindowDays,
	}
}

// StartOfDay returns the canonical string form of StartOfDayUTC.
func (w SchedulingWindows) StartOfDay() string {
	return FormatTimestamp(w.StartOfDayUTC)
}

// EndOfDay returns the canonical string form of EndOfDayUTC.
func (w SchedulingWindows) EndOfDay() string {
	return FormatTimestamp(w.EndOfDayUTC)
}

// WindowFloor returns the canonical string form of WindowFloorUTC.
func (w SchedulingWindows) WindowFloor() string {
	return FormatTimestamp(w.WindowFloorUTC)
}

// FormatTimestamp renders t in UTC at one-second resolution.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
