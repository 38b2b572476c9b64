package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
)

// PreferencesReader resolves the learner's effective preferences.
type PreferencesReader interface {
	Get(ctx context.Context, userRef uuid.UUID) (domain.Preferences, error)
}

// WindowParams are the caller-supplied inputs that locate a queue in time.
type WindowParams struct {
	// Anchor defaults to now when zero.
	Anchor time.Time

	// TZOffsetMinutes is the learner's local offset from UTC. Nil means the anchor's UTC date.
	TZOffsetMinutes *int
}

// AnchorOr returns the anchor in UTC, or now when unset.
func (p WindowParams) AnchorOr(now func() time.Time) time.Time {
	if p.Anchor.IsZero() {
		return now().UTC()
	}
	return p.Anchor.UTC()
}

// Windows computes the scheduling windows for these params.
func (p WindowParams) Windows(now func() time.Time, delinquencyWindowDays int) domain.SchedulingWindows {
	return domain.ComputeWindows(p.AnchorOr(now), delinquencyWindowDays, p.TZOffsetMinutes)
}
