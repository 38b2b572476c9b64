package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	// DefaultMaxDailyReviews caps the daily queue. Zero means uncapped.
	DefaultMaxDailyReviews = 10
)

var ErrInvalidPreferences = errors.New("invalid practice preferences")

// Preferences holds the per-learner knobs that shape queue generation.
type Preferences struct {
	UserRef               uuid.UUID
	DelinquencyWindowDays int
	MaxDailyReviews       int

	// EnableNewItems admits never-practiced items into the new bucket.
	EnableNewItems bool
}

// DefaultPreferences returns the preferences used when a learner has stored none.
func DefaultPreferences(userRef uuid.UUID) Preferences {
	return Preferences{
		UserRef:               userRef,
		DelinquencyWindowDays: DefaultDelinquencyWindowDays,
		MaxDailyReviews:       DefaultMaxDailyReviews,
		EnableNewItems:        true,
	}
}

// Validate checks the preference bounds.
func (p Preferences) Validate() error {
	if p.DelinquencyWindowDays < 0 {
		return errors.Join(ErrInvalidPreferences, errors.New("delinquency window must not be negative"))
	}
	if p.MaxDailyReviews < 0 {
		return errors.Join(ErrInvalidPreferences, errors.New("max daily reviews must not be negative"))
	}
	return nil
}
