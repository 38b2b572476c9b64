package preferences

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/google/uuid"
)

// Defaults are the configured values used for learners without stored preferences.
type Defaults struct {
	DelinquencyWindowDays int
	MaxDailyReviews       int
	EnableNewItems        bool
}

// BuiltinDefaults mirrors domain.DefaultPreferences.
func BuiltinDefaults() Defaults {
	d := domain.DefaultPreferences(uuid.Nil)
	return Defaults{
		DelinquencyWindowDays: d.DelinquencyWindowDays,
		MaxDailyReviews:       d.MaxDailyReviews,
		EnableNewItems:        d.EnableNewItems,
	}
}

// Update holds a partial change; nil fields keep their current value.
type Update struct {
	DelinquencyWindowDays *int
	MaxDailyReviews       *int
	EnableNewItems        *bool
}

// Service manages practice preferences.
type Service struct {
	repo     domain.PreferencesRepository
	defaults Defaults
}

// NewService creates a preferences service.
func NewService(repo domain.PreferencesRepository, defaults Defaults) *Service {
	return &Service{repo: repo, defaults: defaults}
}

// Get returns the stored preferences, or the configured defaults when none are stored.
func (s *Service) Get(ctx context.Context, userRef uuid.UUID) (domain.Preferences, error) {
	stored, err := s.repo.Find(ctx, userRef)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	if stored == nil {
		return domain.Preferences{
			UserRef:               userRef,
			DelinquencyWindowDays: s.defaults.DelinquencyWindowDays,
			MaxDailyReviews:       s.defaults.MaxDailyReviews,
			EnableNewItems:        s.defaults.EnableNewItems,
		}, nil
	}
	return *stored, nil
}

// Set applies a partial update on top of the current preferences and stores the result.
func (s *Service) Set(ctx context.Context, userRef uuid.UUID, upd Update) (domain.Preferences, error) {
	prefs, err := s.Get(ctx, userRef)
	if err != nil {
		return domain.Preferences{}, err
	}

	if upd.DelinquencyWindowDays != nil {
		prefs.DelinquencyWindowDays = *upd.DelinquencyWindowDays
	}
	if upd.MaxDailyReviews != nil {
		prefs.MaxDailyReviews = *upd.MaxDailyReviews
	}
	if upd.EnableNewItems != nil {
		prefs.EnableNewItems = *upd.EnableNewItems
	}

	if err := prefs.Validate(); err != nil {
		return domain.Preferences{}, err
	}
	if err := s.repo.Save(ctx, prefs); err != nil {
		return domain.Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return prefs, nil
}
