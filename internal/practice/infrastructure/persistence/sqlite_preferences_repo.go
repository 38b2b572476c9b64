package persistence

import (
	"context"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLitePreferencesRepository implements domain.PreferencesRepository using SQLite.
type SQLitePreferencesRepository struct {
	conn database.Connection
}

// NewSQLitePreferencesRepository creates a new SQLite preferences repository.
func NewSQLitePreferencesRepository(conn database.Connection) *SQLitePreferencesRepository {
	return &SQLitePreferencesRepository{conn: conn}
}

// Find returns nil when the learner has no stored preferences.
func (r *SQLitePreferencesRepository) Find(ctx context.Context, userRef uuid.UUID) (*domain.Preferences, error) {
	var (
		p         = domain.Preferences{UserRef: userRef}
		enableNew int
	)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT delinquency_window_days, max_daily_reviews, enable_new_items
		FROM practice_preferences
		WHERE user_ref = ?`, userRef.String()).Scan(&p.DelinquencyWindowDays, &p.MaxDailyReviews, &enableNew)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.EnableNewItems = enableNew == 1
	return &p, nil
}

// Save upserts the learner's preferences.
func (r *SQLitePreferencesRepository) Save(ctx context.Context, p domain.Preferences) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO practice_preferences (user_ref, delinquency_window_days, max_daily_reviews, enable_new_items, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (user_ref) DO UPDATE SET
			delinquency_window_days = excluded.delinquency_window_days,
			max_daily_reviews = excluded.max_daily_reviews,
			enable_new_items = excluded.enable_new_items,
			updated_at = excluded.updated_at`,
		p.UserRef.String(), p.DelinquencyWindowDays, p.MaxDailyReviews, sqliteBool(p.EnableNewItems))
	return err
}
