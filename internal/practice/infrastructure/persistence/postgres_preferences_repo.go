package persistence

import (
	"context"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresPreferencesRepository implements domain.PreferencesRepository using PostgreSQL.
type PostgresPreferencesRepository struct {
	conn database.Connection
}

// NewPostgresPreferencesRepository creates a new PostgreSQL preferences repository.
func NewPostgresPreferencesRepository(conn database.Connection) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{conn: conn}
}

func (r *PostgresPreferencesRepository) Find(ctx context.Context, userRef uuid.UUID) (*domain.Preferences, error) {
	p := domain.Preferences{UserRef: userRef}
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT delinquency_window_days, max_daily_reviews, enable_new_items
		FROM practice_preferences
		WHERE user_ref = $1`, userRef).Scan(&p.DelinquencyWindowDays, &p.MaxDailyReviews, &p.EnableNewItems)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPreferencesRepository) Save(ctx context.Context, p domain.Preferences) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO practice_preferences (user_ref, delinquency_window_days, max_daily_reviews, enable_new_items, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_ref) DO UPDATE SET
			delinquency_window_days = EXCLUDED.delinquency_window_days,
			max_daily_reviews = EXCLUDED.max_daily_reviews,
			enable_new_items = EXCLUDED.enable_new_items,
			updated_at = EXCLUDED.updated_at`,
		p.UserRef, p.DelinquencyWindowDays, p.MaxDailyReviews, p.EnableNewItems)
	return err
}
