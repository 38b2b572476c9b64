package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresCatalogRepository implements domain.CatalogRepository using PostgreSQL.
type PostgresCatalogRepository struct {
	conn database.Connection
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository.
func NewPostgresCatalogRepository(conn database.Connection) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{conn: conn}
}

func (r *PostgresCatalogRepository) SaveTune(ctx context.Context, tune domain.Tune) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tunes (id, title) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, deleted = FALSE`,
		tune.ID, tune.Title)
	return err
}

func (r *PostgresCatalogRepository) AddToRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO repertoire_tunes (user_ref, repertoire_ref, tune_ref) VALUES ($1, $2, $3)
		ON CONFLICT (user_ref, repertoire_ref, tune_ref) DO UPDATE SET deleted = FALSE`,
		userRef, repertoireRef, tuneRef)
	return err
}

func (r *PostgresCatalogRepository) RemoveFromRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE repertoire_tunes SET deleted = TRUE
		WHERE user_ref = $1 AND repertoire_ref = $2 AND tune_ref = $3 AND NOT deleted`,
		userRef, repertoireRef, tuneRef)
	return requireAffected(result, err)
}

func (r *PostgresCatalogRepository) SetScheduled(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, scheduled *time.Time) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE repertoire_tunes SET scheduled = $4
		WHERE user_ref = $1 AND repertoire_ref = $2 AND tune_ref = $3 AND NOT deleted`,
		userRef, repertoireRef, tuneRef, scheduled)
	return requireAffected(result, err)
}

func (r *PostgresCatalogRepository) RecordPractice(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, practicedAt, due time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO practice_records (user_ref, repertoire_ref, tune_ref, practiced_at, due)
		VALUES ($1, $2, $3, $4, $5)`,
		userRef, repertoireRef, tuneRef, practicedAt.UTC(), due.UTC())
	return err
}
