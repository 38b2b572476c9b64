package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteCatalogRepository implements domain.CatalogRepository using SQLite.
type SQLiteCatalogRepository struct {
	conn database.Connection
}

// NewSQLiteCatalogRepository creates a new SQLite catalog repository.
func NewSQLiteCatalogRepository(conn database.Connection) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{conn: conn}
}

// SaveTune inserts or renames a tune and clears its deleted flag.
func (r *SQLiteCatalogRepository) SaveTune(ctx context.Context, tune domain.Tune) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tunes (id, title) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, deleted = 0`,
		tune.ID, tune.Title)
	return err
}

// AddToRepertoire creates or revives a membership.
func (r *SQLiteCatalogRepository) AddToRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO repertoire_tunes (user_ref, repertoire_ref, tune_ref) VALUES (?, ?, ?)
		ON CONFLICT (user_ref, repertoire_ref, tune_ref) DO UPDATE SET deleted = 0`,
		userRef.String(), repertoireRef.String(), tuneRef)
	return err
}

// RemoveFromRepertoire soft-deletes a membership.
func (r *SQLiteCatalogRepository) RemoveFromRepertoire(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE repertoire_tunes SET deleted = 1
		WHERE user_ref = ? AND repertoire_ref = ? AND tune_ref = ? AND deleted = 0`,
		userRef.String(), repertoireRef.String(), tuneRef)
	return requireAffected(result, err)
}

// SetScheduled sets or clears the manual review override.
func (r *SQLiteCatalogRepository) SetScheduled(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, scheduled *time.Time) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE repertoire_tunes SET scheduled = ?
		WHERE user_ref = ? AND repertoire_ref = ? AND tune_ref = ? AND deleted = 0`,
		sqliteNullTime(scheduled), userRef.String(), repertoireRef.String(), tuneRef)
	return requireAffected(result, err)
}

// RecordPractice appends a practice record.
func (r *SQLiteCatalogRepository) RecordPractice(ctx context.Context, userRef, repertoireRef uuid.UUID, tuneRef string, practicedAt, due time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO practice_records (user_ref, repertoire_ref, tune_ref, practiced_at, due)
		VALUES (?, ?, ?, ?, ?)`,
		userRef.String(), repertoireRef.String(), tuneRef, sqliteTime(practicedAt), sqliteTime(due))
	return err
}

func requireAffected(result database.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}
