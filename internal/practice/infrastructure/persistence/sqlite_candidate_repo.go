package persistence

import (
	"context"
	"database/sql"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const sqliteCandidateSelect = `
	SELECT tune_ref, scheduled, latest_due
	FROM practice_candidates
	WHERE user_ref = ? AND repertoire_ref = ?`

// SQLiteCandidateRepository implements domain.CandidateRepository over the practice_candidates view.
type SQLiteCandidateRepository struct {
	conn database.Connection
}

// NewSQLiteCandidateRepository creates a new SQLite candidate repository.
func NewSQLiteCandidateRepository(conn database.Connection) *SQLiteCandidateRepository {
	return &SQLiteCandidateRepository{conn: conn}
}

// HasCandidates reports whether any eligible record exists for the pair.
func (r *SQLiteCandidateRepository) HasCandidates(ctx context.Context, userRef, repertoireRef uuid.UUID) (bool, error) {
	var exists int
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM practice_candidates WHERE user_ref = ? AND repertoire_ref = ?
		)`, userRef.String(), repertoireRef.String()).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// FindDueToday returns Q1 candidates, earliest due first.
func (r *SQLiteCandidateRepository) FindDueToday(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND COALESCE(scheduled, latest_due) >= ?
		AND COALESCE(scheduled, latest_due) < ?
		ORDER BY COALESCE(scheduled, latest_due) ASC, tune_ref ASC
		LIMIT ?`,
		q.Windows.StartOfDay(), q.Windows.EndOfDay(), q.Limit)
}

// FindRecentlyLapsed returns Q2 candidates, least overdue first.
func (r *SQLiteCandidateRepository) FindRecentlyLapsed(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND COALESCE(scheduled, latest_due) >= ?
		AND COALESCE(scheduled, latest_due) < ?
		ORDER BY COALESCE(scheduled, latest_due) DESC, tune_ref ASC
		LIMIT ?`,
		q.Windows.WindowFloor(), q.Windows.StartOfDay(), q.Limit)
}

// FindNew returns Q3 candidates ordered by tune ref.
func (r *SQLiteCandidateRepository) FindNew(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND scheduled IS NULL
		AND (latest_due IS NULL OR latest_due < ?)
		ORDER BY tune_ref ASC
		LIMIT ?`,
		q.Windows.WindowFloor(), q.Limit)
}

// FindStaleUnscheduled returns practiced-long-ago, never-scheduled candidates ordered by tune ref.
func (r *SQLiteCandidateRepository) FindStaleUnscheduled(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND scheduled IS NULL
		AND latest_due IS NOT NULL
		AND latest_due < ?
		ORDER BY tune_ref ASC
		LIMIT ?`,
		q.Windows.WindowFloor(), q.Limit)
}

// FindOldLapsed returns Q4 candidates, most overdue first.
func (r *SQLiteCandidateRepository) FindOldLapsed(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND scheduled IS NOT NULL
		AND scheduled < ?
		ORDER BY scheduled ASC, tune_ref ASC
		LIMIT ?`,
		q.Windows.WindowFloor(), q.Limit)
}

// FindBacklog returns candidates due before the floor, closest to due first.
func (r *SQLiteCandidateRepository) FindBacklog(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND COALESCE(scheduled, latest_due) < ?
		ORDER BY COALESCE(scheduled, latest_due) DESC, tune_ref ASC
		LIMIT ?`,
		q.Windows.WindowFloor(), q.Limit)
}

func (r *SQLiteCandidateRepository) find(ctx context.Context, q domain.CandidateQuery, predicate string, args ...any) ([]domain.CandidateRecord, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	all := append([]any{q.UserRef.String(), q.RepertoireRef.String()}, args...)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, sqliteCandidateSelect+predicate, all...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CandidateRecord
	for rows.Next() {
		var (
			rec                  domain.CandidateRecord
			scheduled, latestDue sql.NullString
		)
		if err := rows.Scan(&rec.TuneRef, &scheduled, &latestDue); err != nil {
			return nil, err
		}
		rec.Scheduled = parseSQLiteTime(scheduled)
		rec.LatestDue = parseSQLiteTime(latestDue)
		records = append(records, rec)
	}
	return records, rows.Err()
}
