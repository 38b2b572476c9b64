package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const postgresCandidateSelect = `
	SELECT tune_ref, scheduled, latest_due
	FROM practice_candidates
	WHERE user_ref = $1 AND repertoire_ref = $2`

// PostgresCandidateRepository implements domain.CandidateRepository using PostgreSQL.
type PostgresCandidateRepository struct {
	conn database.Connection
}

// NewPostgresCandidateRepository creates a new PostgreSQL candidate repository.
func NewPostgresCandidateRepository(conn database.Connection) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{conn: conn}
}

func (r *PostgresCandidateRepository) HasCandidates(ctx context.Context, userRef, repertoireRef uuid.UUID) (bool, error) {
	var exists bool
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM practice_candidates WHERE user_ref = $1 AND repertoire_ref = $2
		)`, userRef, repertoireRef).Scan(&exists)
	return exists, err
}

func (r *PostgresCandidateRepository) FindDueToday(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND COALESCE(scheduled, latest_due) >= $3
		AND COALESCE(scheduled, latest_due) < $4
		ORDER BY COALESCE(scheduled, latest_due) ASC, tune_ref ASC
		LIMIT $5`,
		q.Windows.StartOfDayUTC, q.Windows.EndOfDayUTC, q.Limit)
}

func (r *PostgresCandidateRepository) FindRecentlyLapsed(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND COALESCE(scheduled, latest_due) >= $3
		AND COALESCE(scheduled, latest_due) < $4
		ORDER BY COALESCE(scheduled, latest_due) DESC, tune_ref ASC
		LIMIT $5`,
		q.Windows.WindowFloorUTC, q.Windows.StartOfDayUTC, q.Limit)
}

func (r *PostgresCandidateRepository) FindNew(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND scheduled IS NULL
		AND (latest_due IS NULL OR latest_due < $3)
		ORDER BY tune_ref ASC
		LIMIT $4`,
		q.Windows.WindowFloorUTC, q.Limit)
}

func (r *PostgresCandidateRepository) FindStaleUnscheduled(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND scheduled IS NULL
		AND latest_due IS NOT NULL
		AND latest_due < $3
		ORDER BY tune_ref ASC
		LIMIT $4`,
		q.Windows.WindowFloorUTC, q.Limit)
}

func (r *PostgresCandidateRepository) FindOldLapsed(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND scheduled IS NOT NULL
		AND scheduled < $3
		ORDER BY scheduled ASC, tune_ref ASC
		LIMIT $4`,
		q.Windows.WindowFloorUTC, q.Limit)
}

func (r *PostgresCandidateRepository) FindBacklog(ctx context.Context, q domain.CandidateQuery) ([]domain.CandidateRecord, error) {
	return r.find(ctx, q, `
		AND COALESCE(scheduled, latest_due) < $3
		ORDER BY COALESCE(scheduled, latest_due) DESC, tune_ref ASC
		LIMIT $4`,
		q.Windows.WindowFloorUTC, q.Limit)
}

func (r *PostgresCandidateRepository) find(ctx context.Context, q domain.CandidateQuery, predicate string, args ...any) ([]domain.CandidateRecord, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	all := append([]any{q.UserRef, q.RepertoireRef}, args...)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, postgresCandidateSelect+predicate, all...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CandidateRecord
	for rows.Next() {
		var (
			rec                  domain.CandidateRecord
			scheduled, latestDue *time.Time
		)
		if err := rows.Scan(&rec.TuneRef, &scheduled, &latestDue); err != nil {
			return nil, err
		}
		rec.Scheduled = utcPtr(scheduled)
		rec.LatestDue = utcPtr(latestDue)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
