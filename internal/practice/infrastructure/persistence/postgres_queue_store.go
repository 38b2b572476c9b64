package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
)

// PostgresQueueStore implements domain.QueueStore using PostgreSQL.
type PostgresQueueStore struct {
	conn database.Connection
}

// NewPostgresQueueStore creates a new PostgreSQL queue store.
func NewPostgresQueueStore(conn database.Connection) *PostgresQueueStore {
	return &PostgresQueueStore{conn: conn}
}

func (s *PostgresQueueStore) FindActive(ctx context.Context, key domain.QueueKey) ([]*domain.QueueEntry, error) {
	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, `
		SELECT`+queueColumns+`
		FROM practice_queue
		WHERE user_ref = $1 AND repertoire_ref = $2 AND window_start_utc = $3 AND active
		ORDER BY order_index ASC`,
		key.UserRef, key.RepertoireRef, key.WindowStartUTC)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.QueueEntry
	for rows.Next() {
		e, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresQueueStore) InsertEntries(ctx context.Context, entries []*domain.QueueEntry) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	for _, e := range entries {
		_, err := exec.Exec(ctx, `
			INSERT INTO practice_queue (`+queueColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			e.ID,
			e.UserRef,
			e.RepertoireRef,
			e.WindowStartUTC,
			e.WindowEndUTC,
			e.TuneRef,
			int(e.Bucket),
			e.OrderIndex,
			e.SnapshotCoalescedTS,
			e.ScheduledSnapshot,
			e.LatestDueSnapshot,
			e.GeneratedAt,
			e.CompletedAt,
			e.ExposuresRequired,
			e.ExposuresCompleted,
			e.Outcome,
			e.Active,
		)
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", e.TuneRef, domain.ErrQueueConflict)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresQueueStore) DeleteByKey(ctx context.Context, key domain.QueueKey) (int64, error) {
	result, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, `
		DELETE FROM practice_queue
		WHERE user_ref = $1 AND repertoire_ref = $2 AND window_start_utc = $3`,
		key.UserRef, key.RepertoireRef, key.WindowStartUTC)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *PostgresQueueStore) Update(ctx context.Context, e *domain.QueueEntry) error {
	result, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, `
		UPDATE practice_queue
		SET completed_at = $1, exposures_required = $2, exposures_completed = $3, outcome = $4, active = $5
		WHERE id = $6`,
		e.CompletedAt, e.ExposuresRequired, e.ExposuresCompleted, e.Outcome, e.Active, e.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func scanPostgresEntry(row database.Row) (*domain.QueueEntry, error) {
	var (
		e                           domain.QueueEntry
		bucket                      int16
		snapshot, scheduled, latest *time.Time
		completedAt                 *time.Time
		exposuresReq, exposuresDone *int32
	)
	err := row.Scan(
		&e.ID, &e.UserRef, &e.RepertoireRef, &e.WindowStartUTC, &e.WindowEndUTC, &e.TuneRef,
		&bucket, &e.OrderIndex, &snapshot, &scheduled, &latest,
		&e.GeneratedAt, &completedAt, &exposuresReq, &exposuresDone, &e.Outcome, &e.Active,
	)
	if err != nil {
		return nil, err
	}

	e.WindowStartUTC = e.WindowStartUTC.UTC()
	e.WindowEndUTC = e.WindowEndUTC.UTC()
	e.GeneratedAt = e.GeneratedAt.UTC()
	e.Bucket = domain.Bucket(bucket)
	e.SnapshotCoalescedTS = utcPtr(snapshot)
	e.ScheduledSnapshot = utcPtr(scheduled)
	e.LatestDueSnapshot = utcPtr(latest)
	e.CompletedAt = utcPtr(completedAt)
	e.ExposuresRequired = intPtr(exposuresReq)
	e.ExposuresCompleted = intPtr(exposuresDone)
	return &e, nil
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
