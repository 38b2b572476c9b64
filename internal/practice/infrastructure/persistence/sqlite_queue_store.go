package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const queueColumns = `
	id, user_ref, repertoire_ref, window_start_utc, window_end_utc, tune_ref,
	bucket, order_index, snapshot_coalesced_ts, scheduled_snapshot, latest_due_snapshot,
	generated_at, completed_at, exposures_required, exposures_completed, outcome, active`

// SQLiteQueueStore implements domain.QueueStore using SQLite.
type SQLiteQueueStore struct {
	conn database.Connection
}

// NewSQLiteQueueStore creates a new SQLite queue store.
func NewSQLiteQueueStore(conn database.Connection) *SQLiteQueueStore {
	return &SQLiteQueueStore{conn: conn}
}

// FindActive returns the active rows for key ordered by order index.
func (s *SQLiteQueueStore) FindActive(ctx context.Context, key domain.QueueKey) ([]*domain.QueueEntry, error) {
	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, `
		SELECT`+queueColumns+`
		FROM practice_queue
		WHERE user_ref = ? AND repertoire_ref = ? AND window_start_utc = ? AND active = 1
		ORDER BY order_index ASC`,
		key.UserRef.String(), key.RepertoireRef.String(), sqliteTime(key.WindowStartUTC))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.QueueEntry
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertEntries stores entries, mapping a uniqueness violation to domain.ErrQueueConflict.
func (s *SQLiteQueueStore) InsertEntries(ctx context.Context, entries []*domain.QueueEntry) error {
	exec := database.ExecutorFromContext(ctx, s.conn)
	for _, e := range entries {
		_, err := exec.Exec(ctx, `
			INSERT INTO practice_queue (`+queueColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(),
			e.UserRef.String(),
			e.RepertoireRef.String(),
			sqliteTime(e.WindowStartUTC),
			sqliteTime(e.WindowEndUTC),
			e.TuneRef,
			int(e.Bucket),
			e.OrderIndex,
			sqliteNullTime(e.SnapshotCoalescedTS),
			sqliteNullTime(e.ScheduledSnapshot),
			sqliteNullTime(e.LatestDueSnapshot),
			sqliteTime(e.GeneratedAt),
			sqliteNullTime(e.CompletedAt),
			sqliteNullInt(e.ExposuresRequired),
			sqliteNullInt(e.ExposuresCompleted),
			sqliteNullString(e.Outcome),
			sqliteBool(e.Active),
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

// DeleteByKey hard-deletes every row for key.
func (s *SQLiteQueueStore) DeleteByKey(ctx context.Context, key domain.QueueKey) (int64, error) {
	result, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, `
		DELETE FROM practice_queue
		WHERE user_ref = ? AND repertoire_ref = ? AND window_start_utc = ?`,
		key.UserRef.String(), key.RepertoireRef.String(), sqliteTime(key.WindowStartUTC))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Update persists the review fields of an entry.
func (s *SQLiteQueueStore) Update(ctx context.Context, e *domain.QueueEntry) error {
	result, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, `
		UPDATE practice_queue
		SET completed_at = ?, exposures_required = ?, exposures_completed = ?, outcome = ?, active = ?
		WHERE id = ?`,
		sqliteNullTime(e.CompletedAt),
		sqliteNullInt(e.ExposuresRequired),
		sqliteNullInt(e.ExposuresCompleted),
		sqliteNullString(e.Outcome),
		sqliteBool(e.Active),
		e.ID.String(),
	)
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

func scanSQLiteEntry(row database.Row) (*domain.QueueEntry, error) {
	var (
		id, userRef, repertoireRef  string
		windowStart, windowEnd      string
		generatedAt                 string
		snapshot, scheduled, latest sql.NullString
		completedAt, outcome        sql.NullString
		exposuresReq, exposuresDone sql.NullInt64
		bucket, active              int
		e                           domain.QueueEntry
	)
	err := row.Scan(
		&id, &userRef, &repertoireRef, &windowStart, &windowEnd, &e.TuneRef,
		&bucket, &e.OrderIndex, &snapshot, &scheduled, &latest,
		&generatedAt, &completedAt, &exposuresReq, &exposuresDone, &outcome, &active,
	)
	if err != nil {
		return nil, err
	}

	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("queue entry id: %w", err)
	}
	if e.UserRef, err = uuid.Parse(userRef); err != nil {
		return nil, fmt.Errorf("queue entry user: %w", err)
	}
	if e.RepertoireRef, err = uuid.Parse(repertoireRef); err != nil {
		return nil, fmt.Errorf("queue entry repertoire: %w", err)
	}
	if e.WindowStartUTC, err = domain.ParseTimestamp(windowStart); err != nil {
		return nil, fmt.Errorf("queue entry window start: %w", err)
	}
	if e.WindowEndUTC, err = domain.ParseTimestamp(windowEnd); err != nil {
		return nil, fmt.Errorf("queue entry window end: %w", err)
	}
	if t := parseSQLiteTime(sql.NullString{String: generatedAt, Valid: true}); t != nil {
		e.GeneratedAt = *t
	}

	e.Bucket = domain.Bucket(bucket)
	e.SnapshotCoalescedTS = parseSQLiteTime(snapshot)
	e.ScheduledSnapshot = parseSQLiteTime(scheduled)
	e.LatestDueSnapshot = parseSQLiteTime(latest)
	e.CompletedAt = parseSQLiteTime(completedAt)
	e.ExposuresRequired = parseSQLiteInt(exposuresReq)
	e.ExposuresCompleted = parseSQLiteInt(exposuresDone)
	e.Outcome = parseSQLiteString(outcome)
	e.Active = active == 1
	return &e, nil
}
