package persistence

import (
	"database/sql"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
)

// SQLite stores instants as UTC text in domain.TimestampLayout so that
// datetime() normalization and lexical comparison agree.

func sqliteTime(t time.Time) string {
	return domain.FormatTimestamp(t)
}

func sqliteNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: sqliteTime(*t), Valid: true}
}

// parseSQLiteTime treats unparsable values as absent.
func parseSQLiteTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := domain.ParseTimestamp(s.String)
	if err != nil {
		return nil
	}
	return &t
}

func sqliteNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func parseSQLiteInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func sqliteNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func parseSQLiteString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func sqliteBool(b bool) int {
	if b {
		return 1
	}
	return 0
}
