package oplog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteRepo implements Repo on SQLite. Timestamps are stored as RFC 3339
// text in UTC so they sort lexically.
type SQLiteRepo struct {
	DB *sql.DB
}

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Append inserts an entry.
func (r *SQLiteRepo) Append(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO operation_log (id, ts, operation, file_path, file_name, status, details, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	details, err := marshalDetails(entry.Details)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp.UTC().Format(sqliteTimeLayout),
		entry.Operation,
		entry.FilePath,
		entry.FileName,
		entry.Status,
		details,
		nullString(entry.Error),
	)
	return err
}

// ListSince returns entries at or after since, oldest first.
func (r *SQLiteRepo) ListSince(ctx context.Context, since time.Time) ([]Entry, error) {
	const query = `
SELECT id, ts, operation, file_path, file_name, status, details, error
FROM operation_log
WHERE ts >= ?
ORDER BY ts ASC`
	rows, err := r.DB.QueryContext(ctx, query, since.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var details sql.NullString
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Operation, &e.FilePath, &e.FileName, &e.Status, &details, &errMsg); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(sqliteTimeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse ts %q: %w", ts, err)
		}
		e.Timestamp = parsed
		e.Details = unmarshalDetails(details)
		if errMsg.Valid {
			msg := errMsg.String
			e.Error = &msg
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
