package oplog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts an entry.
func (r *PGRepo) Append(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO operation_log (id, ts, operation, file_path, file_name, status, details, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	details, err := marshalDetails(entry.Details)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
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
func (r *PGRepo) ListSince(ctx context.Context, since time.Time) ([]Entry, error) {
	const query = `
SELECT id, ts, operation, file_path, file_name, status, details, error
FROM operation_log
WHERE ts >= $1
ORDER BY ts ASC`
	rows, err := r.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var details sql.NullString
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Operation, &e.FilePath, &e.FileName, &e.Status, &details, &errMsg); err != nil {
			return nil, err
		}
		e.Details = unmarshalDetails(details)
		if errMsg.Valid {
			msg := errMsg.String
			e.Error = &msg
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func marshalDetails(details map[string]any) (string, error) {
	if details == nil {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalDetails(raw sql.NullString) map[string]any {
	out := map[string]any{}
	if !raw.Valid || raw.String == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		return map[string]any{}
	}
	return out
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
