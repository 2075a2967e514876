package oplog

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	msg := "Conversion timed out"
	entry := Entry{
		ID:        "8b0c5c4e-7d59-4a8e-a0e1-1f0d3f7d3c11",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Operation: OpConversion,
		FilePath:  "uploads/a.rtf",
		FileName:  "a.rtf",
		Status:    StatusFailure,
		Details:   map[string]any{"conversion_method": "libreoffice"},
		Error:     &msg,
	}

	mock.ExpectExec("INSERT INTO operation_log").
		WithArgs(
			entry.ID,
			entry.Timestamp,
			entry.Operation,
			entry.FilePath,
			entry.FileName,
			entry.Status,
			`{"conversion_method":"libreoffice"}`,
			msg,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ts := since.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "ts", "operation", "file_path", "file_name", "status", "details", "error"}).
		AddRow("id-1", ts, OpValidation, "uploads/a.docx", "a.docx", StatusSuccess, `{"is_valid_docx":true}`, nil).
		AddRow("id-2", ts, OpConversion, "uploads/b.doc", "b.doc", StatusFailure, nil, "boom")

	mock.ExpectQuery("SELECT id, ts, operation").
		WithArgs(since).
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	entries, err := repo.ListSince(context.Background(), since)
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Details["is_valid_docx"] != true || entries[0].Error != nil {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Error == nil || *entries[1].Error != "boom" || len(entries[1].Details) != 0 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
