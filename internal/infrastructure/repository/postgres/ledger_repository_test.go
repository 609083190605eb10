package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

func newLedgerWithMock(t *testing.T) (*LedgerRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &LedgerRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetReturnsNilForUnknownHash(t *testing.T) {
	repo, mock, done := newLedgerWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT content_hash, original_path").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"content_hash", "original_path", "processed_at", "chunk_count", "doc_type", "quality_score",
		}))

	entry, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry != nil {
		t.Fatalf("entry = %+v, want nil", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetScansEntry(t *testing.T) {
	repo, mock, done := newLedgerWithMock(t)
	defer done()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT content_hash, original_path").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{
			"content_hash", "original_path", "processed_at", "chunk_count", "doc_type", "quality_score",
		}).AddRow("abc", "/docs/a.pdf", at, 12, "norms", 85.5))

	entry, err := repo.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.DocType != domain.TypeNorms || entry.ChunkCount != 12 {
		t.Fatalf("entry = %+v", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPutUpsertsOnConflict(t *testing.T) {
	repo, mock, done := newLedgerWithMock(t)
	defer done()

	entry := domain.LedgerEntry{
		ContentHash:  "abc",
		OriginalPath: "/docs/a.pdf",
		ProcessedAt:  time.Now().UTC(),
		ChunkCount:   7,
		DocType:      domain.TypeSmeta,
		QualityScore: 70,
	}
	mock.ExpectExec("INSERT INTO processed_files").
		WithArgs(entry.ContentHash, entry.OriginalPath, entry.ProcessedAt, entry.ChunkCount,
			string(entry.DocType), entry.QualityScore).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Put(context.Background(), entry); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMoveHistoryPopLastEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := &MoveHistoryRepository{db: db}

	mock.ExpectQuery("DELETE FROM move_history").
		WillReturnRows(sqlmock.NewRows([]string{"moved_at", "original_path", "new_path", "doc_type", "reason"}))

	move, err := repo.PopLast(context.Background())
	if err != nil {
		t.Fatalf("PopLast() error = %v", err)
	}
	if move != nil {
		t.Fatalf("move = %+v, want nil", move)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMoveHistoryAppendAndPop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()
	repo := &MoveHistoryRepository{db: db}

	move := domain.Move{
		Timestamp:    time.Now().UTC(),
		OriginalPath: "/inbox/a.pdf",
		NewPath:      "/docs/01_НОРМАТИВЫ/a.pdf",
		DocType:      domain.TypeNorms,
		Reason:       "classified",
	}
	mock.ExpectExec("INSERT INTO move_history").
		WithArgs(move.Timestamp, move.OriginalPath, move.NewPath, string(move.DocType), move.Reason).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("DELETE FROM move_history").
		WillReturnRows(sqlmock.NewRows([]string{"moved_at", "original_path", "new_path", "doc_type", "reason"}).
			AddRow(move.Timestamp, move.OriginalPath, move.NewPath, string(move.DocType), move.Reason))

	if err := repo.Append(context.Background(), move); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	got, err := repo.PopLast(context.Background())
	if err != nil {
		t.Fatalf("PopLast() error = %v", err)
	}
	if got == nil || got.NewPath != move.NewPath || got.DocType != domain.TypeNorms {
		t.Fatalf("move = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
