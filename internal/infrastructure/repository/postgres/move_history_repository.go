package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// MoveHistoryRepository is the append-only log of router moves. Undo pops
// the newest row.
type MoveHistoryRepository struct {
	db *sql.DB
}

func NewMoveHistoryRepository(db *sql.DB) *MoveHistoryRepository {
	return &MoveHistoryRepository{db: db}
}

func (r *MoveHistoryRepository) Append(ctx context.Context, move domain.Move) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO move_history (moved_at, original_path, new_path, doc_type, reason)
VALUES ($1,$2,$3,$4,$5)
`, move.Timestamp, move.OriginalPath, move.NewPath, string(move.DocType), move.Reason)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// PopLast deletes and returns the most recent move, or nil when the log is
// empty.
func (r *MoveHistoryRepository) PopLast(ctx context.Context) (*domain.Move, error) {
	row := r.db.QueryRowContext(ctx, `
DELETE FROM move_history
WHERE id = (SELECT id FROM move_history ORDER BY id DESC LIMIT 1)
RETURNING moved_at, original_path, new_path, doc_type, reason
`)

	var move domain.Move
	var docType string
	err := row.Scan(&move.Timestamp, &move.OriginalPath, &move.NewPath, &docType, &move.Reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop move: %w", err)
	}
	move.DocType = domain.DocType(docType)
	return &move, nil
}
