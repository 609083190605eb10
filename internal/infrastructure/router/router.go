// Package router relocates ingested files into a category folder tree and
// keeps an undo log of every move.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

type Router struct {
	baseDir       string
	taxonomy      Taxonomy
	history       ports.MoveHistory
	minConfidence float64
	log           *slog.Logger
}

func New(baseDir string, taxonomy Taxonomy, history ports.MoveHistory, minConfidence float64, log *slog.Logger) *Router {
	return &Router{
		baseDir:       baseDir,
		taxonomy:      taxonomy,
		history:       history,
		minConfidence: minConfidence,
		log:           log,
	}
}

// Route moves the file into its category folder and returns the new path.
// Low-confidence verdicts fall back to filename keywords before landing in
// the catch-all folder. The move is recorded before the rename so a crash
// between the two leaves a traceable log entry.
func (r *Router) Route(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo) (string, error) {
	name := filepath.Base(file.Path)
	reason := "classified"

	if info.Confidence < r.minConfidence || info.Type == domain.TypeOther {
		if typ, subtype, ok := r.taxonomy.keywordFallback(name); ok {
			info = domain.DocTypeInfo{Type: typ, Subtype: subtype, Confidence: info.Confidence}
			reason = "filename_keywords"
		} else {
			info = domain.DocTypeInfo{Type: domain.TypeOther, Confidence: info.Confidence}
			reason = "low_confidence"
		}
	}

	targetDir := filepath.Join(r.baseDir, r.taxonomy.relPath(info, name))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "create target dir", err)
	}

	target, err := collisionFree(filepath.Join(targetDir, name))
	if err != nil {
		return "", err
	}
	if sameFile(file.Path, target) {
		return file.Path, nil
	}

	move := domain.Move{
		Timestamp:    time.Now().UTC(),
		OriginalPath: file.Path,
		NewPath:      target,
		DocType:      info.Type,
		Reason:       reason,
	}
	if err := r.history.Append(ctx, move); err != nil {
		return "", domain.WrapError(domain.ErrPersistenceUnavailable, "record move", err)
	}

	if err := os.Rename(file.Path, target); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "move file", err)
	}
	r.log.Info("file routed", "from", file.Path, "to", target, "reason", reason)
	return target, nil
}

// Undo reverses the most recent move. Returns nil without error when the
// history is empty.
func (r *Router) Undo(ctx context.Context) (*domain.Move, error) {
	move, err := r.history.PopLast(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistenceUnavailable, "pop move history", err)
	}
	if move == nil {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(move.OriginalPath), 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "restore original dir", err)
	}
	if err := os.Rename(move.NewPath, move.OriginalPath); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "undo move", err)
	}
	r.log.Info("move undone", "from", move.NewPath, "to", move.OriginalPath)
	return move, nil
}

// collisionFree returns path, or path with a _N suffix when the name is
// already taken.
func collisionFree(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; n < 1000; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", domain.WrapError(domain.ErrValidation, "resolve name collision", fmt.Errorf("too many duplicates of %s", path))
}

func sameFile(a, b string) bool {
	ra, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	rb, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return ra == rb
}
