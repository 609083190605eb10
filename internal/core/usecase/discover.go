package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

var supportedExtensions = map[string]struct{}{
	".pdf": {}, ".docx": {}, ".xlsx": {}, ".xlsm": {},
	".txt": {}, ".md": {}, ".csv": {}, ".html": {}, ".htm": {},
}

// typeHintPriority orders discovered files so the most valuable document
// families are processed first when a run is capped.
var typeHintPriority = map[domain.DocType]int{
	domain.TypeNorms:     0,
	domain.TypeSmeta:     1,
	domain.TypeEstimates: 1,
	domain.TypePPR:       2,
	domain.TypeProjects:  3,
	domain.TypeContracts: 4,
	domain.TypeOther:     9,
}

// Discoverer walks a directory tree and produces the prioritized, hashed
// file list the pipeline consumes.
type Discoverer struct {
	maxFileSize int64
	log         *slog.Logger
}

func NewDiscoverer(maxFileSizeMB int, log *slog.Logger) *Discoverer {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 200
	}
	return &Discoverer{maxFileSize: int64(maxFileSizeMB) * 1024 * 1024, log: log}
}

// Discover returns up to limit files (0 = no cap), ordered by type-hint
// priority and then ascending size so quick wins land early.
func (d *Discoverer) Discover(root string, limit int) ([]domain.SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "stat root directory", err)
	}
	if !info.IsDir() {
		return nil, domain.WrapError(domain.ErrValidation, "stat root directory",
			fmt.Errorf("%s is not a directory", root))
	}

	var files []domain.SourceFile
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.log.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := supportedExtensions[ext]; !ok {
			return nil
		}
		fi, err := entry.Info()
		if err != nil {
			d.log.Warn("skipping file without stat info", "path", path, "error", err)
			return nil
		}
		if fi.Size() == 0 || fi.Size() > d.maxFileSize {
			d.log.Warn("skipping file outside size bounds", "path", path, "size", fi.Size())
			return nil
		}
		files = append(files, domain.SourceFile{
			Path:       path,
			Size:       fi.Size(),
			TypeHint:   hintFromFilename(entry.Name()),
			Discovered: time.Now().UTC(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, domain.WrapError(domain.ErrValidation, "walk root directory", walkErr)
	}

	sort.SliceStable(files, func(i, j int) bool {
		pi, pj := hintPriority(files[i].TypeHint), hintPriority(files[j].TypeHint)
		if pi != pj {
			return pi < pj
		}
		return files[i].Size < files[j].Size
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	for i := range files {
		hash, err := hashFile(files[i].Path)
		if err != nil {
			d.log.Warn("hashing failed, file dropped", "path", files[i].Path, "error", err)
			files[i].ContentHash = ""
			continue
		}
		files[i].ContentHash = hash
	}

	kept := files[:0]
	for _, f := range files {
		if f.ContentHash != "" {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

func hintPriority(t domain.DocType) int {
	if p, ok := typeHintPriority[t]; ok {
		return p
	}
	return 9
}

func hintFromFilename(name string) domain.DocType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "гост") || strings.Contains(lower, "снип") ||
		strings.Contains(lower, "свод правил") || strings.HasPrefix(lower, "сп "):
		return domain.TypeNorms
	case strings.Contains(lower, "смета") || strings.Contains(lower, "гэсн") ||
		strings.Contains(lower, "фер") || strings.Contains(lower, "расценк"):
		return domain.TypeSmeta
	case strings.Contains(lower, "ппр"):
		return domain.TypePPR
	case strings.Contains(lower, "проект") || strings.Contains(lower, "чертеж"):
		return domain.TypeProjects
	case strings.Contains(lower, "договор") || strings.Contains(lower, "контракт"):
		return domain.TypeContracts
	default:
		return domain.TypeOther
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
