package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers unreadable or missing source files. Fatal for
	// that file only.
	ErrValidation = errors.New("validation failure")
	// ErrDuplicate marks content already ingested. Terminal Skipped state,
	// not a failure.
	ErrDuplicate = errors.New("duplicate content")
	// ErrExtractionDegraded marks a fallback-tier extraction. Recovered,
	// logged as warning.
	ErrExtractionDegraded = errors.New("extraction degraded")
	// ErrLowConfidence marks an uncertain classification. Recovered and
	// surfaced in the quality report.
	ErrLowConfidence = errors.New("classification low confidence")
	// ErrPersistenceUnavailable marks a store outage recovered via a local
	// JSON snapshot.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrGraphConflict marks a non-fatal graph write conflict.
	ErrGraphConflict = errors.New("graph write conflict")
	// ErrTemporary marks transient infrastructure failures worth retrying.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
