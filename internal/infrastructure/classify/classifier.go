// Package classify types construction documents with an ensemble of a regex
// keyword estimator and an external semantic oracle.
package classify

import (
	"context"
	"log/slog"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

const (
	semanticFloor = 0.3
	// The regex score normalizer: raw weighted matches divide by 10 and cap
	// at 1.0.
	regexNormalizer = 10.0
)

type Classifier struct {
	oracle ports.SemanticOracle
	log    *slog.Logger
}

// NewClassifier builds the ensemble. A nil oracle degrades to regex-only.
func NewClassifier(oracle ports.SemanticOracle, log *slog.Logger) *Classifier {
	return &Classifier{oracle: oracle, log: log}
}

type estimate struct {
	docType    domain.DocType
	subtype    string
	confidence float64
}

// Classify fuses both estimators. Agreement boosts confidence; disagreement
// keeps the higher-confidence estimator, preferring regex on exact ties
// (deterministic tie-break).
func (c *Classifier) Classify(ctx context.Context, text, filename string) (domain.DocTypeInfo, error) {
	regex := c.regexEstimate(text, filename)

	semantic, ok := c.semanticEstimate(ctx, text)
	if !ok {
		return domain.DocTypeInfo{
			Type:       regex.docType,
			Subtype:    regex.subtype,
			Confidence: regex.confidence,
			Method:     domain.DetectRegex,
		}, nil
	}

	if regex.docType == semantic.docType {
		conf := 0.6*regex.confidence + 0.4*semantic.confidence + 0.2
		if conf > 1 {
			conf = 1
		}
		return domain.DocTypeInfo{
			Type:       regex.docType,
			Subtype:    regex.subtype,
			Confidence: conf,
			Method:     domain.DetectEnsemble,
		}, nil
	}

	if semantic.confidence > regex.confidence {
		return domain.DocTypeInfo{
			Type:       semantic.docType,
			Subtype:    semantic.subtype,
			Confidence: semantic.confidence,
			Method:     domain.DetectSemantic,
		}, nil
	}
	return domain.DocTypeInfo{
		Type:       regex.docType,
		Subtype:    regex.subtype,
		Confidence: regex.confidence,
		Method:     domain.DetectRegex,
	}, nil
}

// regexEstimate scores every type as 0.7*content + 0.9*filename matches,
// normalized, and picks the best. First matching subtype pattern wins.
func (c *Classifier) regexEstimate(text, filename string) estimate {
	best := estimate{docType: domain.TypeOther}

	for _, set := range patternSets {
		var raw float64
		for _, p := range set.content {
			if p.MatchString(text) {
				raw += 0.7
			}
		}
		for _, p := range set.filename {
			if p.MatchString(filename) {
				raw += 0.9
			}
		}
		if raw == 0 {
			continue
		}
		conf := raw / regexNormalizer
		if conf > 1 {
			conf = 1
		}
		if conf > best.confidence {
			best = estimate{
				docType:    set.docType,
				subtype:    matchSubtype(set, text, filename),
				confidence: conf,
			}
		}
	}
	return best
}

func matchSubtype(set typePatterns, text, filename string) string {
	for _, sub := range set.subtypes {
		if sub.re.MatchString(filename) || sub.re.MatchString(text) {
			return sub.name
		}
	}
	return ""
}

// semanticEstimate asks the oracle for the closest type template. Scores at
// or below the floor collapse to "other".
func (c *Classifier) semanticEstimate(ctx context.Context, text string) (estimate, bool) {
	if c.oracle == nil {
		return estimate{}, false
	}

	label, score, err := c.oracle.ClassifySimilarity(ctx, truncate(text, 2000), semanticTemplates)
	if err != nil {
		c.log.Warn("semantic estimator unavailable", "error", err)
		return estimate{}, false
	}

	docType := domain.DocType(label)
	if score <= semanticFloor || !knownType(docType) {
		return estimate{docType: domain.TypeOther, confidence: score}, true
	}
	return estimate{docType: docType, confidence: score}, true
}

func knownType(t domain.DocType) bool {
	for _, known := range domain.KnownDocTypes() {
		if t == known {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
