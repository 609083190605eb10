package domain

// NTDType identifies the normative-document family a reference belongs to.
type NTDType string

const (
	NTDSP     NTDType = "SP"
	NTDSNiP   NTDType = "SNiP"
	NTDGOST   NTDType = "GOST"
	NTDGESN   NTDType = "GESN"
	NTDFER    NTDType = "FER"
	NTDTER    NTDType = "TER"
	NTDPP     NTDType = "PP"
	NTDPrikaz NTDType = "PRIKAZ"
	NTDFZ     NTDType = "FZ"
)

// NTDReference is one detected reference to a normative-technical document.
// CanonicalID is the globally shared graph-node key: two raw texts naming the
// same document canonicalize to the same CanonicalID.
type NTDReference struct {
	CanonicalID  string  `json:"canonical_id"`
	DocumentType NTDType `json:"document_type"`
	RawText      string  `json:"raw_text"`
	Context      string  `json:"context"`
	Position     int     `json:"position"`
	Confidence   float64 `json:"confidence"`
}

// RefKey is the dedup key for references within one document.
type RefKey struct {
	CanonicalID  string
	DocumentType NTDType
}

func (r NTDReference) Key() RefKey {
	return RefKey{CanonicalID: r.CanonicalID, DocumentType: r.DocumentType}
}

// WorkSequenceItem is a type-specific construction work entry used for
// PRECEDES graph edges in ppr/smeta/norms documents.
type WorkSequenceItem struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies,omitempty"`
	DurationDays float64  `json:"duration_days,omitempty"`
	Priority     int      `json:"priority"`
	Quality      float64  `json:"quality"`
	DocType      DocType  `json:"doc_type"`
	Section      string   `json:"section,omitempty"`
}
