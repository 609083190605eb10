package domain

type ChunkType string

const (
	ChunkHeader   ChunkType = "header"
	ChunkSection  ChunkType = "section"
	ChunkTable    ChunkType = "table"
	ChunkFallback ChunkType = "fallback"
)

// Chunk is the atomic unit of persisted, retrievable content. Path holds the
// ordered numeric labels of the chunk's ancestors including itself, so
// len(Path) == HierarchyLevel always, and Path[:len(Path)-1] equals the
// parent chunk's Path.
type Chunk struct {
	ID             string            `json:"id"`
	Content        string            `json:"content"`
	Type           ChunkType         `json:"chunk_type"`
	Path           []string          `json:"path,omitempty"`
	HierarchyLevel int               `json:"hierarchy_level"`
	Title          string            `json:"title,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ParentPath returns the path of the chunk's parent, or nil for top-level
// chunks.
func (c *Chunk) ParentPath() []string {
	if len(c.Path) <= 1 {
		return nil
	}
	return c.Path[:len(c.Path)-1]
}

// ChunkPoint pairs a chunk with its embedding for vector-store upsert.
type ChunkPoint struct {
	PointID string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}
