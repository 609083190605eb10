package domain

// Section is one node of a document's structural tree. Nodes live in a
// SectionTree arena; Parent and Children hold arena indices, not pointers,
// so the tree has no ownership cycles and serializes trivially.
type Section struct {
	Number    string `json:"number,omitempty"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	Content   string `json:"content"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`

	Parent   int   `json:"parent"`
	Children []int `json:"children,omitempty"`
}

// SectionTree stores sections in insertion order. Index 0 is the synthetic
// document root; its Parent is -1.
type SectionTree struct {
	Nodes []Section `json:"nodes"`
}

func NewSectionTree(title string) *SectionTree {
	return &SectionTree{
		Nodes: []Section{{Title: title, Parent: -1}},
	}
}

// AddChild appends a node under parent and returns the new node's index.
func (t *SectionTree) AddChild(parent int, s Section) int {
	s.Parent = parent
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, s)
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	return idx
}

// Sections returns all non-root nodes in document order.
func (t *SectionTree) Sections() []Section {
	if len(t.Nodes) <= 1 {
		return nil
	}
	return t.Nodes[1:]
}

// WordCount counts whitespace-separated tokens in a section's content.
func (s *Section) WordCount() int {
	count := 0
	inWord := false
	for _, r := range s.Content {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// Table is a detected tabular block with raw row text.
type Table struct {
	Number  string   `json:"number,omitempty"`
	Caption string   `json:"caption,omitempty"`
	Rows    []string `json:"rows"`
	Line    int      `json:"line"`
}

// ListItem is one entry of a detected enumeration.
type ListItem struct {
	Marker string `json:"marker"`
	Text   string `json:"text"`
	Level  int    `json:"level"`
	Line   int    `json:"line"`
}

// Structure bundles everything the structural analyzer produces for a file.
type Structure struct {
	Tree   *SectionTree `json:"tree"`
	Tables []Table      `json:"tables,omitempty"`
	Lists  []ListItem   `json:"lists,omitempty"`
	Tier   string       `json:"tier"`
}
