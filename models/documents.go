package models

// Document is the plain-text content of one source file. It exists only
// transiently during ingestion; the vector index owns the persisted chunks.
type Document struct {
	Source string
	Text   string
}

// Chunk is a bounded slice of a document's text, the unit of retrieval.
type Chunk struct {
	ID       string
	Text     string
	Source   string
	Position int
}

// SourceDocument represents a chunk of text and its origin as returned
// from the vector index for a query.
type SourceDocument struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SourceLabel returns the source recorded in the chunk metadata, or
// "Unknown" when ingestion did not attach one.
func (d SourceDocument) SourceLabel() string {
	if d.Metadata != nil {
		if s, ok := d.Metadata["source"].(string); ok && s != "" {
			return s
		}
	}
	return "Unknown"
}

// Citation points a user at the origin of part of an answer.
type Citation struct {
	Source  string `json:"source"`
	Preview string `json:"preview"`
}
