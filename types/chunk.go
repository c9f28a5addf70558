package types

// ChunkMetadata is the metadata a chunk inherits from its owning section
// and the document it came from. Framework is empty for document chunks.
type ChunkMetadata struct {
	Framework   string      `json:"framework,omitempty"`
	SourceFile  string      `json:"source_file"`
	DocumentID  string      `json:"document_id,omitempty"`
	SectionPath []string    `json:"section_path,omitempty"`
	PageNumber  int         `json:"page_number"`
	ElementKind ElementKind `json:"element_type"`
}

// Chunk is a retrieval unit stored in the vector store. HTML is set only
// when the chunk is a whole table; chunks are never mutated after indexing.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	HTML     string        `json:"html,omitempty"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a chunk returned by a vector query together with its raw
// distance. Lower distance means more similar; ranking always uses the
// raw distance.
type ScoredChunk struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// Relevance converts a vector distance to a 0-1 score for display only.
func Relevance(distance float64) float64 {
	r := 1 - distance
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// RetrievedRule is a regulatory rule chunk selected for assessment, with
// the query that ranked it. A rule retrieved by several queries is kept
// once, attributed to the query that saw it first.
type RetrievedRule struct {
	Chunk    Chunk           `json:"chunk"`
	Distance float64         `json:"distance"`
	Query    ComplianceQuery `json:"query"`
}
