package models

// Chunk is an atomic retrievable span of source text plus metadata. Chunks
// are created at ingestion time and never mutated afterwards.
type Chunk struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SourceID   string    `json:"source_id"`
	Collection string    `json:"collection"`
	Language   string    `json:"language"`
	Page       int       `json:"page,omitempty"`
	Module     string    `json:"module,omitempty"`
	Embedding  []float32 `json:"-"`
}

// Metadata flattens the chunk fields callers cite alongside content.
func (c Chunk) Metadata() map[string]interface{} {
	m := map[string]interface{}{
		"source":     c.SourceID,
		"collection": c.Collection,
		"language":   c.Language,
	}
	if c.Page > 0 {
		m["page"] = c.Page
	}
	if c.Module != "" {
		m["module"] = c.Module
	}
	return m
}

// RetrievalResult is one ranked hit: the chunk, its cosine similarity to
// the query, and the collection it came from.
type RetrievalResult struct {
	Chunk      Chunk   `json:"chunk"`
	Score      float64 `json:"score"`
	Provenance string  `json:"provenance"`
}

// Fragment is one incremental piece of generated text. A Fragment with a
// non-nil Err terminates its stream.
type Fragment struct {
	Text string
	Err  error
}

// StructuredRecord is a generated exam question recovered from backend
// output. Type, Difficulty and Module may be backfilled from request
// defaults when the backend omits them.
type StructuredRecord struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Type       string `json:"type,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Module     string `json:"module,omitempty"`
}
