package store

import (
	"context"
	"math"

	"github.com/pathshala-ai/pathshala/models"
)

// Collection names used across the service. The reference book holds the
// authoritative theory text; course notes hold schedules, logistics and
// lecture summaries.
const (
	CollectionReference   = "reference_book"
	CollectionCourseNotes = "course_notes"
)

// SearchHit is one scored match from a collection search.
type SearchHit struct {
	Chunk models.Chunk
	Score float64
}

// Store is the vector index contract. Search ranks by cosine similarity,
// descending, with ties broken by insertion order. Searching an empty or
// unknown collection returns an empty slice, not an error.
type Store interface {
	AddChunks(ctx context.Context, collection string, chunks []models.Chunk) error
	Search(ctx context.Context, collection string, vector []float32, k int) ([]SearchHit, error)
	Count(ctx context.Context, collection string) (int, error)
}

// KeywordSearcher is implemented by stores that also maintain a keyword
// index, enabling hybrid retrieval.
type KeywordSearcher interface {
	KeywordSearch(ctx context.Context, collection, query string, k int) ([]SearchHit, error)
}

// Cosine computes cosine similarity over the shared prefix of two
// vectors. Zero vectors score zero.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
