package store

import (
	"context"
	"testing"

	"github.com/pathshala-ai/pathshala/models"
)

func TestMemoryStoreSearchRanksByCosineDescending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.AddChunks(ctx, CollectionReference, []models.Chunk{
		{ID: "a", Content: "far", Embedding: []float32{0, 1}},
		{ID: "b", Content: "near", Embedding: []float32{1, 0}},
		{ID: "c", Content: "middle", Embedding: []float32{1, 1}},
	})
	if err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	hits, err := s.Search(ctx, CollectionReference, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Chunk.ID != "b" || hits[1].Chunk.ID != "c" || hits[2].Chunk.ID != "a" {
		t.Fatalf("wrong order: %s %s %s", hits[0].Chunk.ID, hits[1].Chunk.ID, hits[2].Chunk.ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestMemoryStoreTieBreakByInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Identical vectors score identically; the earlier insertion wins.
	err := s.AddChunks(ctx, CollectionCourseNotes, []models.Chunk{
		{ID: "first", Embedding: []float32{1, 1}},
		{ID: "second", Embedding: []float32{1, 1}},
	})
	if err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	hits, err := s.Search(ctx, CollectionCourseNotes, []float32{1, 1}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Chunk.ID != "first" || hits[1].Chunk.ID != "second" {
		t.Fatalf("tie not broken by insertion order: %s %s", hits[0].Chunk.ID, hits[1].Chunk.ID)
	}
}

func TestMemoryStoreEmptyCollection(t *testing.T) {
	s := NewMemoryStore()
	hits, err := s.Search(context.Background(), "missing", []float32{1}, 3)
	if err != nil {
		t.Fatalf("empty collection must not error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestMemoryStoreTruncatesToK(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var chunks []models.Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, models.Chunk{Embedding: []float32{1, float32(i)}})
	}
	if err := s.AddChunks(ctx, CollectionReference, chunks); err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	hits, err := s.Search(ctx, CollectionReference, []float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 4 {
		t.Fatalf("expected 4 hits, got %d", len(hits))
	}
}

func TestMemoryStoreKeywordSearch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.AddChunks(ctx, CollectionCourseNotes, []models.Chunk{
		{ID: "sched", Content: "the exam schedule for module 1 is posted", Embedding: []float32{1}},
		{ID: "sort", Content: "quicksort partitions around a pivot", Embedding: []float32{1}},
	})
	if err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	hits, err := s.KeywordSearch(ctx, CollectionCourseNotes, "exam schedule", 5)
	if err != nil {
		t.Fatalf("KeywordSearch: %v", err)
	}
	if len(hits) == 0 || hits[0].Chunk.ID != "sched" {
		t.Fatalf("expected schedule chunk first, got %+v", hits)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("identical vectors should score 1, got %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors should score 0, got %f", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("zero vector should score 0, got %f", got)
	}
}
