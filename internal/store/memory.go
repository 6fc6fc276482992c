package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pathshala-ai/pathshala/models"
)

// MemoryStore is an in-memory vector index with a per-collection keyword
// index. Collections are small enough (a book plus course notes) that a
// linear cosine scan is fine.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	chunks  []models.Chunk
	byID    map[string]int
	keyword *KeywordIndex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

// AddChunks stores the chunks in insertion order. Chunks without an ID
// get one assigned.
func (s *MemoryStore) AddChunks(_ context.Context, collection string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		kw, err := NewKeywordIndex()
		if err != nil {
			return err
		}
		col = &memCollection{byID: make(map[string]int), keyword: kw}
		s.collections[collection] = col
	}

	for _, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		chunk.Collection = collection
		if idx, exists := col.byID[chunk.ID]; exists {
			col.chunks[idx] = chunk
		} else {
			col.byID[chunk.ID] = len(col.chunks)
			col.chunks = append(col.chunks, chunk)
		}
		if err := col.keyword.Add(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity, descending.
// The stable sort preserves insertion order between equal scores.
func (s *MemoryStore) Search(_ context.Context, collection string, vector []float32, k int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok || len(col.chunks) == 0 || k <= 0 {
		return nil, nil
	}

	hits := make([]SearchHit, 0, len(col.chunks))
	for _, chunk := range col.chunks {
		hits = append(hits, SearchHit{Chunk: chunk, Score: Cosine(vector, chunk.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// KeywordSearch ranks chunks by BM25 over the collection's keyword index.
func (s *MemoryStore) KeywordSearch(_ context.Context, collection, query string, k int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok || k <= 0 {
		return nil, nil
	}

	ids, scores, err := col.keyword.Search(query, k)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(ids))
	for i, id := range ids {
		idx, ok := col.byID[id]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{Chunk: col.chunks[idx], Score: scores[i]})
	}
	return hits, nil
}

// Count reports the number of chunks in a collection.
func (s *MemoryStore) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	return len(col.chunks), nil
}
