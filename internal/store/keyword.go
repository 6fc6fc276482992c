package store

import (
	"github.com/blevesearch/bleve"

	"github.com/pathshala-ai/pathshala/models"
)

// KeywordIndex is a memory-only bleve index over chunk content, used for
// the keyword leg of hybrid retrieval.
type KeywordIndex struct {
	index bleve.Index
}

// keywordDoc is the shape bleve indexes per chunk.
type keywordDoc struct {
	Content string `json:"content"`
	Module  string `json:"module"`
}

// NewKeywordIndex creates an empty in-memory index.
func NewKeywordIndex() (*KeywordIndex, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &KeywordIndex{index: index}, nil
}

// Add indexes one chunk. Re-adding an ID replaces the previous document.
func (k *KeywordIndex) Add(chunk models.Chunk) error {
	return k.index.Index(chunk.ID, keywordDoc{Content: chunk.Content, Module: chunk.Module})
}

// Search returns up to n chunk IDs with their text-match scores.
func (k *KeywordIndex) Search(query string, n int) ([]string, []float64, error) {
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, n, 0, false)
	res, err := k.index.Search(req)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	scores := make([]float64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
		scores = append(scores, hit.Score)
	}
	return ids, scores, nil
}
