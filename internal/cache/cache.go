package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathshala-ai/pathshala/models"
)

// DefaultCapacity bounds the in-memory query cache.
const DefaultCapacity = 100

// Key identifies one memoized retrieval. Query text is normalized so
// trivially different spellings share an entry; k and answer language
// are part of the key so parameter variants never collide.
type Key struct {
	Query    string
	K        int
	Language string
}

// NewKey normalizes the query (case-fold, trim) into a cache key.
func NewKey(query string, k int, language string) Key {
	return Key{
		Query:    strings.ToLower(strings.TrimSpace(query)),
		K:        k,
		Language: language,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%s", k.Query, k.K, k.Language)
}

// Cache memoizes retrieval results. Entries are immutable once inserted;
// eviction removes wholesale. There is no timed expiry because the corpus
// is static between ingestion runs; InvalidateAll covers re-ingestion.
type Cache interface {
	Get(ctx context.Context, key Key) ([]models.RetrievalResult, bool)
	Put(ctx context.Context, key Key, results []models.RetrievalResult)
	InvalidateAll(ctx context.Context) error
}
