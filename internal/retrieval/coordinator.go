package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/pathshala-ai/pathshala/internal/cache"
	"github.com/pathshala-ai/pathshala/internal/embed"
	"github.com/pathshala-ai/pathshala/internal/lang"
	"github.com/pathshala-ai/pathshala/internal/store"
	"github.com/pathshala-ai/pathshala/models"
)

// ErrNoRelevantContext is returned when neither collection yields any
// result. It is a sentinel, not a failure: callers branch on it to tell
// "nothing found" apart from "not yet searched".
var ErrNoRelevantContext = errors.New("no relevant context found")

const (
	// DefaultK is the retrieval count when the caller does not specify one.
	DefaultK = 3
	// MaxK caps the retrieval count per query.
	MaxK = 10
)

// provenance priority for tie-breaks: the reference book outranks notes.
var provenancePriority = map[string]int{
	store.CollectionReference:   0,
	store.CollectionCourseNotes: 1,
}

// Coordinator decides which collections to query for a given question
// and merges their results into one ranked, deduplicated set.
type Coordinator struct {
	store      store.Store
	keyword    store.KeywordSearcher
	router     *embed.Router
	classifier *lang.Classifier
	cache      cache.Cache
	logger     *log.Logger
}

// NewCoordinator wires the retrieval path. keyword may be nil to disable
// hybrid fusion; qc may be nil to disable memoization.
func NewCoordinator(st store.Store, keyword store.KeywordSearcher, router *embed.Router, classifier *lang.Classifier, qc cache.Cache) *Coordinator {
	return &Coordinator{
		store:      st,
		keyword:    keyword,
		router:     router,
		classifier: classifier,
		cache:      qc,
		logger:     log.New(log.Writer(), "[RETRIEVAL] ", log.LstdFlags),
	}
}

// ClampK normalizes the caller-supplied retrieval count.
func ClampK(k int) int {
	if k <= 0 {
		return DefaultK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// Retrieve runs the full retrieval path: cache, classify, embed, search,
// merge. answerLanguage is part of the cache key because it shapes the
// downstream prompt, not the search itself.
func (c *Coordinator) Retrieve(ctx context.Context, query string, k int, answerLanguage string) ([]models.RetrievalResult, error) {
	k = ClampK(k)

	var key cache.Key
	if c.cache != nil {
		key = cache.NewKey(query, k, answerLanguage)
		if results, ok := c.cache.Get(ctx, key); ok {
			cacheHitsTotal.Inc()
			return results, nil
		}
		cacheMissesTotal.Inc()
	}

	detected := c.classifier.Classify(query)
	vector, err := c.router.Embed(ctx, query, detected)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	intent := ClassifyIntent(query)
	retrievalsTotal.WithLabelValues(string(intent)).Inc()

	var results []models.RetrievalResult
	switch intent {
	case Structural:
		results, err = c.retrieveStructural(ctx, query, vector, k)
	default:
		results, err = c.retrieveConceptual(ctx, query, vector, k)
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		noContextTotal.Inc()
		return nil, ErrNoRelevantContext
	}

	if c.cache != nil {
		c.cache.Put(ctx, key, results)
	}
	return results, nil
}

// retrieveStructural queries course notes only; the reference book is
// consulted solely when the notes turn up nothing.
func (c *Coordinator) retrieveStructural(ctx context.Context, query string, vector []float32, k int) ([]models.RetrievalResult, error) {
	hits, err := c.searchCollection(ctx, store.CollectionCourseNotes, query, vector, k)
	if err != nil {
		c.logger.Printf("WARNING: course notes search failed: %v", err)
	}
	if len(hits) > 0 {
		return toResults(hits, store.CollectionCourseNotes), nil
	}

	refHits, refErr := c.searchCollection(ctx, store.CollectionReference, query, vector, k)
	if refErr != nil {
		if err != nil {
			return nil, fmt.Errorf("both collections failed: %v; %w", err, refErr)
		}
		c.logger.Printf("WARNING: reference search failed: %v", refErr)
	}
	return toResults(refHits, store.CollectionReference), nil
}

// retrieveConceptual queries both collections and merges with a
// reference-leaning split: the canonical text is the better default for
// theory, notes are authoritative only for logistics.
func (c *Coordinator) retrieveConceptual(ctx context.Context, query string, vector []float32, k int) ([]models.RetrievalResult, error) {
	refHits, refErr := c.searchCollection(ctx, store.CollectionReference, query, vector, k)
	noteHits, noteErr := c.searchCollection(ctx, store.CollectionCourseNotes, query, vector, k)
	if refErr != nil && noteErr != nil {
		return nil, fmt.Errorf("both collections failed: %v; %w", refErr, noteErr)
	}
	if refErr != nil {
		c.logger.Printf("WARNING: reference search failed, continuing with notes: %v", refErr)
	}
	if noteErr != nil {
		c.logger.Printf("WARNING: course notes search failed, continuing with reference: %v", noteErr)
	}

	refTake := (k+1)/2 + 1
	noteTake := k / 2
	if refTake > len(refHits) {
		refTake = len(refHits)
	}
	if noteTake > len(noteHits) {
		noteTake = len(noteHits)
	}

	merged := append(
		toResults(refHits[:refTake], store.CollectionReference),
		toResults(noteHits[:noteTake], store.CollectionCourseNotes)...)
	merged = dedupe(merged)
	sortResults(merged)

	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// searchCollection runs the vector search, fusing in keyword hits when
// hybrid retrieval is enabled.
func (c *Coordinator) searchCollection(ctx context.Context, collection, query string, vector []float32, k int) ([]store.SearchHit, error) {
	hits, err := c.store.Search(ctx, collection, vector, k)
	if err != nil {
		return nil, err
	}
	if c.keyword == nil {
		return hits, nil
	}
	kwHits, err := c.keyword.KeywordSearch(ctx, collection, query, k)
	if err != nil {
		c.logger.Printf("WARNING: keyword search on %s failed, using vector hits only: %v", collection, err)
		return hits, nil
	}
	return fuseRRF(hits, kwHits, k), nil
}

func toResults(hits []store.SearchHit, provenance string) []models.RetrievalResult {
	out := make([]models.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.RetrievalResult{Chunk: h.Chunk, Score: h.Score, Provenance: provenance})
	}
	return out
}

// dedupe removes duplicate chunk IDs across collections, keeping the
// higher-scored instance.
func dedupe(results []models.RetrievalResult) []models.RetrievalResult {
	best := make(map[string]models.RetrievalResult, len(results))
	order := make([]string, 0, len(results))
	for _, r := range results {
		prev, seen := best[r.Chunk.ID]
		if !seen {
			best[r.Chunk.ID] = r
			order = append(order, r.Chunk.ID)
			continue
		}
		if r.Score > prev.Score {
			best[r.Chunk.ID] = r
		}
	}
	out := make([]models.RetrievalResult, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// sortResults orders by score descending; ties break by provenance
// priority, then chunk ID, so rankings are deterministic.
func sortResults(results []models.RetrievalResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		pi, pj := provenancePriority[results[i].Provenance], provenancePriority[results[j].Provenance]
		if pi != pj {
			return pi < pj
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}
