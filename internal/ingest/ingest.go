package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/go-shiori/go-readability"

	"github.com/pathshala-ai/pathshala/internal/cache"
	"github.com/pathshala-ai/pathshala/internal/embed"
	"github.com/pathshala-ai/pathshala/internal/lang"
	"github.com/pathshala-ai/pathshala/internal/store"
	"github.com/pathshala-ai/pathshala/models"
)

// Ingestor turns source documents into embedded chunks in a collection.
type Ingestor struct {
	store      store.Store
	router     *embed.Router
	classifier *lang.Classifier
	cache      cache.Cache
	fetcher    Fetcher
	chunkWords int
	overlap    int
	logger     *log.Logger
}

// New creates an ingestor. qc may be nil; when present it is invalidated
// after every successful ingestion so stale retrievals never survive a
// corpus change.
func New(st store.Store, router *embed.Router, classifier *lang.Classifier, qc cache.Cache) *Ingestor {
	return &Ingestor{
		store:      st,
		router:     router,
		classifier: classifier,
		cache:      qc,
		fetcher:    Fetcher{},
		chunkWords: DefaultChunkWords,
		overlap:    DefaultOverlapWords,
		logger:     log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
}

// IngestFile chunks and embeds one file into the collection. Supported:
// .md, .txt (plain text) and .html (readability extraction).
func (ing *Ingestor) IngestFile(ctx context.Context, path, collection, module string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	text := string(raw)
	if strings.EqualFold(filepath.Ext(path), ".html") {
		article, err := readability.FromReader(strings.NewReader(text), &url.URL{})
		if err != nil {
			return 0, fmt.Errorf("extract %s: %w", path, err)
		}
		text = article.TextContent
	}

	n, err := ing.ingestText(ctx, CleanText(text), filepath.Base(path), collection, module)
	if err != nil {
		return 0, err
	}
	ing.logger.Printf("ingested %d chunks from %s into %s", n, path, collection)
	return n, nil
}

// IngestDir ingests every supported file under dir into the collection.
func (ing *Ingestor) IngestDir(ctx context.Context, dir, collection string) (int, error) {
	total := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt", ".html":
		default:
			return nil
		}
		n, err := ing.IngestFile(ctx, path, collection, moduleFromPath(dir, path))
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return total, err
	}
	ing.invalidate(ctx)
	return total, nil
}

// IngestURL renders an online course page and ingests its text.
func (ing *Ingestor) IngestURL(ctx context.Context, rawURL, collection, module string) (int, error) {
	page, err := ing.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	n, err := ing.ingestText(ctx, page.Text, rawURL, collection, module)
	if err != nil {
		return 0, err
	}
	ing.invalidate(ctx)
	ing.logger.Printf("ingested %d chunks from %s into %s", n, rawURL, collection)
	return n, nil
}

func (ing *Ingestor) ingestText(ctx context.Context, text, sourceID, collection, module string) (int, error) {
	pieces := ChunkText(text, ing.chunkWords, ing.overlap)
	if len(pieces) == 0 {
		return 0, nil
	}

	// One language tag per source document; chunks are too short for
	// reliable per-chunk statistics.
	language := ing.classifier.Classify(text)
	vectors, err := ing.router.EmbedBatch(ctx, pieces, language)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", sourceID, err)
	}
	if len(vectors) != len(pieces) {
		return 0, fmt.Errorf("embed %s: got %d vectors for %d chunks", sourceID, len(vectors), len(pieces))
	}

	chunks := make([]models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.Chunk{
			ID:         uuid.NewString(),
			Content:    piece,
			SourceID:   sourceID,
			Collection: collection,
			Language:   string(language),
			Module:     module,
			Embedding:  vectors[i],
		}
	}
	if err := ing.store.AddChunks(ctx, collection, chunks); err != nil {
		return 0, fmt.Errorf("store %s: %w", sourceID, err)
	}
	return len(chunks), nil
}

func (ing *Ingestor) invalidate(ctx context.Context) {
	if ing.cache == nil {
		return
	}
	if err := ing.cache.InvalidateAll(ctx); err != nil {
		ing.logger.Printf("WARNING: cache invalidation failed: %v", err)
	}
}

// moduleFromPath uses the first directory under the ingest root as the
// module tag, e.g. notes/module-1/week2.md -> "module-1".
func moduleFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
