package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pathshala-ai/pathshala/internal/cache"
	"github.com/pathshala-ai/pathshala/internal/embed"
	"github.com/pathshala-ai/pathshala/internal/lang"
	"github.com/pathshala-ai/pathshala/internal/store"
	"github.com/pathshala-ai/pathshala/models"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newTestIngestor(st store.Store, qc cache.Cache) *Ingestor {
	router := embed.NewRouter(map[lang.Language]embed.Factory{
		lang.Primary: func(context.Context) (embed.Embedder, error) { return fixedEmbedder{}, nil },
		lang.Target:  func(context.Context) (embed.Embedder, error) { return fixedEmbedder{}, nil },
	})
	return New(st, router, lang.NewClassifier(nil), qc)
}

func TestChunkTextOverlap(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = "w"
	}
	chunks := ChunkText(strings.Join(words, " "), 100, 20)
	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if n := len(strings.Fields(c)); n != 100 {
			t.Fatalf("chunk %d has %d words", i, n)
		}
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("just a few words", 100, 20)
	if len(chunks) != 1 || chunks[0] != "just a few words" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
	if got := ChunkText("   ", 100, 20); got != nil {
		t.Fatalf("blank input should produce no chunks, got %v", got)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("a\n\n  b\tc\x00d")
	if got != "a b cd" {
		t.Fatalf("CleanText = %q", got)
	}
}

func TestIngestDirTagsModulesAndInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "module-1")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	content := strings.Repeat("sorting algorithms lecture notes ", 20)
	if err := os.WriteFile(filepath.Join(sub, "week1.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.pdf"), []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := store.NewMemoryStore()
	qc := cache.NewMemoryCache(4)
	qc.Put(context.Background(), cache.NewKey("stale", 3, "en"), []models.RetrievalResult{})

	ing := newTestIngestor(st, qc)
	n, err := ing.IngestDir(context.Background(), dir, store.CollectionCourseNotes)
	if err != nil {
		t.Fatalf("IngestDir: %v", err)
	}
	if n == 0 {
		t.Fatal("no chunks ingested")
	}

	count, err := st.Count(context.Background(), store.CollectionCourseNotes)
	if err != nil || count != n {
		t.Fatalf("store holds %d chunks, ingested %d (err %v)", count, n, err)
	}

	hits, err := st.Search(context.Background(), store.CollectionCourseNotes, []float32{1, 0}, 1)
	if err != nil || len(hits) == 0 {
		t.Fatalf("Search: %v %v", hits, err)
	}
	if hits[0].Chunk.Module != "module-1" {
		t.Fatalf("module tag = %q, want module-1", hits[0].Chunk.Module)
	}
	if hits[0].Chunk.Language != string(lang.Primary) {
		t.Fatalf("language tag = %q", hits[0].Chunk.Language)
	}

	if qc.Len() != 0 {
		t.Fatal("ingestion must invalidate the query cache")
	}
}
