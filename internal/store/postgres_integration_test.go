package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pathshala-ai/pathshala/internal/store"
	"github.com/pathshala-ai/pathshala/models"
)

const schema = `
CREATE TABLE chunks (
    seq BIGSERIAL,
    id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    content TEXT NOT NULL,
    source_id TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT 'en',
    page INT NOT NULL DEFAULT 0,
    module TEXT NOT NULL DEFAULT '',
    embedding DOUBLE PRECISION[] NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func TestPostgresStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("pathshala"),
		tcPostgres.WithUsername("pathshala"),
		tcPostgres.WithPassword("pathshala"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://pathshala:pathshala@%s:%s/pathshala?sslmode=disable", host, port.Port())

	st, err := store.NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if _, err := st.DB.ExecContext(ctx, schema); err != nil {
		t.Fatalf("schema: %v", err)
	}

	chunks := []models.Chunk{
		{ID: "c1", Content: "quicksort analysis", SourceID: "book", Language: "en", Page: 170, Embedding: []float32{1, 0}},
		{ID: "c2", Content: "exam schedule", SourceID: "notes", Language: "bn", Module: "1", Embedding: []float32{0, 1}},
	}
	if err := st.AddChunks(ctx, store.CollectionReference, chunks); err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	n, err := st.Count(ctx, store.CollectionReference)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 chunks, got %d", n)
	}

	hits, err := st.Search(ctx, store.CollectionReference, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 || hits[0].Chunk.ID != "c1" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Chunk.Page != 170 || hits[1].Chunk.Module != "1" {
		t.Fatalf("metadata did not round trip: %+v", hits)
	}

	// Upsert replaces, never duplicates.
	if err := st.AddChunks(ctx, store.CollectionReference, chunks[:1]); err != nil {
		t.Fatalf("AddChunks upsert: %v", err)
	}
	n, err = st.Count(ctx, store.CollectionReference)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("upsert duplicated rows: %d", n)
	}
}
