package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pathshala-ai/pathshala/models"
)

// PostgresStore persists chunks and their embeddings so the corpus
// survives restarts. Ranking still happens in-process: the corpus is a
// book and a set of notes, not a web-scale index.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgres connects using the DSN, or the POSTGRES_* environment when
// the DSN is empty.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PostgresStore{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// AddChunks upserts chunks. The seq column fixes insertion order for
// deterministic tie-breaks.
func (s *PostgresStore) AddChunks(ctx context.Context, collection string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO chunks (id, collection, content, source_id, language, page, module, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  collection = EXCLUDED.collection,
  content = EXCLUDED.content,
  source_id = EXCLUDED.source_id,
  language = EXCLUDED.language,
  page = EXCLUDED.page,
  module = EXCLUDED.module,
  embedding = EXCLUDED.embedding`,
			chunk.ID, collection, chunk.Content, chunk.SourceID, chunk.Language,
			chunk.Page, chunk.Module, pq.Array(float32sTo64(chunk.Embedding)))
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// Search loads the collection in insertion order and ranks by cosine
// similarity with a stable sort.
func (s *PostgresStore) Search(ctx context.Context, collection string, vector []float32, k int) ([]SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, content, source_id, language, page, module, embedding
FROM chunks WHERE collection = $1 ORDER BY seq`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var chunk models.Chunk
		var embedding pq.Float64Array
		if err := rows.Scan(&chunk.ID, &chunk.Content, &chunk.SourceID,
			&chunk.Language, &chunk.Page, &chunk.Module, &embedding); err != nil {
			return nil, err
		}
		chunk.Collection = collection
		chunk.Embedding = float64sTo32(embedding)
		hits = append(hits, SearchHit{Chunk: chunk, Score: Cosine(vector, chunk.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Count reports the number of chunks in a collection.
func (s *PostgresStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = $1`, collection).Scan(&n)
	return n, err
}

// User operations
func (s *PostgresStore) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

func float32sTo64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func float64sTo32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
