package embed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pathshala-ai/pathshala/internal/lang"
)

type stubEmbedder struct {
	mu    sync.Mutex
	calls int
	dim   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func countingFactory(emb Embedder, builds *int) Factory {
	return func(context.Context) (Embedder, error) {
		*builds++
		return emb, nil
	}
}

func TestRouterLazySingleInit(t *testing.T) {
	builds := 0
	emb := &stubEmbedder{dim: 4}
	r := NewRouter(map[lang.Language]Factory{
		lang.Primary: countingFactory(emb, &builds),
	})
	if builds != 0 {
		t.Fatalf("factory ran eagerly")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Embed(context.Background(), "hello", lang.Primary); err != nil {
				t.Errorf("Embed: %v", err)
			}
		}()
	}
	wg.Wait()

	if builds != 1 {
		t.Fatalf("expected exactly one init under concurrent first use, got %d", builds)
	}
}

func TestRouterFallsBackToPrimary(t *testing.T) {
	primary := &stubEmbedder{dim: 4}
	r := NewRouter(map[lang.Language]Factory{
		lang.Primary: func(context.Context) (Embedder, error) { return primary, nil },
		lang.Target:  func(context.Context) (Embedder, error) { return nil, errors.New("weights missing") },
	})

	vec, err := r.Embed(context.Background(), "কুইকসর্ট", lang.Target)
	if err != nil {
		t.Fatalf("expected fallback to primary, got error: %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("unexpected vector length %d", len(vec))
	}
	if primary.calls != 1 {
		t.Fatalf("primary embedder should have served the request")
	}
}

func TestRouterMixedRoutesToTarget(t *testing.T) {
	target := &stubEmbedder{dim: 4}
	primary := &stubEmbedder{dim: 4}
	r := NewRouter(map[lang.Language]Factory{
		lang.Primary: func(context.Context) (Embedder, error) { return primary, nil },
		lang.Target:  func(context.Context) (Embedder, error) { return target, nil },
	})

	if _, err := r.Embed(context.Background(), "sort মানে কী", lang.Mixed); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if target.calls != 1 || primary.calls != 0 {
		t.Fatalf("mixed text should hit the target embedder (target=%d primary=%d)", target.calls, primary.calls)
	}
}

func TestRouterDimensionMismatch(t *testing.T) {
	r := NewRouter(map[lang.Language]Factory{
		lang.Primary: func(context.Context) (Embedder, error) { return &stubEmbedder{dim: 4}, nil },
		lang.Target:  func(context.Context) (Embedder, error) { return &stubEmbedder{dim: 8}, nil },
	})

	if _, err := r.Embed(context.Background(), "hello", lang.Primary); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := r.Embed(context.Background(), "ওহে", lang.Target); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestRouterFailureIsRemembered(t *testing.T) {
	builds := 0
	primary := &stubEmbedder{dim: 4}
	r := NewRouter(map[lang.Language]Factory{
		lang.Primary: func(context.Context) (Embedder, error) { return primary, nil },
		lang.Target: func(context.Context) (Embedder, error) {
			builds++
			return nil, errors.New("weights missing")
		},
	})

	for i := 0; i < 3; i++ {
		if _, err := r.Embed(context.Background(), "বাংলা", lang.Target); err != nil {
			t.Fatalf("Embed: %v", err)
		}
	}
	if builds != 1 {
		t.Fatalf("failed factory should not be retried per query, got %d builds", builds)
	}

	r.Reset()
	if _, err := r.Embed(context.Background(), "বাংলা", lang.Target); err != nil {
		t.Fatalf("Embed after reset: %v", err)
	}
	if builds != 2 {
		t.Fatalf("reset should allow a retry, got %d builds", builds)
	}
}
