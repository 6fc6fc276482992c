package embed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/pathshala-ai/pathshala/internal/lang"
	"github.com/pathshala-ai/pathshala/provider"
)

// ErrEmbedderUnavailable marks a language whose embedder could not be
// initialized. The router recovers from it by falling back to the
// primary-language embedder; it surfaces only when that fails too.
var ErrEmbedderUnavailable = errors.New("embedder unavailable")

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Factory builds an embedder for one language. Building is expensive
// (the backend loads model weights on first use), which is why the
// router initializes lazily and exactly once per language.
type Factory func(ctx context.Context) (Embedder, error)

// Router dispatches embedding requests to a language-specific embedder.
// Instances are process-wide singletons shared by all in-flight requests.
type Router struct {
	mu        sync.Mutex
	factories map[lang.Language]Factory
	embedders map[lang.Language]Embedder
	failed    map[lang.Language]bool
	dim       int
	logger    *log.Logger
}

// NewRouter creates a router over the given per-language factories. A
// factory for lang.Primary is required.
func NewRouter(factories map[lang.Language]Factory) *Router {
	return &Router{
		factories: factories,
		embedders: make(map[lang.Language]Embedder),
		failed:    make(map[lang.Language]bool),
		logger:    log.New(log.Writer(), "[EMBED] ", log.LstdFlags),
	}
}

// Embed vectorizes text with the embedder for the given language,
// falling back to the primary embedder when the language-specific one
// is unavailable. Degraded accuracy beats failing the query.
func (r *Router) Embed(ctx context.Context, text string, language lang.Language) ([]float32, error) {
	emb, err := r.embedderFor(ctx, routeLanguage(language))
	if err != nil {
		return nil, err
	}
	vecs, err := emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 vector, got %d", len(vecs))
	}
	if err := r.checkDimension(vecs[0]); err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch vectorizes many texts in one backend round trip, used by
// ingestion. Same routing and fallback rules as Embed.
func (r *Router) EmbedBatch(ctx context.Context, texts []string, language lang.Language) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	emb, err := r.embedderFor(ctx, routeLanguage(language))
	if err != nil {
		return nil, err
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	for _, v := range vecs {
		if err := r.checkDimension(v); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

// Reset drops all initialized embedders so the next use re-initializes.
// Called after configuration changes.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedders = make(map[lang.Language]Embedder)
	r.failed = make(map[lang.Language]bool)
	r.dim = 0
}

// routeLanguage collapses classifier output onto the languages that have
// dedicated embedders. Mixed text contains target-script content, so the
// target embedder handles it best.
func routeLanguage(language lang.Language) lang.Language {
	switch language {
	case lang.Target, lang.Mixed:
		return lang.Target
	default:
		return lang.Primary
	}
}

func (r *Router) embedderFor(ctx context.Context, language lang.Language) (Embedder, error) {
	emb, err := r.initOnce(ctx, language)
	if err == nil {
		return emb, nil
	}
	if language == lang.Primary {
		return nil, err
	}
	r.logger.Printf("WARNING: %s embedder unavailable, falling back to %s: %v", language, lang.Primary, err)
	emb, perr := r.initOnce(ctx, lang.Primary)
	if perr != nil {
		return nil, perr
	}
	return emb, nil
}

// initOnce returns the singleton embedder for a language, building it on
// first use. The mutex makes concurrent first access load weights only
// once; a failed build is remembered so every query does not re-pay the
// load attempt.
func (r *Router) initOnce(ctx context.Context, language lang.Language) (Embedder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if emb, ok := r.embedders[language]; ok {
		return emb, nil
	}
	if r.failed[language] {
		return nil, fmt.Errorf("%w: %s", ErrEmbedderUnavailable, language)
	}
	factory, ok := r.factories[language]
	if !ok {
		return nil, fmt.Errorf("%w: no factory for %s", ErrEmbedderUnavailable, language)
	}
	emb, err := factory(ctx)
	if err != nil {
		r.failed[language] = true
		return nil, fmt.Errorf("%w: %s: %v", ErrEmbedderUnavailable, language, err)
	}
	r.embedders[language] = emb
	return emb, nil
}

// checkDimension enforces that every embedder emits identically sized
// vectors so storage and search stay language-agnostic.
func (r *Router) checkDimension(vec []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dim == 0 {
		r.dim = len(vec)
		return nil
	}
	if len(vec) != r.dim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), r.dim)
	}
	return nil
}

// ProviderFactory adapts a generation backend's embedding endpoint into
// an embedder factory. The probe on first build forces the backend to
// load the model so later queries do not pay the cold start.
func ProviderFactory(p provider.Provider, model string) Factory {
	return func(ctx context.Context) (Embedder, error) {
		emb := &providerEmbedder{provider: p, model: model}
		if _, err := emb.Embed(ctx, []string{"ping"}); err != nil {
			return nil, fmt.Errorf("probe failed for model %s: %w", model, err)
		}
		return emb, nil
	}
}

type providerEmbedder struct {
	provider provider.Provider
	model    string
}

func (e *providerEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.provider.CreateEmbedding(ctx, e.model, texts)
}
