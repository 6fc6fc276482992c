package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pathshala-ai/pathshala/models"
	"github.com/pathshala-ai/pathshala/provider"
)

// ErrStreamTimeout marks a request whose backend produced no first token
// within the bounded wait. Fatal for that request only.
var ErrStreamTimeout = errors.New("generation timed out waiting for first token")

// ErrBackendUnavailable is returned only after the preferred model and
// every fallback have failed for the same prompt.
var ErrBackendUnavailable = errors.New("all generation backends unavailable")

// DefaultFirstTokenTimeout bounds the wait for a stream's first token.
const DefaultFirstTokenTimeout = 25 * time.Second

var fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pathshala_generation_fallbacks_total",
	Help: "Times generation fell through to a fallback model.",
})

// Stream is a live generation: the model that is producing it and its
// fragment sequence. Fragments stops when generation ends, the context
// is cancelled, or a fragment carries an error.
type Stream struct {
	Model     string
	Fragments <-chan models.Fragment
}

// Pipeline drives the generation backend: prompt in, normalized fragment
// sequence out, with one retry pass over the fallback model list.
type Pipeline struct {
	provider          provider.Provider
	preferred         string
	fallbacks         []string
	firstTokenTimeout time.Duration
	logger            *log.Logger

	mu     sync.Mutex
	active string
}

// NewPipeline wires a generation backend with its model preference list.
func NewPipeline(p provider.Provider, preferred string, fallbacks []string, firstTokenTimeout time.Duration) *Pipeline {
	if firstTokenTimeout <= 0 {
		firstTokenTimeout = DefaultFirstTokenTimeout
	}
	return &Pipeline{
		provider:          p,
		preferred:         preferred,
		fallbacks:         fallbacks,
		firstTokenTimeout: firstTokenTimeout,
		logger:            log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}
}

// ActiveModel reports the model that last served a request, or the
// preferred model before any request has run.
func (p *Pipeline) ActiveModel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != "" {
		return p.active
	}
	return p.preferred
}

// Candidates lists the models in trial order: last known-good first,
// then the configured preference order.
func (p *Pipeline) Candidates() []string {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	ordered := make([]string, 0, len(p.fallbacks)+2)
	seen := map[string]bool{}
	push := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			ordered = append(ordered, m)
		}
	}
	push(active)
	push(p.preferred)
	for _, m := range p.fallbacks {
		push(m)
	}
	return ordered
}

func (p *Pipeline) markActive(model string) {
	p.mu.Lock()
	p.active = model
	p.mu.Unlock()
}

// Generate blocks for the full answer, falling through the model list on
// failure.
func (p *Pipeline) Generate(ctx context.Context, prompt string) (string, string, error) {
	var lastErr error
	for i, model := range p.Candidates() {
		if i > 0 {
			fallbacksTotal.Inc()
		}
		text, err := p.provider.Generate(ctx, model, prompt)
		if err != nil {
			lastErr = err
			p.logger.Printf("WARNING: model %s failed: %v", model, err)
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			continue
		}
		p.markActive(model)
		return text, model, nil
	}
	return "", "", fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

// GenerateStream opens a fragment stream, falling through the model list
// when a stream cannot be started. Once fragments flow, mid-stream
// failures surface to the consumer rather than restarting generation.
func (p *Pipeline) GenerateStream(ctx context.Context, prompt string) (*Stream, error) {
	var lastErr error
	for i, model := range p.Candidates() {
		if i > 0 {
			fallbacksTotal.Inc()
		}
		fragments, err := p.provider.GenerateStream(ctx, model, prompt)
		if err != nil {
			lastErr = err
			p.logger.Printf("WARNING: model %s stream failed to start: %v", model, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		p.markActive(model)
		return &Stream{Model: model, Fragments: p.watchFirstToken(ctx, fragments)}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

// watchFirstToken relays fragments, failing the stream if nothing
// arrives within the first-token budget. After the first fragment the
// stream runs unbounded; the consumer's context governs cancellation.
func (p *Pipeline) watchFirstToken(ctx context.Context, in <-chan models.Fragment) <-chan models.Fragment {
	out := make(chan models.Fragment)
	go func() {
		defer close(out)

		timer := time.NewTimer(p.firstTokenTimeout)
		defer timer.Stop()

		first := true
		for {
			select {
			case frag, ok := <-in:
				if !ok {
					return
				}
				if first {
					first = false
					timer.Stop()
				}
				select {
				case out <- frag:
				case <-ctx.Done():
					return
				}
				if frag.Err != nil {
					return
				}
			case <-timer.C:
				if first {
					select {
					case out <- models.Fragment{Err: ErrStreamTimeout}:
					case <-ctx.Done():
					}
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Collect drains a stream into the full text, used when a blocking
// answer is wanted from a token-emitting backend.
func Collect(s *Stream) (string, error) {
	var out []byte
	for frag := range s.Fragments {
		if frag.Err != nil {
			return string(out), frag.Err
		}
		out = append(out, frag.Text...)
	}
	return string(out), nil
}
