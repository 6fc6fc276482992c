package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pathshala-ai/pathshala/models"
)

type stubProvider struct {
	failing  map[string]bool
	genCalls []string
	streams  map[string][]string
	hang     bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, model, _ string) (string, error) {
	s.genCalls = append(s.genCalls, model)
	if s.failing[model] {
		return "", errors.New("model crashed")
	}
	return "answer from " + model, nil
}

func (s *stubProvider) GenerateStream(ctx context.Context, model, _ string) (<-chan models.Fragment, error) {
	s.genCalls = append(s.genCalls, model)
	if s.failing[model] {
		return nil, errors.New("model crashed")
	}
	out := make(chan models.Fragment)
	go func() {
		if s.hang {
			<-ctx.Done()
			close(out)
			return
		}
		defer close(out)
		for _, tok := range s.streams[model] {
			select {
			case out <- models.Fragment{Text: tok}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *stubProvider) CreateEmbedding(context.Context, string, []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *stubProvider) ListModels(context.Context) ([]string, error) { return nil, nil }

func TestGenerateFallsThroughModelList(t *testing.T) {
	p := &stubProvider{failing: map[string]bool{"preferred": true}}
	pipe := NewPipeline(p, "preferred", []string{"fallback-a", "fallback-b"}, time.Second)

	text, model, err := pipe.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if model != "fallback-a" || text != "answer from fallback-a" {
		t.Fatalf("expected first fallback to serve, got %s", model)
	}
	if pipe.ActiveModel() != "fallback-a" {
		t.Fatalf("active model not updated: %s", pipe.ActiveModel())
	}
	// The known-good model leads the next attempt.
	if pipe.Candidates()[0] != "fallback-a" {
		t.Fatalf("candidates should start with active model: %v", pipe.Candidates())
	}
}

func TestGenerateAllModelsFail(t *testing.T) {
	p := &stubProvider{failing: map[string]bool{"m1": true, "m2": true}}
	pipe := NewPipeline(p, "m1", []string{"m2"}, time.Second)

	_, _, err := pipe.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if len(p.genCalls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(p.genCalls))
	}
}

func TestGenerateStreamRelaysFragments(t *testing.T) {
	p := &stubProvider{streams: map[string][]string{"m": {"hel", "lo"}}}
	pipe := NewPipeline(p, "m", nil, time.Second)

	s, err := pipe.GenerateStream(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	text, err := Collect(s)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if text != "hello" || s.Model != "m" {
		t.Fatalf("got %q from %s", text, s.Model)
	}
}

func TestGenerateStreamFirstTokenTimeout(t *testing.T) {
	p := &stubProvider{hang: true}
	pipe := NewPipeline(p, "m", nil, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := pipe.GenerateStream(ctx, "prompt")
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	select {
	case frag := <-s.Fragments:
		if !errors.Is(frag.Err, ErrStreamTimeout) {
			t.Fatalf("expected timeout fragment, got %+v", frag)
		}
	case <-time.After(time.Second):
		t.Fatal("no timeout fragment within a second")
	}
}

func TestGenerateStreamStopsOnCancel(t *testing.T) {
	p := &stubProvider{streams: map[string][]string{"m": {strings.Repeat("x", 3), "y", "z"}}}
	pipe := NewPipeline(p, "m", nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := pipe.GenerateStream(ctx, "prompt")
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	<-s.Fragments
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-s.Fragments:
			if !ok {
				return // closed without completing, as required
			}
		case <-deadline:
			t.Fatal("stream did not stop after cancellation")
		}
	}
}
