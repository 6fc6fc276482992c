package provider

import (
	"context"
	"errors"
	"time"

	"github.com/pathshala-ai/pathshala/models"
	ollama_provider "github.com/pathshala-ai/pathshala/provider/ollama"
	openai_provider "github.com/pathshala-ai/pathshala/provider/openai"
)

// Client represents different generation backends
type Client string

const (
	Ollama Client = "ollama"
	OpenAI Client = "openai"
)

// Provider is the interface that all generation backends must satisfy.
// Generate blocks for the full completion; GenerateStream delivers
// fragments on a channel that is closed when generation ends or the
// context is cancelled.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
	GenerateStream(ctx context.Context, model, prompt string) (<-chan models.Fragment, error)
	CreateEmbedding(ctx context.Context, model string, texts []string) ([][]float32, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Options carries backend settings shared by all clients.
type Options struct {
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewProvider creates a generation backend client based on the provided configuration
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case Ollama:
		if opts.BaseURL == "" {
			opts.BaseURL = "http://localhost:11434"
		}
		return ollama_provider.NewOllamaClient(opts.BaseURL, opts.Temperature, opts.MaxTokens, opts.Timeout), nil
	case OpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("openai api key not set")
		}
		return openai_provider.NewOpenAIClient(opts.APIKey, opts.Temperature, opts.MaxTokens, opts.Timeout), nil
	default:
		return nil, errors.New("unsupported generation backend")
	}
}
