package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathshala-ai/pathshala/internal/generate"
	"github.com/pathshala-ai/pathshala/internal/retrieval"
	"github.com/pathshala-ai/pathshala/internal/stream"
	"github.com/pathshala-ai/pathshala/models"
)

// sourceContentLimit bounds how much chunk text a citation carries.
const sourceContentLimit = 200

// maxCitedSources caps the citation list shown to the consumer.
const maxCitedSources = 3

const noContextMessage = "No relevant information found in the course materials."

// Retriever is the retrieval path consumed by the chat handlers.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, answerLanguage string) ([]models.RetrievalResult, error)
}

// Generator is the generation path consumed by the chat handlers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, string, error)
	GenerateStream(ctx context.Context, prompt string) (*generate.Stream, error)
	ActiveModel() string
}

type ChatHandler struct {
	Retriever Retriever
	Generator Generator
}

func (h *ChatHandler) Register(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/chat", h.chat, mw...)
	g.POST("/chat/stream", h.chatStream, mw...)
}

// chat answers a question in one blocking round trip.
func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	ctx := c.Request().Context()
	results, err := h.Retriever.Retrieve(ctx, req.Query, req.K, req.Language)
	if errors.Is(err, retrieval.ErrNoRelevantContext) {
		return c.JSON(http.StatusOK, ChatResponse{Answer: noContextMessage, Sources: []stream.Source{}})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prompt := generate.BuildPrompt(results, req.Query, req.Language)
	answer, model, err := h.Generator.Generate(ctx, prompt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Answer:  answer,
		Sources: citeSources(results),
		Model:   model,
	})
}

// chatStream answers over SSE. Event order is status* sources token* then
// exactly one terminal; a consumer disconnect mid-stream suppresses the
// terminal entirely.
func (h *ChatHandler) chatStream(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	enc := stream.NewEncoder(c.Response())

	if err := enc.Status("Searching knowledge base..."); err != nil {
		return nil
	}
	results, err := h.Retriever.Retrieve(ctx, req.Query, req.K, req.Language)
	if errors.Is(err, retrieval.ErrNoRelevantContext) {
		_ = enc.Error(noContextMessage)
		streamsTotal.WithLabelValues("error").Inc()
		return nil
	}
	if err != nil {
		_ = enc.Error(err.Error())
		streamsTotal.WithLabelValues("error").Inc()
		return nil
	}

	_ = enc.Status("Generating response...")
	if err := enc.Sources(citeSources(results)); err != nil {
		return nil
	}

	prompt := generate.BuildPrompt(results, req.Query, req.Language)
	s, err := h.Generator.GenerateStream(ctx, prompt)
	if err != nil {
		_ = enc.Error(err.Error())
		streamsTotal.WithLabelValues("error").Inc()
		return nil
	}

	for frag := range s.Fragments {
		if frag.Err != nil {
			_ = enc.Error(frag.Err.Error())
			streamsTotal.WithLabelValues("error").Inc()
			return nil
		}
		if err := enc.Token(frag.Text); err != nil {
			// Consumer gone; stop pulling fragments.
			streamsTotal.WithLabelValues("aborted").Inc()
			return nil
		}
	}
	if ctx.Err() != nil {
		// Aborted stream: no terminal event.
		streamsTotal.WithLabelValues("aborted").Inc()
		return nil
	}
	_ = enc.Done(s.Model)
	streamsTotal.WithLabelValues("done").Inc()
	return nil
}

// citeSources converts the top results into wire citations with bounded
// content.
func citeSources(results []models.RetrievalResult) []stream.Source {
	n := len(results)
	if n > maxCitedSources {
		n = maxCitedSources
	}
	sources := make([]stream.Source, 0, n)
	for _, r := range results[:n] {
		content := r.Chunk.Content
		if runes := []rune(content); len(runes) > sourceContentLimit {
			content = string(runes[:sourceContentLimit]) + "..."
		}
		sources = append(sources, stream.Source{Content: content, Metadata: r.Chunk.Metadata()})
	}
	return sources
}
