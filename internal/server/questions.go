package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathshala-ai/pathshala/internal/extract"
	"github.com/pathshala-ai/pathshala/internal/retrieval"
	"github.com/pathshala-ai/pathshala/models"
)

const defaultQuestionCount = 5

type QuestionsHandler struct {
	Retriever Retriever
	Generator Generator
}

func (h *QuestionsHandler) Register(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/questions/generate", h.generate, mw...)
}

// generate produces practice questions grounded in retrieved course
// material. Backend output is recovered through the extraction
// strategies; an unrecoverable response is surfaced with its diagnostic
// head instead of fabricated records.
func (h *QuestionsHandler) generate(c echo.Context) error {
	var req QuestionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	if req.Count <= 0 {
		req.Count = defaultQuestionCount
	}
	if req.Type == "" {
		req.Type = "short-answer"
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}

	ctx := c.Request().Context()
	results, err := h.Retriever.Retrieve(ctx, req.Topic, retrieval.MaxK, "")
	if errors.Is(err, retrieval.ErrNoRelevantContext) {
		return echo.NewHTTPError(http.StatusNotFound, noContextMessage)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prompt := questionsPrompt(req, results)
	raw, model, err := h.Generator.Generate(ctx, prompt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	records, err := extract.Extract(raw, extract.Defaults{
		Type:       req.Type,
		Difficulty: req.Difficulty,
		Module:     req.Module,
	})
	if err != nil {
		var pe *extract.ParseError
		if errors.As(err, &pe) {
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": pe.Error(),
				"raw":   pe.Raw,
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"questions": records,
		"model":     model,
	})
}

func questionsPrompt(req QuestionsRequest, results []models.RetrievalResult) string {
	var ctxText string
	for _, r := range results {
		ctxText += r.Chunk.Content + "\n\n"
	}
	return fmt.Sprintf(`Based on the following course materials, generate %d %s exam questions of %s difficulty about %q.

Context:
%s
Respond with ONLY a JSON array. Each element must be an object with keys "question", "answer", "type", "difficulty" and "module". No commentary.`,
		req.Count, req.Type, req.Difficulty, req.Topic, ctxText)
}
