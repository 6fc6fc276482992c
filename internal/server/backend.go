package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathshala-ai/pathshala/provider"
)

type ModelsHandler struct {
	Provider provider.Provider
	Pipeline Generator
}

func (h *ModelsHandler) Register(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("/models", h.list, mw...)
}

// list reports the models the backend advertises plus the one that last
// served a request.
func (h *ModelsHandler) list(c echo.Context) error {
	names, err := h.Provider.ListModels(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, ModelsResponse{Models: names, Active: h.Pipeline.ActiveModel()})
}
