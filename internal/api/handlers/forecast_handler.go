// backend-go/internal/api/handlers/forecast_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartstock/backend-go/internal/domain"
	"github.com/smartstock/backend-go/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// Generate handles POST /forecast: a single-product or batch forecast for
// the requested horizon (7, 14, 30, 90 days).
func (h *ForecastHandler) Generate(c *gin.Context) {
	var req domain.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.service.Forecast(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if len(resp.ForecastData) == 0 {
		// Batch runs where every product was skipped land here.
		c.JSON(http.StatusNotFound, gin.H{"error": "no predictions available for the requested products/horizon"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Reload handles POST /forecast/reload: rebuilds the frozen historical
// snapshot from the database and clears the forecast cache.
func (h *ForecastHandler) Reload(c *gin.Context) {
	if err := h.service.Reload(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "forecasting assets reloaded"})
}

// writeError maps the domain error taxonomy onto HTTP statuses: invalid
// requests and unknown products are client errors, missing assets are 503
// until a reload succeeds, anything else is internal.
func (h *ForecastHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAssetLoad):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecasting service unavailable", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate forecast", "details": err.Error()})
	}
}
