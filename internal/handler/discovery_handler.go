package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ezazahamad2003/pre-funnel/internal/dto"
	"github.com/ezazahamad2003/pre-funnel/internal/service"
)

// DiscoveryRunner is the orchestration surface the handler depends on.
type DiscoveryRunner interface {
	Discover(ctx context.Context, req dto.DiscoveryRequest) (*dto.DiscoveryResponse, error)
	PlanStrategies(ctx context.Context, userID, goal, companyInfo string) (*dto.StrategiesResponse, error)
}

// DiscoveryHandler exposes the lead-discovery pipeline over HTTP.
type DiscoveryHandler struct {
	discovery DiscoveryRunner
}

// NewDiscoveryHandler constructs a handler instance.
func NewDiscoveryHandler(discovery DiscoveryRunner) *DiscoveryHandler {
	return &DiscoveryHandler{discovery: discovery}
}

// Discover handles POST /api/lead-discovery.
func (h *DiscoveryHandler) Discover(c echo.Context) error {
	var req dto.DiscoveryRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	resp, err := h.discovery.Discover(c.Request().Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return Error(c, http.StatusBadRequest, verr.Reason)
		}
		return Error(c, http.StatusInternalServerError, "lead discovery failed")
	}

	return Success(c, http.StatusOK, "lead discovery completed", resp)
}

// Strategies handles GET /api/search-strategies/:user_id, returning the
// planned strategies without dispatching any provider call.
func (h *DiscoveryHandler) Strategies(c echo.Context) error {
	resp, err := h.discovery.PlanStrategies(
		c.Request().Context(),
		c.Param("user_id"),
		c.QueryParam("goal"),
		c.QueryParam("company"),
	)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return Error(c, http.StatusBadRequest, verr.Reason)
		}
		return Error(c, http.StatusInternalServerError, "strategy planning failed")
	}

	return Success(c, http.StatusOK, "strategies planned", resp)
}
