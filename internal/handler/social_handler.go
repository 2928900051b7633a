package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ezazahamad2003/pre-funnel/internal/dto"
	"github.com/ezazahamad2003/pre-funnel/internal/service"
)

// SocialHandler exposes the manual credential-attach path.
type SocialHandler struct {
	users *service.UserService
}

// NewSocialHandler constructs a handler instance.
func NewSocialHandler(users *service.UserService) *SocialHandler {
	return &SocialHandler{users: users}
}

// Connect handles POST /api/connect-social-profiles.
func (h *SocialHandler) Connect(c echo.Context) error {
	var req dto.ConnectSocialProfilesRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	connected, err := h.users.ConnectProfiles(c.Request().Context(), req)
	if err != nil {
		return userError(c, err, "failed to connect profiles")
	}

	return Success(c, http.StatusOK, "profiles connected", connected)
}
