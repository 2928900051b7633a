package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ezazahamad2003/pre-funnel/internal/dto"
	"github.com/ezazahamad2003/pre-funnel/internal/repository"
	"github.com/ezazahamad2003/pre-funnel/internal/service"
)

// UserHandler exposes caller identities, their connections and usage.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs a handler instance.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailDuplicate):
			return Error(c, http.StatusConflict, "email already exists")
		case isValidation(err):
			return Error(c, http.StatusBadRequest, err.Error())
		default:
			return Error(c, http.StatusInternalServerError, "failed to create user")
		}
	}

	return Success(c, http.StatusCreated, "user created", user)
}

// Connections handles GET /api/users/:id/connections.
func (h *UserHandler) Connections(c echo.Context) error {
	conns, err := h.users.Connections(c.Request().Context(), c.Param("id"))
	if err != nil {
		return userError(c, err, "failed to list connections")
	}
	return Success(c, http.StatusOK, "connections retrieved", conns)
}

// Usage handles GET /api/usage/:id.
func (h *UserHandler) Usage(c echo.Context) error {
	usage, err := h.users.Usage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return userError(c, err, "failed to read usage")
	}
	return Success(c, http.StatusOK, "usage retrieved", usage)
}

func userError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return Error(c, http.StatusNotFound, "user not found")
	case isValidation(err):
		return Error(c, http.StatusBadRequest, err.Error())
	default:
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

func isValidation(err error) bool {
	var verr *service.ValidationError
	return errors.As(err, &verr)
}
