package handlers

import (
	"net/http"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/lookup", h.LookupByEmail)
	g.GET("/users/search", h.SearchUsers)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.Profile(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), uid, &req)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, user)
}

// LookupByEmail resolves a user by exact email, returning only the public view
func (h *UserHandler) LookupByEmail(c echo.Context) error {
	user, err := h.users.LookupByEmail(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, user)
}

func (h *UserHandler) SearchUsers(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.users.Search(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"users": users})
}
