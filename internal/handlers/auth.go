package handlers

import (
	"net/http"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users    *services.UserService
	verifier middleware.TokenVerifier
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService, verifier middleware.TokenVerifier) *AuthHandler {
	return &AuthHandler{users: users, verifier: verifier}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/firebase-login", h.FirebaseLogin)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and creates or refreshes the
// matching local user. The ID token itself stays the session credential.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.verifier.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		log.Debug().Err(err).Msg("firebase login rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	id := services.Identity{UID: token.UID}
	id.Email, _ = token.Claims["email"].(string)
	id.EmailVerified, _ = token.Claims["email_verified"].(bool)
	id.Name, _ = token.Claims["name"].(string)
	if id.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}

	user, created, err := h.users.Login(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return ok(c, status, echo.Map{"user": user, "created": created})
}
