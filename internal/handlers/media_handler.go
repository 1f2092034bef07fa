package handlers

import (
	"net/http"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MediaHandler handles item photo uploads
type MediaHandler struct {
	media *services.MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// RegisterMediaRoutes registers media routes
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/media", h.Upload)
	g.POST("/media/presign", h.Presign)
}

// Upload stores the multipart "file" field and returns its public URL
func (h *MediaHandler) Upload(c echo.Context) error {
	if _, err := middleware.UserID(c); err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	file, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	defer file.Close()

	obj, err := h.media.Upload(c.Request().Context(), header.Filename, file)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusCreated, obj)
}

type presignRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// Presign returns a short-lived URL the browser can PUT an image to
func (h *MediaHandler) Presign(c echo.Context) error {
	if _, err := middleware.UserID(c); err != nil {
		return err
	}

	var req presignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	upload, err := h.media.PresignUpload(c.Request().Context(), req.ContentType)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, upload)
}
