package handlers

import (
	"net/http"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// QRHandler handles QR label registration and public scans
type QRHandler struct {
	qr *services.QRService
}

// NewQRHandler creates a new QRHandler
func NewQRHandler(qr *services.QRService) *QRHandler {
	return &QRHandler{qr: qr}
}

// RegisterQRRoutes registers the owner-facing label routes
func (h *QRHandler) RegisterQRRoutes(g *echo.Group) {
	g.POST("/items/:id/qr", h.Register)
	g.GET("/items/:id/qr.png", h.Image)
}

// RegisterScanRoutes registers the public scan route behind the given
// middleware, typically a rate limiter
func (h *QRHandler) RegisterScanRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.GET("/scan/:token", h.Scan, m...)
}

func (h *QRHandler) Register(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	reg, err := h.qr.Register(c.Request().Context(), uid, id)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, reg)
}

func (h *QRHandler) Image(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	png, err := h.qr.PNG(c.Request().Context(), uid, id)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Scan is hit by whoever finds a labelled item. It shows the public item
// view and tells the owner; an optional gps query adds the scan position.
func (h *QRHandler) Scan(c echo.Context) error {
	item, err := h.qr.Scan(c.Request().Context(), c.Param("token"), c.QueryParam("gps"))
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, item)
}
