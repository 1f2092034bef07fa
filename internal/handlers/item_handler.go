package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ItemHandler handles lost/found item requests
type ItemHandler struct {
	items *services.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(items *services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// RegisterItemRoutes registers item routes
func (h *ItemHandler) RegisterItemRoutes(g *echo.Group) {
	g.GET("/items", h.ListItems)
	g.POST("/items", h.CreateItem)
	g.GET("/items/:id", h.GetItem)
	g.PUT("/items/:id", h.UpdateItem)
	g.DELETE("/items/:id", h.DeleteItem)
	g.PATCH("/items/:id/status", h.ToggleStatus)
	g.POST("/items/:id/claim", h.ClaimItem)
	g.POST("/items/:id/verify", h.VerifyClaim)
}

func parseStatus(raw string) (models.ItemStatus, error) {
	switch status := models.ItemStatus(strings.ToLower(raw)); status {
	case "", models.ItemLost, models.ItemFound:
		return status, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "status must be lost or found")
}

// ListItems returns items. With a gps parameter it runs a proximity search
// (nearest first, radius in km); otherwise it pages through the newest items.
func (h *ItemHandler) ListItems(c echo.Context) error {
	status, err := parseStatus(c.QueryParam("status"))
	if err != nil {
		return err
	}

	if c.QueryParams().Has("gps") || c.QueryParam("near") == "true" {
		radius, _ := strconv.ParseFloat(c.QueryParam("radius"), 64)
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		res, err := h.items.Nearby(c.Request().Context(), services.NearbyQuery{
			GPS:      c.QueryParam("gps"),
			RadiusKm: radius,
			Limit:    limit,
			Status:   status,
		})
		if err != nil {
			return httpError(err)
		}
		return ok(c, http.StatusOK, res)
	}

	filter := models.ItemFilter{
		Status:   status,
		Category: strings.ToLower(c.QueryParam("category")),
		Open:     c.QueryParam("open") == "true",
	}
	if c.QueryParam("mine") == "true" {
		uid, err := middleware.UserID(c)
		if err != nil {
			return err
		}
		filter.OwnerUID = uid
	}

	page, limit := pagination(c, 20, 100)
	items, total, err := h.items.List(c.Request().Context(), filter, page, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"items": items},
		"meta":    pageMeta(page, limit, total),
	})
}

// CreateItem reports a lost or found item and returns the nearby matches
// whose owners were notified
func (h *ItemHandler) CreateItem(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req models.CreateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	email := ""
	if token := middleware.Token(c); token != nil {
		email, _ = token.Claims["email"].(string)
	}

	item, matches, err := h.items.Create(c.Request().Context(), uid, email, &req)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusCreated, echo.Map{"item": item, "matches": matches})
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.items.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, item)
}

func (h *ItemHandler) UpdateItem(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	item, err := h.items.Update(c.Request().Context(), uid, id, &req)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.items.Delete(c.Request().Context(), uid, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleStatus flips an owned item between lost and found
func (h *ItemHandler) ToggleStatus(c echo.Context) error {
	return h.itemAction(c, h.items.ToggleStatus)
}

func (h *ItemHandler) ClaimItem(c echo.Context) error {
	return h.itemAction(c, h.items.Claim)
}

func (h *ItemHandler) VerifyClaim(c echo.Context) error {
	return h.itemAction(c, h.items.Verify)
}

func (h *ItemHandler) itemAction(c echo.Context, action func(ctx context.Context, uid string, id uint) (*models.Item, error)) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}

	item, err := action(c.Request().Context(), uid, id)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, item)
}
