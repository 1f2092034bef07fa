package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the in-app notification inbox
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepository: notifRepo}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	page, limit := pagination(c, 20, 50)
	notifications, total, err := h.notificationRepository.GetByUserID(c.Request().Context(), uid, page, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": notifications},
		"meta":    pageMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	grouped, err := h.notificationRepository.GetGrouped(ctx, uid, time.Now())
	if err != nil {
		return httpError(err)
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, uid)
	if err != nil {
		return httpError(err)
	}

	return ok(c, http.StatusOK, echo.Map{
		"notifications": grouped,
		"unreadCount":   unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"id": c.Param("id"), "read": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"updated": updated})
}

// DeleteNotification removes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.DeleteNotification(c.Request().Context(), uid, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
