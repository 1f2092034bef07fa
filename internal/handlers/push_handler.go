package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/push"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// Dispatcher is the push fan-out used by the send endpoint
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, payload push.Payload) (push.Result, error)
}

// PushHandler manages push subscriptions and direct sends
type PushHandler struct {
	subscriptions  repositories.PushSubscriptionRepository
	dispatcher     Dispatcher
	vapidPublicKey string
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(subs repositories.PushSubscriptionRepository, dispatcher Dispatcher, vapidPublicKey string) *PushHandler {
	return &PushHandler{subscriptions: subs, dispatcher: dispatcher, vapidPublicKey: vapidPublicKey}
}

// RegisterPublicPushRoutes registers routes that need no authentication
func (h *PushHandler) RegisterPublicPushRoutes(g *echo.Group) {
	g.GET("/push/vapid-public-key", h.GetVAPIDPublicKey)
}

// RegisterPushRoutes registers authenticated push routes. send is wrapped
// with the given middleware, typically a rate limiter.
func (h *PushHandler) RegisterPushRoutes(g *echo.Group, sendMiddleware ...echo.MiddlewareFunc) {
	g.POST("/push/subscribe", h.Subscribe)
	g.POST("/push/unsubscribe", h.Unsubscribe)
	g.POST("/push/send", h.Send, sendMiddleware...)
}

func (h *PushHandler) GetVAPIDPublicKey(c echo.Context) error {
	if h.vapidPublicKey == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Web push is not configured")
	}
	return ok(c, http.StatusOK, echo.Map{"publicKey": h.vapidPublicKey})
}

// Subscribe stores a browser subscription or a cloud messaging token.
// Subscribing the same endpoint again updates the existing record.
func (h *PushHandler) Subscribe(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req models.SubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub := &models.PushSubscription{
		UserID:    uid,
		UserAgent: c.Request().UserAgent(),
	}
	if req.Endpoint != "" {
		sub.Kind = models.PushKindWeb
		sub.Endpoint = req.Endpoint
		sub.Keys = req.Keys
		sub.ExpirationTime = req.ExpirationTime
	} else {
		sub.Kind = models.PushKindFCM
		sub.FCMToken = req.FCMToken
	}

	if err := h.subscriptions.Upsert(c.Request().Context(), sub); err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, sub)
}

func (h *PushHandler) Unsubscribe(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req models.UnsubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	kind, address := models.PushKindWeb, req.Endpoint
	if address == "" {
		kind, address = models.PushKindFCM, req.FCMToken
	}

	removed, err := h.subscriptions.Delete(c.Request().Context(), uid, kind, address)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"removed": removed})
}

// Send pushes a payload to every endpoint of the target user and reports
// how many deliveries went through. Users may only target themselves unless
// their token carries the admin claim.
func (h *PushHandler) Send(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req models.SendPushRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.UserID != uid && !middleware.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot send push notifications to other users")
	}

	res, err := h.dispatcher.Dispatch(c.Request().Context(), req.UserID, push.Payload{
		Title: req.Title,
		Body:  req.Body,
		URL:   req.URL,
		Tag:   req.Tag,
		Data:  req.Data,
	})
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, res)
}
