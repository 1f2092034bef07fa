package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ChatHandler handles per-item chat rooms
type ChatHandler struct {
	chats *services.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chats *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// RegisterChatRoutes registers chat routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.GET("/chats", h.ListRooms)
	g.POST("/chats", h.EnsureRoom)
	g.GET("/chats/:roomId/messages", h.ListMessages)
	g.POST("/chats/:roomId/messages", h.SendMessage)
}

func parseRoomID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid room ID")
	}
	return id, nil
}

// EnsureRoom opens the conversation about an item with its owner, reusing
// the existing room on repeat contact
func (h *ChatHandler) EnsureRoom(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req models.CreateChatRoomRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	room, created, err := h.chats.EnsureRoom(c.Request().Context(), req.PostID, uid)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return ok(c, status, room)
}

func (h *ChatHandler) ListRooms(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	rooms, err := h.chats.ListRooms(c.Request().Context(), uid)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"rooms": rooms})
}

// ListMessages pages backwards through a room; "before" is an RFC 3339 cursor
func (h *ChatHandler) ListMessages(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	roomID, err := parseRoomID(c)
	if err != nil {
		return err
	}

	var before time.Time
	if raw := c.QueryParam("before"); raw != "" {
		before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "before must be an RFC 3339 timestamp")
		}
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	messages, err := h.chats.ListMessages(c.Request().Context(), uid, roomID, before, limit)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusOK, echo.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	roomID, err := parseRoomID(c)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.chats.SendMessage(c.Request().Context(), uid, roomID, req.Text)
	if err != nil {
		return httpError(err)
	}
	return ok(c, http.StatusCreated, msg)
}
