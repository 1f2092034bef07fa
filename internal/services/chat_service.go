package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/anonto42/findit/backend/internal/ws"
	"github.com/rs/zerolog/log"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 200
	previewLength      = 80
)

// ItemLookup resolves the owner of an item
type ItemLookup interface {
	GetItemByID(ctx context.Context, id uint) (*models.Item, error)
}

// ChatService manages per-item conversations between an owner and a finder
type ChatService struct {
	chats    repositories.ChatRepository
	items    ItemLookup
	notifier *Notifier
	events   EventPublisher
	now      func() time.Time
}

func NewChatService(chats repositories.ChatRepository, items ItemLookup, notifier *Notifier, events EventPublisher) *ChatService {
	return &ChatService{chats: chats, items: items, notifier: notifier, events: events, now: time.Now}
}

// EnsureRoom returns the room for (postID, owner, finderUID), creating it on
// first contact. Concurrent first contacts converge on one room through the
// unique (post_id, owner_uid, finder_uid) index.
func (s *ChatService) EnsureRoom(ctx context.Context, postID uint, finderUID string) (*models.ChatRoom, bool, error) {
	if finderUID == "" {
		return nil, false, apperr.ErrMissingUserID
	}

	item, err := s.items.GetItemByID(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	if item.OwnerUID == finderUID {
		return nil, false, fmt.Errorf("cannot open a chat about your own item: %w", apperr.ErrInvalidInput)
	}

	room, err := s.chats.FindRoom(ctx, postID, item.OwnerUID, finderUID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}

	room = &models.ChatRoom{
		Title:     item.Title,
		PostID:    postID,
		OwnerUID:  item.OwnerUID,
		FinderUID: finderUID,
		CreatedAt: s.now().UTC(),
	}
	err = s.chats.InsertRoom(ctx, room)
	switch {
	case err == nil:
		log.Info().Int64("room_id", room.ID).Uint("post_id", postID).Msg("chat room created")
		return room, true, nil
	case errors.Is(err, apperr.ErrConflict):
		existing, ferr := s.chats.FindRoom(ctx, postID, item.OwnerUID, finderUID)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	default:
		return nil, false, err
	}
}

func (s *ChatService) ListRooms(ctx context.Context, uid string) ([]models.ChatRoom, error) {
	return s.chats.ListRoomsForUser(ctx, uid)
}

// participantRoom loads a room and checks uid takes part in it
func (s *ChatService) participantRoom(ctx context.Context, uid string, roomID int64) (*models.ChatRoom, error) {
	room, err := s.chats.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(uid) {
		return nil, fmt.Errorf("not a participant of room %d: %w", roomID, apperr.ErrForbidden)
	}
	return room, nil
}

// SendMessage appends a message and notifies the other participant
func (s *ChatService) SendMessage(ctx context.Context, uid string, roomID int64, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty message: %w", apperr.ErrInvalidInput)
	}

	room, err := s.participantRoom(ctx, uid, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		RoomID:    roomID,
		SenderUID: uid,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.chats.AddMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	peer := room.Peer(uid)
	if s.events != nil {
		s.events.SendToUser(peer, ws.Event{Type: ws.EventChatMessage, Data: msg})
	}

	_, err = s.notifier.NotifyAndPush(ctx, NotificationInput{
		UserID:  peer,
		Type:    models.NotificationMessage,
		Title:   "New message about " + room.Title,
		Message: preview(text),
		Link:    fmt.Sprintf("/chat/%d", roomID),
		Data: &models.NotificationData{Message: &models.MessageData{
			RoomID:    roomID,
			SenderUID: uid,
			Preview:   preview(text),
		}},
	})
	if err != nil {
		log.Warn().Err(err).Int64("room_id", roomID).Msg("failed to notify chat peer")
	}
	return msg, nil
}

// ListMessages returns up to limit messages older than before, oldest first
func (s *ChatService) ListMessages(ctx context.Context, uid string, roomID int64, before time.Time, limit int) ([]models.ChatMessage, error) {
	if _, err := s.participantRoom(ctx, uid, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}
	if before.IsZero() {
		before = s.now().Add(time.Second)
	}
	return s.chats.ListMessages(ctx, roomID, before, int64(limit))
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength]) + "…"
}
