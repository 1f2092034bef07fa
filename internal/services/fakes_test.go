package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/push"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/anonto42/findit/backend/internal/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// memNotifications is an in-memory NotificationRepository
type memNotifications struct {
	mu    sync.Mutex
	items []models.Notification
	err   error
}

func (m *memNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = primitive.NewObjectID()
	m.items = append(m.items, *n)
	return nil
}

func (m *memNotifications) forUser(uid string) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.items {
		if n.UserID == uid {
			out = append(out, n)
		}
	}
	return out
}

func (m *memNotifications) GetByUserID(_ context.Context, uid string, _, _ int) ([]models.Notification, int64, error) {
	out := m.forUser(uid)
	return out, int64(len(out)), nil
}

func (m *memNotifications) GetGrouped(context.Context, string, time.Time) (*repositories.GroupedNotifications, error) {
	return &repositories.GroupedNotifications{}, nil
}

func (m *memNotifications) GetUnreadCount(_ context.Context, uid string) (int64, error) {
	var n int64
	for _, item := range m.forUser(uid) {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkAsRead(context.Context, string, string) error { return nil }

func (m *memNotifications) MarkAllAsRead(context.Context, string) (int64, error) { return 0, nil }

func (m *memNotifications) DeleteNotification(context.Context, string, string) error { return nil }

// recordingHub captures live events
type recordingHub struct {
	mu     sync.Mutex
	events map[string][]ws.Event
}

func (h *recordingHub) SendToUser(uid string, ev ws.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = map[string][]ws.Event{}
	}
	h.events[uid] = append(h.events[uid], ev)
	return 1
}

func (h *recordingHub) count(uid, eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events[uid] {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// recordingPusher captures dispatches
type recordingPusher struct {
	mu       sync.Mutex
	payloads map[string][]push.Payload
	err      error
}

func (p *recordingPusher) Dispatch(_ context.Context, uid string, payload push.Payload) (push.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.payloads == nil {
		p.payloads = map[string][]push.Payload{}
	}
	p.payloads[uid] = append(p.payloads[uid], payload)
	if p.err != nil {
		return push.Result{}, p.err
	}
	return push.Result{Total: 1, Sent: 1}, nil
}

// memChats is an in-memory ChatRepository that enforces the
// (post_id, owner_uid, finder_uid) uniqueness
type memChats struct {
	mu       sync.Mutex
	seq      int64
	rooms    []models.ChatRoom
	messages []models.ChatMessage

	// hideNextFind makes the next FindRoom miss, simulating a concurrent
	// creator that has not committed yet
	hideNextFind bool
}

func (m *memChats) FindRoom(_ context.Context, postID uint, owner, finder string) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideNextFind {
		m.hideNextFind = false
		return nil, fmt.Errorf("chat room %w", apperr.ErrNotFound)
	}
	for _, r := range m.rooms {
		if r.PostID == postID && r.OwnerUID == owner && r.FinderUID == finder {
			room := r
			return &room, nil
		}
	}
	return nil, fmt.Errorf("chat room %w", apperr.ErrNotFound)
}

func (m *memChats) GetRoomByID(_ context.Context, id int64) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.ID == id {
			room := r
			return &room, nil
		}
	}
	return nil, fmt.Errorf("chat room %w", apperr.ErrNotFound)
}

func (m *memChats) InsertRoom(_ context.Context, room *models.ChatRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	for _, r := range m.rooms {
		if r.PostID == room.PostID && r.OwnerUID == room.OwnerUID && r.FinderUID == room.FinderUID {
			return fmt.Errorf("chat room %w", apperr.ErrConflict)
		}
	}
	room.ID = m.seq
	m.rooms = append(m.rooms, *room)
	return nil
}

func (m *memChats) ListRoomsForUser(_ context.Context, uid string) ([]models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ChatRoom{}
	for _, r := range m.rooms {
		if r.HasParticipant(uid) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memChats) AddMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memChats) ListMessages(_ context.Context, roomID int64, before time.Time, limit int64) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ChatMessage{}
	for _, msg := range m.messages {
		if msg.RoomID == roomID && msg.CreatedAt.Before(before) {
			out = append(out, msg)
		}
	}
	if int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

// fixture wires services over sqlite and the in-memory stores
type fixture struct {
	notifications *memNotifications
	hub           *recordingHub
	pusher        *recordingPusher
	chats         *memChats
	itemRepo      *repositories.PostgresItemRepository
	userRepo      *repositories.PostgresUserRepository
	notifier      *Notifier
	items         *ItemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		notifications: &memNotifications{},
		hub:           &recordingHub{},
		pusher:        &recordingPusher{},
		chats:         &memChats{},
		itemRepo:      repositories.NewPostgresItemRepository(db),
		userRepo:      repositories.NewPostgresUserRepository(db),
	}
	f.notifier = NewNotifier(f.notifications, f.hub, f.pusher)
	f.items = NewItemService(f.itemRepo, f.notifier, geoLocator(), defaultMatch())
	return f
}

func (f *fixture) seedItem(t *testing.T, owner string, status models.ItemStatus, title, gps string) *models.Item {
	t.Helper()
	item := &models.Item{Title: title, Category: "misc", Status: status, GPS: gps, OwnerUID: owner, Photos: []string{}}
	if err := f.itemRepo.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}
