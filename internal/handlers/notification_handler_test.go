package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/anonto42/findit/backend/internal/models"
)

func seedInbox(t *testing.T, inbox *memInbox, uid string, n int) []models.Notification {
	t.Helper()
	out := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		note := &models.Notification{
			UserID:    uid,
			Type:      models.NotificationSystem,
			Title:     "Welcome",
			Message:   "hello",
			Priority:  models.PriorityNormal,
			CreatedAt: time.Now().UTC(),
		}
		if err := inbox.CreateNotification(context.Background(), note); err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, *note)
	}
	return out
}

func TestNotificationHandler_List(t *testing.T) {
	t.Parallel()

	inbox := &memInbox{}
	seedInbox(t, inbox, "alice", 3)
	seedInbox(t, inbox, "bob", 1)

	e, g := newTestEcho()
	NewNotificationHandler(inbox).RegisterNotificationRoutes(g)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/notifications?page=1&limit=2", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var data struct {
		Notifications []models.Notification `json:"notifications"`
	}
	env := decode(t, rec, &data)
	if len(data.Notifications) != 2 {
		t.Errorf("got %d notifications, want 2", len(data.Notifications))
	}
	if env.Meta["totalItems"] != float64(3) || env.Meta["hasNextPage"] != true {
		t.Errorf("unexpected meta: %v", env.Meta)
	}
}

func TestNotificationHandler_RequiresAuth(t *testing.T) {
	t.Parallel()

	e, g := newTestEcho()
	NewNotificationHandler(&memInbox{}).RegisterNotificationRoutes(g)

	rec := doRequest(t, e, http.MethodGet, "/api/v1/notifications/unread-count", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestNotificationHandler_ReadFlow(t *testing.T) {
	t.Parallel()

	inbox := &memInbox{}
	notes := seedInbox(t, inbox, "alice", 2)

	e, g := newTestEcho()
	NewNotificationHandler(inbox).RegisterNotificationRoutes(g)

	rec := doRequest(t, e, http.MethodPut, "/api/v1/notifications/"+notes[0].ID.Hex()+"/read", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", rec.Code)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	decode(t, doRequest(t, e, http.MethodGet, "/api/v1/notifications/unread-count", "alice", nil), &count)
	if count.Count != 1 {
		t.Errorf("unread = %d, want 1", count.Count)
	}

	// Someone else's notification looks absent
	rec = doRequest(t, e, http.MethodPut, "/api/v1/notifications/"+notes[1].ID.Hex()+"/read", "mallory", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign mark read status = %d, want 404", rec.Code)
	}

	var updated struct {
		Updated int64 `json:"updated"`
	}
	decode(t, doRequest(t, e, http.MethodPut, "/api/v1/notifications/read-all", "alice", nil), &updated)
	if updated.Updated != 1 {
		t.Errorf("read-all updated = %d, want 1", updated.Updated)
	}

	rec = doRequest(t, e, http.MethodDelete, "/api/v1/notifications/"+notes[0].ID.Hex(), "alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if got := len(inbox.forUser("alice")); got != 1 {
		t.Errorf("alice has %d notifications after delete, want 1", got)
	}
}

func TestNotificationHandler_Grouped(t *testing.T) {
	t.Parallel()

	inbox := &memInbox{}
	seedInbox(t, inbox, "alice", 2)

	e, g := newTestEcho()
	NewNotificationHandler(inbox).RegisterNotificationRoutes(g)

	var data struct {
		Notifications struct {
			Today []models.Notification `json:"today"`
		} `json:"notifications"`
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, doRequest(t, e, http.MethodGet, "/api/v1/notifications/grouped", "alice", nil), &data)
	if len(data.Notifications.Today) != 2 || data.UnreadCount != 2 {
		t.Errorf("grouped = %d today, %d unread; want 2, 2", len(data.Notifications.Today), data.UnreadCount)
	}
}
