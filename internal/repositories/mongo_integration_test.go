//go:build integration

package repositories

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// startMongo runs a throwaway MongoDB and returns a fresh database on it
func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start mongo: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("lostfound_test")
}

func TestMongoIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()

	t.Run("push subscriptions upsert per endpoint", func(t *testing.T) {
		repo := NewMongoPushSubscriptionRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("indexes: %v", err)
		}

		for i := 0; i < 3; i++ {
			sub := &models.PushSubscription{
				UserID:    "alice",
				Kind:      models.PushKindWeb,
				Endpoint:  "https://push.example.com/1",
				Keys:      &models.PushKeys{P256dh: "p", Auth: fmt.Sprintf("a%d", i)},
				UserAgent: "test",
			}
			if err := repo.Upsert(ctx, sub); err != nil {
				t.Fatalf("upsert %d: %v", i, err)
			}
		}
		if err := repo.Upsert(ctx, &models.PushSubscription{UserID: "alice", Kind: models.PushKindFCM, FCMToken: "tok"}); err != nil {
			t.Fatalf("upsert fcm: %v", err)
		}

		subs, err := repo.ListByUser(ctx, "alice")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(subs) != 2 {
			t.Fatalf("got %d subscriptions, want 2", len(subs))
		}
		if subs[0].Keys == nil || subs[0].Keys.Auth != "a2" {
			t.Errorf("keys not refreshed: %+v", subs[0].Keys)
		}

		removed, err := repo.Delete(ctx, "alice", models.PushKindFCM, "tok")
		if err != nil || !removed {
			t.Errorf("delete = %v, %v", removed, err)
		}
	})

	t.Run("chat rooms are unique per item and pair", func(t *testing.T) {
		repo := NewMongoChatRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("indexes: %v", err)
		}

		first := &models.ChatRoom{PostID: 7, OwnerUID: "alice", FinderUID: "bob", Title: "Wallet"}
		if err := repo.InsertRoom(ctx, first); err != nil {
			t.Fatalf("insert: %v", err)
		}
		dup := &models.ChatRoom{PostID: 7, OwnerUID: "alice", FinderUID: "bob", Title: "Wallet"}
		if err := repo.InsertRoom(ctx, dup); !errors.Is(err, apperr.ErrConflict) {
			t.Fatalf("duplicate insert err = %v, want ErrConflict", err)
		}

		second := &models.ChatRoom{PostID: 7, OwnerUID: "alice", FinderUID: "carol", Title: "Wallet"}
		if err := repo.InsertRoom(ctx, second); err != nil {
			t.Fatalf("insert second finder: %v", err)
		}
		if second.ID <= first.ID {
			t.Errorf("room ids not increasing: %d then %d", first.ID, second.ID)
		}

		found, err := repo.FindRoom(ctx, 7, "alice", "bob")
		if err != nil || found.ID != first.ID {
			t.Errorf("FindRoom = %+v, %v", found, err)
		}

		rooms, err := repo.ListRoomsForUser(ctx, "alice")
		if err != nil || len(rooms) != 2 {
			t.Errorf("alice rooms = %d, %v; want 2", len(rooms), err)
		}
	})

	t.Run("notifications mark read only for the owner", func(t *testing.T) {
		repo := NewMongoNotificationRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("indexes: %v", err)
		}

		n := &models.Notification{UserID: "alice", Type: models.NotificationSystem, Title: "hi", CreatedAt: time.Now().UTC()}
		if err := repo.CreateNotification(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.MarkAsRead(ctx, "mallory", n.ID.Hex()); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("foreign mark read err = %v, want ErrNotFound", err)
		}
		if err := repo.MarkAsRead(ctx, "alice", n.ID.Hex()); err != nil {
			t.Errorf("mark read: %v", err)
		}
		if count, _ := repo.GetUnreadCount(ctx, "alice"); count != 0 {
			t.Errorf("unread = %d, want 0", count)
		}
	})
}
