package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatRoomSequence = "chat_rooms"

// ChatRepository defines the interface for chat rooms and their messages
type ChatRepository interface {
	FindRoom(ctx context.Context, postID uint, ownerUID, finderUID string) (*models.ChatRoom, error)
	GetRoomByID(ctx context.Context, id int64) (*models.ChatRoom, error)
	InsertRoom(ctx context.Context, room *models.ChatRoom) error
	ListRoomsForUser(ctx context.Context, uid string) ([]models.ChatRoom, error)
	AddMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, roomID int64, before time.Time, limit int64) ([]models.ChatMessage, error)
}

// MongoChatRepository implements ChatRepository for MongoDB
type MongoChatRepository struct {
	rooms    *mongo.Collection
	messages *mongo.Collection
	counters *mongo.Collection
}

// NewMongoChatRepository creates a new MongoChatRepository
func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{
		rooms:    db.Collection("chat_rooms"),
		messages: db.Collection("chat_messages"),
		counters: db.Collection("counters"),
	}
}

// EnsureIndexes makes (post_id, owner_uid, finder_uid) the unique room key
func (r *MongoChatRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.rooms.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "owner_uid", Value: 1}, {Key: "finder_uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "owner_uid", Value: 1}}},
		{Keys: bson.D{{Key: "finder_uid", Value: 1}}},
	}); err != nil {
		return err
	}
	_, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *MongoChatRepository) FindRoom(ctx context.Context, postID uint, ownerUID, finderUID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.rooms.FindOne(ctx, bson.M{"post_id": postID, "owner_uid": ownerUID, "finder_uid": finderUID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("chat room %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &room, nil
}

func (r *MongoChatRepository) GetRoomByID(ctx context.Context, id int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("chat room %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &room, nil
}

// nextSequence atomically increments and returns the named counter
func (r *MongoChatRepository) nextSequence(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

// InsertRoom allocates the next room id and stores the room. A concurrent
// insert of the same (post, owner, finder) yields apperr.ErrConflict.
func (r *MongoChatRepository) InsertRoom(ctx context.Context, room *models.ChatRoom) error {
	id, err := r.nextSequence(ctx, chatRoomSequence)
	if err != nil {
		return fmt.Errorf("allocate chat room id: %w", err)
	}
	room.ID = id
	room.CreatedAt = time.Now().UTC()

	if _, err := r.rooms.InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("chat room %w", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *MongoChatRepository) ListRoomsForUser(ctx context.Context, uid string) ([]models.ChatRoom, error) {
	cursor, err := r.rooms.Find(ctx,
		bson.M{"$or": bson.A{bson.M{"owner_uid": uid}, bson.M{"finder_uid": uid}}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []models.ChatRoom{}
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *MongoChatRepository) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	_, err := r.messages.InsertOne(ctx, msg)
	return err
}

// ListMessages returns up to limit messages older than before, oldest first
func (r *MongoChatRepository) ListMessages(ctx context.Context, roomID int64, before time.Time, limit int64) ([]models.ChatMessage, error) {
	cursor, err := r.messages.Find(ctx,
		bson.M{"room_id": roomID, "created_at": bson.M{"$lt": before}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
