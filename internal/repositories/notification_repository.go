package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByUserID(ctx context.Context, userID string, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(ctx context.Context, userID string, now time.Time) (*GroupedNotifications, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, notificationID string) error
}

// GroupedNotifications buckets a user's notifications by age
type GroupedNotifications struct {
	Today     []models.Notification `json:"today"`
	Yesterday []models.Notification `json:"yesterday"`
	ThisWeek  []models.Notification `json:"thisWeek"`
	Older     []models.Notification `json:"older"`
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// EnsureIndexes creates the indexes the inbox queries rely on
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	return err
}

func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *MongoNotificationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Notification, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *MongoNotificationRepository) GetByUserID(ctx context.Context, userID string, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	notifications, err := r.find(ctx, filter, findOptions)
	return notifications, total, err
}

func (r *MongoNotificationRepository) GetGrouped(ctx context.Context, userID string, now time.Time) (*GroupedNotifications, error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)
	newestFirst := func() *options.FindOptions {
		return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	var (
		g   GroupedNotifications
		err error
	)
	if g.Today, err = r.find(ctx, bson.M{"user_id": userID, "created_at": bson.M{"$gte": todayStart}}, newestFirst()); err != nil {
		return nil, err
	}
	if g.Yesterday, err = r.find(ctx, bson.M{"user_id": userID, "created_at": bson.M{"$gte": yesterdayStart, "$lt": todayStart}}, newestFirst()); err != nil {
		return nil, err
	}
	if g.ThisWeek, err = r.find(ctx, bson.M{"user_id": userID, "created_at": bson.M{"$gte": weekStart, "$lt": yesterdayStart}}, newestFirst()); err != nil {
		return nil, err
	}
	if g.Older, err = r.find(ctx, bson.M{"user_id": userID, "created_at": bson.M{"$lt": weekStart}}, newestFirst().SetLimit(50)); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkAsRead flags one notification as read. The user id is part of the
// filter so nobody can touch another user's inbox.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	objID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification ID format: %w", apperr.ErrInvalidInput)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	objID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return fmt.Errorf("invalid notification ID format: %w", apperr.ErrInvalidInput)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("notification %w", apperr.ErrNotFound)
	}
	return nil
}
