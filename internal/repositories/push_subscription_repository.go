package repositories

import (
	"context"
	"time"

	"github.com/anonto42/findit/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PushSubscriptionRepository stores the delivery endpoints of users
type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	Delete(ctx context.Context, userID string, kind models.PushKind, address string) (bool, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
}

// MongoPushSubscriptionRepository implements PushSubscriptionRepository for MongoDB
type MongoPushSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoPushSubscriptionRepository creates a new MongoPushSubscriptionRepository
func NewMongoPushSubscriptionRepository(db *mongo.Database) *MongoPushSubscriptionRepository {
	return &MongoPushSubscriptionRepository{collection: db.Collection("push_subscriptions")}
}

// EnsureIndexes enforces one live record per (user, endpoint) and (user, token)
func (r *MongoPushSubscriptionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"endpoint": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "fcm_token", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"fcm_token": bson.M{"$exists": true}}),
		},
	})
	return err
}

func addressFilter(userID string, kind models.PushKind, address string) bson.M {
	if kind == models.PushKindFCM {
		return bson.M{"user_id": userID, "fcm_token": address}
	}
	return bson.M{"user_id": userID, "endpoint": address}
}

// Upsert inserts the subscription or refreshes the existing record for the
// same (user, endpoint). created_at is only written on insert.
func (r *MongoPushSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	now := time.Now().UTC()
	sub.UpdatedAt = now

	set := bson.M{
		"kind":       sub.Kind,
		"user_agent": sub.UserAgent,
		"updated_at": now,
	}
	if sub.Kind == models.PushKindWeb {
		set["keys"] = sub.Keys
		set["expiration_time"] = sub.ExpirationTime
	}

	res := r.collection.FindOneAndUpdate(ctx,
		addressFilter(sub.UserID, sub.Kind, sub.Address()),
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	return res.Decode(sub)
}

func (r *MongoPushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.PushSubscription
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Delete removes a user's subscription by endpoint or token and reports
// whether a record existed
func (r *MongoPushSubscriptionRepository) Delete(ctx context.Context, userID string, kind models.PushKind, address string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, addressFilter(userID, kind, address))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoPushSubscriptionRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
