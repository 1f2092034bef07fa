package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PushKind string

const (
	PushKindWeb PushKind = "webpush"
	PushKindFCM PushKind = "fcm"
)

// PushKeys are the browser-generated encryption keys of a web push subscription
type PushKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh" validate:"required"`
	Auth   string `json:"auth" bson:"auth" validate:"required"`
}

// PushSubscription is one delivery endpoint of a user (MongoDB). Web push
// subscriptions carry Endpoint and Keys, cloud messaging ones FCMToken.
type PushSubscription struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         string             `json:"user_id" bson:"user_id"`
	Kind           PushKind           `json:"kind" bson:"kind"`
	Endpoint       string             `json:"endpoint,omitempty" bson:"endpoint,omitempty"`
	Keys           *PushKeys          `json:"keys,omitempty" bson:"keys,omitempty"`
	ExpirationTime *int64             `json:"expiration_time,omitempty" bson:"expiration_time,omitempty"`
	FCMToken       string             `json:"-" bson:"fcm_token,omitempty"`
	UserAgent      string             `json:"user_agent" bson:"user_agent"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// Address is the transport-level address used in logs and dedup
func (s *PushSubscription) Address() string {
	if s.Kind == PushKindFCM {
		return s.FCMToken
	}
	return s.Endpoint
}

// SubscribeRequest accepts either a browser PushSubscription JSON or an FCM token
type SubscribeRequest struct {
	Endpoint       string    `json:"endpoint" validate:"required_without=FCMToken"`
	Keys           *PushKeys `json:"keys" validate:"required_with=Endpoint"`
	ExpirationTime *int64    `json:"expirationTime"`
	FCMToken       string    `json:"fcmToken" validate:"required_without=Endpoint"`
}

// UnsubscribeRequest identifies the endpoint to drop
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required_without=FCMToken"`
	FCMToken string `json:"fcmToken" validate:"required_without=Endpoint"`
}

// SendPushRequest triggers a dispatch to one user
type SendPushRequest struct {
	UserID string            `json:"userId" validate:"required"`
	Title  string            `json:"title" validate:"required,max=120"`
	Body   string            `json:"body" validate:"required,max=500"`
	URL    string            `json:"url,omitempty"`
	Tag    string            `json:"tag,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}
