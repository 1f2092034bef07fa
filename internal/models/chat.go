package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRoom is a conversation between an item owner and the person who made
// contact about it (MongoDB). ID is allocated from the counters collection.
type ChatRoom struct {
	ID        int64     `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	PostID    uint      `json:"post_id" bson:"post_id"`
	OwnerUID  string    `json:"owner_uid" bson:"owner_uid"`
	FinderUID string    `json:"finder_uid" bson:"finder_uid"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// HasParticipant reports whether uid is one of the two participants
func (r *ChatRoom) HasParticipant(uid string) bool {
	return uid != "" && (r.OwnerUID == uid || r.FinderUID == uid)
}

// Peer returns the other participant
func (r *ChatRoom) Peer(uid string) string {
	if r.OwnerUID == uid {
		return r.FinderUID
	}
	return r.OwnerUID
}

// ChatMessage is a single message in a room (MongoDB)
type ChatMessage struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RoomID    int64              `json:"room_id" bson:"room_id"`
	SenderUID string             `json:"sender_uid" bson:"sender_uid"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

type CreateChatRoomRequest struct {
	PostID uint `json:"post_id" validate:"required"`
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}
