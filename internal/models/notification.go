package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationMatchFound   NotificationType = "match_found"
	NotificationMessage      NotificationType = "message"
	NotificationItemFound    NotificationType = "item_found"
	NotificationItemLost     NotificationType = "item_lost"
	NotificationQRScan       NotificationType = "qr_scan"
	NotificationItemClaimed  NotificationType = "item_claimed"
	NotificationVerification NotificationType = "verification"
	NotificationSystem       NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMatchFound, NotificationMessage, NotificationItemFound, NotificationItemLost,
		NotificationQRScan, NotificationItemClaimed, NotificationVerification, NotificationSystem:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is an event surfaced to one user (MongoDB)
type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Type      NotificationType   `json:"type" bson:"type"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Priority  Priority           `json:"priority" bson:"priority"`
	Read      bool               `json:"read" bson:"read"`
	Link      string             `json:"link,omitempty" bson:"link,omitempty"`
	Data      *NotificationData  `json:"data,omitempty" bson:"data,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// NotificationData is a tagged variant: at most one field is set and it must
// be the one that belongs to the notification type.
type NotificationData struct {
	Match   *MatchData   `json:"match,omitempty" bson:"match,omitempty"`
	Message *MessageData `json:"message,omitempty" bson:"message,omitempty"`
	Item    *ItemData    `json:"item,omitempty" bson:"item,omitempty"`
	Scan    *ScanData    `json:"scan,omitempty" bson:"scan,omitempty"`
}

// MatchData accompanies match_found
type MatchData struct {
	ItemID        uint    `json:"item_id" bson:"item_id"`
	MatchedItemID uint    `json:"matched_item_id" bson:"matched_item_id"`
	DistanceKm    float64 `json:"distance_km" bson:"distance_km"`
}

// MessageData accompanies message
type MessageData struct {
	RoomID    int64  `json:"room_id" bson:"room_id"`
	SenderUID string `json:"sender_uid" bson:"sender_uid"`
	Preview   string `json:"preview" bson:"preview"`
}

// ItemData accompanies item_found, item_lost, item_claimed and verification
type ItemData struct {
	ItemID   uint   `json:"item_id" bson:"item_id"`
	ActorUID string `json:"actor_uid,omitempty" bson:"actor_uid,omitempty"`
}

// ScanData accompanies qr_scan. Position fields are set only when the
// scanner shared a location.
type ScanData struct {
	ItemID     uint     `json:"item_id" bson:"item_id"`
	ScannerGPS string   `json:"scanner_gps,omitempty" bson:"scanner_gps,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
}

// variant names the populated field, "" when none is set
func (d *NotificationData) variant() (string, int) {
	if d == nil {
		return "", 0
	}
	name, n := "", 0
	if d.Match != nil {
		name, n = "match", n+1
	}
	if d.Message != nil {
		name, n = "message", n+1
	}
	if d.Item != nil {
		name, n = "item", n+1
	}
	if d.Scan != nil {
		name, n = "scan", n+1
	}
	return name, n
}

func expectedVariant(t NotificationType) string {
	switch t {
	case NotificationMatchFound:
		return "match"
	case NotificationMessage:
		return "message"
	case NotificationItemFound, NotificationItemLost, NotificationItemClaimed, NotificationVerification:
		return "item"
	case NotificationQRScan:
		return "scan"
	}
	return ""
}

// CheckFor verifies that d is a legal payload for type t. A nil payload is
// always legal.
func (d *NotificationData) CheckFor(t NotificationType) error {
	name, n := d.variant()
	if n == 0 {
		return nil
	}
	if n > 1 {
		return fmt.Errorf("notification data carries %d variants", n)
	}
	if want := expectedVariant(t); name != want {
		return fmt.Errorf("notification type %q cannot carry %q data", t, name)
	}
	return nil
}
