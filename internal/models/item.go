package models

import (
	"time"

	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemLost  ItemStatus = "lost"
	ItemFound ItemStatus = "found"
)

// Opposite returns the status a matching report would carry
func (s ItemStatus) Opposite() ItemStatus {
	if s == ItemLost {
		return ItemFound
	}
	return ItemLost
}

// Item is a lost or found report (PostgreSQL)
type Item struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"size:120"`
	Description  string         `json:"description"`
	Category     string         `json:"category" gorm:"size:40;index"`
	Status       ItemStatus     `json:"status" gorm:"size:10;index"`
	Photos       []string       `json:"photos" gorm:"serializer:json"`
	GPS          string         `json:"gps" gorm:"size:64"` // "lat,lng"
	Reward       bool           `json:"reward"`
	RewardAmount float64        `json:"reward_amount,omitempty"`
	OwnerUID     string         `json:"owner_uid" gorm:"size:128;index"`
	OwnerEmail   string         `json:"owner_email"`
	QRRegistered bool           `json:"qr_registered"`
	ClaimedBy    string         `json:"claimed_by,omitempty" gorm:"size:128"`
	Verified     bool           `json:"verified"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// PublicItem is what an anonymous QR scanner gets to see
type PublicItem struct {
	ID       uint       `json:"id"`
	Title    string     `json:"title"`
	Category string     `json:"category"`
	Status   ItemStatus `json:"status"`
	Photos   []string   `json:"photos"`
	Reward   bool       `json:"reward"`
}

func (i *Item) Public() PublicItem {
	return PublicItem{
		ID:       i.ID,
		Title:    i.Title,
		Category: i.Category,
		Status:   i.Status,
		Photos:   i.Photos,
		Reward:   i.Reward,
	}
}

// ItemFilter narrows item listings. Empty fields are ignored.
type ItemFilter struct {
	Status   ItemStatus
	Category string
	OwnerUID string
	Open     bool // unclaimed only
}

type CreateItemRequest struct {
	Title        string     `json:"title" validate:"required,min=2,max=120"`
	Description  string     `json:"description" validate:"max=2000"`
	Category     string     `json:"category" validate:"required,max=40"`
	Status       ItemStatus `json:"status" validate:"required,oneof=lost found"`
	Photos       []string   `json:"photos,omitempty" validate:"omitempty,max=6,dive,url"`
	GPS          string     `json:"gps" validate:"required,gps"`
	Reward       bool       `json:"reward"`
	RewardAmount float64    `json:"reward_amount" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Title        string   `json:"title,omitempty" validate:"omitempty,min=2,max=120"`
	Description  string   `json:"description,omitempty" validate:"max=2000"`
	Category     string   `json:"category,omitempty" validate:"max=40"`
	Photos       []string `json:"photos,omitempty" validate:"omitempty,max=6,dive,url"`
	GPS          string   `json:"gps,omitempty" validate:"omitempty,gps"`
	Reward       *bool    `json:"reward,omitempty"`
	RewardAmount *float64 `json:"reward_amount,omitempty" validate:"omitempty,gte=0"`
}
