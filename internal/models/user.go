package models

import "time"

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Phone       string    `json:"phone,omitempty"`
	FirebaseUID string    `json:"firebase_uid" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public view of a user embedded in other responses
type UserCompact struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	FirebaseUID string `json:"firebase_uid"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, FirebaseUID: u.FirebaseUID}
}

type UpdateUserRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}
