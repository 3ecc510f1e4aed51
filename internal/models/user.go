package models

import "time"

type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Nickname        string    `gorm:"size:50;not null" json:"nickname"`
	TokenIdentifier string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
