package model

import "time"

// Room represents a physical room devices can be assigned to.
type Room struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Devices []Device `gorm:"foreignKey:RoomID" json:"-"`
}
