package model

import "time"

// Department is a subscribable department label. Rows are created lazily
// when a subscription first references the department.
type Department struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:128;not null" json:"name"`
}

// PushSubscription holds the information for a browser push subscription.
// A subscriber is notified when a procurement request in one of its
// departments changes status.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`

	// Associations
	Departments []*Department `gorm:"many2many:subscription_department_mapping;" json:"departments,omitempty"`
}
