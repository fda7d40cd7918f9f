package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Device category labels as shown on the asset register.
const (
	DeviceCategoryFixedAsset     = "Tài sản cố định"
	DeviceCategoryToolsEquipment = "Công cụ dụng cụ"
)

// Device is a durable asset record. Auto-provisioned devices are created
// exactly once when their source request completes; later edits to the
// request never flow back into the device.
type Device struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Code          string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name          string     `gorm:"size:256;not null" json:"name"`
	Category      string     `gorm:"size:64;not null" json:"category"`
	Unit          string     `gorm:"size:32;not null" json:"unit"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	PurchaseYear  int        `gorm:"not null" json:"purchaseYear"`
	WarrantyUntil *time.Time `json:"warrantyUntil,omitempty"`
	RoomID        *int64     `gorm:"index" json:"roomId,omitempty"`

	Supplier        string          `gorm:"size:256" json:"supplier,omitempty"`
	Specifications  string          `gorm:"type:text" json:"specifications,omitempty"`
	SelectionMethod string          `gorm:"size:128" json:"selectionMethod,omitempty"`
	OriginalValue   decimal.Decimal `gorm:"type:decimal(20,4)" json:"originalValue"`

	// Back-reference to the request that provisioned this device. Unique:
	// at most one device may exist per source request.
	ProcurementID *int64 `gorm:"uniqueIndex" json:"procurementId,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Room *Room `gorm:"constraint:OnDelete:SET NULL" json:"room,omitempty"`
}
