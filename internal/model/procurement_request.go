package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the position of a procurement request in the approval pipeline.
type RequestStatus string

const (
	StatusDraft     RequestStatus = "draft"
	StatusRequested RequestStatus = "requested"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusPurchased RequestStatus = "purchased"
	StatusCompleted RequestStatus = "completed"
)

// Valid reports whether s is one of the known pipeline statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusRequested, StatusApproved, StatusRejected, StatusPurchased, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// Category is the procurement category a request is charged against.
type Category string

const (
	CategoryFixedAssets    Category = "fixed-assets"
	CategoryToolsEquipment Category = "tools-equipment"
)

func (c Category) Valid() bool {
	return c == CategoryFixedAssets || c == CategoryToolsEquipment
}

// Priority is informational only; it never gates a transition.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// DefaultUnit is used when a request does not name its own counting unit.
const DefaultUnit = "chiếc"

// ProcurementRequest is a tracked purchase request moving through the
// approval pipeline. actualPaymentValue is only meaningful once the request
// reaches purchased or completed.
type ProcurementRequest struct {
	ID                    int64           `gorm:"primaryKey" json:"id"`
	ItemName              string          `gorm:"size:256;not null" json:"itemName"`
	Category              Category        `gorm:"size:32;not null;index" json:"category"`
	Status                RequestStatus   `gorm:"size:16;not null;index" json:"status"`
	Priority              Priority        `gorm:"size:16;not null;default:medium" json:"priority"`
	Department            string          `gorm:"size:128;not null;index" json:"department"`
	RequestedBy           string          `gorm:"size:128" json:"requestedBy"`
	ApprovedBy            string          `gorm:"size:128" json:"approvedBy,omitempty"`
	Quantity              int             `gorm:"not null" json:"quantity"`
	Unit                  string          `gorm:"size:32;not null" json:"unit"`
	RequestedValue        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"requestedValue"`
	ActualPaymentValue    decimal.Decimal `gorm:"type:decimal(20,4)" json:"actualPaymentValue"`
	DepartmentRequestDate time.Time       `gorm:"not null" json:"departmentRequestDate"`
	DepartmentBudgetDate  time.Time       `gorm:"not null" json:"departmentBudgetDate"`
	PurchaseDate          *time.Time      `json:"purchaseDate,omitempty"`
	WarrantyPeriod        *int            `json:"warrantyPeriod,omitempty"`
	Supplier              string          `gorm:"size:256" json:"supplier,omitempty"`
	Specifications        string          `gorm:"type:text" json:"specifications,omitempty"`
	SelectionMethod       string          `gorm:"size:128" json:"selectionMethod,omitempty"`
	Notes                 string          `gorm:"type:text" json:"notes,omitempty"`
	BudgetYear            int             `gorm:"not null;index" json:"budgetYear"`
	CreatedAt             time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt             time.Time       `gorm:"not null" json:"updatedAt"`
}

// ChargedValue is the amount a request contributes to the budget ledger:
// the actual payment once known, the request-time estimate otherwise.
func (r *ProcurementRequest) ChargedValue() decimal.Decimal {
	if r.ActualPaymentValue.IsPositive() {
		return r.ActualPaymentValue
	}
	return r.RequestedValue
}
