package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the allocated-vs-used ledger row for one fiscal year of one
// department. TotalAllocated and TotalUsed are derived sums and must always
// equal the category-level fields; every write path recomputes them before
// persisting.
type Budget struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	Year       int    `gorm:"not null;uniqueIndex:idx_budget_year_department" json:"year"`
	Department string `gorm:"size:128;not null;uniqueIndex:idx_budget_year_department" json:"department"`

	FixedAssetsAllocated    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"fixedAssetsAllocated"`
	FixedAssetsUsed         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"fixedAssetsUsed"`
	ToolsEquipmentAllocated decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"toolsEquipmentAllocated"`
	ToolsEquipmentUsed      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"toolsEquipmentUsed"`

	TotalAllocated decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalAllocated"`
	TotalUsed      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalUsed"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// DeriveTotals recomputes the total columns from the category columns.
func (b *Budget) DeriveTotals() {
	b.TotalAllocated = b.FixedAssetsAllocated.Add(b.ToolsEquipmentAllocated)
	b.TotalUsed = b.FixedAssetsUsed.Add(b.ToolsEquipmentUsed)
}

// Consistent reports whether the stored totals equal the category sums.
func (b *Budget) Consistent() bool {
	return b.TotalAllocated.Equal(b.FixedAssetsAllocated.Add(b.ToolsEquipmentAllocated)) &&
		b.TotalUsed.Equal(b.FixedAssetsUsed.Add(b.ToolsEquipmentUsed))
}
