// Package ledger maintains the per-year, per-department budget rows and
// keeps their derived totals consistent with the procurement requests that
// produced them.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"facility-asset-backend/internal/model"
)

// ErrInconsistent reports a budget row whose stored totals no longer equal
// the sum of its category fields. This indicates a bug in a write path, not
// a normal runtime condition.
var ErrInconsistent = errors.New("budget totals inconsistent with category fields")

// UpsertInput carries the allocation fields a caller may set. Totals are
// always derived; a payload that supplies them directly is rejected.
type UpsertInput struct {
	FixedAssetsAllocated    *decimal.Decimal `json:"fixedAssetsAllocated"`
	FixedAssetsUsed         *decimal.Decimal `json:"fixedAssetsUsed"`
	ToolsEquipmentAllocated *decimal.Decimal `json:"toolsEquipmentAllocated"`
	ToolsEquipmentUsed      *decimal.Decimal `json:"toolsEquipmentUsed"`
	TotalAllocated          *decimal.Decimal `json:"totalAllocated"`
	TotalUsed               *decimal.Decimal `json:"totalUsed"`
}

// Get returns the budget row for (year, department), creating a zeroed row
// on first access.
func Get(db *gorm.DB, year int, department string) (*model.Budget, error) {
	var budget model.Budget
	err := db.Where("year = ? AND department = ?", year, department).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		budget = model.Budget{
			Year:                    year,
			Department:              department,
			FixedAssetsAllocated:    decimal.Zero,
			FixedAssetsUsed:         decimal.Zero,
			ToolsEquipmentAllocated: decimal.Zero,
			ToolsEquipmentUsed:      decimal.Zero,
			TotalAllocated:          decimal.Zero,
			TotalUsed:               decimal.Zero,
		}
		if err := db.Create(&budget).Error; err != nil {
			return nil, fmt.Errorf("failed to create budget row: %w", err)
		}
		return &budget, nil
	}
	if err != nil {
		return nil, err
	}
	if !budget.Consistent() {
		return nil, fmt.Errorf("%w: year=%d department=%q", ErrInconsistent, year, department)
	}
	return &budget, nil
}

// Upsert merges the given category-level fields into the (year, department)
// row and recomputes the totals before persisting. Inputs that set totals
// directly are invalid: there is no way to reconcile them with the category
// breakdown.
func Upsert(db *gorm.DB, year int, department string, input UpsertInput) (*model.Budget, error) {
	if input.TotalAllocated != nil || input.TotalUsed != nil {
		return nil, errors.New("totals are derived and cannot be set directly")
	}
	for _, f := range []*decimal.Decimal{
		input.FixedAssetsAllocated, input.FixedAssetsUsed,
		input.ToolsEquipmentAllocated, input.ToolsEquipmentUsed,
	} {
		if f != nil && f.IsNegative() {
			return nil, errors.New("budget amounts must be non-negative")
		}
	}

	budget, err := Get(db, year, department)
	if err != nil {
		return nil, err
	}

	if input.FixedAssetsAllocated != nil {
		budget.FixedAssetsAllocated = *input.FixedAssetsAllocated
	}
	if input.FixedAssetsUsed != nil {
		budget.FixedAssetsUsed = *input.FixedAssetsUsed
	}
	if input.ToolsEquipmentAllocated != nil {
		budget.ToolsEquipmentAllocated = *input.ToolsEquipmentAllocated
	}
	if input.ToolsEquipmentUsed != nil {
		budget.ToolsEquipmentUsed = *input.ToolsEquipmentUsed
	}
	budget.DeriveTotals()

	if err := db.Save(budget).Error; err != nil {
		return nil, fmt.Errorf("failed to save budget row: %w", err)
	}
	return budget, nil
}

// Recompute rebuilds the used figures of the (year, department) row from a
// fresh read of every contributing request. Incremental deltas against a
// possibly-stale row would lose updates when two requests close at nearly
// the same time; summing from source cannot.
func Recompute(db *gorm.DB, year int, department string) (*model.Budget, error) {
	budget, err := Get(db, year, department)
	if err != nil {
		return nil, err
	}

	var requests []model.ProcurementRequest
	if err := db.
		Where("budget_year = ? AND department = ? AND status IN ?",
			year, department,
			[]model.RequestStatus{model.StatusPurchased, model.StatusCompleted}).
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to read contributing requests: %w", err)
	}

	fixedUsed := decimal.Zero
	toolsUsed := decimal.Zero
	for _, req := range requests {
		switch req.Category {
		case model.CategoryFixedAssets:
			fixedUsed = fixedUsed.Add(req.ChargedValue())
		case model.CategoryToolsEquipment:
			toolsUsed = toolsUsed.Add(req.ChargedValue())
		}
	}

	budget.FixedAssetsUsed = fixedUsed
	budget.ToolsEquipmentUsed = toolsUsed
	budget.DeriveTotals()

	if err := db.Save(budget).Error; err != nil {
		return nil, fmt.Errorf("failed to save recomputed budget row: %w", err)
	}
	return budget, nil
}

// ReportRow is a budget row annotated with over-allocation flags. The
// ledger never clamps over-allocation; it surfaces it for the caller to
// act on.
type ReportRow struct {
	model.Budget
	FixedAssetsOverAllocated    bool `json:"fixedAssetsOverAllocated"`
	ToolsEquipmentOverAllocated bool `json:"toolsEquipmentOverAllocated"`
	OverAllocated               bool `json:"overAllocated"`
}

// Report returns every budget row for the given year with over-allocation
// flags set where used exceeds allocated.
func Report(db *gorm.DB, year int) ([]ReportRow, error) {
	var budgets []model.Budget
	if err := db.Where("year = ?", year).Order("department ASC").Find(&budgets).Error; err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(budgets))
	for _, b := range budgets {
		if !b.Consistent() {
			return nil, fmt.Errorf("%w: year=%d department=%q", ErrInconsistent, b.Year, b.Department)
		}
		row := ReportRow{
			Budget:                      b,
			FixedAssetsOverAllocated:    b.FixedAssetsUsed.GreaterThan(b.FixedAssetsAllocated),
			ToolsEquipmentOverAllocated: b.ToolsEquipmentUsed.GreaterThan(b.ToolsEquipmentAllocated),
		}
		row.OverAllocated = row.FixedAssetsOverAllocated || row.ToolsEquipmentOverAllocated
		rows = append(rows, row)
	}
	return rows, nil
}
