// Package query filters and aggregates an in-memory set of procurement
// requests. It holds no state of its own; consumers re-run it on demand.
package query

import (
	"strings"

	"github.com/shopspring/decimal"

	"facility-asset-backend/internal/model"
)

// Filter narrows a request set. Zero-value fields match everything.
type Filter struct {
	Status     model.RequestStatus `form:"status" json:"status"`
	Category   model.Category      `form:"category" json:"category"`
	Department string              `form:"department" json:"department"`
	BudgetYear int                 `form:"budgetYear" json:"budgetYear"`
}

// Apply returns the requests matching every set filter field. Department
// is a case-insensitive substring match; the other fields match exactly.
func Apply(requests []model.ProcurementRequest, f Filter) []model.ProcurementRequest {
	department := strings.ToLower(f.Department)

	matched := make([]model.ProcurementRequest, 0, len(requests))
	for _, req := range requests {
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.Category != "" && req.Category != f.Category {
			continue
		}
		if department != "" && !strings.Contains(strings.ToLower(req.Department), department) {
			continue
		}
		if f.BudgetYear != 0 && req.BudgetYear != f.BudgetYear {
			continue
		}
		matched = append(matched, req)
	}
	return matched
}

// Statistics are aggregate figures over a request set.
type Statistics struct {
	Total                   int                           `json:"total"`
	ByStatus                map[model.RequestStatus]int   `json:"byStatus"`
	ByCategory              map[model.Category]int        `json:"byCategory"`
	TotalRequestedValue     decimal.Decimal               `json:"totalRequestedValue"`
	TotalActualPaymentValue decimal.Decimal               `json:"totalActualPaymentValue"`
}

// Aggregate computes statistics over the given requests. An empty input
// yields zeroed aggregates, never an error.
func Aggregate(requests []model.ProcurementRequest) Statistics {
	stats := Statistics{
		Total:                   len(requests),
		ByStatus:                make(map[model.RequestStatus]int),
		ByCategory:              make(map[model.Category]int),
		TotalRequestedValue:     decimal.Zero,
		TotalActualPaymentValue: decimal.Zero,
	}
	for _, req := range requests {
		stats.ByStatus[req.Status]++
		stats.ByCategory[req.Category]++
		stats.TotalRequestedValue = stats.TotalRequestedValue.Add(req.RequestedValue)
		if req.ActualPaymentValue.IsPositive() {
			stats.TotalActualPaymentValue = stats.TotalActualPaymentValue.Add(req.ActualPaymentValue)
		}
	}
	return stats
}
