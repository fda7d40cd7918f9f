package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"facility-asset-backend/internal/ledger"
)

// GetBudget handles GET /api/budgets/:year/:department. First access to an
// unseen pair creates a zeroed row.
func GetBudget(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, department, ok := budgetKey(c)
		if !ok {
			return
		}

		budget, err := ledger.Get(db, year, department)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, budget)
	}
}

// UpsertBudget handles PUT /api/budgets/:year/:department. Only the
// category-level fields may be supplied; totals are derived.
func UpsertBudget(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, department, ok := budgetKey(c)
		if !ok {
			return
		}

		var input ledger.UpsertInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		budget, err := ledger.Upsert(db, year, department, input)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, budget)
	}
}

// GetBudgetReport handles GET /api/budgets/:year. Over-allocation is
// surfaced per row, never clamped.
func GetBudgetReport(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := strconv.Atoi(c.Param("year"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid budget year"})
			return
		}

		rows, err := ledger.Report(db, year)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func budgetKey(c *gin.Context) (int, string, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid budget year"})
		return 0, "", false
	}
	department := c.Param("department")
	if department == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "department is required"})
		return 0, "", false
	}
	return year, department, true
}
