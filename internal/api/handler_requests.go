package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"facility-asset-backend/internal/model"
	"facility-asset-backend/internal/procurement"
	"facility-asset-backend/internal/query"
)

type createRequestPayload struct {
	ItemName              string              `json:"itemName" binding:"required"`
	Category              model.Category      `json:"category" binding:"required"`
	Status                model.RequestStatus `json:"status"`
	Priority              model.Priority      `json:"priority"`
	Department            string              `json:"department" binding:"required"`
	RequestedBy           string              `json:"requestedBy"`
	Quantity              int                 `json:"quantity" binding:"required"`
	Unit                  string              `json:"unit"`
	RequestedValue        decimal.Decimal     `json:"requestedValue"`
	DepartmentRequestDate time.Time           `json:"departmentRequestDate" binding:"required"`
	DepartmentBudgetDate  time.Time           `json:"departmentBudgetDate" binding:"required"`
	WarrantyPeriod        *int                `json:"warrantyPeriod"`
	Supplier              string              `json:"supplier"`
	Specifications        string              `json:"specifications"`
	SelectionMethod       string              `json:"selectionMethod"`
	Notes                 string              `json:"notes"`
	BudgetYear            int                 `json:"budgetYear" binding:"required"`
}

// CreateRequest handles POST /api/requests.
func (h *Handler) CreateRequest(c *gin.Context) {
	var payload createRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.svc.Create(c.Request.Context(), procurement.CreateInput{
		ItemName:              payload.ItemName,
		Category:              payload.Category,
		Status:                payload.Status,
		Priority:              payload.Priority,
		Department:            payload.Department,
		RequestedBy:           payload.RequestedBy,
		Quantity:              payload.Quantity,
		Unit:                  payload.Unit,
		RequestedValue:        payload.RequestedValue,
		DepartmentRequestDate: payload.DepartmentRequestDate,
		DepartmentBudgetDate:  payload.DepartmentBudgetDate,
		WarrantyPeriod:        payload.WarrantyPeriod,
		Supplier:              payload.Supplier,
		Specifications:        payload.Specifications,
		SelectionMethod:       payload.SelectionMethod,
		Notes:                 payload.Notes,
		BudgetYear:            payload.BudgetYear,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GetRequest handles GET /api/requests/:id.
func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	req, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListRequests handles GET /api/requests with optional filters.
func (h *Handler) ListRequests(c *gin.Context) {
	var filter query.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requests, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, query.Apply(requests, filter))
}

type updateRequestPayload struct {
	ItemName              *string              `json:"itemName"`
	Category              *model.Category      `json:"category"`
	Status                *model.RequestStatus `json:"status"`
	Priority              *model.Priority      `json:"priority"`
	Department            *string              `json:"department"`
	RequestedBy           *string              `json:"requestedBy"`
	ApprovedBy            *string              `json:"approvedBy"`
	Quantity              *int                 `json:"quantity"`
	Unit                  *string              `json:"unit"`
	RequestedValue        *decimal.Decimal     `json:"requestedValue"`
	ActualPaymentValue    *decimal.Decimal     `json:"actualPaymentValue"`
	DepartmentRequestDate *time.Time           `json:"departmentRequestDate"`
	DepartmentBudgetDate  *time.Time           `json:"departmentBudgetDate"`
	PurchaseDate          *time.Time           `json:"purchaseDate"`
	WarrantyPeriod        *int                 `json:"warrantyPeriod"`
	Supplier              *string              `json:"supplier"`
	Specifications        *string              `json:"specifications"`
	SelectionMethod       *string              `json:"selectionMethod"`
	Notes                 *string              `json:"notes"`
	BudgetYear            *int                 `json:"budgetYear"`
	RoomID                *int64               `json:"roomId"`
}

// UpdateRequest handles PATCH /api/requests/:id. A status field in the
// payload goes through the transition validator; entering completed
// provisions the device and the response carries it.
func (h *Handler) UpdateRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var payload updateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, procurement.UpdateInput{
		ItemName:              payload.ItemName,
		Category:              payload.Category,
		Status:                payload.Status,
		Priority:              payload.Priority,
		Department:            payload.Department,
		RequestedBy:           payload.RequestedBy,
		ApprovedBy:            payload.ApprovedBy,
		Quantity:              payload.Quantity,
		Unit:                  payload.Unit,
		RequestedValue:        payload.RequestedValue,
		ActualPaymentValue:    payload.ActualPaymentValue,
		DepartmentRequestDate: payload.DepartmentRequestDate,
		DepartmentBudgetDate:  payload.DepartmentBudgetDate,
		PurchaseDate:          payload.PurchaseDate,
		WarrantyPeriod:        payload.WarrantyPeriod,
		Supplier:              payload.Supplier,
		Specifications:        payload.Specifications,
		SelectionMethod:       payload.SelectionMethod,
		Notes:                 payload.Notes,
		BudgetYear:            payload.BudgetYear,
		RoomID:                payload.RoomID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"request": result.Request}
	if result.ProvisionedDevice != nil {
		response["provisionedDevice"] = result.ProvisionedDevice
	}
	c.JSON(http.StatusOK, response)
}

// DeleteRequest handles DELETE /api/requests/:id. Deleting a request whose
// device was already provisioned keeps the device and reports its code.
func (h *Handler) DeleteRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	result, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.OrphanedDeviceCode != "" {
		c.JSON(http.StatusOK, gin.H{"orphanedDeviceCode": result.OrphanedDeviceCode})
		return
	}
	c.Status(http.StatusNoContent)
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return 0, false
	}
	return id, true
}
