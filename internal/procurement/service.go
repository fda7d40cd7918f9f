package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"facility-asset-backend/internal/ledger"
	"facility-asset-backend/internal/model"
)

// Notifier is told about committed status changes so subscribers can be
// pushed a notification. Dispatching is best-effort and must never block
// or fail the update that triggered it.
type Notifier interface {
	NotifyStatusChange(requestID int64, department string, from, to model.RequestStatus)
}

// Service owns the procurement request lifecycle: CRUD, the status
// transition saga, device provisioning and budget recomputation. All store
// handles are explicit; nothing reads ambient client state.
type Service struct {
	db       *gorm.DB
	prov     *Provisioner
	notifier Notifier
	log      *logrus.Logger
}

// NewService creates a procurement service on top of the given database
// handle and provisioner.
func NewService(db *gorm.DB, prov *Provisioner, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{db: db, prov: prov, log: log}
}

// SetNotifier attaches a status-change notifier. A nil notifier disables
// notifications.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// CreateInput carries the fields a caller may set at creation time.
type CreateInput struct {
	ItemName              string
	Category              model.Category
	Status                model.RequestStatus
	Priority              model.Priority
	Department            string
	RequestedBy           string
	Quantity              int
	Unit                  string
	RequestedValue        decimal.Decimal
	DepartmentRequestDate time.Time
	DepartmentBudgetDate  time.Time
	WarrantyPeriod        *int
	Supplier              string
	Specifications        string
	SelectionMethod       string
	Notes                 string
	BudgetYear            int
}

func (in *CreateInput) validate() error {
	if in.ItemName == "" {
		return &ValidationError{Field: "itemName", Reason: "must not be empty"}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category"}
	}
	if in.Quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if in.RequestedValue.IsNegative() {
		return &ValidationError{Field: "requestedValue", Reason: "must be non-negative"}
	}
	if in.Department == "" {
		return &ValidationError{Field: "department", Reason: "must not be empty"}
	}
	if in.BudgetYear <= 0 {
		return &ValidationError{Field: "budgetYear", Reason: "must be a positive year"}
	}
	// draft is the normal initial state; requested is allowed for
	// pre-approved imports. Nothing else can be created directly.
	if in.Status != "" && in.Status != model.StatusDraft && in.Status != model.StatusRequested {
		return &ValidationError{Field: "status", Reason: "requests can only be created as draft or requested"}
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "unknown priority"}
	}
	return nil
}

// Create validates and persists a new procurement request, then brings the
// affected budget row into existence.
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.ProcurementRequest, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	req := model.ProcurementRequest{
		ItemName:              input.ItemName,
		Category:              input.Category,
		Status:                input.Status,
		Priority:              input.Priority,
		Department:            input.Department,
		RequestedBy:           input.RequestedBy,
		Quantity:              input.Quantity,
		Unit:                  input.Unit,
		RequestedValue:        input.RequestedValue,
		ActualPaymentValue:    decimal.Zero,
		DepartmentRequestDate: input.DepartmentRequestDate,
		DepartmentBudgetDate:  input.DepartmentBudgetDate,
		WarrantyPeriod:        input.WarrantyPeriod,
		Supplier:              input.Supplier,
		Specifications:        input.Specifications,
		SelectionMethod:       input.SelectionMethod,
		Notes:                 input.Notes,
		BudgetYear:            input.BudgetYear,
	}
	if req.Status == "" {
		req.Status = model.StatusDraft
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if req.Unit == "" {
		req.Unit = model.DefaultUnit
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		_, err := ledger.Recompute(tx, req.BudgetYear, req.Department)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request": req.ID,
		"status":  req.Status,
	}).Info("procurement request created")
	return &req, nil
}

// Get returns the request with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*model.ProcurementRequest, error) {
	var req model.ProcurementRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List returns every request, newest first.
func (s *Service) List(ctx context.Context) ([]model.ProcurementRequest, error) {
	var requests []model.ProcurementRequest
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateInput carries a partial field update. Nil pointers leave the stored
// field untouched.
type UpdateInput struct {
	ItemName              *string
	Category              *model.Category
	Status                *model.RequestStatus
	Priority              *model.Priority
	Department            *string
	RequestedBy           *string
	ApprovedBy            *string
	Quantity              *int
	Unit                  *string
	RequestedValue        *decimal.Decimal
	ActualPaymentValue    *decimal.Decimal
	DepartmentRequestDate *time.Time
	DepartmentBudgetDate  *time.Time
	PurchaseDate          *time.Time
	WarrantyPeriod        *int
	Supplier              *string
	Specifications        *string
	SelectionMethod       *string
	Notes                 *string
	BudgetYear            *int

	// RoomID overrides the heuristic room match when the update completes
	// the request. It has no effect on any other transition.
	RoomID *int64
}

func (in *UpdateInput) validate() error {
	if in.ItemName != nil && *in.ItemName == "" {
		return &ValidationError{Field: "itemName", Reason: "must not be empty"}
	}
	if in.Category != nil && !in.Category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category"}
	}
	if in.Quantity != nil && *in.Quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if in.RequestedValue != nil && in.RequestedValue.IsNegative() {
		return &ValidationError{Field: "requestedValue", Reason: "must be non-negative"}
	}
	if in.ActualPaymentValue != nil && in.ActualPaymentValue.IsNegative() {
		return &ValidationError{Field: "actualPaymentValue", Reason: "must be non-negative"}
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "unknown priority"}
	}
	if in.Department != nil && *in.Department == "" {
		return &ValidationError{Field: "department", Reason: "must not be empty"}
	}
	if in.BudgetYear != nil && *in.BudgetYear <= 0 {
		return &ValidationError{Field: "budgetYear", Reason: "must be a positive year"}
	}
	if in.Status != nil && !in.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	return nil
}

// UpdateResult reports what a committed update did beyond the field merge.
type UpdateResult struct {
	Request           *model.ProcurementRequest
	ProvisionedDevice *model.Device
}

// Update merges the given partial fields into the stored request. A status
// change must pass the transition validator first; an update that enters
// completed provisions the device inside the same transaction, and any
// budget-affecting change recomputes the ledger before the transaction
// commits. The whole update is all-or-nothing.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*UpdateResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var (
		result     UpdateResult
		fromStatus model.RequestStatus
		toStatus   model.RequestStatus
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.ProcurementRequest
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		oldYear, oldDept := req.BudgetYear, req.Department
		fromStatus = req.Status

		statusChanged := input.Status != nil && *input.Status != req.Status
		if statusChanged {
			if err := ValidateTransition(req.Status, *input.Status); err != nil {
				return err
			}
		} else if input.Status != nil && *input.Status == req.Status {
			// A no-op self-transition is still an invalid transition; it
			// would silently re-trigger side effects on retries.
			return &TransitionError{From: req.Status, To: *input.Status}
		}

		applyUpdate(&req, input)
		toStatus = req.Status

		if err := tx.Save(&req).Error; err != nil {
			return err
		}

		if statusChanged && req.Status == model.StatusCompleted {
			device, err := s.prov.Provision(tx, &req, input.RoomID)
			if err != nil {
				return &ProvisioningError{RequestID: req.ID, Err: err}
			}
			result.ProvisionedDevice = device
		}

		if budgetAffected(input, statusChanged) {
			if oldYear != req.BudgetYear || oldDept != req.Department {
				if _, err := ledger.Recompute(tx, oldYear, oldDept); err != nil {
					return err
				}
			}
			if _, err := ledger.Recompute(tx, req.BudgetYear, req.Department); err != nil {
				return err
			}
		}

		result.Request = &req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fromStatus != toStatus {
		s.log.WithFields(logrus.Fields{
			"request": result.Request.ID,
			"from":    fromStatus,
			"to":      toStatus,
		}).Info("procurement request transitioned")
		if s.notifier != nil {
			s.notifier.NotifyStatusChange(result.Request.ID, result.Request.Department, fromStatus, toStatus)
		}
	}
	return &result, nil
}

// DeleteResult reports the outcome of a hard delete. When the request had
// already provisioned a device, the device is kept and its code is
// reported so the caller can prompt manual reconciliation.
type DeleteResult struct {
	OrphanedDeviceCode string
}

// Delete removes the request and recomputes the budget row it charged.
// Deletion never cascades to a provisioned device.
func (s *Service) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	var result DeleteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.ProcurementRequest
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var device model.Device
		err := tx.Where("procurement_id = ?", req.ID).First(&device).Error
		switch {
		case err == nil:
			result.OrphanedDeviceCode = device.Code
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Delete(&model.ProcurementRequest{}, req.ID).Error; err != nil {
			return err
		}
		_, err = ledger.Recompute(tx, req.BudgetYear, req.Department)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.OrphanedDeviceCode != "" {
		s.log.WithFields(logrus.Fields{
			"request": id,
			"device":  result.OrphanedDeviceCode,
		}).Warn("request deleted, provisioned device left orphaned")
	}
	return &result, nil
}

func applyUpdate(req *model.ProcurementRequest, in UpdateInput) {
	if in.ItemName != nil {
		req.ItemName = *in.ItemName
	}
	if in.Category != nil {
		req.Category = *in.Category
	}
	if in.Status != nil {
		req.Status = *in.Status
	}
	if in.Priority != nil {
		req.Priority = *in.Priority
	}
	if in.Department != nil {
		req.Department = *in.Department
	}
	if in.RequestedBy != nil {
		req.RequestedBy = *in.RequestedBy
	}
	if in.ApprovedBy != nil {
		req.ApprovedBy = *in.ApprovedBy
	}
	if in.Quantity != nil {
		req.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		req.Unit = *in.Unit
	}
	if in.RequestedValue != nil {
		req.RequestedValue = *in.RequestedValue
	}
	if in.ActualPaymentValue != nil {
		req.ActualPaymentValue = *in.ActualPaymentValue
	}
	if in.DepartmentRequestDate != nil {
		req.DepartmentRequestDate = *in.DepartmentRequestDate
	}
	if in.DepartmentBudgetDate != nil {
		req.DepartmentBudgetDate = *in.DepartmentBudgetDate
	}
	if in.PurchaseDate != nil {
		req.PurchaseDate = in.PurchaseDate
	}
	if in.WarrantyPeriod != nil {
		req.WarrantyPeriod = in.WarrantyPeriod
	}
	if in.Supplier != nil {
		req.Supplier = *in.Supplier
	}
	if in.Specifications != nil {
		req.Specifications = *in.Specifications
	}
	if in.SelectionMethod != nil {
		req.SelectionMethod = *in.SelectionMethod
	}
	if in.Notes != nil {
		req.Notes = *in.Notes
	}
	if in.BudgetYear != nil {
		req.BudgetYear = *in.BudgetYear
	}
}

// budgetAffected reports whether the update touched anything the ledger
// aggregates over.
func budgetAffected(in UpdateInput, statusChanged bool) bool {
	return statusChanged ||
		in.RequestedValue != nil ||
		in.ActualPaymentValue != nil ||
		in.Category != nil ||
		in.BudgetYear != nil ||
		in.Department != nil
}
