package procurement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"facility-asset-backend/internal/model"
)

// maxCodeAttempts bounds regeneration when a generated device code is
// already taken.
const maxCodeAttempts = 5

// Provisioner derives a Device from a completed ProcurementRequest and
// persists it. It runs inside the caller's transaction so a persistence
// failure rolls the status change back with it.
type Provisioner struct {
	now func() time.Time
}

// NewProvisioner creates a provisioner with the given clock.
func NewProvisioner(now func() time.Time) *Provisioner {
	if now == nil {
		now = time.Now
	}
	return &Provisioner{now: now}
}

// Provision creates the device record for a request that just transitioned
// into completed. It is idempotent: if a device already carries the
// request's back-reference, that device is returned and nothing is created.
// roomOverride, when non-nil, skips the heuristic room match.
func (p *Provisioner) Provision(tx *gorm.DB, req *model.ProcurementRequest, roomOverride *int64) (*model.Device, error) {
	var existing model.Device
	err := tx.Where("procurement_id = ?", req.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("idempotency lookup failed: %w", err)
	}

	code, err := p.uniqueCode(tx, req)
	if err != nil {
		return nil, err
	}

	roomID := roomOverride
	if roomID == nil {
		roomID, err = matchRoom(tx, req.Department)
		if err != nil {
			return nil, err
		}
	}

	procurementID := req.ID
	device := model.Device{
		Code:            code,
		Name:            req.ItemName,
		Category:        deviceCategoryLabel(req.Category),
		Unit:            req.Unit,
		Quantity:        req.Quantity,
		PurchaseYear:    purchaseYear(req),
		WarrantyUntil:   p.warrantyUntil(req),
		RoomID:          roomID,
		Supplier:        req.Supplier,
		Specifications:  req.Specifications,
		SelectionMethod: req.SelectionMethod,
		OriginalValue:   req.ChargedValue(),
		ProcurementID:   &procurementID,
	}

	if err := tx.Create(&device).Error; err != nil {
		return nil, fmt.Errorf("device persistence failed: %w", err)
	}
	return &device, nil
}

// uniqueCode generates a device code and verifies it against the device
// store, regenerating on collision.
func (p *Provisioner) uniqueCode(tx *gorm.DB, req *model.ProcurementRequest) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := GenerateCode(req.Category, req.BudgetYear, p.now())
		var count int64
		if err := tx.Model(&model.Device{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("code uniqueness check failed: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique device code after %d attempts", maxCodeAttempts)
}

// warrantyUntil computes the warranty expiry: purchase date plus the
// warranty period in months when both are present, otherwise exactly one
// year from the provisioning moment.
func (p *Provisioner) warrantyUntil(req *model.ProcurementRequest) *time.Time {
	var until time.Time
	if req.PurchaseDate != nil && req.WarrantyPeriod != nil {
		until = req.PurchaseDate.AddDate(0, *req.WarrantyPeriod, 0)
	} else {
		until = p.now().AddDate(1, 0, 0)
	}
	return &until
}

func purchaseYear(req *model.ProcurementRequest) int {
	if req.PurchaseDate != nil {
		return req.PurchaseDate.Year()
	}
	return req.BudgetYear
}

func deviceCategoryLabel(c model.Category) string {
	if c == model.CategoryFixedAssets {
		return model.DeviceCategoryFixedAsset
	}
	return model.DeviceCategoryToolsEquipment
}

// matchRoom is a best-effort heuristic: the first room (in ascending id
// order) whose name or description contains the department text wins. No
// match leaves the device unassigned.
func matchRoom(tx *gorm.DB, department string) (*int64, error) {
	needle := strings.ToLower(strings.TrimSpace(department))
	if needle == "" {
		return nil, nil
	}

	var rooms []model.Room
	if err := tx.Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("room lookup failed: %w", err)
	}

	for _, room := range rooms {
		if strings.Contains(strings.ToLower(room.Name), needle) ||
			strings.Contains(strings.ToLower(room.Description), needle) {
			id := room.ID
			return &id, nil
		}
	}
	return nil, nil
}
