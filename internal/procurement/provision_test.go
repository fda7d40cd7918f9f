package procurement

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdb "facility-asset-backend/internal/db"
	"facility-asset-backend/internal/model"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, appdb.Migrate(db))
	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func purchasedRequest(t *testing.T, db *gorm.DB, mutate func(*model.ProcurementRequest)) *model.ProcurementRequest {
	t.Helper()
	req := &model.ProcurementRequest{
		ItemName:              "Máy chiếu Epson",
		Category:              model.CategoryFixedAssets,
		Status:                model.StatusPurchased,
		Priority:              model.PriorityMedium,
		Department:            "Phòng IT",
		Quantity:              2,
		Unit:                  model.DefaultUnit,
		RequestedValue:        decimal.NewFromInt(30000000),
		DepartmentRequestDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DepartmentBudgetDate:  time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		BudgetYear:            2025,
	}
	if mutate != nil {
		mutate(req)
	}
	require.NoError(t, db.Create(req).Error)
	return req
}

func TestProvisionDerivesDeviceFields(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	prov := NewProvisioner(fixedClock(now))

	purchaseDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	warranty := 36
	req := purchasedRequest(t, db, func(r *model.ProcurementRequest) {
		r.PurchaseDate = &purchaseDate
		r.WarrantyPeriod = &warranty
		r.ActualPaymentValue = decimal.NewFromInt(42000000)
		r.Supplier = "Công ty ABC"
		r.Quantity = 10
	})

	device, err := prov.Provision(db, req, nil)
	require.NoError(t, err)

	assert.Equal(t, "FA25", device.Code[:4])
	assert.Equal(t, req.ItemName, device.Name)
	assert.Equal(t, model.DeviceCategoryFixedAsset, device.Category)
	assert.Equal(t, 10, device.Quantity)
	assert.Equal(t, 2025, device.PurchaseYear)
	assert.Equal(t, "Công ty ABC", device.Supplier)
	require.NotNil(t, device.WarrantyUntil)
	assert.Equal(t, time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC), *device.WarrantyUntil)
	require.NotNil(t, device.ProcurementID)
	assert.Equal(t, req.ID, *device.ProcurementID)
	assert.True(t, device.OriginalValue.Equal(decimal.NewFromInt(42000000)),
		"actual payment value is preferred over the request estimate")
}

func TestProvisionWarrantyDefaultsToOneYearFromNow(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	prov := NewProvisioner(fixedClock(now))

	req := purchasedRequest(t, db, nil)

	device, err := prov.Provision(db, req, nil)
	require.NoError(t, err)
	require.NotNil(t, device.WarrantyUntil)
	assert.Equal(t, now.AddDate(1, 0, 0), *device.WarrantyUntil)
	assert.True(t, device.OriginalValue.Equal(decimal.NewFromInt(30000000)),
		"falls back to the requested value when no actual payment is recorded")
}

func TestProvisionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	prov := NewProvisioner(fixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))

	req := purchasedRequest(t, db, nil)

	first, err := prov.Provision(db, req, nil)
	require.NoError(t, err)

	second, err := prov.Provision(db, req, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Code, second.Code)

	var count int64
	require.NoError(t, db.Model(&model.Device{}).Where("procurement_id = ?", req.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "a retried provisioning call must never create a second device")
}

func TestProvisionRoomMatching(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		rooms      []model.Room
		department string
		wantRoom   bool
	}{
		{
			name: "match on room name",
			rooms: []model.Room{
				{Name: "Phòng họp lớn"},
				{Name: "Văn phòng Phòng IT - Tầng 2"},
			},
			department: "Phòng IT",
			wantRoom:   true,
		},
		{
			name: "case-insensitive match on description",
			rooms: []model.Room{
				{Name: "Tầng 3", Description: "Khu làm việc của phòng it"},
			},
			department: "Phòng IT",
			wantRoom:   true,
		},
		{
			name: "no textual match leaves room unset",
			rooms: []model.Room{
				{Name: "Phòng họp lớn"},
			},
			department: "Phòng Kế toán",
			wantRoom:   false,
		},
		{
			name:       "no rooms at all",
			rooms:      nil,
			department: "Phòng IT",
			wantRoom:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			for i := range tc.rooms {
				require.NoError(t, db.Create(&tc.rooms[i]).Error)
			}
			req := purchasedRequest(t, db, func(r *model.ProcurementRequest) {
				r.Department = tc.department
			})

			device, err := NewProvisioner(fixedClock(now)).Provision(db, req, nil)
			require.NoError(t, err)

			if tc.wantRoom {
				assert.NotNil(t, device.RoomID, "some room should be chosen when a textual match exists")
			} else {
				assert.Nil(t, device.RoomID)
			}
		})
	}
}

func TestProvisionRoomOverrideSkipsHeuristic(t *testing.T) {
	db := newTestDB(t)
	prov := NewProvisioner(fixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))

	matching := model.Room{Name: "Phòng IT"}
	other := model.Room{Name: "Kho thiết bị"}
	require.NoError(t, db.Create(&matching).Error)
	require.NoError(t, db.Create(&other).Error)

	req := purchasedRequest(t, db, nil)

	device, err := prov.Provision(db, req, &other.ID)
	require.NoError(t, err)
	require.NotNil(t, device.RoomID)
	assert.Equal(t, other.ID, *device.RoomID, "an explicit room wins over the heuristic match")
}

func TestProvisionToolsEquipmentCategoryLabel(t *testing.T) {
	db := newTestDB(t)
	prov := NewProvisioner(fixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))

	req := purchasedRequest(t, db, func(r *model.ProcurementRequest) {
		r.Category = model.CategoryToolsEquipment
	})

	device, err := prov.Provision(db, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "TE25", device.Code[:4])
	assert.Equal(t, model.DeviceCategoryToolsEquipment, device.Category)
}
