package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"facility-asset-backend/internal/ledger"
	"facility-asset-backend/internal/model"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	prov := NewProvisioner(fixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	return NewService(db, prov, nil), db
}

func validCreateInput() CreateInput {
	return CreateInput{
		ItemName:              "Máy in HP LaserJet",
		Category:              model.CategoryToolsEquipment,
		Department:            "Phòng Hành chính",
		Quantity:              3,
		RequestedValue:        decimal.NewFromInt(12000000),
		DepartmentRequestDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		DepartmentBudgetDate:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		BudgetYear:            2025,
	}
}

func statusPtr(s model.RequestStatus) *model.RequestStatus { return &s }
func decimalPtr(d decimal.Decimal) *decimal.Decimal        { return &d }
func timePtr(t time.Time) *time.Time                       { return &t }
func intPtr(i int) *int                                    { return &i }

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"empty item name", func(in *CreateInput) { in.ItemName = "" }, "itemName"},
		{"unknown category", func(in *CreateInput) { in.Category = "furniture" }, "category"},
		{"zero quantity", func(in *CreateInput) { in.Quantity = 0 }, "quantity"},
		{"negative requested value", func(in *CreateInput) { in.RequestedValue = decimal.NewFromInt(-1) }, "requestedValue"},
		{"empty department", func(in *CreateInput) { in.Department = "" }, "department"},
		{"missing budget year", func(in *CreateInput) { in.BudgetYear = 0 }, "budgetYear"},
		{"created directly as approved", func(in *CreateInput) { in.Status = model.StatusApproved }, "status"},
		{"created directly as completed", func(in *CreateInput) { in.Status = model.StatusCompleted }, "status"},
		{"unknown priority", func(in *CreateInput) { in.Priority = "asap" }, "priority"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)

			_, err := svc.Create(ctx, input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, db := newTestService(t)

	req, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, req.Status)
	assert.Equal(t, model.PriorityMedium, req.Priority)
	assert.Equal(t, model.DefaultUnit, req.Unit)
	assert.NotZero(t, req.ID)
	assert.False(t, req.CreatedAt.IsZero())

	// The budget row for the charged (year, department) pair exists now.
	budget, err := ledger.Get(db, 2025, "Phòng Hành chính")
	require.NoError(t, err)
	assert.True(t, budget.TotalUsed.IsZero(), "a draft request charges nothing yet")
}

func TestCreateAsRequestedIsAllowed(t *testing.T) {
	svc, _ := newTestService(t)

	input := validCreateInput()
	input.Status = model.StatusRequested

	req, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRequested, req.Status)
}

func TestUpdateRejectsInvalidTransitionWithoutSideEffects(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, req.ID, UpdateInput{
		Status:   statusPtr(model.StatusApproved),
		ItemName: func() *string { s := "should not be written"; return &s }(),
	})
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, model.StatusDraft, transitionErr.From)
	assert.Equal(t, model.StatusApproved, transitionErr.To)

	// All-or-nothing: neither the status nor the other fields changed.
	var stored model.ProcurementRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, model.StatusDraft, stored.Status)
	assert.Equal(t, req.ItemName, stored.ItemName)
}

func TestUpdateRejectsSelfTransition(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, req.ID, UpdateInput{Status: statusPtr(model.StatusDraft)})
	var transitionErr *TransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 9999, UpdateInput{Status: statusPtr(model.StatusRequested)})
	assert.ErrorIs(t, err, ErrNotFound)
}

// advanceTo walks a request along the happy path up to the given status.
func advanceTo(t *testing.T, svc *Service, id int64, target model.RequestStatus) {
	t.Helper()
	path := []model.RequestStatus{model.StatusRequested, model.StatusApproved, model.StatusPurchased, model.StatusCompleted}
	for _, status := range path {
		_, err := svc.Update(context.Background(), id, UpdateInput{Status: statusPtr(status)})
		require.NoError(t, err)
		if status == target {
			return
		}
	}
}

func TestCompletingRequestProvisionsDeviceAndChargesBudget(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Room{Name: "Phòng IT"}).Error)

	input := validCreateInput()
	input.Category = model.CategoryFixedAssets
	input.Department = "Phòng IT"
	input.Quantity = 10
	input.RequestedValue = decimal.NewFromInt(45000000)

	req, err := svc.Create(ctx, input)
	require.NoError(t, err)

	advanceTo(t, svc, req.ID, model.StatusApproved)

	_, err = svc.Update(ctx, req.ID, UpdateInput{
		Status:             statusPtr(model.StatusPurchased),
		PurchaseDate:       timePtr(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
		WarrantyPeriod:     intPtr(36),
		ActualPaymentValue: decimalPtr(decimal.NewFromInt(42000000)),
	})
	require.NoError(t, err)

	result, err := svc.Update(ctx, req.ID, UpdateInput{Status: statusPtr(model.StatusCompleted)})
	require.NoError(t, err)

	device := result.ProvisionedDevice
	require.NotNil(t, device)
	assert.Equal(t, "FA25", device.Code[:4])
	assert.Equal(t, 10, device.Quantity)
	require.NotNil(t, device.WarrantyUntil)
	assert.Equal(t, time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC), *device.WarrantyUntil)
	assert.True(t, device.OriginalValue.Equal(decimal.NewFromInt(42000000)))
	require.NotNil(t, device.RoomID, "the device should land in the textually matching room")

	budget, err := ledger.Get(db, 2025, "Phòng IT")
	require.NoError(t, err)
	assert.True(t, budget.FixedAssetsUsed.Equal(decimal.NewFromInt(42000000)))
	assert.True(t, budget.TotalUsed.Equal(decimal.NewFromInt(42000000)))
}

func TestProvisioningFailureRollsBackStatusChange(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	advanceTo(t, svc, req.ID, model.StatusPurchased)

	// Make device persistence impossible so the provisioning step fails
	// after the status write inside the same transaction.
	require.NoError(t, db.Migrator().DropTable(&model.Device{}))

	_, err = svc.Update(ctx, req.ID, UpdateInput{Status: statusPtr(model.StatusCompleted)})
	var provisioningErr *ProvisioningError
	require.ErrorAs(t, err, &provisioningErr)
	assert.Equal(t, req.ID, provisioningErr.RequestID)

	// The transition was rolled back with the failed provisioning; the
	// request stays purchased and the caller may retry.
	var stored model.ProcurementRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, model.StatusPurchased, stored.Status)
}

func TestBudgetRecomputeSumsContributingRequests(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	makeTools := func(value int64) int64 {
		input := validCreateInput()
		input.Department = "Phòng IT"
		input.RequestedValue = decimal.NewFromInt(value)
		req, err := svc.Create(ctx, input)
		require.NoError(t, err)
		advanceTo(t, svc, req.ID, model.StatusPurchased)
		return req.ID
	}

	makeTools(10000000)
	makeTools(15000000)

	budget, err := ledger.Recompute(db, 2025, "Phòng IT")
	require.NoError(t, err)
	assert.True(t, budget.ToolsEquipmentUsed.Equal(decimal.NewFromInt(25000000)),
		"used must be the sum over all contributing requests, not an incremental delta")
	assert.True(t, budget.TotalUsed.Equal(budget.FixedAssetsUsed.Add(budget.ToolsEquipmentUsed)))
}

func TestValueChangeRecomputesBudget(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	input := validCreateInput()
	req, err := svc.Create(ctx, input)
	require.NoError(t, err)
	advanceTo(t, svc, req.ID, model.StatusPurchased)

	_, err = svc.Update(ctx, req.ID, UpdateInput{
		ActualPaymentValue: decimalPtr(decimal.NewFromInt(11500000)),
	})
	require.NoError(t, err)

	budget, err := ledger.Get(db, 2025, "Phòng Hành chính")
	require.NoError(t, err)
	assert.True(t, budget.ToolsEquipmentUsed.Equal(decimal.NewFromInt(11500000)),
		"the actual payment replaces the estimate in the ledger")
}

func TestDeleteReportsOrphanedDevice(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	advanceTo(t, svc, req.ID, model.StatusCompleted)

	result, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrphanedDeviceCode, "deletion must surface the device it orphans")

	// The device itself is kept; deletion never cascades.
	var count int64
	require.NoError(t, db.Model(&model.Device{}).Where("code = ?", result.OrphanedDeviceCode).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The ledger no longer counts the deleted request.
	budget, err := ledger.Get(db, 2025, "Phòng Hành chính")
	require.NoError(t, err)
	assert.True(t, budget.TotalUsed.IsZero())
}

func TestDeleteWithoutDeviceReportsNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	result, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, result.OrphanedDeviceCode)

	_, err = svc.Get(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

type recordingNotifier struct {
	changes []model.RequestStatus
}

func (r *recordingNotifier) NotifyStatusChange(_ int64, _ string, _, to model.RequestStatus) {
	r.changes = append(r.changes, to)
}

func TestStatusChangeNotifiesSubscribers(t *testing.T) {
	svc, _ := newTestService(t)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)
	ctx := context.Background()

	req, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, req.ID, UpdateInput{Status: statusPtr(model.StatusRequested)})
	require.NoError(t, err)

	// A non-status update stays quiet.
	_, err = svc.Update(ctx, req.ID, UpdateInput{Notes: func() *string { s := "ghi chú"; return &s }()})
	require.NoError(t, err)

	assert.Equal(t, []model.RequestStatus{model.StatusRequested}, notifier.changes)
}
