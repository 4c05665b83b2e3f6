package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

type fakeInventoryRepo struct {
	records map[string]*domain.InventoryRecord
	saveErr error
	findErr error
}

func (f *fakeInventoryRepo) Save(ctx context.Context, record *domain.InventoryRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.records == nil {
		f.records = make(map[string]*domain.InventoryRecord)
	}
	f.records[record.SliceKey()] = record
	return nil
}

func (f *fakeInventoryRepo) FindBySlice(ctx context.Context, sku, locationID, lotNumber, serialNumber string) (*domain.InventoryRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.records[sku+"|"+locationID+"|"+lotNumber+"|"+serialNumber], nil
}

func (f *fakeInventoryRepo) FindAvailableBySKU(ctx context.Context, sku string) ([]*domain.InventoryRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.InventoryRecord, 0)
	for _, record := range f.records {
		if record.SKU == sku && record.AvailableQuantity > 0 {
			results = append(results, record)
		}
	}
	return results, nil
}

func (f *fakeInventoryRepo) FindBySKU(ctx context.Context, sku string) ([]*domain.InventoryRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.InventoryRecord, 0)
	for _, record := range f.records {
		if record.SKU == sku {
			results = append(results, record)
		}
	}
	return results, nil
}

func (f *fakeInventoryRepo) DecrementAvailable(ctx context.Context, sku, locationID, lotNumber, serialNumber string, quantity int) error {
	record := f.records[sku+"|"+locationID+"|"+lotNumber+"|"+serialNumber]
	if record == nil || record.AvailableQuantity < quantity {
		return domain.ErrInsufficientInventory
	}
	return record.Allocate(quantity)
}

func (f *fakeInventoryRepo) Release(ctx context.Context, sku, locationID, lotNumber, serialNumber string, quantity int) error {
	record := f.records[sku+"|"+locationID+"|"+lotNumber+"|"+serialNumber]
	if record == nil {
		return domain.ErrInsufficientInventory
	}
	return record.Release(quantity)
}

type fakeAllocationRepo struct {
	allocations map[string]*domain.OrderAllocation
	saveErr     error
	findErr     error
}

func (f *fakeAllocationRepo) Save(ctx context.Context, allocation *domain.OrderAllocation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.allocations == nil {
		f.allocations = make(map[string]*domain.OrderAllocation)
	}
	f.allocations[allocation.AllocationID] = allocation
	return nil
}

func (f *fakeAllocationRepo) SaveAll(ctx context.Context, allocations []*domain.OrderAllocation) error {
	for _, allocation := range allocations {
		if err := f.Save(ctx, allocation); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAllocationRepo) FindByID(ctx context.Context, allocationID string) (*domain.OrderAllocation, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.allocations[allocationID], nil
}

func (f *fakeAllocationRepo) FindBySalesOrderID(ctx context.Context, salesOrderID string) ([]*domain.OrderAllocation, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.OrderAllocation, 0)
	for _, allocation := range f.allocations {
		if allocation.SalesOrderID == salesOrderID {
			results = append(results, allocation)
		}
	}
	return results, nil
}

func (f *fakeAllocationRepo) FindExpired(ctx context.Context, now time.Time, limit int) ([]*domain.OrderAllocation, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.OrderAllocation, 0)
	for _, allocation := range f.allocations {
		if allocation.IsExpired(now) && len(results) < limit {
			results = append(results, allocation)
		}
	}
	return results, nil
}

type fakeBackorderRepo struct {
	backorders map[string]*domain.Backorder
	saveErr    error
}

func (f *fakeBackorderRepo) Save(ctx context.Context, backorder *domain.Backorder) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.backorders == nil {
		f.backorders = make(map[string]*domain.Backorder)
	}
	f.backorders[backorder.BackorderID] = backorder
	return nil
}

func (f *fakeBackorderRepo) FindByID(ctx context.Context, backorderID string) (*domain.Backorder, error) {
	return f.backorders[backorderID], nil
}

func (f *fakeBackorderRepo) FindOpen(ctx context.Context, limit int) ([]*domain.Backorder, error) {
	results := make([]*domain.Backorder, 0)
	for _, backorder := range f.backorders {
		if backorder.Status == domain.BackorderStatusOpen && len(results) < limit {
			results = append(results, backorder)
		}
	}
	return results, nil
}

func (f *fakeBackorderRepo) FindBySalesOrderID(ctx context.Context, salesOrderID string) ([]*domain.Backorder, error) {
	results := make([]*domain.Backorder, 0)
	for _, backorder := range f.backorders {
		if backorder.SalesOrderID == salesOrderID {
			results = append(results, backorder)
		}
	}
	return results, nil
}

func newAllocationTestService(inventoryRepo *fakeInventoryRepo, allocationRepo *fakeAllocationRepo, backorderRepo *fakeBackorderRepo) *AllocationApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	return NewAllocationApplicationService(inventoryRepo, allocationRepo, backorderRepo, nil, nil, logger)
}

func newRecord(t *testing.T, sku, locationID string, qty int, receivedDate time.Time, lotNumber string, expiryDate *time.Time) *domain.InventoryRecord {
	t.Helper()
	record, err := domain.NewInventoryRecord(sku, locationID, "WH-1", qty, receivedDate, lotNumber, "", expiryDate)
	require.NoError(t, err)
	return record
}

func TestAllocationApplicationService_ReceiveInventory(t *testing.T) {
	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{}}
	svc := newAllocationTestService(inventoryRepo, &fakeAllocationRepo{}, &fakeBackorderRepo{})

	dto, err := svc.ReceiveInventory(context.Background(), ReceiveInventoryCommand{
		SKU:          "SKU-1",
		LocationID:   "LOC-1",
		WarehouseID:  "WH-1",
		Quantity:     10,
		ReceivedDate: time.Now(),
		LotNumber:    "LOT-A",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, dto.AvailableQuantity)

	// a second receipt into the same slice merges instead of creating a record
	dto, err = svc.ReceiveInventory(context.Background(), ReceiveInventoryCommand{
		SKU:          "SKU-1",
		LocationID:   "LOC-1",
		WarehouseID:  "WH-1",
		Quantity:     5,
		ReceivedDate: time.Now(),
		LotNumber:    "LOT-A",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, dto.AvailableQuantity)
	assert.Len(t, inventoryRepo.records, 1)

	_, err = svc.ReceiveInventory(context.Background(), ReceiveInventoryCommand{
		SKU:      "SKU-1",
		Quantity: 0,
	})
	assert.Error(t, err)
}

func TestAllocationApplicationService_AllocateOrder_FIFO(t *testing.T) {
	older := newRecord(t, "SKU-1", "LOC-1", 6, time.Now().Add(-48*time.Hour), "LOT-A", nil)
	newer := newRecord(t, "SKU-1", "LOC-2", 10, time.Now().Add(-1*time.Hour), "LOT-B", nil)

	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{
		older.SliceKey(): older,
		newer.SliceKey(): newer,
	}}
	allocationRepo := &fakeAllocationRepo{}
	svc := newAllocationTestService(inventoryRepo, allocationRepo, &fakeBackorderRepo{})

	result, err := svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFIFO,
		Items: []AllocationItemRequest{
			{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 8},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.FullyMet)
	require.Len(t, result.Allocations, 2)

	// the older receipt drains first, the newer covers the remainder
	assert.Equal(t, "LOC-1", result.Allocations[0].LocationID)
	assert.Equal(t, 6, result.Allocations[0].AllocatedQuantity)
	assert.Equal(t, "LOC-2", result.Allocations[1].LocationID)
	assert.Equal(t, 2, result.Allocations[1].AllocatedQuantity)

	assert.Equal(t, 0, older.AvailableQuantity)
	assert.Equal(t, 6, older.AllocatedQuantity)
	assert.Equal(t, 8, newer.AvailableQuantity)
	assert.Len(t, allocationRepo.allocations, 2)
}

func TestAllocationApplicationService_AllocateOrder_FEFO(t *testing.T) {
	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(720 * time.Hour)

	expiring := newRecord(t, "SKU-1", "LOC-1", 5, time.Now().Add(-1*time.Hour), "LOT-A", &soon)
	fresh := newRecord(t, "SKU-1", "LOC-2", 5, time.Now().Add(-48*time.Hour), "LOT-B", &later)
	undated := newRecord(t, "SKU-1", "LOC-3", 5, time.Now().Add(-72*time.Hour), "LOT-C", nil)

	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{
		expiring.SliceKey(): expiring,
		fresh.SliceKey():    fresh,
		undated.SliceKey():  undated,
	}}
	svc := newAllocationTestService(inventoryRepo, &fakeAllocationRepo{}, &fakeBackorderRepo{})

	result, err := svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFEFO,
		Items: []AllocationItemRequest{
			{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 8},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)

	// nearest expiry drains first; the undated slice is untouched
	assert.Equal(t, "LOT-A", result.Allocations[0].LotNumber)
	assert.Equal(t, "LOT-B", result.Allocations[1].LotNumber)
	assert.Equal(t, 5, undated.AvailableQuantity)
}

func TestAllocationApplicationService_AllocateOrder_Backorder(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 3, time.Now(), "", nil)

	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	backorderRepo := &fakeBackorderRepo{}
	svc := newAllocationTestService(inventoryRepo, &fakeAllocationRepo{}, backorderRepo)

	result, err := svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFIFO,
		Items: []AllocationItemRequest{
			{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 10},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.FullyMet)
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, 3, result.Allocations[0].AllocatedQuantity)
	require.Len(t, result.Backorders, 1)
	assert.Equal(t, 7, result.Backorders[0].Quantity)
	assert.Len(t, backorderRepo.backorders, 1)
}

func TestAllocationApplicationService_AllocateOrder_Validation(t *testing.T) {
	svc := newAllocationTestService(&fakeInventoryRepo{}, &fakeAllocationRepo{}, &fakeBackorderRepo{})

	_, err := svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     "round_robin",
		Items:        []AllocationItemRequest{{SKU: "SKU-1", Quantity: 1}},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)

	_, err = svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFIFO,
	})
	assert.Error(t, err)

	_, err = svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFIFO,
		Items:        []AllocationItemRequest{{SKU: "SKU-1", Quantity: -2}},
	})
	assert.Error(t, err)
}

func TestAllocationApplicationService_AllocateOrder_RejectedOrderLeavesLedgerUntouched(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 5, time.Now(), "", nil)
	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	allocationRepo := &fakeAllocationRepo{}
	svc := newAllocationTestService(inventoryRepo, allocationRepo, &fakeBackorderRepo{})

	// the second item is invalid; the first must not leave quantity behind
	_, err := svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFIFO,
		Items: []AllocationItemRequest{
			{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 3},
			{SalesOrderItemID: "ITEM-2", SKU: "SKU-1", Quantity: 0},
		},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)

	assert.Equal(t, 5, record.AvailableQuantity)
	assert.Equal(t, 0, record.AllocatedQuantity)
	assert.Empty(t, allocationRepo.allocations)
}

func TestAllocationApplicationService_AllocateOrder_SaveFailureReleasesLedger(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 5, time.Now(), "", nil)
	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	allocationRepo := &fakeAllocationRepo{saveErr: errors.New("write concern failed")}
	svc := newAllocationTestService(inventoryRepo, allocationRepo, &fakeBackorderRepo{})

	_, err := svc.AllocateOrder(context.Background(), AllocateOrderCommand{
		SalesOrderID: "SO-1",
		Strategy:     domain.StrategyFIFO,
		Items:        []AllocationItemRequest{{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 3}},
	})
	require.Error(t, err)

	assert.Equal(t, 5, record.AvailableQuantity)
	assert.Equal(t, 0, record.AllocatedQuantity)
}

func TestAllocationApplicationService_AllocateItem(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 5, time.Now(), "LOT-A", nil)
	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	svc := newAllocationTestService(inventoryRepo, &fakeAllocationRepo{}, &fakeBackorderRepo{})

	dto, err := svc.AllocateItem(context.Background(), AllocateItemCommand{
		SalesOrderID:     "SO-1",
		SalesOrderItemID: "ITEM-1",
		SKU:              "SKU-1",
		LocationID:       "LOC-1",
		LotNumber:        "LOT-A",
		Quantity:         3,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StrategyManual), dto.Strategy)
	assert.Equal(t, 2, record.AvailableQuantity)

	// a shortfall on a named slice is a hard failure, unlike strategy allocation
	_, err = svc.AllocateItem(context.Background(), AllocateItemCommand{
		SalesOrderID: "SO-1",
		SKU:          "SKU-1",
		LocationID:   "LOC-1",
		LotNumber:    "LOT-A",
		Quantity:     10,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)

	_, err = svc.AllocateItem(context.Background(), AllocateItemCommand{
		SKU:        "SKU-9",
		LocationID: "LOC-1",
		Quantity:   1,
	})
	require.Error(t, err)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestAllocationApplicationService_BulkAllocate(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 5, time.Now(), "", nil)
	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	svc := newAllocationTestService(inventoryRepo, &fakeAllocationRepo{}, &fakeBackorderRepo{})

	result, err := svc.BulkAllocate(context.Background(), BulkAllocateCommand{
		Orders: []AllocateOrderCommand{
			{
				SalesOrderID: "SO-1",
				Strategy:     domain.StrategyFIFO,
				Items:        []AllocationItemRequest{{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 5}},
			},
			{
				SalesOrderID: "SO-2",
				Strategy:     "bad_strategy",
				Items:        []AllocationItemRequest{{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", Quantity: 1}},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	require.NotNil(t, result.Results[0].Result)
	assert.True(t, result.Results[0].Result.FullyMet)
	assert.NotEmpty(t, result.Results[1].Error)

	_, err = svc.BulkAllocate(context.Background(), BulkAllocateCommand{})
	assert.Error(t, err)
}

func TestAllocationApplicationService_RecordPick(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 5, time.Now(), "", nil)
	allocation, err := domain.NewOrderAllocation("ALC-1", "SO-1", "ITEM-1", record, 5, domain.StrategyFIFO, nil)
	require.NoError(t, err)

	allocationRepo := &fakeAllocationRepo{allocations: map[string]*domain.OrderAllocation{"ALC-1": allocation}}
	svc := newAllocationTestService(&fakeInventoryRepo{}, allocationRepo, &fakeBackorderRepo{})

	dto, err := svc.RecordPick(context.Background(), RecordPickCommand{AllocationID: "ALC-1", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, string(domain.AllocationStatusPartiallyPicked), dto.Status)

	dto, err = svc.RecordPick(context.Background(), RecordPickCommand{AllocationID: "ALC-1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, string(domain.AllocationStatusPicked), dto.Status)

	_, err = svc.RecordPick(context.Background(), RecordPickCommand{AllocationID: "ALC-1", Quantity: 1})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)

	_, err = svc.RecordPick(context.Background(), RecordPickCommand{AllocationID: "missing", Quantity: 1})
	assert.Error(t, err)
}

func TestAllocationApplicationService_CancelAllocation(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 5, time.Now(), "", nil)
	require.NoError(t, record.Allocate(5))
	allocation, err := domain.NewOrderAllocation("ALC-1", "SO-1", "ITEM-1", record, 5, domain.StrategyFIFO, nil)
	require.NoError(t, err)
	require.NoError(t, allocation.RecordPick(2))

	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	allocationRepo := &fakeAllocationRepo{allocations: map[string]*domain.OrderAllocation{"ALC-1": allocation}}
	svc := newAllocationTestService(inventoryRepo, allocationRepo, &fakeBackorderRepo{})

	dto, err := svc.CancelAllocation(context.Background(), CancelAllocationCommand{AllocationID: "ALC-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.AllocationStatusCancelled), dto.Status)

	// only the unpicked remainder returns to the ledger
	assert.Equal(t, 3, record.AvailableQuantity)
	assert.Equal(t, 2, record.AllocatedQuantity)

	_, err = svc.CancelAllocation(context.Background(), CancelAllocationCommand{AllocationID: "ALC-1"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
}

func TestAllocationApplicationService_ReallocateExpired(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 10, time.Now(), "", nil)
	require.NoError(t, record.Allocate(4))

	past := time.Now().Add(-1 * time.Hour)
	expired, err := domain.NewOrderAllocation("ALC-1", "SO-1", "ITEM-1", record, 4, domain.StrategyFIFO, &past)
	require.NoError(t, err)

	future := time.Now().Add(1 * time.Hour)
	active, err := domain.NewOrderAllocation("ALC-2", "SO-2", "ITEM-1", record, 2, domain.StrategyFIFO, &future)
	require.NoError(t, err)

	inventoryRepo := &fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}}
	allocationRepo := &fakeAllocationRepo{allocations: map[string]*domain.OrderAllocation{
		"ALC-1": expired,
		"ALC-2": active,
	}}
	svc := newAllocationTestService(inventoryRepo, allocationRepo, &fakeBackorderRepo{})

	result, err := svc.ReallocateExpired(context.Background(), ReallocateExpiredCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReleasedCount)
	assert.Equal(t, 1, result.ReallocatedCount)
	assert.Equal(t, 0, result.BackorderedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, []string{"ALC-1"}, result.AllocationIDs)

	assert.Equal(t, string(domain.AllocationStatusCancelled), string(expired.Status))
	assert.True(t, active.IsActive())

	// the released quantity was re-placed for the same order item
	var replacement *domain.OrderAllocation
	for id, allocation := range allocationRepo.allocations {
		if id != "ALC-1" && id != "ALC-2" {
			replacement = allocation
		}
	}
	require.NotNil(t, replacement)
	assert.True(t, replacement.IsActive())
	assert.Equal(t, "SO-1", replacement.SalesOrderID)
	assert.Equal(t, "ITEM-1", replacement.SalesOrderItemID)
	assert.Equal(t, domain.StrategyFIFO, replacement.Strategy)
	assert.Equal(t, 4, replacement.AllocatedQuantity)

	assert.Equal(t, 6, record.AvailableQuantity)
	assert.Equal(t, 4, record.AllocatedQuantity)
}

// drainedInventoryRepo reports no available candidates, as if another writer
// grabbed the released quantity between the cancel and the retry.
type drainedInventoryRepo struct {
	fakeInventoryRepo
}

func (f *drainedInventoryRepo) FindAvailableBySKU(ctx context.Context, sku string) ([]*domain.InventoryRecord, error) {
	return nil, nil
}

func TestAllocationApplicationService_ReallocateExpired_BackordersWhenStockIsGone(t *testing.T) {
	record := newRecord(t, "SKU-1", "LOC-1", 4, time.Now(), "", nil)
	require.NoError(t, record.Allocate(4))

	past := time.Now().Add(-1 * time.Hour)
	expired, err := domain.NewOrderAllocation("ALC-1", "SO-1", "ITEM-1", record, 4, domain.StrategyFIFO, &past)
	require.NoError(t, err)

	inventoryRepo := &drainedInventoryRepo{
		fakeInventoryRepo: fakeInventoryRepo{records: map[string]*domain.InventoryRecord{record.SliceKey(): record}},
	}
	allocationRepo := &fakeAllocationRepo{allocations: map[string]*domain.OrderAllocation{"ALC-1": expired}}
	backorderRepo := &fakeBackorderRepo{}
	logger := logging.New(logging.DefaultConfig("test"))
	svc := NewAllocationApplicationService(inventoryRepo, allocationRepo, backorderRepo, nil, nil, logger)

	result, err := svc.ReallocateExpired(context.Background(), ReallocateExpiredCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ReleasedCount)
	assert.Equal(t, 0, result.ReallocatedCount)
	assert.Equal(t, 1, result.BackorderedCount)

	require.Len(t, backorderRepo.backorders, 1)
	for _, backorder := range backorderRepo.backorders {
		assert.Equal(t, "SO-1", backorder.SalesOrderID)
		assert.Equal(t, 4, backorder.Quantity)
	}
}

func TestAllocationApplicationService_GetBackorders(t *testing.T) {
	backorder, err := domain.NewBackorder("BO-1", "SO-1", "ITEM-1", "SKU-1", 4, domain.StrategyFIFO)
	require.NoError(t, err)
	backorderRepo := &fakeBackorderRepo{backorders: map[string]*domain.Backorder{"BO-1": backorder}}
	svc := newAllocationTestService(&fakeInventoryRepo{}, &fakeAllocationRepo{}, backorderRepo)

	dtos, err := svc.GetBackorders(context.Background(), GetBackordersQuery{})
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "BO-1", dtos[0].BackorderID)
	assert.Equal(t, string(domain.BackorderStatusOpen), dtos[0].Status)
}
