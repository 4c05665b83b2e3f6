package domain

import (
	"context"
	"time"
)

// InventoryRepository persists the inventory ledger.
//
// DecrementAvailable and Release are the only mutation paths for ledger
// quantities during allocation. DecrementAvailable must be atomic: it
// succeeds only when the slice still has at least quantity available, and
// returns ErrInsufficientInventory without mutating the record otherwise.
// Implementations back this with a conditional update so concurrent
// allocations against the same slice cannot lose updates.
type InventoryRepository interface {
	Save(ctx context.Context, record *InventoryRecord) error
	FindBySlice(ctx context.Context, sku, locationID, lotNumber, serialNumber string) (*InventoryRecord, error)
	FindAvailableBySKU(ctx context.Context, sku string) ([]*InventoryRecord, error)
	FindBySKU(ctx context.Context, sku string) ([]*InventoryRecord, error)
	DecrementAvailable(ctx context.Context, sku, locationID, lotNumber, serialNumber string, quantity int) error
	Release(ctx context.Context, sku, locationID, lotNumber, serialNumber string, quantity int) error
}

// AllocationRepository persists order allocations
type AllocationRepository interface {
	Save(ctx context.Context, allocation *OrderAllocation) error
	SaveAll(ctx context.Context, allocations []*OrderAllocation) error
	FindByID(ctx context.Context, allocationID string) (*OrderAllocation, error)
	FindBySalesOrderID(ctx context.Context, salesOrderID string) ([]*OrderAllocation, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*OrderAllocation, error)
}

// BackorderRepository persists backorders
type BackorderRepository interface {
	Save(ctx context.Context, backorder *Backorder) error
	FindByID(ctx context.Context, backorderID string) (*Backorder, error)
	FindOpen(ctx context.Context, limit int) ([]*Backorder, error)
	FindBySalesOrderID(ctx context.Context, salesOrderID string) ([]*Backorder, error)
}

// DockRepository persists loading docks
type DockRepository interface {
	Save(ctx context.Context, dock *LoadingDock) error
	FindByID(ctx context.Context, dockID string) (*LoadingDock, error)
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*LoadingDock, error)
	FindAll(ctx context.Context) ([]*LoadingDock, error)
}

// DockScheduleRepository persists dock schedules
type DockScheduleRepository interface {
	Save(ctx context.Context, schedule *DockSchedule) error
	FindByID(ctx context.Context, scheduleID string) (*DockSchedule, error)
	FindByDockAndDate(ctx context.Context, dockID, date string) ([]*DockSchedule, error)
	FindByDateRange(ctx context.Context, from, to string) ([]*DockSchedule, error)
	FindByLoadPlanID(ctx context.Context, loadPlanID string) (*DockSchedule, error)
	// SaveWithDock writes the schedule and its dock status in one transaction
	SaveWithDock(ctx context.Context, schedule *DockSchedule, dock *LoadingDock) error
}

// LoadPlanRepository persists load plans
type LoadPlanRepository interface {
	Save(ctx context.Context, plan *LoadPlan) error
	FindByID(ctx context.Context, loadPlanID string) (*LoadPlan, error)
	FindByStatus(ctx context.Context, status LoadStatus) ([]*LoadPlan, error)
}

// CartonTypeRepository persists the carton catalog
type CartonTypeRepository interface {
	Save(ctx context.Context, carton *CartonType) error
	FindByID(ctx context.Context, cartonTypeID string) (*CartonType, error)
	FindAll(ctx context.Context) ([]CartonType, error)
}

// PackOrderRepository persists pack orders
type PackOrderRepository interface {
	Save(ctx context.Context, order *PackOrder) error
	FindByID(ctx context.Context, packOrderID string) (*PackOrder, error)
	FindBySalesOrderID(ctx context.Context, salesOrderID string) (*PackOrder, error)
	FindByStatus(ctx context.Context, status PackOrderStatus) ([]*PackOrder, error)
}

// QualityCheckRepository persists quality checks
type QualityCheckRepository interface {
	Save(ctx context.Context, check *QualityCheck) error
	FindByID(ctx context.Context, checkID string) (*QualityCheck, error)
	FindByEntity(ctx context.Context, entityType QCEntityType, entityID string) ([]*QualityCheck, error)
}

// QualityExceptionRepository persists quality exceptions
type QualityExceptionRepository interface {
	Save(ctx context.Context, exception *QualityException) error
	FindByID(ctx context.Context, exceptionID string) (*QualityException, error)
	FindByEntity(ctx context.Context, entityType QCEntityType, entityID string) ([]*QualityException, error)
	CountOpenByEntity(ctx context.Context, entityType QCEntityType, entityID string) (int, error)
	FindByStatus(ctx context.Context, status ExceptionStatus, limit int) ([]*QualityException, error)
}

// ShipmentRepository persists shipments
type ShipmentRepository interface {
	Save(ctx context.Context, shipment *Shipment) error
	SaveAll(ctx context.Context, shipments []*Shipment) error
	FindByID(ctx context.Context, shipmentID string) (*Shipment, error)
	FindByIDs(ctx context.Context, shipmentIDs []string) ([]*Shipment, error)
	FindByStatus(ctx context.Context, status ShipmentStatus) ([]*Shipment, error)
	FindLabeledByCarrier(ctx context.Context, carrierCode string) ([]*Shipment, error)
}

// ManifestRepository persists end-of-day manifests
type ManifestRepository interface {
	Save(ctx context.Context, manifest *Manifest) error
	FindByID(ctx context.Context, manifestID string) (*Manifest, error)
}
