package application

import (
	"time"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// Allocation commands

// ReceiveInventoryCommand records a receipt into the inventory ledger
type ReceiveInventoryCommand struct {
	SKU          string
	LocationID   string
	WarehouseID  string
	Quantity     int
	ReceivedDate time.Time
	LotNumber    string
	SerialNumber string
	ExpiryDate   *time.Time
}

// AllocationItemRequest is one order line to allocate
type AllocationItemRequest struct {
	SalesOrderItemID string
	SKU              string
	Quantity         int
}

// AllocateOrderCommand allocates inventory for an order using a strategy
type AllocateOrderCommand struct {
	SalesOrderID string
	Items        []AllocationItemRequest
	Strategy     domain.AllocationStrategy
	ExpiresAt    *time.Time
}

// AllocateItemCommand allocates directly against a named inventory slice
type AllocateItemCommand struct {
	SalesOrderID     string
	SalesOrderItemID string
	SKU              string
	LocationID       string
	LotNumber        string
	SerialNumber     string
	Quantity         int
	ExpiresAt        *time.Time
}

// BulkAllocateCommand allocates several orders in one request
type BulkAllocateCommand struct {
	Orders []AllocateOrderCommand
}

// RecordPickCommand records picked quantity against an allocation
type RecordPickCommand struct {
	AllocationID string
	Quantity     int
}

// CancelAllocationCommand cancels an allocation and releases its inventory
type CancelAllocationCommand struct {
	AllocationID string
}

// ReallocateExpiredCommand releases expired allocations back to the ledger
type ReallocateExpiredCommand struct {
	Limit int
}

// GetAllocationQuery retrieves an allocation by ID
type GetAllocationQuery struct {
	AllocationID string
}

// GetOrderAllocationsQuery retrieves all allocations for a sales order
type GetOrderAllocationsQuery struct {
	SalesOrderID string
}

// GetInventoryQuery retrieves ledger records for a SKU
type GetInventoryQuery struct {
	SKU string
}

// GetInventorySliceQuery retrieves one ledger slice by SKU and location
type GetInventorySliceQuery struct {
	SKU          string
	LocationID   string
	LotNumber    string
	SerialNumber string
}

// GetBackordersQuery retrieves open backorders
type GetBackordersQuery struct {
	Limit int
}

// Dock commands

// CreateDockCommand registers a loading dock
type CreateDockCommand struct {
	Code             string
	WarehouseID      string
	DockType         domain.DockType
	HasLeveler       bool
	MaxVehicleLength float64
}

// SetDockStatusCommand updates a dock's operational status
type SetDockStatusCommand struct {
	DockID string
	Status domain.DockStatus
}

// CreateDockScheduleCommand books an appointment window at a dock
type CreateDockScheduleCommand struct {
	DockID      string
	LoadPlanID  string
	CarrierName string
	VehicleRef  string
	Start       time.Time
	End         time.Time
}

// UpdateDockScheduleCommand moves an appointment to a new dock or window
type UpdateDockScheduleCommand struct {
	ScheduleID string
	DockID     string
	Start      time.Time
	End        time.Time
}

// ScheduleActionCommand drives a schedule through its state machine
type ScheduleActionCommand struct {
	ScheduleID string
}

// GetDockQuery retrieves a dock by ID
type GetDockQuery struct {
	DockID string
}

// GetDocksQuery retrieves docks for a warehouse
type GetDocksQuery struct {
	WarehouseID string
}

// GetDockScheduleQuery retrieves a schedule by ID
type GetDockScheduleQuery struct {
	ScheduleID string
}

// FindAvailableSlotsQuery finds free windows on a dock for one day
type FindAvailableSlotsQuery struct {
	DockID          string
	Date            string // YYYY-MM-DD
	DurationMinutes int
}

// GetDockAvailabilityQuery returns the hourly availability grid for one day
type GetDockAvailabilityQuery struct {
	WarehouseID string
	Date        string // YYYY-MM-DD
}

// GetDockUtilizationQuery aggregates appointment outcomes per dock
type GetDockUtilizationQuery struct {
	FromDate string // YYYY-MM-DD
	ToDate   string // YYYY-MM-DD
}

// Load plan commands

// CreateLoadPlanCommand groups shipments onto one outbound vehicle
type CreateLoadPlanCommand struct {
	CarrierName        string
	WarehouseID        string
	ShipmentIDs        []string
	VehicleWeightCapKg float64
	VehicleVolumeCapM3 float64
}

// SequenceLoadPlanCommand computes the loading sequence for a plan
type SequenceLoadPlanCommand struct {
	LoadPlanID string
}

// ConfirmLoadingCommand records physical loading of the vehicle
type ConfirmLoadingCommand struct {
	LoadPlanID  string
	ConfirmedBy string
	VehicleRef  string
	SealNumber  string
}

// DispatchLoadPlanCommand dispatches a loaded plan
type DispatchLoadPlanCommand struct {
	LoadPlanID string
}

// DeliverLoadPlanCommand marks a dispatched plan delivered
type DeliverLoadPlanCommand struct {
	LoadPlanID string
}

// CancelLoadPlanCommand cancels a plan still in planning
type CancelLoadPlanCommand struct {
	LoadPlanID string
}

// GetLoadPlanQuery retrieves a load plan by ID
type GetLoadPlanQuery struct {
	LoadPlanID string
}

// GetLoadPlansByStatusQuery retrieves load plans in one status
type GetLoadPlansByStatusQuery struct {
	Status domain.LoadStatus
}

// Packing commands

// CreateCartonTypeCommand adds a carton size to the catalog
type CreateCartonTypeCommand struct {
	Name         string
	LengthCm     float64
	WidthCm      float64
	HeightCm     float64
	MaxWeightKg  float64
	TareWeightKg float64
}

// RecommendCartonCommand selects cartons for an item set
type RecommendCartonCommand struct {
	Items []domain.PackItem
}

// CreatePackOrderCommand creates a pack order for a sales order
type CreatePackOrderCommand struct {
	SalesOrderID string
	Lines        []domain.PackLine
}

// AssignPackOrderCommand assigns a pack order to a packer
type AssignPackOrderCommand struct {
	PackOrderID string
	PackerID    string
	Station     string
}

// StartPackOrderCommand starts packing
type StartPackOrderCommand struct {
	PackOrderID string
}

// PackItemCommand places quantity of one SKU into a carton
type PackItemCommand struct {
	PackOrderID  string
	CartonID     string
	CartonTypeID string
	SKU          string
	Quantity     int
}

// CompletePackOrderCommand completes a fully packed order
type CompletePackOrderCommand struct {
	PackOrderID string
}

// CancelPackOrderCommand cancels a pack order
type CancelPackOrderCommand struct {
	PackOrderID string
}

// GetPackOrderQuery retrieves a pack order by ID
type GetPackOrderQuery struct {
	PackOrderID string
}

// GetPackOrderBySalesOrderQuery retrieves the pack order for a sales order
type GetPackOrderBySalesOrderQuery struct {
	SalesOrderID string
}

// GetCartonTypesQuery retrieves the carton catalog
type GetCartonTypesQuery struct{}

// Quality commands

// PerformQualityCheckCommand runs a checkpoint against a carton or shipment
type PerformQualityCheckCommand struct {
	CheckpointID string
	EntityType   domain.QCEntityType
	EntityID     string
	Criteria     []domain.CheckCriterion
	Measurements domain.Measurements
	PerformedBy  string
}

// VerifyWeightCommand grades one weight measurement against a tolerance
type VerifyWeightCommand struct {
	EntityType   domain.QCEntityType
	EntityID     string
	ExpectedKg   float64
	ActualKg     float64
	TolerancePct float64
	PerformedBy  string
}

// VerifyDimensionsCommand grades measured dimensions against a tolerance
type VerifyDimensionsCommand struct {
	EntityType       domain.QCEntityType
	EntityID         string
	ExpectedLengthCm float64
	ExpectedWidthCm  float64
	ExpectedHeightCm float64
	ActualLengthCm   float64
	ActualWidthCm    float64
	ActualHeightCm   float64
	TolerancePct     float64
	PerformedBy      string
}

// RaiseQualityExceptionCommand opens an exception manually
type RaiseQualityExceptionCommand struct {
	CheckID       string
	EntityType    domain.QCEntityType
	EntityID      string
	ExceptionType string
	Severity      domain.ExceptionSeverity
	Description   string
}

// StartExceptionInvestigationCommand moves an exception to in_progress
type StartExceptionInvestigationCommand struct {
	ExceptionID string
}

// ResolveQualityExceptionCommand resolves an exception
type ResolveQualityExceptionCommand struct {
	ExceptionID string
	ResolvedBy  string
	Resolution  string
}

// GetQualityCheckQuery retrieves a check by ID
type GetQualityCheckQuery struct {
	CheckID string
}

// GetEntityChecksQuery retrieves checks for one entity
type GetEntityChecksQuery struct {
	EntityType domain.QCEntityType
	EntityID   string
}

// GetQualityExceptionQuery retrieves an exception by ID
type GetQualityExceptionQuery struct {
	ExceptionID string
}

// GetOpenExceptionsQuery retrieves exceptions in one status
type GetOpenExceptionsQuery struct {
	Status domain.ExceptionStatus
	Limit  int
}

// Shipping commands

// CreateShipmentCommand creates a ready-to-ship shipment
type CreateShipmentCommand struct {
	OrderID          string
	PackOrderID      string
	WarehouseID      string
	WeightKg         float64
	Dimensions       domain.Dimensions
	Shipper          domain.Address
	Recipient        domain.Address
	ExpectedDelivery *time.Time
}

// ShopRatesCommand shops rates across all registered carriers
type ShopRatesCommand struct {
	Shipper     domain.Address
	Recipient   domain.Address
	WeightKg    float64
	Dimensions  domain.Dimensions
	ServiceType string
}

// GenerateLabelCommand generates and applies a carrier label
type GenerateLabelCommand struct {
	ShipmentID  string
	CarrierCode string
	ServiceType string
	LabelFormat string
}

// CreateManifestCommand builds the end-of-day manifest for one carrier
type CreateManifestCommand struct {
	CarrierCode string
}

// GetShipmentQuery retrieves a shipment by ID
type GetShipmentQuery struct {
	ShipmentID string
}

// GetShipmentsByStatusQuery retrieves shipments in one status
type GetShipmentsByStatusQuery struct {
	Status domain.ShipmentStatus
}
