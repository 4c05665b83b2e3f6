package application

import (
	"time"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// InventoryRecordDTO represents one ledger slice in responses
type InventoryRecordDTO struct {
	SKU               string     `json:"sku"`
	LocationID        string     `json:"locationId"`
	LotNumber         string     `json:"lotNumber,omitempty"`
	SerialNumber      string     `json:"serialNumber,omitempty"`
	WarehouseID       string     `json:"warehouseId"`
	ReceivedDate      time.Time  `json:"receivedDate"`
	ExpiryDate        *time.Time `json:"expiryDate,omitempty"`
	AvailableQuantity int        `json:"availableQuantity"`
	AllocatedQuantity int        `json:"allocatedQuantity"`
	TotalQuantity     int        `json:"totalQuantity"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// AllocationDTO represents an order allocation in responses
type AllocationDTO struct {
	AllocationID      string     `json:"allocationId"`
	SalesOrderID      string     `json:"salesOrderId"`
	SalesOrderItemID  string     `json:"salesOrderItemId"`
	SKU               string     `json:"sku"`
	LocationID        string     `json:"locationId"`
	LotNumber         string     `json:"lotNumber,omitempty"`
	SerialNumber      string     `json:"serialNumber,omitempty"`
	AllocatedQuantity int        `json:"allocatedQuantity"`
	PickedQuantity    int        `json:"pickedQuantity"`
	Status            string     `json:"status"`
	Strategy          string     `json:"strategy"`
	AllocatedAt       time.Time  `json:"allocatedAt"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	CancelledAt       *time.Time `json:"cancelledAt,omitempty"`
}

// BackorderDTO represents a backorder in responses
type BackorderDTO struct {
	BackorderID      string    `json:"backorderId"`
	SalesOrderID     string    `json:"salesOrderId"`
	SalesOrderItemID string    `json:"salesOrderItemId"`
	SKU              string    `json:"sku"`
	Quantity         int       `json:"quantity"`
	Strategy         string    `json:"strategy"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// OrderAllocationResultDTO is the outcome of allocating one order: the
// created allocations plus any backorders for unmet demand.
type OrderAllocationResultDTO struct {
	SalesOrderID string          `json:"salesOrderId"`
	Allocations  []AllocationDTO `json:"allocations"`
	Backorders   []BackorderDTO  `json:"backorders"`
	FullyMet     bool            `json:"fullyMet"`
}

// BulkAllocationResultDTO reports per-order outcomes of a bulk request.
// Individual order failures do not abort the batch.
type BulkAllocationResultDTO struct {
	Results []BulkAllocationItemDTO `json:"results"`
}

// BulkAllocationItemDTO is one order's outcome within a bulk request
type BulkAllocationItemDTO struct {
	SalesOrderID string                    `json:"salesOrderId"`
	Result       *OrderAllocationResultDTO `json:"result,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

// ReallocationResultDTO reports the outcome of an expired-allocation sweep:
// how many allocations were released, how many order items were re-placed or
// backordered, and which allocation IDs the sweep cancelled.
type ReallocationResultDTO struct {
	ReleasedCount    int      `json:"releasedCount"`
	ReallocatedCount int      `json:"reallocatedCount"`
	BackorderedCount int      `json:"backorderedCount"`
	FailedCount      int      `json:"failedCount"`
	AllocationIDs    []string `json:"allocationIds"`
}

// DockDTO represents a loading dock in responses
type DockDTO struct {
	DockID           string    `json:"dockId"`
	Code             string    `json:"code"`
	WarehouseID      string    `json:"warehouseId"`
	DockType         string    `json:"dockType"`
	Status           string    `json:"status"`
	HasLeveler       bool      `json:"hasLeveler"`
	MaxVehicleLength float64   `json:"maxVehicleLength"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DockScheduleDTO represents a dock appointment in responses
type DockScheduleDTO struct {
	ScheduleID      string     `json:"scheduleId"`
	DockID          string     `json:"dockId"`
	LoadPlanID      string     `json:"loadPlanId,omitempty"`
	CarrierName     string     `json:"carrierName"`
	VehicleRef      string     `json:"vehicleRef,omitempty"`
	ScheduledDate   string     `json:"scheduledDate"`
	ScheduledStart  time.Time  `json:"scheduledStart"`
	ScheduledEnd    time.Time  `json:"scheduledEnd"`
	Status          string     `json:"status"`
	ActualStartTime *time.Time `json:"actualStartTime,omitempty"`
	ActualEndTime   *time.Time `json:"actualEndTime,omitempty"`
}

// TimeWindowDTO is one free window on a dock
type TimeWindowDTO struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
}

// DockAvailabilityDTO is one dock's hourly availability grid for a day
type DockAvailabilityDTO struct {
	DockID string             `json:"dockId"`
	Code   string             `json:"code"`
	Date   string             `json:"date"`
	Slots  []domain.HourlySlot `json:"slots"`
}

// LoadStopDTO is one stop of a loading sequence
type LoadStopDTO struct {
	SequenceNumber   int        `json:"sequenceNumber"`
	ShipmentID       string     `json:"shipmentId"`
	ExpectedDelivery *time.Time `json:"expectedDelivery,omitempty"`
}

// LoadPlanDTO represents a load plan in responses
type LoadPlanDTO struct {
	LoadPlanID           string        `json:"loadPlanId"`
	LoadPlanNumber       string        `json:"loadPlanNumber"`
	CarrierName          string        `json:"carrierName"`
	WarehouseID          string        `json:"warehouseId"`
	ShipmentIDs          []string      `json:"shipmentIds"`
	Status               string        `json:"status"`
	LoadingSequence      []LoadStopDTO `json:"loadingSequence"`
	TotalWeightKg        float64       `json:"totalWeightKg"`
	TotalVolumeM3        float64       `json:"totalVolumeM3"`
	UtilizationWeightPct float64       `json:"utilizationWeightPct"`
	UtilizationVolumePct float64       `json:"utilizationVolumePct"`
	DockScheduleID       string        `json:"dockScheduleId,omitempty"`
	PlannedDeparture     *time.Time    `json:"plannedDeparture,omitempty"`
	ActualDeparture      *time.Time    `json:"actualDeparture,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	DeliveredAt          *time.Time    `json:"deliveredAt,omitempty"`
}

// CartonTypeDTO represents a carton catalog entry in responses
type CartonTypeDTO struct {
	CartonTypeID string  `json:"cartonTypeId"`
	Name         string  `json:"name"`
	LengthCm     float64 `json:"lengthCm"`
	WidthCm      float64 `json:"widthCm"`
	HeightCm     float64 `json:"heightCm"`
	VolumeCm3    float64 `json:"volumeCm3"`
	MaxWeightKg  float64 `json:"maxWeightKg"`
	TareWeightKg float64 `json:"tareWeightKg"`
}

// CartonRecommendationDTO is the outcome of carton selection. When no single
// carton fits, MultiCarton holds the fallback plan instead.
type CartonRecommendationDTO struct {
	SingleCarton *domain.CartonRecommendation `json:"singleCarton,omitempty"`
	MultiCarton  *domain.MultiCartonPlan      `json:"multiCarton,omitempty"`
}

// PackOrderDTO represents a pack order in responses
type PackOrderDTO struct {
	PackOrderID  string            `json:"packOrderId"`
	SalesOrderID string            `json:"salesOrderId"`
	Lines        []PackLineDTO     `json:"lines"`
	Cartons      []PackedCartonDTO `json:"cartons"`
	Status       string            `json:"status"`
	PackerID     string            `json:"packerId,omitempty"`
	Station      string            `json:"station,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
}

// PackLineDTO is one required line with packing progress
type PackLineDTO struct {
	SalesOrderItemID string `json:"salesOrderItemId"`
	SKU              string `json:"sku"`
	RequiredQuantity int    `json:"requiredQuantity"`
	PackedQuantity   int    `json:"packedQuantity"`
}

// PackedCartonDTO is one carton being filled for the order
type PackedCartonDTO struct {
	CartonID     string          `json:"cartonId"`
	CartonTypeID string          `json:"cartonTypeId"`
	Items        []PackedItemDTO `json:"items"`
}

// PackedItemDTO is quantity of one SKU in a carton
type PackedItemDTO struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// QualityCheckDTO represents a performed quality check in responses
type QualityCheckDTO struct {
	CheckID       string                   `json:"checkId"`
	CheckpointID  string                   `json:"checkpointId"`
	EntityType    string                   `json:"entityType"`
	EntityID      string                   `json:"entityId"`
	Results       []domain.CriterionResult `json:"results"`
	OverallResult string                   `json:"overallResult"`
	PerformedBy   string                   `json:"performedBy"`
	PerformedAt   *time.Time               `json:"performedAt,omitempty"`
	ExceptionIDs  []string                 `json:"exceptionIds,omitempty"`
}

// VerificationDTO is the graded outcome of a single tolerance verification
type VerificationDTO struct {
	Verdict      string  `json:"verdict"`
	DeviationPct float64 `json:"deviationPct"`
	ExceptionID  string  `json:"exceptionId,omitempty"`
}

// QualityExceptionDTO represents a quality exception in responses
type QualityExceptionDTO struct {
	ExceptionID   string     `json:"exceptionId"`
	CheckID       string     `json:"checkId,omitempty"`
	EntityType    string     `json:"entityType"`
	EntityID      string     `json:"entityId"`
	ExceptionType string     `json:"exceptionType"`
	Severity      string     `json:"severity"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Resolution    string     `json:"resolution,omitempty"`
	ResolvedBy    string     `json:"resolvedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	OpenRemaining int        `json:"openRemaining"`
}

// ShipmentDTO represents a shipment in responses
type ShipmentDTO struct {
	ShipmentID       string                `json:"shipmentId"`
	OrderID          string                `json:"orderId"`
	PackOrderID      string                `json:"packOrderId,omitempty"`
	WarehouseID      string                `json:"warehouseId"`
	Status           string                `json:"status"`
	LoadPlanID       string                `json:"loadPlanId,omitempty"`
	CarrierCode      string                `json:"carrierCode,omitempty"`
	ServiceType      string                `json:"serviceType,omitempty"`
	WeightKg         float64               `json:"weightKg"`
	Dimensions       domain.Dimensions     `json:"dimensions"`
	Shipper          domain.Address        `json:"shipper"`
	Recipient        domain.Address        `json:"recipient"`
	Label            *domain.ShippingLabel `json:"label,omitempty"`
	ExpectedDelivery *time.Time            `json:"expectedDelivery,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	DeliveredAt      *time.Time            `json:"deliveredAt,omitempty"`
}

// ManifestDTO represents an end-of-day manifest in responses
type ManifestDTO struct {
	ManifestID    string    `json:"manifestId"`
	CarrierCode   string    `json:"carrierCode"`
	ShipmentIDs   []string  `json:"shipmentIds"`
	ShipmentCount int       `json:"shipmentCount"`
	TotalWeightKg float64   `json:"totalWeightKg"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
