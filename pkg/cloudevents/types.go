package cloudevents

import (
	"time"
)

// EventType constants for outbound fulfillment domain events
const (
	// Inventory events
	InventoryReceived  = "wms.inventory.received"
	InventoryAllocated = "wms.inventory.allocated"
	InventoryReleased  = "wms.inventory.released"
	InventoryAdjusted  = "wms.inventory.adjusted"

	// Allocation events
	OrderAllocated      = "wms.allocation.order-allocated"
	OrderBackordered    = "wms.allocation.order-backordered"
	AllocationReleased  = "wms.allocation.released"
	BackorderFulfilled  = "wms.allocation.backorder-fulfilled"

	// Dock events
	DockScheduleCreated   = "wms.dock.schedule-created"
	DockScheduleConfirmed = "wms.dock.schedule-confirmed"
	DockArrival           = "wms.dock.arrival"
	LoadingStarted        = "wms.dock.loading-started"
	LoadingCompleted      = "wms.dock.loading-completed"
	DockDeparture         = "wms.dock.departure"
	DockScheduleCancelled = "wms.dock.schedule-cancelled"

	// Load events
	LoadPlanCreated   = "wms.load.plan-created"
	LoadPlanning      = "wms.load.planning"
	LoadPlanned       = "wms.load.planned"
	LoadPlanReleased  = "wms.load.plan-released"
	LoadPlanCancelled = "wms.load.plan-cancelled"

	// Packing events
	PackOrderCreated   = "wms.packing.order-created"
	CartonRecommended  = "wms.packing.carton-recommended"
	PackOrderCompleted = "wms.packing.order-completed"

	// Quality events
	QualityCheckRecorded  = "wms.quality.check-recorded"
	QualityExceptionRaised   = "wms.quality.exception-raised"
	QualityExceptionResolved = "wms.quality.exception-resolved"

	// Shipping events
	ShipmentRated      = "wms.shipping.rated"
	ShipmentLabeled    = "wms.shipping.label-generated"
	ShipmentManifested = "wms.shipping.manifested"
	ShipConfirmed      = "wms.shipping.confirmed"
)

// Source constant for events emitted by this service
const (
	SourceOutbound = "/wms/outbound-service"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	FacilityID    string `json:"wmsfacilityid,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`
	OrderID       string `json:"wmsorderid,omitempty"`

	// W3C Trace Context propagated alongside the event
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// OrderAllocatedData represents the data payload for OrderAllocated
type OrderAllocatedData struct {
	AllocationID string           `json:"allocationId"`
	OrderID      string           `json:"orderId"`
	Strategy     string           `json:"strategy"`
	Lines        []AllocationLine `json:"lines"`
	Status       string           `json:"status"`
}

// AllocationLine represents one SKU allocation within an order
type AllocationLine struct {
	SKU        string `json:"sku"`
	LocationID string `json:"locationId,omitempty"`
	LotNumber  string `json:"lotNumber,omitempty"`
	Requested  int    `json:"requested"`
	Allocated  int    `json:"allocated"`
	Backorder  int    `json:"backorder"`
}

// InventoryAdjustedData represents the data payload for InventoryAdjusted
type InventoryAdjustedData struct {
	SKU            string `json:"sku"`
	LocationID     string `json:"locationId"`
	PreviousQty    int    `json:"previousQuantity"`
	NewQty         int    `json:"newQuantity"`
	AdjustmentType string `json:"adjustmentType"` // "receive", "allocate", "release", "adjust"
	Reason         string `json:"reason,omitempty"`
}

// DockScheduleData represents the data payload for dock schedule lifecycle events
type DockScheduleData struct {
	ScheduleID   string    `json:"scheduleId"`
	DockID       string    `json:"dockId"`
	CarrierName  string    `json:"carrierName"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	ScheduledEnd time.Time `json:"scheduledEnd"`
	Status       string    `json:"status"`
}

// LoadPlanData represents the data payload for load plan lifecycle events
type LoadPlanData struct {
	LoadPlanID    string   `json:"loadPlanId"`
	ShipmentIDs   []string `json:"shipmentIds"`
	CarrierName   string   `json:"carrierName"`
	TotalWeightKg float64  `json:"totalWeightKg"`
	TotalVolumeM3 float64  `json:"totalVolumeM3"`
	Status        string   `json:"status"`
}

// CartonRecommendedData represents the data payload for CartonRecommended
type CartonRecommendedData struct {
	PackOrderID string   `json:"packOrderId"`
	OrderID     string   `json:"orderId"`
	CartonTypes []string `json:"cartonTypes"`
	FillRate    float64  `json:"fillRate"`
}

// QualityExceptionData represents the data payload for quality exception events
type QualityExceptionData struct {
	ExceptionID string `json:"exceptionId"`
	OrderID     string `json:"orderId"`
	CheckID     string `json:"checkId"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// ShipmentRatedData represents the data payload for ShipmentRated
type ShipmentRatedData struct {
	ShipmentID  string  `json:"shipmentId"`
	OrderID     string  `json:"orderId"`
	CarrierName string  `json:"carrierName"`
	ServiceCode string  `json:"serviceCode"`
	TotalCost   float64 `json:"totalCost"`
	Currency    string  `json:"currency"`
}

// ShipmentLabeledData represents the data payload for ShipmentLabeled
type ShipmentLabeledData struct {
	ShipmentID     string `json:"shipmentId"`
	OrderID        string `json:"orderId"`
	CarrierName    string `json:"carrierName"`
	TrackingNumber string `json:"trackingNumber"`
}
