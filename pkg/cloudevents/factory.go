package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for outbound fulfillment domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	return event
}

// CreateOrderAllocatedEvent creates an OrderAllocated event
func (f *EventFactory) CreateOrderAllocatedEvent(
	ctx context.Context,
	allocationID string,
	orderID string,
	strategy string,
	lines []AllocationLine,
	status string,
) *WMSCloudEvent {
	data := OrderAllocatedData{
		AllocationID: allocationID,
		OrderID:      orderID,
		Strategy:     strategy,
		Lines:        lines,
		Status:       status,
	}
	event := f.CreateEvent(ctx, OrderAllocated, "allocation/"+allocationID, data)
	event.OrderID = orderID
	return event
}

// CreateInventoryAdjustedEvent creates an InventoryAdjusted event
func (f *EventFactory) CreateInventoryAdjustedEvent(
	ctx context.Context,
	sku string,
	locationID string,
	previousQty int,
	newQty int,
	adjustmentType string,
	reason string,
) *WMSCloudEvent {
	data := InventoryAdjustedData{
		SKU:            sku,
		LocationID:     locationID,
		PreviousQty:    previousQty,
		NewQty:         newQty,
		AdjustmentType: adjustmentType,
		Reason:         reason,
	}
	return f.CreateEvent(ctx, InventoryAdjusted, "inventory/"+sku, data)
}

// CreateDockScheduleEvent creates a dock schedule lifecycle event of the given type
func (f *EventFactory) CreateDockScheduleEvent(
	ctx context.Context,
	eventType string,
	scheduleID string,
	dockID string,
	carrierName string,
	scheduledAt time.Time,
	scheduledEnd time.Time,
	status string,
) *WMSCloudEvent {
	data := DockScheduleData{
		ScheduleID:   scheduleID,
		DockID:       dockID,
		CarrierName:  carrierName,
		ScheduledAt:  scheduledAt,
		ScheduledEnd: scheduledEnd,
		Status:       status,
	}
	return f.CreateEvent(ctx, eventType, "dock-schedule/"+scheduleID, data)
}

// CreateLoadPlanEvent creates a load plan lifecycle event of the given type
func (f *EventFactory) CreateLoadPlanEvent(
	ctx context.Context,
	eventType string,
	loadPlanID string,
	shipmentIDs []string,
	carrierName string,
	totalWeightKg float64,
	totalVolumeM3 float64,
	status string,
) *WMSCloudEvent {
	data := LoadPlanData{
		LoadPlanID:    loadPlanID,
		ShipmentIDs:   shipmentIDs,
		CarrierName:   carrierName,
		TotalWeightKg: totalWeightKg,
		TotalVolumeM3: totalVolumeM3,
		Status:        status,
	}
	return f.CreateEvent(ctx, eventType, "load-plan/"+loadPlanID, data)
}

// CreateCartonRecommendedEvent creates a CartonRecommended event
func (f *EventFactory) CreateCartonRecommendedEvent(
	ctx context.Context,
	packOrderID string,
	orderID string,
	cartonTypes []string,
	fillRate float64,
) *WMSCloudEvent {
	data := CartonRecommendedData{
		PackOrderID: packOrderID,
		OrderID:     orderID,
		CartonTypes: cartonTypes,
		FillRate:    fillRate,
	}
	event := f.CreateEvent(ctx, CartonRecommended, "pack-order/"+packOrderID, data)
	event.OrderID = orderID
	return event
}

// CreateQualityExceptionEvent creates a quality exception lifecycle event of the given type
func (f *EventFactory) CreateQualityExceptionEvent(
	ctx context.Context,
	eventType string,
	exceptionID string,
	orderID string,
	checkID string,
	severity string,
	description string,
) *WMSCloudEvent {
	data := QualityExceptionData{
		ExceptionID: exceptionID,
		OrderID:     orderID,
		CheckID:     checkID,
		Severity:    severity,
		Description: description,
	}
	event := f.CreateEvent(ctx, eventType, "quality-exception/"+exceptionID, data)
	event.OrderID = orderID
	return event
}

// CreateShipmentRatedEvent creates a ShipmentRated event
func (f *EventFactory) CreateShipmentRatedEvent(
	ctx context.Context,
	shipmentID string,
	orderID string,
	carrierName string,
	serviceCode string,
	totalCost float64,
	currency string,
) *WMSCloudEvent {
	data := ShipmentRatedData{
		ShipmentID:  shipmentID,
		OrderID:     orderID,
		CarrierName: carrierName,
		ServiceCode: serviceCode,
		TotalCost:   totalCost,
		Currency:    currency,
	}
	event := f.CreateEvent(ctx, ShipmentRated, "shipment/"+shipmentID, data)
	event.OrderID = orderID
	return event
}

// CreateShipmentLabeledEvent creates a ShipmentLabeled event
func (f *EventFactory) CreateShipmentLabeledEvent(
	ctx context.Context,
	shipmentID string,
	orderID string,
	carrierName string,
	trackingNumber string,
) *WMSCloudEvent {
	data := ShipmentLabeledData{
		ShipmentID:     shipmentID,
		OrderID:        orderID,
		CarrierName:    carrierName,
		TrackingNumber: trackingNumber,
	}
	event := f.CreateEvent(ctx, ShipmentLabeled, "shipment/"+shipmentID, data)
	event.OrderID = orderID
	return event
}
