package application

import (
	"github.com/wms-platform/outbound-service/internal/domain"
)

// ToInventoryRecordDTO converts a ledger record to its DTO
func ToInventoryRecordDTO(record *domain.InventoryRecord) *InventoryRecordDTO {
	return &InventoryRecordDTO{
		SKU:               record.SKU,
		LocationID:        record.LocationID,
		LotNumber:         record.LotNumber,
		SerialNumber:      record.SerialNumber,
		WarehouseID:       record.WarehouseID,
		ReceivedDate:      record.ReceivedDate,
		ExpiryDate:        record.ExpiryDate,
		AvailableQuantity: record.AvailableQuantity,
		AllocatedQuantity: record.AllocatedQuantity,
		TotalQuantity:     record.TotalQuantity(),
		UpdatedAt:         record.UpdatedAt,
	}
}

// ToInventoryRecordDTOs converts a slice of ledger records
func ToInventoryRecordDTOs(records []*domain.InventoryRecord) []InventoryRecordDTO {
	dtos := make([]InventoryRecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, *ToInventoryRecordDTO(record))
	}
	return dtos
}

// ToAllocationDTO converts an allocation to its DTO
func ToAllocationDTO(allocation *domain.OrderAllocation) *AllocationDTO {
	return &AllocationDTO{
		AllocationID:      allocation.AllocationID,
		SalesOrderID:      allocation.SalesOrderID,
		SalesOrderItemID:  allocation.SalesOrderItemID,
		SKU:               allocation.SKU,
		LocationID:        allocation.LocationID,
		LotNumber:         allocation.LotNumber,
		SerialNumber:      allocation.SerialNumber,
		AllocatedQuantity: allocation.AllocatedQuantity,
		PickedQuantity:    allocation.PickedQuantity,
		Status:            string(allocation.Status),
		Strategy:          string(allocation.Strategy),
		AllocatedAt:       allocation.AllocatedAt,
		ExpiresAt:         allocation.ExpiresAt,
		CancelledAt:       allocation.CancelledAt,
	}
}

// ToAllocationDTOs converts a slice of allocations
func ToAllocationDTOs(allocations []*domain.OrderAllocation) []AllocationDTO {
	dtos := make([]AllocationDTO, 0, len(allocations))
	for _, allocation := range allocations {
		dtos = append(dtos, *ToAllocationDTO(allocation))
	}
	return dtos
}

// ToBackorderDTO converts a backorder to its DTO
func ToBackorderDTO(backorder *domain.Backorder) *BackorderDTO {
	return &BackorderDTO{
		BackorderID:      backorder.BackorderID,
		SalesOrderID:     backorder.SalesOrderID,
		SalesOrderItemID: backorder.SalesOrderItemID,
		SKU:              backorder.SKU,
		Quantity:         backorder.Quantity,
		Strategy:         string(backorder.Strategy),
		Status:           string(backorder.Status),
		CreatedAt:        backorder.CreatedAt,
	}
}

// ToBackorderDTOs converts a slice of backorders
func ToBackorderDTOs(backorders []*domain.Backorder) []BackorderDTO {
	dtos := make([]BackorderDTO, 0, len(backorders))
	for _, backorder := range backorders {
		dtos = append(dtos, *ToBackorderDTO(backorder))
	}
	return dtos
}

// ToDockDTO converts a loading dock to its DTO
func ToDockDTO(dock *domain.LoadingDock) *DockDTO {
	return &DockDTO{
		DockID:           dock.DockID,
		Code:             dock.Code,
		WarehouseID:      dock.WarehouseID,
		DockType:         string(dock.DockType),
		Status:           string(dock.Status),
		HasLeveler:       dock.HasLeveler,
		MaxVehicleLength: dock.MaxVehicleLength,
		UpdatedAt:        dock.UpdatedAt,
	}
}

// ToDockDTOs converts a slice of docks
func ToDockDTOs(docks []*domain.LoadingDock) []DockDTO {
	dtos := make([]DockDTO, 0, len(docks))
	for _, dock := range docks {
		dtos = append(dtos, *ToDockDTO(dock))
	}
	return dtos
}

// ToDockScheduleDTO converts a dock schedule to its DTO
func ToDockScheduleDTO(schedule *domain.DockSchedule) *DockScheduleDTO {
	return &DockScheduleDTO{
		ScheduleID:      schedule.ScheduleID,
		DockID:          schedule.DockID,
		LoadPlanID:      schedule.LoadPlanID,
		CarrierName:     schedule.CarrierName,
		VehicleRef:      schedule.VehicleRef,
		ScheduledDate:   schedule.ScheduledDate,
		ScheduledStart:  schedule.ScheduledStart,
		ScheduledEnd:    schedule.ScheduledEnd,
		Status:          string(schedule.Status),
		ActualStartTime: schedule.ActualStartTime,
		ActualEndTime:   schedule.ActualEndTime,
	}
}

// ToDockScheduleDTOs converts a slice of schedules
func ToDockScheduleDTOs(schedules []*domain.DockSchedule) []DockScheduleDTO {
	dtos := make([]DockScheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		dtos = append(dtos, *ToDockScheduleDTO(schedule))
	}
	return dtos
}

// ToTimeWindowDTOs converts free windows
func ToTimeWindowDTOs(windows []domain.TimeWindow) []TimeWindowDTO {
	dtos := make([]TimeWindowDTO, 0, len(windows))
	for _, window := range windows {
		dtos = append(dtos, TimeWindowDTO{Start: window.Start, End: window.End, Minutes: window.Minutes()})
	}
	return dtos
}

// ToLoadPlanDTO converts a load plan to its DTO
func ToLoadPlanDTO(plan *domain.LoadPlan) *LoadPlanDTO {
	stops := make([]LoadStopDTO, 0, len(plan.LoadingSequence))
	for _, stop := range plan.LoadingSequence {
		stops = append(stops, LoadStopDTO{
			SequenceNumber:   stop.SequenceNumber,
			ShipmentID:       stop.ShipmentID,
			ExpectedDelivery: stop.ExpectedDelivery,
		})
	}

	return &LoadPlanDTO{
		LoadPlanID:           plan.LoadPlanID,
		LoadPlanNumber:       plan.LoadPlanNumber,
		CarrierName:          plan.CarrierName,
		WarehouseID:          plan.WarehouseID,
		ShipmentIDs:          plan.ShipmentIDs,
		Status:               string(plan.Status),
		LoadingSequence:      stops,
		TotalWeightKg:        plan.TotalWeightKg,
		TotalVolumeM3:        plan.TotalVolumeM3,
		UtilizationWeightPct: plan.UtilizationWeightPct,
		UtilizationVolumePct: plan.UtilizationVolumePct,
		DockScheduleID:       plan.DockScheduleID,
		PlannedDeparture:     plan.PlannedDeparture,
		ActualDeparture:      plan.ActualDeparture,
		CreatedAt:            plan.CreatedAt,
		DeliveredAt:          plan.DeliveredAt,
	}
}

// ToLoadPlanDTOs converts a slice of load plans
func ToLoadPlanDTOs(plans []*domain.LoadPlan) []LoadPlanDTO {
	dtos := make([]LoadPlanDTO, 0, len(plans))
	for _, plan := range plans {
		dtos = append(dtos, *ToLoadPlanDTO(plan))
	}
	return dtos
}

// ToCartonTypeDTO converts a carton catalog entry to its DTO
func ToCartonTypeDTO(carton *domain.CartonType) *CartonTypeDTO {
	return &CartonTypeDTO{
		CartonTypeID: carton.CartonTypeID,
		Name:         carton.Name,
		LengthCm:     carton.LengthCm,
		WidthCm:      carton.WidthCm,
		HeightCm:     carton.HeightCm,
		VolumeCm3:    carton.VolumeCm3,
		MaxWeightKg:  carton.MaxWeightKg,
		TareWeightKg: carton.TareWeightKg,
	}
}

// ToCartonTypeDTOs converts the carton catalog
func ToCartonTypeDTOs(cartons []domain.CartonType) []CartonTypeDTO {
	dtos := make([]CartonTypeDTO, 0, len(cartons))
	for i := range cartons {
		dtos = append(dtos, *ToCartonTypeDTO(&cartons[i]))
	}
	return dtos
}

// ToPackOrderDTO converts a pack order to its DTO
func ToPackOrderDTO(order *domain.PackOrder) *PackOrderDTO {
	lines := make([]PackLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, PackLineDTO{
			SalesOrderItemID: line.SalesOrderItemID,
			SKU:              line.SKU,
			RequiredQuantity: line.RequiredQuantity,
			PackedQuantity:   order.PackedQuantity(line.SKU),
		})
	}

	cartons := make([]PackedCartonDTO, 0, len(order.Cartons))
	for _, carton := range order.Cartons {
		items := make([]PackedItemDTO, 0, len(carton.Items))
		for _, item := range carton.Items {
			items = append(items, PackedItemDTO{SKU: item.SKU, Quantity: item.Quantity})
		}
		cartons = append(cartons, PackedCartonDTO{
			CartonID:     carton.CartonID,
			CartonTypeID: carton.CartonTypeID,
			Items:        items,
		})
	}

	return &PackOrderDTO{
		PackOrderID:  order.PackOrderID,
		SalesOrderID: order.SalesOrderID,
		Lines:        lines,
		Cartons:      cartons,
		Status:       string(order.Status),
		PackerID:     order.PackerID,
		Station:      order.Station,
		CreatedAt:    order.CreatedAt,
		StartedAt:    order.StartedAt,
		CompletedAt:  order.CompletedAt,
	}
}

// ToQualityCheckDTO converts a quality check to its DTO
func ToQualityCheckDTO(check *domain.QualityCheck, exceptionIDs []string) *QualityCheckDTO {
	return &QualityCheckDTO{
		CheckID:       check.CheckID,
		CheckpointID:  check.CheckpointID,
		EntityType:    string(check.EntityType),
		EntityID:      check.EntityID,
		Results:       check.Results,
		OverallResult: string(check.OverallResult),
		PerformedBy:   check.PerformedBy,
		PerformedAt:   check.PerformedAt,
		ExceptionIDs:  exceptionIDs,
	}
}

// ToQualityExceptionDTO converts a quality exception to its DTO
func ToQualityExceptionDTO(exception *domain.QualityException, openRemaining int) *QualityExceptionDTO {
	return &QualityExceptionDTO{
		ExceptionID:   exception.ExceptionID,
		CheckID:       exception.CheckID,
		EntityType:    string(exception.EntityType),
		EntityID:      exception.EntityID,
		ExceptionType: exception.ExceptionType,
		Severity:      string(exception.Severity),
		Description:   exception.Description,
		Status:        string(exception.Status),
		Resolution:    exception.Resolution,
		ResolvedBy:    exception.ResolvedBy,
		CreatedAt:     exception.CreatedAt,
		ResolvedAt:    exception.ResolvedAt,
		OpenRemaining: openRemaining,
	}
}

// ToQualityExceptionDTOs converts a slice of exceptions
func ToQualityExceptionDTOs(exceptions []*domain.QualityException) []QualityExceptionDTO {
	dtos := make([]QualityExceptionDTO, 0, len(exceptions))
	for _, exception := range exceptions {
		dtos = append(dtos, *ToQualityExceptionDTO(exception, 0))
	}
	return dtos
}

// ToShipmentDTO converts a shipment to its DTO
func ToShipmentDTO(shipment *domain.Shipment) *ShipmentDTO {
	return &ShipmentDTO{
		ShipmentID:       shipment.ShipmentID,
		OrderID:          shipment.OrderID,
		PackOrderID:      shipment.PackOrderID,
		WarehouseID:      shipment.WarehouseID,
		Status:           string(shipment.Status),
		LoadPlanID:       shipment.LoadPlanID,
		CarrierCode:      shipment.CarrierCode,
		ServiceType:      shipment.ServiceType,
		WeightKg:         shipment.WeightKg,
		Dimensions:       shipment.Dimensions,
		Shipper:          shipment.Shipper,
		Recipient:        shipment.Recipient,
		Label:            shipment.Label,
		ExpectedDelivery: shipment.ExpectedDelivery,
		CreatedAt:        shipment.CreatedAt,
		DeliveredAt:      shipment.DeliveredAt,
	}
}

// ToShipmentDTOs converts a slice of shipments
func ToShipmentDTOs(shipments []*domain.Shipment) []ShipmentDTO {
	dtos := make([]ShipmentDTO, 0, len(shipments))
	for _, shipment := range shipments {
		dtos = append(dtos, *ToShipmentDTO(shipment))
	}
	return dtos
}

// ToManifestDTO converts a manifest to its DTO
func ToManifestDTO(manifest *domain.Manifest) *ManifestDTO {
	return &ManifestDTO{
		ManifestID:    manifest.ManifestID,
		CarrierCode:   manifest.CarrierCode,
		ShipmentIDs:   manifest.ShipmentIDs,
		ShipmentCount: manifest.ShipmentCount,
		TotalWeightKg: manifest.TotalWeightKg,
		GeneratedAt:   manifest.GeneratedAt,
	}
}
