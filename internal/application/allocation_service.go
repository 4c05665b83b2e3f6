package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// AllocationApplicationService handles inventory and allocation use cases
type AllocationApplicationService struct {
	inventoryRepo  domain.InventoryRepository
	allocationRepo domain.AllocationRepository
	backorderRepo  domain.BackorderRepository
	producer       *kafka.InstrumentedProducer
	eventFactory   *cloudevents.EventFactory
	logger         *logging.Logger

	// skuLocks serializes strategy runs per SKU so two orders cannot walk
	// the same candidate list concurrently. Direct slice allocation relies
	// on the repository's conditional decrement instead.
	skuMu    sync.Mutex
	skuLocks map[string]*sync.Mutex
}

// NewAllocationApplicationService creates a new AllocationApplicationService
func NewAllocationApplicationService(
	inventoryRepo domain.InventoryRepository,
	allocationRepo domain.AllocationRepository,
	backorderRepo domain.BackorderRepository,
	producer *kafka.InstrumentedProducer,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *AllocationApplicationService {
	return &AllocationApplicationService{
		inventoryRepo:  inventoryRepo,
		allocationRepo: allocationRepo,
		backorderRepo:  backorderRepo,
		producer:       producer,
		eventFactory:   eventFactory,
		logger:         logger,
		skuLocks:       make(map[string]*sync.Mutex),
	}
}

func (s *AllocationApplicationService) lockSKU(sku string) *sync.Mutex {
	s.skuMu.Lock()
	lock, ok := s.skuLocks[sku]
	if !ok {
		lock = &sync.Mutex{}
		s.skuLocks[sku] = lock
	}
	s.skuMu.Unlock()

	lock.Lock()
	return lock
}

// ReceiveInventory records a receipt into the ledger, merging into the
// existing slice when one exists.
func (s *AllocationApplicationService) ReceiveInventory(ctx context.Context, cmd ReceiveInventoryCommand) (*InventoryRecordDTO, error) {
	record, err := s.inventoryRepo.FindBySlice(ctx, cmd.SKU, cmd.LocationID, cmd.LotNumber, cmd.SerialNumber)
	if err != nil {
		s.logger.WithError(err).Error("Failed to look up inventory slice", "sku", cmd.SKU)
		return nil, fmt.Errorf("failed to look up inventory slice: %w", err)
	}

	if record == nil {
		record, err = domain.NewInventoryRecord(cmd.SKU, cmd.LocationID, cmd.WarehouseID, cmd.Quantity, cmd.ReceivedDate, cmd.LotNumber, cmd.SerialNumber, cmd.ExpiryDate)
		if err != nil {
			return nil, apperrors.ErrValidation(err.Error())
		}
	} else if err := record.Receive(cmd.Quantity); err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.inventoryRepo.Save(ctx, record); err != nil {
		s.logger.WithError(err).Error("Failed to save inventory record", "sku", cmd.SKU)
		return nil, fmt.Errorf("failed to save inventory record: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "inventory.received",
		EntityType: "inventoryRecord",
		EntityID:   record.SliceKey(),
		Action:     "received",
		RelatedIDs: map[string]string{
			"sku":        cmd.SKU,
			"locationId": cmd.LocationID,
		},
	})

	return ToInventoryRecordDTO(record), nil
}

// AllocateOrder allocates inventory for every item of an order using the
// requested strategy. Shortfall produces backorders, not an error.
func (s *AllocationApplicationService) AllocateOrder(ctx context.Context, cmd AllocateOrderCommand) (*OrderAllocationResultDTO, error) {
	if !cmd.Strategy.IsValid() {
		return nil, apperrors.ErrValidation(fmt.Sprintf("unknown allocation strategy %q", cmd.Strategy))
	}
	if len(cmd.Items) == 0 {
		return nil, apperrors.ErrValidation("order has no items to allocate")
	}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.ErrValidation(fmt.Sprintf("quantity for %s must be positive", item.SKU))
		}
	}

	allocations := make([]*domain.OrderAllocation, 0)
	backorders := make([]*domain.Backorder, 0)

	for _, item := range cmd.Items {
		itemAllocations, backorder, err := s.allocateItemWithStrategy(ctx, cmd, item)
		if err != nil {
			// earlier items already decremented the ledger; return that
			// quantity before surfacing the error
			s.releaseAllocated(ctx, allocations)
			return nil, err
		}
		allocations = append(allocations, itemAllocations...)
		if backorder != nil {
			backorders = append(backorders, backorder)
		}
	}

	if len(allocations) > 0 {
		if err := s.allocationRepo.SaveAll(ctx, allocations); err != nil {
			s.logger.WithError(err).Error("Failed to save allocations", "salesOrderId", cmd.SalesOrderID)
			s.releaseAllocated(ctx, allocations)
			return nil, fmt.Errorf("failed to save allocations: %w", err)
		}
	}
	for _, backorder := range backorders {
		if err := s.backorderRepo.Save(ctx, backorder); err != nil {
			s.logger.WithError(err).Error("Failed to save backorder", "salesOrderId", cmd.SalesOrderID)
			return nil, fmt.Errorf("failed to save backorder: %w", err)
		}
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "allocation.order_allocated",
		EntityType: "salesOrder",
		EntityID:   cmd.SalesOrderID,
		Action:     "allocated",
		RelatedIDs: map[string]string{
			"strategy":       string(cmd.Strategy),
			"allocationCount": fmt.Sprintf("%d", len(allocations)),
			"backorderCount":  fmt.Sprintf("%d", len(backorders)),
		},
	})

	return &OrderAllocationResultDTO{
		SalesOrderID: cmd.SalesOrderID,
		Allocations:  ToAllocationDTOs(allocations),
		Backorders:   ToBackorderDTOs(backorders),
		FullyMet:     len(backorders) == 0,
	}, nil
}

// allocateItemWithStrategy walks the strategy-ordered candidate list for one
// item, decrementing slices until the demand is met or candidates run out.
func (s *AllocationApplicationService) allocateItemWithStrategy(ctx context.Context, cmd AllocateOrderCommand, item AllocationItemRequest) ([]*domain.OrderAllocation, *domain.Backorder, error) {
	lock := s.lockSKU(item.SKU)
	defer lock.Unlock()

	records, err := s.inventoryRepo.FindAvailableBySKU(ctx, item.SKU)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load available inventory", "sku", item.SKU)
		return nil, nil, fmt.Errorf("failed to load available inventory: %w", err)
	}

	if err := domain.OrderCandidates(records, cmd.Strategy); err != nil {
		return nil, nil, apperrors.ErrValidation(err.Error())
	}

	remaining := item.Quantity
	allocations := make([]*domain.OrderAllocation, 0)

	for _, record := range records {
		if remaining == 0 {
			break
		}
		if record.AvailableQuantity <= 0 {
			continue
		}

		take := remaining
		if take > record.AvailableQuantity {
			take = record.AvailableQuantity
		}

		if err := s.inventoryRepo.DecrementAvailable(ctx, record.SKU, record.LocationID, record.LotNumber, record.SerialNumber, take); err != nil {
			if errors.Is(err, domain.ErrInsufficientInventory) {
				// another writer drained the slice between read and update
				continue
			}
			s.logger.WithError(err).Error("Failed to decrement inventory", "sku", record.SKU, "locationId", record.LocationID)
			s.releaseAllocated(ctx, allocations)
			return nil, nil, fmt.Errorf("failed to decrement inventory: %w", err)
		}

		allocationID := "ALC-" + uuid.New().String()[:8]
		allocation, err := domain.NewOrderAllocation(allocationID, cmd.SalesOrderID, item.SalesOrderItemID, record, take, cmd.Strategy, cmd.ExpiresAt)
		if err != nil {
			if releaseErr := s.inventoryRepo.Release(ctx, record.SKU, record.LocationID, record.LotNumber, record.SerialNumber, take); releaseErr != nil {
				s.logger.WithError(releaseErr).Error("Failed to roll back inventory decrement", "sku", record.SKU, "locationId", record.LocationID)
			}
			s.releaseAllocated(ctx, allocations)
			return nil, nil, apperrors.ErrValidation(err.Error())
		}
		allocations = append(allocations, allocation)
		remaining -= take
	}

	if remaining == 0 {
		return allocations, nil, nil
	}

	backorderID := "BO-" + uuid.New().String()[:8]
	backorder, err := domain.NewBackorder(backorderID, cmd.SalesOrderID, item.SalesOrderItemID, item.SKU, remaining, cmd.Strategy)
	if err != nil {
		s.releaseAllocated(ctx, allocations)
		return nil, nil, apperrors.ErrValidation(err.Error())
	}
	return allocations, backorder, nil
}

// releaseAllocated returns the quantity behind unsaved allocations to the
// ledger slices it was taken from.
func (s *AllocationApplicationService) releaseAllocated(ctx context.Context, allocations []*domain.OrderAllocation) {
	for _, allocation := range allocations {
		if err := s.inventoryRepo.Release(ctx, allocation.SKU, allocation.LocationID, allocation.LotNumber, allocation.SerialNumber, allocation.AllocatedQuantity); err != nil {
			s.logger.WithError(err).Error("Failed to roll back inventory decrement", "sku", allocation.SKU, "locationId", allocation.LocationID)
		}
	}
}

// AllocateItem allocates directly against a named inventory slice. Unlike
// strategy allocation, an inventory shortfall here is a hard failure.
func (s *AllocationApplicationService) AllocateItem(ctx context.Context, cmd AllocateItemCommand) (*AllocationDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, apperrors.ErrValidation("quantity must be positive")
	}

	record, err := s.inventoryRepo.FindBySlice(ctx, cmd.SKU, cmd.LocationID, cmd.LotNumber, cmd.SerialNumber)
	if err != nil {
		s.logger.WithError(err).Error("Failed to look up inventory slice", "sku", cmd.SKU)
		return nil, fmt.Errorf("failed to look up inventory slice: %w", err)
	}
	if record == nil {
		return nil, apperrors.ErrNotFound("inventory slice")
	}

	if err := s.inventoryRepo.DecrementAvailable(ctx, cmd.SKU, cmd.LocationID, cmd.LotNumber, cmd.SerialNumber, cmd.Quantity); err != nil {
		if errors.Is(err, domain.ErrInsufficientInventory) {
			return nil, apperrors.ErrInsufficientInventory(cmd.SKU, cmd.Quantity, record.AvailableQuantity)
		}
		s.logger.WithError(err).Error("Failed to decrement inventory", "sku", cmd.SKU, "locationId", cmd.LocationID)
		return nil, fmt.Errorf("failed to decrement inventory: %w", err)
	}

	allocationID := "ALC-" + uuid.New().String()[:8]
	allocation, err := domain.NewOrderAllocation(allocationID, cmd.SalesOrderID, cmd.SalesOrderItemID, record, cmd.Quantity, domain.StrategyManual, cmd.ExpiresAt)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.allocationRepo.Save(ctx, allocation); err != nil {
		s.logger.WithError(err).Error("Failed to save allocation", "allocationId", allocationID)
		return nil, fmt.Errorf("failed to save allocation: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "allocation.item_allocated",
		EntityType: "allocation",
		EntityID:   allocationID,
		Action:     "allocated",
		RelatedIDs: map[string]string{
			"salesOrderId": cmd.SalesOrderID,
			"sku":          cmd.SKU,
			"locationId":   cmd.LocationID,
		},
	})

	return ToAllocationDTO(allocation), nil
}

// BulkAllocate allocates several orders, collecting per-order outcomes.
// One order's failure does not abort the rest of the batch.
func (s *AllocationApplicationService) BulkAllocate(ctx context.Context, cmd BulkAllocateCommand) (*BulkAllocationResultDTO, error) {
	if len(cmd.Orders) == 0 {
		return nil, apperrors.ErrValidation("bulk request has no orders")
	}

	results := make([]BulkAllocationItemDTO, 0, len(cmd.Orders))
	for _, order := range cmd.Orders {
		result, err := s.AllocateOrder(ctx, order)
		if err != nil {
			results = append(results, BulkAllocationItemDTO{SalesOrderID: order.SalesOrderID, Error: err.Error()})
			continue
		}
		results = append(results, BulkAllocationItemDTO{SalesOrderID: order.SalesOrderID, Result: result})
	}

	return &BulkAllocationResultDTO{Results: results}, nil
}

// RecordPick records picked quantity against an allocation
func (s *AllocationApplicationService) RecordPick(ctx context.Context, cmd RecordPickCommand) (*AllocationDTO, error) {
	allocation, err := s.allocationRepo.FindByID(ctx, cmd.AllocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get allocation", "allocationId", cmd.AllocationID)
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	if allocation == nil {
		return nil, apperrors.ErrNotFound("allocation")
	}

	if err := allocation.RecordPick(cmd.Quantity); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.allocationRepo.Save(ctx, allocation); err != nil {
		s.logger.WithError(err).Error("Failed to save allocation", "allocationId", cmd.AllocationID)
		return nil, fmt.Errorf("failed to save allocation: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.Info("Recorded pick", "allocationId", cmd.AllocationID, "quantity", cmd.Quantity)
	return ToAllocationDTO(allocation), nil
}

// CancelAllocation cancels an allocation and releases its unpicked quantity
// back to the ledger slice it came from.
func (s *AllocationApplicationService) CancelAllocation(ctx context.Context, cmd CancelAllocationCommand) (*AllocationDTO, error) {
	allocation, err := s.allocationRepo.FindByID(ctx, cmd.AllocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get allocation", "allocationId", cmd.AllocationID)
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	if allocation == nil {
		return nil, apperrors.ErrNotFound("allocation")
	}

	released, err := allocation.Cancel()
	if err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if released > 0 {
		if err := s.inventoryRepo.Release(ctx, allocation.SKU, allocation.LocationID, allocation.LotNumber, allocation.SerialNumber, released); err != nil {
			s.logger.WithError(err).Error("Failed to release inventory", "allocationId", cmd.AllocationID)
			return nil, fmt.Errorf("failed to release inventory: %w", err)
		}
	}

	if err := s.allocationRepo.Save(ctx, allocation); err != nil {
		s.logger.WithError(err).Error("Failed to save allocation", "allocationId", cmd.AllocationID)
		return nil, fmt.Errorf("failed to save allocation: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "allocation.cancelled",
		EntityType: "allocation",
		EntityID:   cmd.AllocationID,
		Action:     "cancelled",
		RelatedIDs: map[string]string{
			"salesOrderId":     allocation.SalesOrderID,
			"sku":              allocation.SKU,
			"releasedQuantity": fmt.Sprintf("%d", released),
		},
	})

	return ToAllocationDTO(allocation), nil
}

// ReallocateExpired sweeps allocations that passed their expiry while still
// unpicked, releases their quantity back to the ledger and re-attempts the
// parent order item with the original strategy. A retry that still cannot be
// met falls back to a backorder. Failures on individual allocations do not
// abort the sweep.
func (s *AllocationApplicationService) ReallocateExpired(ctx context.Context, cmd ReallocateExpiredCommand) (*ReallocationResultDTO, error) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = 100
	}

	expired, err := s.allocationRepo.FindExpired(ctx, time.Now(), limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to find expired allocations")
		return nil, fmt.Errorf("failed to find expired allocations: %w", err)
	}

	result := &ReallocationResultDTO{AllocationIDs: make([]string, 0, len(expired))}
	for _, allocation := range expired {
		remaining := allocation.AllocatedQuantity - allocation.PickedQuantity

		if _, err := s.CancelAllocation(ctx, CancelAllocationCommand{AllocationID: allocation.AllocationID}); err != nil {
			s.logger.WithError(err).Warn("Failed to release expired allocation", "allocationId", allocation.AllocationID)
			result.FailedCount++
			continue
		}
		result.ReleasedCount++
		result.AllocationIDs = append(result.AllocationIDs, allocation.AllocationID)

		if remaining <= 0 {
			continue
		}
		if err := s.retryAllocation(ctx, allocation, remaining, result); err != nil {
			s.logger.WithError(err).Warn("Failed to reallocate expired quantity", "allocationId", allocation.AllocationID)
			result.FailedCount++
		}
	}

	s.logger.Info("Reallocated expired allocations",
		"released", result.ReleasedCount,
		"reallocated", result.ReallocatedCount,
		"backordered", result.BackorderedCount,
		"failed", result.FailedCount)
	return result, nil
}

// retryAllocation re-runs strategy allocation for the order item behind a
// cancelled expired allocation.
func (s *AllocationApplicationService) retryAllocation(ctx context.Context, cancelled *domain.OrderAllocation, quantity int, result *ReallocationResultDTO) error {
	retryCmd := AllocateOrderCommand{
		SalesOrderID: cancelled.SalesOrderID,
		Strategy:     cancelled.Strategy,
	}
	item := AllocationItemRequest{
		SalesOrderItemID: cancelled.SalesOrderItemID,
		SKU:              cancelled.SKU,
		Quantity:         quantity,
	}

	allocations, backorder, err := s.allocateItemWithStrategy(ctx, retryCmd, item)
	if err != nil {
		return err
	}

	if len(allocations) > 0 {
		if err := s.allocationRepo.SaveAll(ctx, allocations); err != nil {
			s.releaseAllocated(ctx, allocations)
			return fmt.Errorf("failed to save allocations: %w", err)
		}
		result.ReallocatedCount++
	}
	if backorder != nil {
		if err := s.backorderRepo.Save(ctx, backorder); err != nil {
			return fmt.Errorf("failed to save backorder: %w", err)
		}
		result.BackorderedCount++
	}
	return nil
}

// GetAllocation retrieves an allocation by ID
func (s *AllocationApplicationService) GetAllocation(ctx context.Context, query GetAllocationQuery) (*AllocationDTO, error) {
	allocation, err := s.allocationRepo.FindByID(ctx, query.AllocationID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get allocation", "allocationId", query.AllocationID)
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	if allocation == nil {
		return nil, apperrors.ErrNotFound("allocation")
	}

	return ToAllocationDTO(allocation), nil
}

// GetOrderAllocations retrieves all allocations for a sales order
func (s *AllocationApplicationService) GetOrderAllocations(ctx context.Context, query GetOrderAllocationsQuery) ([]AllocationDTO, error) {
	allocations, err := s.allocationRepo.FindBySalesOrderID(ctx, query.SalesOrderID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get order allocations", "salesOrderId", query.SalesOrderID)
		return nil, fmt.Errorf("failed to get order allocations: %w", err)
	}

	return ToAllocationDTOs(allocations), nil
}

// GetInventory retrieves all ledger records for a SKU
func (s *AllocationApplicationService) GetInventory(ctx context.Context, query GetInventoryQuery) ([]InventoryRecordDTO, error) {
	records, err := s.inventoryRepo.FindBySKU(ctx, query.SKU)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get inventory", "sku", query.SKU)
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	return ToInventoryRecordDTOs(records), nil
}

// GetInventorySlice retrieves a single ledger slice by its identifying key
func (s *AllocationApplicationService) GetInventorySlice(ctx context.Context, query GetInventorySliceQuery) (*InventoryRecordDTO, error) {
	record, err := s.inventoryRepo.FindBySlice(ctx, query.SKU, query.LocationID, query.LotNumber, query.SerialNumber)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get inventory slice", "sku", query.SKU, "locationId", query.LocationID)
		return nil, fmt.Errorf("failed to get inventory slice: %w", err)
	}
	if record == nil {
		return nil, apperrors.ErrNotFound("inventory slice")
	}

	return ToInventoryRecordDTO(record), nil
}

// GetBackorders retrieves open backorders
func (s *AllocationApplicationService) GetBackorders(ctx context.Context, query GetBackordersQuery) ([]BackorderDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}

	backorders, err := s.backorderRepo.FindOpen(ctx, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get open backorders")
		return nil, fmt.Errorf("failed to get open backorders: %w", err)
	}

	return ToBackorderDTOs(backorders), nil
}
