package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// LoadPlanApplicationService handles load planning use cases
type LoadPlanApplicationService struct {
	loadPlanRepo domain.LoadPlanRepository
	shipmentRepo domain.ShipmentRepository
	scheduleRepo domain.DockScheduleRepository
	dockRepo     domain.DockRepository
	producer     *kafka.InstrumentedProducer
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewLoadPlanApplicationService creates a new LoadPlanApplicationService
func NewLoadPlanApplicationService(
	loadPlanRepo domain.LoadPlanRepository,
	shipmentRepo domain.ShipmentRepository,
	scheduleRepo domain.DockScheduleRepository,
	dockRepo domain.DockRepository,
	producer *kafka.InstrumentedProducer,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *LoadPlanApplicationService {
	return &LoadPlanApplicationService{
		loadPlanRepo: loadPlanRepo,
		shipmentRepo: shipmentRepo,
		scheduleRepo: scheduleRepo,
		dockRepo:     dockRepo,
		producer:     producer,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// CreateLoadPlan groups ready shipments onto one outbound vehicle. Totals
// and utilization come from the shipments themselves.
func (s *LoadPlanApplicationService) CreateLoadPlan(ctx context.Context, cmd CreateLoadPlanCommand) (*LoadPlanDTO, error) {
	if len(cmd.ShipmentIDs) == 0 {
		return nil, apperrors.ErrValidation("load plan needs at least one shipment")
	}

	shipments, err := s.shipmentRepo.FindByIDs(ctx, cmd.ShipmentIDs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load shipments")
		return nil, fmt.Errorf("failed to load shipments: %w", err)
	}
	if len(shipments) != len(cmd.ShipmentIDs) {
		return nil, apperrors.ErrNotFound("shipment")
	}

	totalWeight := 0.0
	totalVolume := 0.0
	for _, shipment := range shipments {
		if shipment.Status != domain.ShipmentStatusReady {
			return nil, apperrors.ErrBusinessRule(fmt.Sprintf("shipment %s is not ready", shipment.ShipmentID))
		}
		totalWeight += shipment.WeightKg
		totalVolume += shipment.Dimensions.VolumeM3()
	}

	loadPlanID := "LOAD-" + uuid.New().String()[:8]
	plan, err := domain.NewLoadPlan(loadPlanID, "", cmd.CarrierName, cmd.WarehouseID, cmd.ShipmentIDs, totalWeight, totalVolume, cmd.VehicleWeightCapKg, cmd.VehicleVolumeCapM3)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	for _, shipment := range shipments {
		if err := shipment.AssignToLoad(loadPlanID); err != nil {
			return nil, apperrors.ErrBusinessRule(err.Error())
		}
	}

	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", loadPlanID)
		return nil, fmt.Errorf("failed to save load plan: %w", err)
	}
	if err := s.shipmentRepo.SaveAll(ctx, shipments); err != nil {
		s.logger.WithError(err).Error("Failed to save shipments", "loadPlanId", loadPlanID)
		return nil, fmt.Errorf("failed to save shipments: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "load.plan_created",
		EntityType: "loadPlan",
		EntityID:   loadPlanID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"carrierName":   cmd.CarrierName,
			"shipmentCount": fmt.Sprintf("%d", len(shipments)),
		},
	})

	return ToLoadPlanDTO(plan), nil
}

// SequenceLoadPlan orders the plan's shipments by expected delivery date,
// earliest delivery loaded last off the truck first.
func (s *LoadPlanApplicationService) SequenceLoadPlan(ctx context.Context, cmd SequenceLoadPlanCommand) (*LoadPlanDTO, error) {
	plan, err := s.findPlan(ctx, cmd.LoadPlanID)
	if err != nil {
		return nil, err
	}

	shipments, err := s.shipmentRepo.FindByIDs(ctx, plan.ShipmentIDs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load shipments", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to load shipments: %w", err)
	}

	deliveries := make(map[string]*time.Time, len(shipments))
	for _, shipment := range shipments {
		deliveries[shipment.ShipmentID] = shipment.ExpectedDelivery
	}

	if err := plan.Sequence(deliveries); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save load plan: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.Info("Sequenced load plan", "loadPlanId", cmd.LoadPlanID, "stops", len(plan.LoadingSequence))
	return ToLoadPlanDTO(plan), nil
}

// ConfirmLoading records physical loading. The plan moves to loaded, its
// shipments to picked_up, and an in-progress dock appointment completes.
func (s *LoadPlanApplicationService) ConfirmLoading(ctx context.Context, cmd ConfirmLoadingCommand) (*LoadPlanDTO, error) {
	plan, err := s.findPlan(ctx, cmd.LoadPlanID)
	if err != nil {
		return nil, err
	}

	if err := plan.ConfirmLoading(domain.LoadingConfirmation{
		ConfirmedBy: cmd.ConfirmedBy,
		VehicleRef:  cmd.VehicleRef,
		SealNumber:  cmd.SealNumber,
	}); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	shipments, err := s.markShipments(ctx, plan.ShipmentIDs, func(shipment *domain.Shipment) error {
		return shipment.MarkPickedUp()
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save load plan: %w", err)
	}
	if err := s.shipmentRepo.SaveAll(ctx, shipments); err != nil {
		s.logger.WithError(err).Error("Failed to save shipments", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save shipments: %w", err)
	}

	if plan.DockScheduleID != "" {
		if err := s.completeLinkedSchedule(ctx, plan.DockScheduleID); err != nil {
			return nil, err
		}
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "load.loading_confirmed",
		EntityType: "loadPlan",
		EntityID:   cmd.LoadPlanID,
		Action:     "loaded",
		RelatedIDs: map[string]string{
			"confirmedBy": cmd.ConfirmedBy,
			"sealNumber":  cmd.SealNumber,
		},
	})

	return ToLoadPlanDTO(plan), nil
}

// DispatchLoadPlan dispatches a loaded plan; its shipments go in transit
func (s *LoadPlanApplicationService) DispatchLoadPlan(ctx context.Context, cmd DispatchLoadPlanCommand) (*LoadPlanDTO, error) {
	plan, err := s.findPlan(ctx, cmd.LoadPlanID)
	if err != nil {
		return nil, err
	}

	if err := plan.Dispatch(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	shipments, err := s.markShipments(ctx, plan.ShipmentIDs, func(shipment *domain.Shipment) error {
		return shipment.MarkInTransit()
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save load plan: %w", err)
	}
	if err := s.shipmentRepo.SaveAll(ctx, shipments); err != nil {
		s.logger.WithError(err).Error("Failed to save shipments", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save shipments: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "load.plan_dispatched",
		EntityType: "loadPlan",
		EntityID:   cmd.LoadPlanID,
		Action:     "dispatched",
		RelatedIDs: map[string]string{
			"carrierName": plan.CarrierName,
		},
	})

	return ToLoadPlanDTO(plan), nil
}

// DeliverLoadPlan closes a dispatched plan and its shipments
func (s *LoadPlanApplicationService) DeliverLoadPlan(ctx context.Context, cmd DeliverLoadPlanCommand) (*LoadPlanDTO, error) {
	plan, err := s.findPlan(ctx, cmd.LoadPlanID)
	if err != nil {
		return nil, err
	}

	if err := plan.Deliver(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	shipments, err := s.markShipments(ctx, plan.ShipmentIDs, func(shipment *domain.Shipment) error {
		return shipment.MarkDelivered()
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save load plan: %w", err)
	}
	if err := s.shipmentRepo.SaveAll(ctx, shipments); err != nil {
		s.logger.WithError(err).Error("Failed to save shipments", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save shipments: %w", err)
	}

	s.logger.Info("Delivered load plan", "loadPlanId", cmd.LoadPlanID)
	return ToLoadPlanDTO(plan), nil
}

// CancelLoadPlan cancels a plan still in planning. Shipments revert to ready
// and the linked dock appointment is cancelled, freeing its window.
func (s *LoadPlanApplicationService) CancelLoadPlan(ctx context.Context, cmd CancelLoadPlanCommand) (*LoadPlanDTO, error) {
	plan, err := s.findPlan(ctx, cmd.LoadPlanID)
	if err != nil {
		return nil, err
	}

	if err := plan.Cancel(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	shipments, err := s.markShipments(ctx, plan.ShipmentIDs, func(shipment *domain.Shipment) error {
		return shipment.RevertToReady()
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save load plan: %w", err)
	}
	if err := s.shipmentRepo.SaveAll(ctx, shipments); err != nil {
		s.logger.WithError(err).Error("Failed to save shipments", "loadPlanId", cmd.LoadPlanID)
		return nil, fmt.Errorf("failed to save shipments: %w", err)
	}

	if plan.DockScheduleID != "" {
		if err := s.cancelLinkedSchedule(ctx, plan.DockScheduleID); err != nil {
			return nil, err
		}
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "load.plan_cancelled",
		EntityType: "loadPlan",
		EntityID:   cmd.LoadPlanID,
		Action:     "cancelled",
		RelatedIDs: map[string]string{
			"shipmentCount": fmt.Sprintf("%d", len(shipments)),
		},
	})

	return ToLoadPlanDTO(plan), nil
}

// GetLoadPlan retrieves a load plan by ID
func (s *LoadPlanApplicationService) GetLoadPlan(ctx context.Context, query GetLoadPlanQuery) (*LoadPlanDTO, error) {
	plan, err := s.findPlan(ctx, query.LoadPlanID)
	if err != nil {
		return nil, err
	}
	return ToLoadPlanDTO(plan), nil
}

// GetLoadPlansByStatus retrieves load plans in one status
func (s *LoadPlanApplicationService) GetLoadPlansByStatus(ctx context.Context, query GetLoadPlansByStatusQuery) ([]LoadPlanDTO, error) {
	plans, err := s.loadPlanRepo.FindByStatus(ctx, query.Status)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get load plans", "status", query.Status)
		return nil, fmt.Errorf("failed to get load plans: %w", err)
	}
	return ToLoadPlanDTOs(plans), nil
}

func (s *LoadPlanApplicationService) findPlan(ctx context.Context, loadPlanID string) (*domain.LoadPlan, error) {
	plan, err := s.loadPlanRepo.FindByID(ctx, loadPlanID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get load plan", "loadPlanId", loadPlanID)
		return nil, fmt.Errorf("failed to get load plan: %w", err)
	}
	if plan == nil {
		return nil, apperrors.ErrNotFound("load plan")
	}
	return plan, nil
}

// markShipments loads the plan's shipments and applies one lifecycle step to
// each of them.
func (s *LoadPlanApplicationService) markShipments(ctx context.Context, shipmentIDs []string, apply func(*domain.Shipment) error) ([]*domain.Shipment, error) {
	shipments, err := s.shipmentRepo.FindByIDs(ctx, shipmentIDs)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load shipments")
		return nil, fmt.Errorf("failed to load shipments: %w", err)
	}

	for _, shipment := range shipments {
		if err := apply(shipment); err != nil {
			return nil, apperrors.ErrBusinessRule(fmt.Sprintf("shipment %s: %s", shipment.ShipmentID, err.Error()))
		}
	}
	return shipments, nil
}

// completeLinkedSchedule completes the plan's dock appointment when the
// vehicle is still at the door, freeing the dock.
func (s *LoadPlanApplicationService) completeLinkedSchedule(ctx context.Context, scheduleID string) error {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", scheduleID)
		return fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil || schedule.Status != domain.ScheduleStatusInProgress {
		return nil
	}

	dock, err := s.dockRepo.FindByID(ctx, schedule.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", schedule.DockID)
		return fmt.Errorf("failed to get dock: %w", err)
	}

	if err := schedule.Complete(); err != nil {
		return apperrors.ErrBusinessRule(err.Error())
	}
	if dock != nil {
		dock.MarkAvailable()
		if err := s.scheduleRepo.SaveWithDock(ctx, schedule, dock); err != nil {
			s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", scheduleID)
			return fmt.Errorf("failed to save dock schedule: %w", err)
		}
		return nil
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", scheduleID)
		return fmt.Errorf("failed to save dock schedule: %w", err)
	}
	return nil
}

// cancelLinkedSchedule cancels the plan's dock appointment unless it already
// reached a final status.
func (s *LoadPlanApplicationService) cancelLinkedSchedule(ctx context.Context, scheduleID string) error {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", scheduleID)
		return fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil || schedule.IsFinal() {
		return nil
	}

	if err := schedule.Cancel(); err != nil {
		return apperrors.ErrBusinessRule(err.Error())
	}
	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", scheduleID)
		return fmt.Errorf("failed to save dock schedule: %w", err)
	}
	return nil
}
