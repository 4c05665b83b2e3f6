package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// PackingApplicationService handles carton selection and pack order use cases
type PackingApplicationService struct {
	packOrderRepo  domain.PackOrderRepository
	cartonTypeRepo domain.CartonTypeRepository
	producer       *kafka.InstrumentedProducer
	eventFactory   *cloudevents.EventFactory
	logger         *logging.Logger
}

// NewPackingApplicationService creates a new PackingApplicationService
func NewPackingApplicationService(
	packOrderRepo domain.PackOrderRepository,
	cartonTypeRepo domain.CartonTypeRepository,
	producer *kafka.InstrumentedProducer,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *PackingApplicationService {
	return &PackingApplicationService{
		packOrderRepo:  packOrderRepo,
		cartonTypeRepo: cartonTypeRepo,
		producer:       producer,
		eventFactory:   eventFactory,
		logger:         logger,
	}
}

// CreateCartonType adds a carton size to the catalog
func (s *PackingApplicationService) CreateCartonType(ctx context.Context, cmd CreateCartonTypeCommand) (*CartonTypeDTO, error) {
	if cmd.Name == "" {
		return nil, apperrors.ErrValidation("carton name is required")
	}
	if cmd.LengthCm <= 0 || cmd.WidthCm <= 0 || cmd.HeightCm <= 0 || cmd.MaxWeightKg <= 0 {
		return nil, apperrors.ErrValidation("carton dimensions and max weight must be positive")
	}

	cartonTypeID := "CT-" + uuid.New().String()[:8]
	carton := domain.NewCartonType(cartonTypeID, cmd.Name, cmd.LengthCm, cmd.WidthCm, cmd.HeightCm, cmd.MaxWeightKg, cmd.TareWeightKg)

	if err := s.cartonTypeRepo.Save(ctx, carton); err != nil {
		s.logger.WithError(err).Error("Failed to save carton type", "cartonTypeId", cartonTypeID)
		return nil, fmt.Errorf("failed to save carton type: %w", err)
	}

	s.logger.Info("Created carton type", "cartonTypeId", cartonTypeID, "name", cmd.Name)
	return ToCartonTypeDTO(carton), nil
}

// GetCartonTypes retrieves the carton catalog
func (s *PackingApplicationService) GetCartonTypes(ctx context.Context, _ GetCartonTypesQuery) ([]CartonTypeDTO, error) {
	cartons, err := s.cartonTypeRepo.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get carton types")
		return nil, fmt.Errorf("failed to get carton types: %w", err)
	}
	return ToCartonTypeDTOs(cartons), nil
}

// RecommendCarton selects cartons for an item set: the tightest single
// carton when one fits, otherwise a multi-carton first-fit-decreasing plan.
func (s *PackingApplicationService) RecommendCarton(ctx context.Context, cmd RecommendCartonCommand) (*CartonRecommendationDTO, error) {
	if len(cmd.Items) == 0 {
		return nil, apperrors.ErrValidation("no items to pack")
	}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.ErrValidation(fmt.Sprintf("quantity for %s must be positive", item.SKU))
		}
	}

	catalog, err := s.cartonTypeRepo.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get carton types")
		return nil, fmt.Errorf("failed to get carton types: %w", err)
	}
	if len(catalog) == 0 {
		return nil, apperrors.ErrBusinessRule("carton catalog is empty")
	}

	if recommendation, ok := domain.RecommendCarton(cmd.Items, catalog); ok {
		return &CartonRecommendationDTO{SingleCarton: &recommendation}, nil
	}

	plan := domain.RecommendMultipleCartons(cmd.Items, catalog)
	s.logger.Info("Item set exceeds single carton, using multi-carton plan",
		"cartons", len(plan.Cartons), "unplacedLines", len(plan.Unplaced))
	return &CartonRecommendationDTO{MultiCarton: &plan}, nil
}

// CreatePackOrder creates a pack order for a sales order
func (s *PackingApplicationService) CreatePackOrder(ctx context.Context, cmd CreatePackOrderCommand) (*PackOrderDTO, error) {
	packOrderID := "PKO-" + uuid.New().String()[:8]
	order, err := domain.NewPackOrder(packOrderID, cmd.SalesOrderID, cmd.Lines)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.packOrderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to create pack order", "packOrderId", packOrderID)
		return nil, fmt.Errorf("failed to create pack order: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "packing.order_created",
		EntityType: "packOrder",
		EntityID:   packOrderID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"salesOrderId": cmd.SalesOrderID,
		},
	})

	return ToPackOrderDTO(order), nil
}

// AssignPackOrder assigns a pack order to a packer and station
func (s *PackingApplicationService) AssignPackOrder(ctx context.Context, cmd AssignPackOrderCommand) (*PackOrderDTO, error) {
	order, err := s.findPackOrder(ctx, cmd.PackOrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Assign(cmd.PackerID, cmd.Station); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.packOrderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save pack order", "packOrderId", cmd.PackOrderID)
		return nil, fmt.Errorf("failed to save pack order: %w", err)
	}

	s.logger.Info("Assigned pack order", "packOrderId", cmd.PackOrderID, "packerId", cmd.PackerID)
	return ToPackOrderDTO(order), nil
}

// StartPackOrder starts packing
func (s *PackingApplicationService) StartPackOrder(ctx context.Context, cmd StartPackOrderCommand) (*PackOrderDTO, error) {
	order, err := s.findPackOrder(ctx, cmd.PackOrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Start(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.packOrderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save pack order", "packOrderId", cmd.PackOrderID)
		return nil, fmt.Errorf("failed to save pack order: %w", err)
	}

	s.logger.Info("Started pack order", "packOrderId", cmd.PackOrderID)
	return ToPackOrderDTO(order), nil
}

// PackItem places quantity of one SKU into a carton on the order
func (s *PackingApplicationService) PackItem(ctx context.Context, cmd PackItemCommand) (*PackOrderDTO, error) {
	order, err := s.findPackOrder(ctx, cmd.PackOrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Pack(cmd.CartonID, cmd.CartonTypeID, cmd.SKU, cmd.Quantity); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.packOrderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save pack order", "packOrderId", cmd.PackOrderID)
		return nil, fmt.Errorf("failed to save pack order: %w", err)
	}

	s.logger.Info("Packed item", "packOrderId", cmd.PackOrderID, "sku", cmd.SKU, "quantity", cmd.Quantity)
	return ToPackOrderDTO(order), nil
}

// CompletePackOrder completes a fully packed order
func (s *PackingApplicationService) CompletePackOrder(ctx context.Context, cmd CompletePackOrderCommand) (*PackOrderDTO, error) {
	order, err := s.findPackOrder(ctx, cmd.PackOrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Complete(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.packOrderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save pack order", "packOrderId", cmd.PackOrderID)
		return nil, fmt.Errorf("failed to save pack order: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "packing.order_completed",
		EntityType: "packOrder",
		EntityID:   cmd.PackOrderID,
		Action:     "completed",
		RelatedIDs: map[string]string{
			"salesOrderId": order.SalesOrderID,
			"cartonCount":  fmt.Sprintf("%d", len(order.Cartons)),
		},
	})

	return ToPackOrderDTO(order), nil
}

// CancelPackOrder cancels a pack order
func (s *PackingApplicationService) CancelPackOrder(ctx context.Context, cmd CancelPackOrderCommand) (*PackOrderDTO, error) {
	order, err := s.findPackOrder(ctx, cmd.PackOrderID)
	if err != nil {
		return nil, err
	}

	if err := order.Cancel(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.packOrderRepo.Save(ctx, order); err != nil {
		s.logger.WithError(err).Error("Failed to save pack order", "packOrderId", cmd.PackOrderID)
		return nil, fmt.Errorf("failed to save pack order: %w", err)
	}

	s.logger.Info("Cancelled pack order", "packOrderId", cmd.PackOrderID)
	return ToPackOrderDTO(order), nil
}

// GetPackOrder retrieves a pack order by ID
func (s *PackingApplicationService) GetPackOrder(ctx context.Context, query GetPackOrderQuery) (*PackOrderDTO, error) {
	order, err := s.findPackOrder(ctx, query.PackOrderID)
	if err != nil {
		return nil, err
	}
	return ToPackOrderDTO(order), nil
}

// GetPackOrderBySalesOrder retrieves the pack order for a sales order
func (s *PackingApplicationService) GetPackOrderBySalesOrder(ctx context.Context, query GetPackOrderBySalesOrderQuery) (*PackOrderDTO, error) {
	order, err := s.packOrderRepo.FindBySalesOrderID(ctx, query.SalesOrderID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get pack order by sales order", "salesOrderId", query.SalesOrderID)
		return nil, fmt.Errorf("failed to get pack order by sales order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound("pack order")
	}
	return ToPackOrderDTO(order), nil
}

func (s *PackingApplicationService) findPackOrder(ctx context.Context, packOrderID string) (*domain.PackOrder, error) {
	order, err := s.packOrderRepo.FindByID(ctx, packOrderID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get pack order", "packOrderId", packOrderID)
		return nil, fmt.Errorf("failed to get pack order: %w", err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound("pack order")
	}
	return order, nil
}
