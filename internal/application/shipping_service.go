package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// ShippingApplicationService handles shipment and carrier use cases
type ShippingApplicationService struct {
	shipmentRepo domain.ShipmentRepository
	manifestRepo domain.ManifestRepository
	carriers     map[string]domain.CarrierService
	producer     *kafka.InstrumentedProducer
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewShippingApplicationService creates a new ShippingApplicationService
func NewShippingApplicationService(
	shipmentRepo domain.ShipmentRepository,
	manifestRepo domain.ManifestRepository,
	carriers []domain.CarrierService,
	producer *kafka.InstrumentedProducer,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *ShippingApplicationService {
	byCode := make(map[string]domain.CarrierService, len(carriers))
	for _, carrier := range carriers {
		byCode[carrier.GetCarrierCode()] = carrier
	}

	return &ShippingApplicationService{
		shipmentRepo: shipmentRepo,
		manifestRepo: manifestRepo,
		carriers:     byCode,
		producer:     producer,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// CreateShipment creates a ready-to-ship shipment
func (s *ShippingApplicationService) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (*ShipmentDTO, error) {
	if cmd.OrderID == "" || cmd.WarehouseID == "" {
		return nil, apperrors.ErrValidation("order and warehouse are required")
	}
	if cmd.WeightKg <= 0 {
		return nil, apperrors.ErrValidation("shipment weight must be positive")
	}

	shipmentID := "SHP-" + uuid.New().String()[:8]
	shipment := domain.NewShipment(shipmentID, cmd.OrderID, cmd.PackOrderID, cmd.WarehouseID, cmd.WeightKg, cmd.Dimensions, cmd.Shipper, cmd.Recipient, cmd.ExpectedDelivery)

	if err := s.shipmentRepo.Save(ctx, shipment); err != nil {
		s.logger.WithError(err).Error("Failed to create shipment", "shipmentId", shipmentID)
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "shipping.shipment_created",
		EntityType: "shipment",
		EntityID:   shipmentID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"orderId":     cmd.OrderID,
			"packOrderId": cmd.PackOrderID,
		},
	})

	return ToShipmentDTO(shipment), nil
}

// ShopRates queries every registered carrier for the lane and returns the
// pooled quotes with cheapest and fastest picked out. A single carrier
// failing degrades the pool instead of failing the request.
func (s *ShippingApplicationService) ShopRates(ctx context.Context, cmd ShopRatesCommand) (*domain.RateSelection, error) {
	if len(s.carriers) == 0 {
		return nil, apperrors.ErrServiceUnavailable("carrier integration")
	}

	request := domain.RateRequest{
		Shipper:     cmd.Shipper,
		Recipient:   cmd.Recipient,
		WeightKg:    cmd.WeightKg,
		Dimensions:  cmd.Dimensions,
		ServiceType: cmd.ServiceType,
	}

	quotes := make([]domain.RateQuote, 0)
	failedCarriers := make([]string, 0)
	for code, carrier := range s.carriers {
		carrierQuotes, err := carrier.GetRates(ctx, request)
		if err != nil {
			s.logger.WithError(err).Warn("Carrier rate request failed", "carrierCode", code)
			failedCarriers = append(failedCarriers, code)
			continue
		}
		quotes = append(quotes, carrierQuotes...)
	}

	if len(quotes) == 0 {
		return nil, apperrors.ErrServiceUnavailable(
			fmt.Sprintf("rate shopping (carriers failed: %s)", strings.Join(failedCarriers, ", ")))
	}

	selection := domain.SelectRates(quotes)
	s.logger.Info("Shopped rates", "quotes", len(quotes), "failedCarriers", len(failedCarriers))
	return &selection, nil
}

// GenerateLabel generates a carrier label and applies it to the shipment
func (s *ShippingApplicationService) GenerateLabel(ctx context.Context, cmd GenerateLabelCommand) (*ShipmentDTO, error) {
	carrier, ok := s.carriers[cmd.CarrierCode]
	if !ok {
		return nil, apperrors.ErrValidation(fmt.Sprintf("unknown carrier %q", cmd.CarrierCode))
	}

	shipment, err := s.findShipment(ctx, cmd.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.IsLabeled() {
		return nil, apperrors.ErrConflict(domain.ErrShipmentAlreadyLabeled.Error())
	}

	labelFormat := cmd.LabelFormat
	if labelFormat == "" {
		labelFormat = "PDF"
	}

	label, err := carrier.GenerateLabel(ctx, domain.LabelRequest{
		ShipmentID:  cmd.ShipmentID,
		WeightKg:    shipment.WeightKg,
		Dimensions:  shipment.Dimensions,
		Shipper:     shipment.Shipper,
		Recipient:   shipment.Recipient,
		ServiceType: cmd.ServiceType,
		LabelFormat: labelFormat,
	})
	if err != nil {
		s.logger.WithError(err).Error("Carrier label generation failed", "shipmentId", cmd.ShipmentID, "carrierCode", cmd.CarrierCode)
		return nil, apperrors.ErrServiceUnavailable(fmt.Sprintf("%s label generation", cmd.CarrierCode))
	}

	if err := shipment.ApplyLabel(*label); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.shipmentRepo.Save(ctx, shipment); err != nil {
		s.logger.WithError(err).Error("Failed to save shipment", "shipmentId", cmd.ShipmentID)
		return nil, fmt.Errorf("failed to save shipment: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "shipping.label_generated",
		EntityType: "shipment",
		EntityID:   cmd.ShipmentID,
		Action:     "labeled",
		RelatedIDs: map[string]string{
			"carrierCode":    label.CarrierCode,
			"trackingNumber": label.TrackingNumber,
		},
	})

	return ToShipmentDTO(shipment), nil
}

// CreateManifest builds the end-of-day manifest for one carrier from its
// labeled shipments.
func (s *ShippingApplicationService) CreateManifest(ctx context.Context, cmd CreateManifestCommand) (*ManifestDTO, error) {
	carrier, ok := s.carriers[cmd.CarrierCode]
	if !ok {
		return nil, apperrors.ErrValidation(fmt.Sprintf("unknown carrier %q", cmd.CarrierCode))
	}

	shipments, err := s.shipmentRepo.FindLabeledByCarrier(ctx, cmd.CarrierCode)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load labeled shipments", "carrierCode", cmd.CarrierCode)
		return nil, fmt.Errorf("failed to load labeled shipments: %w", err)
	}
	if len(shipments) == 0 {
		return nil, apperrors.ErrBusinessRule(fmt.Sprintf("no labeled shipments for carrier %s", cmd.CarrierCode))
	}

	manifest, err := carrier.CreateManifest(ctx, shipments)
	if err != nil {
		s.logger.WithError(err).Error("Carrier manifest creation failed", "carrierCode", cmd.CarrierCode)
		return nil, apperrors.ErrServiceUnavailable(fmt.Sprintf("%s manifest creation", cmd.CarrierCode))
	}

	if err := s.manifestRepo.Save(ctx, manifest); err != nil {
		s.logger.WithError(err).Error("Failed to save manifest", "manifestId", manifest.ManifestID)
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "shipping.manifest_created",
		EntityType: "manifest",
		EntityID:   manifest.ManifestID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"carrierCode":   cmd.CarrierCode,
			"shipmentCount": fmt.Sprintf("%d", manifest.ShipmentCount),
		},
	})

	return ToManifestDTO(manifest), nil
}

// GetShipment retrieves a shipment by ID
func (s *ShippingApplicationService) GetShipment(ctx context.Context, query GetShipmentQuery) (*ShipmentDTO, error) {
	shipment, err := s.findShipment(ctx, query.ShipmentID)
	if err != nil {
		return nil, err
	}
	return ToShipmentDTO(shipment), nil
}

// GetShipmentsByStatus retrieves shipments in one status
func (s *ShippingApplicationService) GetShipmentsByStatus(ctx context.Context, query GetShipmentsByStatusQuery) ([]ShipmentDTO, error) {
	shipments, err := s.shipmentRepo.FindByStatus(ctx, query.Status)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get shipments", "status", query.Status)
		return nil, fmt.Errorf("failed to get shipments: %w", err)
	}
	return ToShipmentDTOs(shipments), nil
}

func (s *ShippingApplicationService) findShipment(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get shipment", "shipmentId", shipmentID)
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	if shipment == nil {
		return nil, apperrors.ErrNotFound("shipment")
	}
	return shipment, nil
}
