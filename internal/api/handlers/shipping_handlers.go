package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"
	"github.com/wms-platform/outbound-service/pkg/middleware"

	"github.com/wms-platform/outbound-service/internal/application"
	"github.com/wms-platform/outbound-service/internal/domain"
)

// ShippingHandlers contains handlers for shipment, rate, and manifest operations
type ShippingHandlers struct {
	service *application.ShippingApplicationService
	logger  *logging.Logger
}

// NewShippingHandlers creates a new ShippingHandlers
func NewShippingHandlers(service *application.ShippingApplicationService, logger *logging.Logger) *ShippingHandlers {
	return &ShippingHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers shipping routes on the router
func (h *ShippingHandlers) RegisterRoutes(router *gin.RouterGroup) {
	shipments := router.Group("/shipments")
	{
		shipments.POST("", h.CreateShipment)
		shipments.GET("", h.GetShipmentsByStatus)
		shipments.GET("/:shipmentId", h.GetShipment)
		shipments.POST("/:shipmentId/label", h.GenerateLabel)
	}

	router.POST("/rates", h.ShopRates)
	router.POST("/manifests", h.CreateManifest)
}

// CreateShipment handles creating a ready-to-ship shipment
func (h *ShippingHandlers) CreateShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		OrderID          string            `json:"orderId" binding:"required"`
		PackOrderID      string            `json:"packOrderId"`
		WarehouseID      string            `json:"warehouseId" binding:"required"`
		WeightKg         float64           `json:"weightKg" binding:"required"`
		Dimensions       domain.Dimensions `json:"dimensions"`
		Shipper          domain.Address    `json:"shipper"`
		Recipient        domain.Address    `json:"recipient"`
		ExpectedDelivery *time.Time        `json:"expectedDelivery"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.orderId": req.OrderID,
	})

	cmd := application.CreateShipmentCommand{
		OrderID:          req.OrderID,
		PackOrderID:      req.PackOrderID,
		WarehouseID:      req.WarehouseID,
		WeightKg:         req.WeightKg,
		Dimensions:       req.Dimensions,
		Shipper:          req.Shipper,
		Recipient:        req.Recipient,
		ExpectedDelivery: req.ExpectedDelivery,
	}

	shipment, err := h.service.CreateShipment(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, shipment)
}

// ShopRates handles shopping rates across all registered carriers
func (h *ShippingHandlers) ShopRates(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Shipper     domain.Address    `json:"shipper"`
		Recipient   domain.Address    `json:"recipient"`
		WeightKg    float64           `json:"weightKg" binding:"required"`
		Dimensions  domain.Dimensions `json:"dimensions"`
		ServiceType string            `json:"serviceType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"rates.weightKg":    req.WeightKg,
		"rates.serviceType": req.ServiceType,
	})

	cmd := application.ShopRatesCommand{
		Shipper:     req.Shipper,
		Recipient:   req.Recipient,
		WeightKg:    req.WeightKg,
		Dimensions:  req.Dimensions,
		ServiceType: req.ServiceType,
	}

	selection, err := h.service.ShopRates(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, selection)
}

// GenerateLabel handles generating and applying a carrier label
func (h *ShippingHandlers) GenerateLabel(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	shipmentID := c.Param("shipmentId")

	var req struct {
		CarrierCode string `json:"carrierCode" binding:"required"`
		ServiceType string `json:"serviceType" binding:"required"`
		LabelFormat string `json:"labelFormat"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.id":      shipmentID,
		"shipment.carrier": req.CarrierCode,
	})

	cmd := application.GenerateLabelCommand{
		ShipmentID:  shipmentID,
		CarrierCode: req.CarrierCode,
		ServiceType: req.ServiceType,
		LabelFormat: req.LabelFormat,
	}

	shipment, err := h.service.GenerateLabel(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, shipment)
}

// CreateManifest handles building the end-of-day manifest for one carrier
func (h *ShippingHandlers) CreateManifest(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		CarrierCode string `json:"carrierCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"manifest.carrier": req.CarrierCode,
	})

	manifest, err := h.service.CreateManifest(c.Request.Context(), application.CreateManifestCommand{CarrierCode: req.CarrierCode})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, manifest)
}

// GetShipment handles getting a shipment by ID
func (h *ShippingHandlers) GetShipment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	shipmentID := c.Param("shipmentId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"shipment.id": shipmentID,
	})

	shipment, err := h.service.GetShipment(c.Request.Context(), application.GetShipmentQuery{ShipmentID: shipmentID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, shipment)
}

// GetShipmentsByStatus handles listing shipments in one status
func (h *ShippingHandlers) GetShipmentsByStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	status := c.DefaultQuery("status", string(domain.ShipmentStatusReady))

	shipments, err := h.service.GetShipmentsByStatus(c.Request.Context(), application.GetShipmentsByStatusQuery{Status: domain.ShipmentStatus(status)})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, shipments)
}
