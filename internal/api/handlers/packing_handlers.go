package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/outbound-service/pkg/api"
	"github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"
	"github.com/wms-platform/outbound-service/pkg/middleware"

	"github.com/wms-platform/outbound-service/internal/application"
	"github.com/wms-platform/outbound-service/internal/domain"
)

// PackingHandlers contains handlers for carton catalog and pack order operations
type PackingHandlers struct {
	service *application.PackingApplicationService
	logger  *logging.Logger
}

// NewPackingHandlers creates a new PackingHandlers
func NewPackingHandlers(service *application.PackingApplicationService, logger *logging.Logger) *PackingHandlers {
	return &PackingHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers packing routes on the router
func (h *PackingHandlers) RegisterRoutes(router *gin.RouterGroup) {
	cartons := router.Group("/carton-types")
	{
		cartons.POST("", h.CreateCartonType)
		cartons.GET("", h.GetCartonTypes)
	}

	router.POST("/carton-recommendations", h.RecommendCarton)

	packOrders := router.Group("/pack-orders")
	{
		packOrders.POST("", h.CreatePackOrder)
		packOrders.GET("/:packOrderId", h.GetPackOrder)
		packOrders.POST("/:packOrderId/assign", h.AssignPackOrder)
		packOrders.POST("/:packOrderId/start", h.StartPackOrder)
		packOrders.POST("/:packOrderId/items", h.PackItem)
		packOrders.POST("/:packOrderId/complete", h.CompletePackOrder)
		packOrders.POST("/:packOrderId/cancel", h.CancelPackOrder)
		packOrders.GET("/order/:salesOrderId", h.GetPackOrderBySalesOrder)
	}
}

// CreateCartonType handles adding a carton size to the catalog
func (h *PackingHandlers) CreateCartonType(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Name         string  `json:"name" binding:"required"`
		LengthCm     float64 `json:"lengthCm" binding:"required"`
		WidthCm      float64 `json:"widthCm" binding:"required"`
		HeightCm     float64 `json:"heightCm" binding:"required"`
		MaxWeightKg  float64 `json:"maxWeightKg" binding:"required"`
		TareWeightKg float64 `json:"tareWeightKg"`
	}
	if appErr := api.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"carton.name": req.Name,
	})

	cmd := application.CreateCartonTypeCommand{
		Name:         req.Name,
		LengthCm:     req.LengthCm,
		WidthCm:      req.WidthCm,
		HeightCm:     req.HeightCm,
		MaxWeightKg:  req.MaxWeightKg,
		TareWeightKg: req.TareWeightKg,
	}

	carton, err := h.service.CreateCartonType(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, carton)
}

// GetCartonTypes handles retrieving the carton catalog
func (h *PackingHandlers) GetCartonTypes(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	cartons, err := h.service.GetCartonTypes(c.Request.Context(), application.GetCartonTypesQuery{})
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, cartons)
}

// RecommendCarton handles selecting cartons for an item set
func (h *PackingHandlers) RecommendCarton(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Items []domain.PackItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.itemCount": len(req.Items),
	})

	recommendation, err := h.service.RecommendCarton(c.Request.Context(), application.RecommendCartonCommand{Items: req.Items})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, recommendation)
}

// CreatePackOrder handles creating a pack order for a sales order
func (h *PackingHandlers) CreatePackOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		SalesOrderID string `json:"salesOrderId" binding:"required"`
		Lines        []struct {
			SalesOrderItemID string `json:"salesOrderItemId" binding:"required"`
			SKU              string `json:"sku" binding:"required"`
			RequiredQuantity int    `json:"requiredQuantity" binding:"required"`
		} `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.salesOrderId": req.SalesOrderID,
	})

	lines := make([]domain.PackLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, domain.PackLine{
			SalesOrderItemID: line.SalesOrderItemID,
			SKU:              line.SKU,
			RequiredQuantity: line.RequiredQuantity,
		})
	}

	order, err := h.service.CreatePackOrder(c.Request.Context(), application.CreatePackOrderCommand{
		SalesOrderID: req.SalesOrderID,
		Lines:        lines,
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// AssignPackOrder handles assigning a pack order to a packer
func (h *PackingHandlers) AssignPackOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	packOrderID := c.Param("packOrderId")

	var req struct {
		PackerID string `json:"packerId" binding:"required"`
		Station  string `json:"station" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.packOrderId": packOrderID,
		"packing.packerId":    req.PackerID,
	})

	cmd := application.AssignPackOrderCommand{
		PackOrderID: packOrderID,
		PackerID:    req.PackerID,
		Station:     req.Station,
	}

	order, err := h.service.AssignPackOrder(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// StartPackOrder handles starting packing
func (h *PackingHandlers) StartPackOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	packOrderID := c.Param("packOrderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.packOrderId": packOrderID,
	})

	order, err := h.service.StartPackOrder(c.Request.Context(), application.StartPackOrderCommand{PackOrderID: packOrderID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// PackItem handles placing quantity of one SKU into a carton
func (h *PackingHandlers) PackItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	packOrderID := c.Param("packOrderId")

	var req struct {
		CartonID     string `json:"cartonId" binding:"required"`
		CartonTypeID string `json:"cartonTypeId" binding:"required"`
		SKU          string `json:"sku" binding:"required"`
		Quantity     int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.packOrderId": packOrderID,
		"packing.sku":         req.SKU,
	})

	cmd := application.PackItemCommand{
		PackOrderID:  packOrderID,
		CartonID:     req.CartonID,
		CartonTypeID: req.CartonTypeID,
		SKU:          req.SKU,
		Quantity:     req.Quantity,
	}

	order, err := h.service.PackItem(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// CompletePackOrder handles completing a fully packed order
func (h *PackingHandlers) CompletePackOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	packOrderID := c.Param("packOrderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.packOrderId": packOrderID,
	})

	order, err := h.service.CompletePackOrder(c.Request.Context(), application.CompletePackOrderCommand{PackOrderID: packOrderID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// CancelPackOrder handles cancelling a pack order
func (h *PackingHandlers) CancelPackOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	packOrderID := c.Param("packOrderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.packOrderId": packOrderID,
	})

	order, err := h.service.CancelPackOrder(c.Request.Context(), application.CancelPackOrderCommand{PackOrderID: packOrderID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetPackOrder handles getting a pack order by ID
func (h *PackingHandlers) GetPackOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	packOrderID := c.Param("packOrderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.packOrderId": packOrderID,
	})

	order, err := h.service.GetPackOrder(c.Request.Context(), application.GetPackOrderQuery{PackOrderID: packOrderID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetPackOrderBySalesOrder handles getting the pack order for a sales order
func (h *PackingHandlers) GetPackOrderBySalesOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	salesOrderID := c.Param("salesOrderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"packing.salesOrderId": salesOrderID,
	})

	order, err := h.service.GetPackOrderBySalesOrder(c.Request.Context(), application.GetPackOrderBySalesOrderQuery{SalesOrderID: salesOrderID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
