package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"
	"github.com/wms-platform/outbound-service/pkg/middleware"

	"github.com/wms-platform/outbound-service/internal/application"
	"github.com/wms-platform/outbound-service/internal/domain"
)

// AllocationHandlers contains handlers for inventory and allocation operations
type AllocationHandlers struct {
	service *application.AllocationApplicationService
	logger  *logging.Logger
}

// NewAllocationHandlers creates a new AllocationHandlers
func NewAllocationHandlers(service *application.AllocationApplicationService, logger *logging.Logger) *AllocationHandlers {
	return &AllocationHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers inventory and allocation routes on the router
func (h *AllocationHandlers) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory")
	{
		inventory.POST("/receipts", h.ReceiveInventory)
		inventory.GET("/:sku", h.GetInventory)
		inventory.GET("/:sku/locations/:locationId", h.GetInventorySlice)
	}

	allocations := router.Group("/allocations")
	{
		allocations.POST("", h.AllocateOrder)
		allocations.POST("/item", h.AllocateItem)
		allocations.POST("/bulk", h.BulkAllocate)
		allocations.POST("/reallocate-expired", h.ReallocateExpired)
		allocations.GET("/:allocationId", h.GetAllocation)
		allocations.POST("/:allocationId/picks", h.RecordPick)
		allocations.POST("/:allocationId/cancel", h.CancelAllocation)
		allocations.GET("/order/:salesOrderId", h.GetOrderAllocations)
	}

	router.GET("/backorders", h.GetBackorders)
}

type allocationItemRequest struct {
	SalesOrderItemID string `json:"salesOrderItemId" binding:"required"`
	SKU              string `json:"sku" binding:"required"`
	Quantity         int    `json:"quantity" binding:"required"`
}

type allocateOrderRequest struct {
	SalesOrderID string                  `json:"salesOrderId" binding:"required"`
	Items        []allocationItemRequest `json:"items" binding:"required"`
	Strategy     string                  `json:"strategy" binding:"required"`
	ExpiresAt    *time.Time              `json:"expiresAt"`
}

func (r allocateOrderRequest) toCommand() application.AllocateOrderCommand {
	items := make([]application.AllocationItemRequest, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, application.AllocationItemRequest{
			SalesOrderItemID: item.SalesOrderItemID,
			SKU:              item.SKU,
			Quantity:         item.Quantity,
		})
	}
	return application.AllocateOrderCommand{
		SalesOrderID: r.SalesOrderID,
		Items:        items,
		Strategy:     domain.AllocationStrategy(r.Strategy),
		ExpiresAt:    r.ExpiresAt,
	}
}

// ReceiveInventory handles recording a receipt into the ledger
func (h *AllocationHandlers) ReceiveInventory(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		SKU          string     `json:"sku" binding:"required"`
		LocationID   string     `json:"locationId" binding:"required"`
		WarehouseID  string     `json:"warehouseId" binding:"required"`
		Quantity     int        `json:"quantity" binding:"required"`
		ReceivedDate time.Time  `json:"receivedDate"`
		LotNumber    string     `json:"lotNumber"`
		SerialNumber string     `json:"serialNumber"`
		ExpiryDate   *time.Time `json:"expiryDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"inventory.sku": req.SKU,
	})

	cmd := application.ReceiveInventoryCommand{
		SKU:          req.SKU,
		LocationID:   req.LocationID,
		WarehouseID:  req.WarehouseID,
		Quantity:     req.Quantity,
		ReceivedDate: req.ReceivedDate,
		LotNumber:    req.LotNumber,
		SerialNumber: req.SerialNumber,
		ExpiryDate:   req.ExpiryDate,
	}

	record, err := h.service.ReceiveInventory(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetInventory handles retrieving ledger records for a SKU
func (h *AllocationHandlers) GetInventory(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	sku := c.Param("sku")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"inventory.sku": sku,
	})

	records, err := h.service.GetInventory(c.Request.Context(), application.GetInventoryQuery{SKU: sku})
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetInventorySlice handles retrieving one ledger slice by SKU and location
func (h *AllocationHandlers) GetInventorySlice(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	sku := c.Param("sku")
	locationID := c.Param("locationId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"inventory.sku":         sku,
		"inventory.location_id": locationID,
	})

	record, err := h.service.GetInventorySlice(c.Request.Context(), application.GetInventorySliceQuery{
		SKU:          sku,
		LocationID:   locationID,
		LotNumber:    c.Query("lotNumber"),
		SerialNumber: c.Query("serialNumber"),
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// AllocateOrder handles allocating inventory for an order
func (h *AllocationHandlers) AllocateOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req allocateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.salesOrderId": req.SalesOrderID,
		"allocation.strategy":     req.Strategy,
	})

	result, err := h.service.AllocateOrder(c.Request.Context(), req.toCommand())
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// AllocateItem handles allocating directly against a named inventory slice
func (h *AllocationHandlers) AllocateItem(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		SalesOrderID     string     `json:"salesOrderId" binding:"required"`
		SalesOrderItemID string     `json:"salesOrderItemId" binding:"required"`
		SKU              string     `json:"sku" binding:"required"`
		LocationID       string     `json:"locationId" binding:"required"`
		LotNumber        string     `json:"lotNumber"`
		SerialNumber     string     `json:"serialNumber"`
		Quantity         int        `json:"quantity" binding:"required"`
		ExpiresAt        *time.Time `json:"expiresAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.salesOrderId": req.SalesOrderID,
		"allocation.sku":          req.SKU,
	})

	cmd := application.AllocateItemCommand{
		SalesOrderID:     req.SalesOrderID,
		SalesOrderItemID: req.SalesOrderItemID,
		SKU:              req.SKU,
		LocationID:       req.LocationID,
		LotNumber:        req.LotNumber,
		SerialNumber:     req.SerialNumber,
		Quantity:         req.Quantity,
		ExpiresAt:        req.ExpiresAt,
	}

	allocation, err := h.service.AllocateItem(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, allocation)
}

// BulkAllocate handles allocating several orders in one request
func (h *AllocationHandlers) BulkAllocate(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Orders []allocateOrderRequest `json:"orders" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.orderCount": len(req.Orders),
	})

	orders := make([]application.AllocateOrderCommand, 0, len(req.Orders))
	for _, order := range req.Orders {
		orders = append(orders, order.toCommand())
	}

	result, err := h.service.BulkAllocate(c.Request.Context(), application.BulkAllocateCommand{Orders: orders})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordPick handles recording picked quantity against an allocation
func (h *AllocationHandlers) RecordPick(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	allocationID := c.Param("allocationId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.id": allocationID,
	})

	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.RecordPickCommand{
		AllocationID: allocationID,
		Quantity:     req.Quantity,
	}

	allocation, err := h.service.RecordPick(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, allocation)
}

// CancelAllocation handles cancelling an allocation
func (h *AllocationHandlers) CancelAllocation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	allocationID := c.Param("allocationId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.id": allocationID,
	})

	cmd := application.CancelAllocationCommand{AllocationID: allocationID}

	allocation, err := h.service.CancelAllocation(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, allocation)
}

// ReallocateExpired handles releasing expired allocations back to the ledger
func (h *AllocationHandlers) ReallocateExpired(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	result, err := h.service.ReallocateExpired(c.Request.Context(), application.ReallocateExpiredCommand{Limit: limit})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAllocation handles getting an allocation by ID
func (h *AllocationHandlers) GetAllocation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	allocationID := c.Param("allocationId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.id": allocationID,
	})

	allocation, err := h.service.GetAllocation(c.Request.Context(), application.GetAllocationQuery{AllocationID: allocationID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, allocation)
}

// GetOrderAllocations handles getting all allocations for a sales order
func (h *AllocationHandlers) GetOrderAllocations(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	salesOrderID := c.Param("salesOrderId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"allocation.salesOrderId": salesOrderID,
	})

	allocations, err := h.service.GetOrderAllocations(c.Request.Context(), application.GetOrderAllocationsQuery{SalesOrderID: salesOrderID})
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, allocations)
}

// GetBackorders handles listing open backorders
func (h *AllocationHandlers) GetBackorders(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	backorders, err := h.service.GetBackorders(c.Request.Context(), application.GetBackordersQuery{Limit: limit})
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, backorders)
}
