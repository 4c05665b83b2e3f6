package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"
	"github.com/wms-platform/outbound-service/pkg/middleware"

	"github.com/wms-platform/outbound-service/internal/application"
	"github.com/wms-platform/outbound-service/internal/domain"
)

// LoadPlanHandlers contains handlers for load plan operations
type LoadPlanHandlers struct {
	service *application.LoadPlanApplicationService
	logger  *logging.Logger
}

// NewLoadPlanHandlers creates a new LoadPlanHandlers
func NewLoadPlanHandlers(service *application.LoadPlanApplicationService, logger *logging.Logger) *LoadPlanHandlers {
	return &LoadPlanHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers load plan routes on the router
func (h *LoadPlanHandlers) RegisterRoutes(router *gin.RouterGroup) {
	loadPlans := router.Group("/load-plans")
	{
		loadPlans.POST("", h.CreateLoadPlan)
		loadPlans.GET("", h.GetLoadPlansByStatus)
		loadPlans.GET("/:loadPlanId", h.GetLoadPlan)
		loadPlans.POST("/:loadPlanId/sequence", h.SequenceLoadPlan)
		loadPlans.POST("/:loadPlanId/confirm-loading", h.ConfirmLoading)
		loadPlans.POST("/:loadPlanId/dispatch", h.DispatchLoadPlan)
		loadPlans.POST("/:loadPlanId/deliver", h.DeliverLoadPlan)
		loadPlans.POST("/:loadPlanId/cancel", h.CancelLoadPlan)
	}
}

// CreateLoadPlan handles grouping shipments onto one outbound vehicle
func (h *LoadPlanHandlers) CreateLoadPlan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		CarrierName        string   `json:"carrierName" binding:"required"`
		WarehouseID        string   `json:"warehouseId" binding:"required"`
		ShipmentIDs        []string `json:"shipmentIds" binding:"required"`
		VehicleWeightCapKg float64  `json:"vehicleWeightCapKg"`
		VehicleVolumeCapM3 float64  `json:"vehicleVolumeCapM3"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.carrier":       req.CarrierName,
		"loadplan.shipmentCount": len(req.ShipmentIDs),
	})

	cmd := application.CreateLoadPlanCommand{
		CarrierName:        req.CarrierName,
		WarehouseID:        req.WarehouseID,
		ShipmentIDs:        req.ShipmentIDs,
		VehicleWeightCapKg: req.VehicleWeightCapKg,
		VehicleVolumeCapM3: req.VehicleVolumeCapM3,
	}

	plan, err := h.service.CreateLoadPlan(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// SequenceLoadPlan handles computing the loading sequence for a plan
func (h *LoadPlanHandlers) SequenceLoadPlan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	loadPlanID := c.Param("loadPlanId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.id": loadPlanID,
	})

	plan, err := h.service.SequenceLoadPlan(c.Request.Context(), application.SequenceLoadPlanCommand{LoadPlanID: loadPlanID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// ConfirmLoading handles recording physical loading of the vehicle
func (h *LoadPlanHandlers) ConfirmLoading(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	loadPlanID := c.Param("loadPlanId")

	var req struct {
		ConfirmedBy string `json:"confirmedBy" binding:"required"`
		VehicleRef  string `json:"vehicleRef" binding:"required"`
		SealNumber  string `json:"sealNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.id":         loadPlanID,
		"loadplan.vehicleRef": req.VehicleRef,
	})

	cmd := application.ConfirmLoadingCommand{
		LoadPlanID:  loadPlanID,
		ConfirmedBy: req.ConfirmedBy,
		VehicleRef:  req.VehicleRef,
		SealNumber:  req.SealNumber,
	}

	plan, err := h.service.ConfirmLoading(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// DispatchLoadPlan handles dispatching a loaded plan
func (h *LoadPlanHandlers) DispatchLoadPlan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	loadPlanID := c.Param("loadPlanId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.id": loadPlanID,
	})

	plan, err := h.service.DispatchLoadPlan(c.Request.Context(), application.DispatchLoadPlanCommand{LoadPlanID: loadPlanID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// DeliverLoadPlan handles marking a dispatched plan delivered
func (h *LoadPlanHandlers) DeliverLoadPlan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	loadPlanID := c.Param("loadPlanId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.id": loadPlanID,
	})

	plan, err := h.service.DeliverLoadPlan(c.Request.Context(), application.DeliverLoadPlanCommand{LoadPlanID: loadPlanID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// CancelLoadPlan handles cancelling a plan still in planning
func (h *LoadPlanHandlers) CancelLoadPlan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	loadPlanID := c.Param("loadPlanId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.id": loadPlanID,
	})

	plan, err := h.service.CancelLoadPlan(c.Request.Context(), application.CancelLoadPlanCommand{LoadPlanID: loadPlanID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// GetLoadPlan handles getting a load plan by ID
func (h *LoadPlanHandlers) GetLoadPlan(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	loadPlanID := c.Param("loadPlanId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"loadplan.id": loadPlanID,
	})

	plan, err := h.service.GetLoadPlan(c.Request.Context(), application.GetLoadPlanQuery{LoadPlanID: loadPlanID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plan)
}

// GetLoadPlansByStatus handles listing load plans in one status
func (h *LoadPlanHandlers) GetLoadPlansByStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	status := c.DefaultQuery("status", string(domain.LoadStatusPlanning))

	plans, err := h.service.GetLoadPlansByStatus(c.Request.Context(), application.GetLoadPlansByStatusQuery{Status: domain.LoadStatus(status)})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, plans)
}
