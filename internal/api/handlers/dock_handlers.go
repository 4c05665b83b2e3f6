package handlers

import (
	"context"
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

// DockHandlers contains handlers for dock and dock schedule operations
type DockHandlers struct {
	service *application.DockApplicationService
	logger  *logging.Logger
}

// NewDockHandlers creates a new DockHandlers
func NewDockHandlers(service *application.DockApplicationService, logger *logging.Logger) *DockHandlers {
	return &DockHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers dock routes on the router
func (h *DockHandlers) RegisterRoutes(router *gin.RouterGroup) {
	docks := router.Group("/docks")
	{
		docks.POST("", h.CreateDock)
		docks.GET("", h.GetDocks)
		docks.GET("/availability", h.GetAvailability)
		docks.GET("/utilization", h.GetUtilization)
		docks.GET("/:dockId", h.GetDock)
		docks.PUT("/:dockId/status", h.SetDockStatus)
		docks.GET("/:dockId/slots", h.FindAvailableSlots)
	}

	schedules := router.Group("/dock-schedules")
	{
		schedules.POST("", h.CreateDockSchedule)
		schedules.GET("/:scheduleId", h.GetDockSchedule)
		schedules.PUT("/:scheduleId", h.UpdateDockSchedule)
		schedules.POST("/:scheduleId/confirm", h.ConfirmSchedule)
		schedules.POST("/:scheduleId/start", h.StartSchedule)
		schedules.POST("/:scheduleId/complete", h.CompleteSchedule)
		schedules.POST("/:scheduleId/cancel", h.CancelSchedule)
		schedules.POST("/:scheduleId/no-show", h.MarkNoShow)
	}
}

// CreateDock handles creating a new dock
func (h *DockHandlers) CreateDock(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		Code             string  `json:"code" binding:"required"`
		WarehouseID      string  `json:"warehouseId" binding:"required"`
		DockType         string  `json:"dockType" binding:"required"`
		HasLeveler       bool    `json:"hasLeveler"`
		MaxVehicleLength float64 `json:"maxVehicleLength"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"dock.code":        req.Code,
		"dock.warehouseId": req.WarehouseID,
	})

	cmd := application.CreateDockCommand{
		Code:             req.Code,
		WarehouseID:      req.WarehouseID,
		DockType:         domain.DockType(req.DockType),
		HasLeveler:       req.HasLeveler,
		MaxVehicleLength: req.MaxVehicleLength,
	}

	dock, err := h.service.CreateDock(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, dock)
}

// SetDockStatus handles updating a dock's operational status
func (h *DockHandlers) SetDockStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	dockID := c.Param("dockId")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"dock.id":     dockID,
		"dock.status": req.Status,
	})

	cmd := application.SetDockStatusCommand{
		DockID: dockID,
		Status: domain.DockStatus(req.Status),
	}

	dock, err := h.service.SetDockStatus(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, dock)
}

// CreateDockSchedule handles booking an appointment window at a dock
func (h *DockHandlers) CreateDockSchedule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		DockID      string    `json:"dockId" binding:"required"`
		LoadPlanID  string    `json:"loadPlanId"`
		CarrierName string    `json:"carrierName" binding:"required"`
		VehicleRef  string    `json:"vehicleRef"`
		Start       time.Time `json:"start" binding:"required"`
		End         time.Time `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"schedule.dockId":  req.DockID,
		"schedule.carrier": req.CarrierName,
	})

	cmd := application.CreateDockScheduleCommand{
		DockID:      req.DockID,
		LoadPlanID:  req.LoadPlanID,
		CarrierName: req.CarrierName,
		VehicleRef:  req.VehicleRef,
		Start:       req.Start,
		End:         req.End,
	}

	schedule, err := h.service.CreateDockSchedule(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// UpdateDockSchedule handles moving an appointment to a new dock or window
func (h *DockHandlers) UpdateDockSchedule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	scheduleID := c.Param("scheduleId")

	var req struct {
		DockID string    `json:"dockId" binding:"required"`
		Start  time.Time `json:"start" binding:"required"`
		End    time.Time `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"schedule.id":     scheduleID,
		"schedule.dockId": req.DockID,
	})

	cmd := application.UpdateDockScheduleCommand{
		ScheduleID: scheduleID,
		DockID:     req.DockID,
		Start:      req.Start,
		End:        req.End,
	}

	schedule, err := h.service.UpdateDockSchedule(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// ConfirmSchedule handles confirming a scheduled appointment
func (h *DockHandlers) ConfirmSchedule(c *gin.Context) {
	h.scheduleAction(c, h.service.ConfirmSchedule)
}

// StartSchedule handles marking a vehicle arrival
func (h *DockHandlers) StartSchedule(c *gin.Context) {
	h.scheduleAction(c, h.service.StartSchedule)
}

// CompleteSchedule handles completing an appointment
func (h *DockHandlers) CompleteSchedule(c *gin.Context) {
	h.scheduleAction(c, h.service.CompleteSchedule)
}

// CancelSchedule handles cancelling an appointment
func (h *DockHandlers) CancelSchedule(c *gin.Context) {
	h.scheduleAction(c, h.service.CancelSchedule)
}

// MarkNoShow handles marking an appointment as a no-show
func (h *DockHandlers) MarkNoShow(c *gin.Context) {
	h.scheduleAction(c, h.service.MarkNoShow)
}

func (h *DockHandlers) scheduleAction(c *gin.Context, action func(ctx context.Context, cmd application.ScheduleActionCommand) (*application.DockScheduleDTO, error)) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	scheduleID := c.Param("scheduleId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"schedule.id": scheduleID,
	})

	schedule, err := action(c.Request.Context(), application.ScheduleActionCommand{ScheduleID: scheduleID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// GetDock handles getting a dock by ID
func (h *DockHandlers) GetDock(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	dockID := c.Param("dockId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"dock.id": dockID,
	})

	dock, err := h.service.GetDock(c.Request.Context(), application.GetDockQuery{DockID: dockID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, dock)
}

// GetDocks handles listing docks for a warehouse
func (h *DockHandlers) GetDocks(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	warehouseID := c.Query("warehouseId")

	docks, err := h.service.GetDocks(c.Request.Context(), application.GetDocksQuery{WarehouseID: warehouseID})
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, docks)
}

// GetDockSchedule handles getting a schedule by ID
func (h *DockHandlers) GetDockSchedule(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	scheduleID := c.Param("scheduleId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"schedule.id": scheduleID,
	})

	schedule, err := h.service.GetDockSchedule(c.Request.Context(), application.GetDockScheduleQuery{ScheduleID: scheduleID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// FindAvailableSlots handles finding free windows on a dock for one day
func (h *DockHandlers) FindAvailableSlots(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	dockID := c.Param("dockId")
	date := c.Query("date")
	duration, _ := strconv.Atoi(c.DefaultQuery("durationMinutes", "60"))

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"dock.id":       dockID,
		"schedule.date": date,
	})

	query := application.FindAvailableSlotsQuery{
		DockID:          dockID,
		Date:            date,
		DurationMinutes: duration,
	}

	slots, err := h.service.FindAvailableSlots(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, slots)
}

// GetAvailability handles returning the availability grid for a warehouse on one day
func (h *DockHandlers) GetAvailability(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetDockAvailabilityQuery{
		WarehouseID: c.Query("warehouseId"),
		Date:        c.Query("date"),
	}

	availability, err := h.service.GetAvailability(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, availability)
}

// GetUtilization handles aggregating appointment outcomes per dock
func (h *DockHandlers) GetUtilization(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetDockUtilizationQuery{
		FromDate: c.Query("fromDate"),
		ToDate:   c.Query("toDate"),
	}

	utilization, err := h.service.GetUtilization(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, utilization)
}
