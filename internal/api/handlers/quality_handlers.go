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

// QualityHandlers contains handlers for quality check and exception operations
type QualityHandlers struct {
	service *application.QualityApplicationService
	logger  *logging.Logger
}

// NewQualityHandlers creates a new QualityHandlers
func NewQualityHandlers(service *application.QualityApplicationService, logger *logging.Logger) *QualityHandlers {
	return &QualityHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers quality routes on the router
func (h *QualityHandlers) RegisterRoutes(router *gin.RouterGroup) {
	quality := router.Group("/quality")
	{
		quality.POST("/checks", h.PerformCheck)
		quality.GET("/checks/:checkId", h.GetCheck)
		quality.GET("/checks/entity/:entityType/:entityId", h.GetEntityChecks)
		quality.POST("/verifications/weight", h.VerifyWeight)
		quality.POST("/verifications/dimensions", h.VerifyDimensions)
		quality.POST("/exceptions", h.RaiseException)
		quality.GET("/exceptions", h.GetExceptions)
		quality.GET("/exceptions/:exceptionId", h.GetException)
		quality.POST("/exceptions/:exceptionId/start", h.StartInvestigation)
		quality.POST("/exceptions/:exceptionId/resolve", h.ResolveException)
	}
}

// PerformCheck handles running a checkpoint against a carton or shipment
func (h *QualityHandlers) PerformCheck(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		CheckpointID string                  `json:"checkpointId" binding:"required"`
		EntityType   string                  `json:"entityType" binding:"required"`
		EntityID     string                  `json:"entityId" binding:"required"`
		Criteria     []domain.CheckCriterion `json:"criteria" binding:"required"`
		Measurements domain.Measurements     `json:"measurements"`
		PerformedBy  string                  `json:"performedBy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.entityType": req.EntityType,
		"quality.entityId":   req.EntityID,
	})

	cmd := application.PerformQualityCheckCommand{
		CheckpointID: req.CheckpointID,
		EntityType:   domain.QCEntityType(req.EntityType),
		EntityID:     req.EntityID,
		Criteria:     req.Criteria,
		Measurements: req.Measurements,
		PerformedBy:  req.PerformedBy,
	}

	check, err := h.service.PerformCheck(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, check)
}

// VerifyWeight handles grading one weight measurement against a tolerance
func (h *QualityHandlers) VerifyWeight(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		EntityType   string  `json:"entityType" binding:"required"`
		EntityID     string  `json:"entityId" binding:"required"`
		ExpectedKg   float64 `json:"expectedKg" binding:"required"`
		ActualKg     float64 `json:"actualKg" binding:"required"`
		TolerancePct float64 `json:"tolerancePct" binding:"required"`
		PerformedBy  string  `json:"performedBy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.entityId": req.EntityID,
	})

	cmd := application.VerifyWeightCommand{
		EntityType:   domain.QCEntityType(req.EntityType),
		EntityID:     req.EntityID,
		ExpectedKg:   req.ExpectedKg,
		ActualKg:     req.ActualKg,
		TolerancePct: req.TolerancePct,
		PerformedBy:  req.PerformedBy,
	}

	result, err := h.service.VerifyWeight(c.Request.Context(), cmd)
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

// VerifyDimensions handles grading measured dimensions against a tolerance
func (h *QualityHandlers) VerifyDimensions(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		EntityType       string  `json:"entityType" binding:"required"`
		EntityID         string  `json:"entityId" binding:"required"`
		ExpectedLengthCm float64 `json:"expectedLengthCm" binding:"required"`
		ExpectedWidthCm  float64 `json:"expectedWidthCm" binding:"required"`
		ExpectedHeightCm float64 `json:"expectedHeightCm" binding:"required"`
		ActualLengthCm   float64 `json:"actualLengthCm" binding:"required"`
		ActualWidthCm    float64 `json:"actualWidthCm" binding:"required"`
		ActualHeightCm   float64 `json:"actualHeightCm" binding:"required"`
		TolerancePct     float64 `json:"tolerancePct" binding:"required"`
		PerformedBy      string  `json:"performedBy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.entityId": req.EntityID,
	})

	cmd := application.VerifyDimensionsCommand{
		EntityType:       domain.QCEntityType(req.EntityType),
		EntityID:         req.EntityID,
		ExpectedLengthCm: req.ExpectedLengthCm,
		ExpectedWidthCm:  req.ExpectedWidthCm,
		ExpectedHeightCm: req.ExpectedHeightCm,
		ActualLengthCm:   req.ActualLengthCm,
		ActualWidthCm:    req.ActualWidthCm,
		ActualHeightCm:   req.ActualHeightCm,
		TolerancePct:     req.TolerancePct,
		PerformedBy:      req.PerformedBy,
	}

	result, err := h.service.VerifyDimensions(c.Request.Context(), cmd)
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

// RaiseException handles opening an exception manually
func (h *QualityHandlers) RaiseException(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req struct {
		CheckID       string `json:"checkId"`
		EntityType    string `json:"entityType" binding:"required"`
		EntityID      string `json:"entityId" binding:"required"`
		ExceptionType string `json:"exceptionType" binding:"required"`
		Severity      string `json:"severity" binding:"required"`
		Description   string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.entityId":      req.EntityID,
		"quality.exceptionType": req.ExceptionType,
	})

	cmd := application.RaiseQualityExceptionCommand{
		CheckID:       req.CheckID,
		EntityType:    domain.QCEntityType(req.EntityType),
		EntityID:      req.EntityID,
		ExceptionType: req.ExceptionType,
		Severity:      domain.ExceptionSeverity(req.Severity),
		Description:   req.Description,
	}

	exception, err := h.service.RaiseException(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusCreated, exception)
}

// StartInvestigation handles moving an exception to in_progress
func (h *QualityHandlers) StartInvestigation(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	exceptionID := c.Param("exceptionId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.exceptionId": exceptionID,
	})

	exception, err := h.service.StartInvestigation(c.Request.Context(), application.StartExceptionInvestigationCommand{ExceptionID: exceptionID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, exception)
}

// ResolveException handles resolving an exception
func (h *QualityHandlers) ResolveException(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	exceptionID := c.Param("exceptionId")

	var req struct {
		ResolvedBy string `json:"resolvedBy" binding:"required"`
		Resolution string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.exceptionId": exceptionID,
	})

	cmd := application.ResolveQualityExceptionCommand{
		ExceptionID: exceptionID,
		ResolvedBy:  req.ResolvedBy,
		Resolution:  req.Resolution,
	}

	exception, err := h.service.ResolveException(c.Request.Context(), cmd)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, exception)
}

// GetCheck handles getting a check by ID
func (h *QualityHandlers) GetCheck(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	checkID := c.Param("checkId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.checkId": checkID,
	})

	check, err := h.service.GetCheck(c.Request.Context(), application.GetQualityCheckQuery{CheckID: checkID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, check)
}

// GetEntityChecks handles listing checks for one entity
func (h *QualityHandlers) GetEntityChecks(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	query := application.GetEntityChecksQuery{
		EntityType: domain.QCEntityType(c.Param("entityType")),
		EntityID:   c.Param("entityId"),
	}

	checks, err := h.service.GetEntityChecks(c.Request.Context(), query)
	if err != nil {
		responder.RespondInternalError(err)
		return
	}

	c.JSON(http.StatusOK, checks)
}

// GetException handles getting an exception by ID
func (h *QualityHandlers) GetException(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	exceptionID := c.Param("exceptionId")
	middleware.AddSpanAttributes(c, map[string]interface{}{
		"quality.exceptionId": exceptionID,
	})

	exception, err := h.service.GetException(c.Request.Context(), application.GetQualityExceptionQuery{ExceptionID: exceptionID})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, exception)
}

// GetExceptions handles listing exceptions in one status
func (h *QualityHandlers) GetExceptions(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	status := c.DefaultQuery("status", string(domain.ExceptionStatusOpen))
	page := api.ParsePagination(c)

	query := application.GetOpenExceptionsQuery{
		Status: domain.ExceptionStatus(status),
		Limit:  int(page.GetLimit()),
	}

	exceptions, err := h.service.GetExceptions(c.Request.Context(), query)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}

	c.JSON(http.StatusOK, exceptions)
}
