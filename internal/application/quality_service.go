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

// QualityApplicationService handles quality control use cases
type QualityApplicationService struct {
	checkRepo     domain.QualityCheckRepository
	exceptionRepo domain.QualityExceptionRepository
	packOrderRepo domain.PackOrderRepository
	shipmentRepo  domain.ShipmentRepository
	producer      *kafka.InstrumentedProducer
	eventFactory  *cloudevents.EventFactory
	logger        *logging.Logger
}

// NewQualityApplicationService creates a new QualityApplicationService
func NewQualityApplicationService(
	checkRepo domain.QualityCheckRepository,
	exceptionRepo domain.QualityExceptionRepository,
	packOrderRepo domain.PackOrderRepository,
	shipmentRepo domain.ShipmentRepository,
	producer *kafka.InstrumentedProducer,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *QualityApplicationService {
	return &QualityApplicationService{
		checkRepo:     checkRepo,
		exceptionRepo: exceptionRepo,
		packOrderRepo: packOrderRepo,
		shipmentRepo:  shipmentRepo,
		producer:      producer,
		eventFactory:  eventFactory,
		logger:        logger,
	}
}

// setEntityQuality pins the quality label on the checked carton or shipment.
// Entities without a stored record are left alone.
func (s *QualityApplicationService) setEntityQuality(ctx context.Context, entityType domain.QCEntityType, entityID string, status domain.QualityStatus) error {
	switch entityType {
	case domain.QCEntityCarton:
		order, err := s.packOrderRepo.FindByID(ctx, entityID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to get pack order", "packOrderId", entityID)
			return fmt.Errorf("failed to get pack order: %w", err)
		}
		if order == nil {
			return nil
		}
		order.SetQualityStatus(status)
		if err := s.packOrderRepo.Save(ctx, order); err != nil {
			s.logger.WithError(err).Error("Failed to save pack order", "packOrderId", entityID)
			return fmt.Errorf("failed to save pack order: %w", err)
		}
	case domain.QCEntityShipment:
		shipment, err := s.shipmentRepo.FindByID(ctx, entityID)
		if err != nil {
			s.logger.WithError(err).Error("Failed to get shipment", "shipmentId", entityID)
			return fmt.Errorf("failed to get shipment: %w", err)
		}
		if shipment == nil {
			return nil
		}
		shipment.SetQualityStatus(status)
		if err := s.shipmentRepo.Save(ctx, shipment); err != nil {
			s.logger.WithError(err).Error("Failed to save shipment", "shipmentId", entityID)
			return fmt.Errorf("failed to save shipment: %w", err)
		}
	}
	return nil
}

// PerformCheck runs a checkpoint's criteria against measurements. Every
// failed criterion opens an exception graded with the criterion's severity.
func (s *QualityApplicationService) PerformCheck(ctx context.Context, cmd PerformQualityCheckCommand) (*QualityCheckDTO, error) {
	checkID := "QC-" + uuid.New().String()[:8]
	check, err := domain.NewQualityCheck(checkID, cmd.CheckpointID, cmd.EntityType, cmd.EntityID, cmd.Criteria, cmd.PerformedBy)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	failed, err := check.Perform(cmd.Measurements)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.checkRepo.Save(ctx, check); err != nil {
		s.logger.WithError(err).Error("Failed to save quality check", "checkId", checkID)
		return nil, fmt.Errorf("failed to save quality check: %w", err)
	}

	exceptionIDs := make([]string, 0, len(failed))
	for _, result := range failed {
		exception, err := s.openException(ctx, checkID, cmd.EntityType, cmd.EntityID, string(result.Kind), result.Severity, result.Description)
		if err != nil {
			return nil, err
		}
		exceptionIDs = append(exceptionIDs, exception.ExceptionID)
	}

	if err := s.setEntityQuality(ctx, cmd.EntityType, cmd.EntityID, domain.QualityStatusForResult(check.OverallResult)); err != nil {
		return nil, err
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "quality.check_performed",
		EntityType: string(cmd.EntityType),
		EntityID:   cmd.EntityID,
		Action:     "checked",
		RelatedIDs: map[string]string{
			"checkId":       checkID,
			"overallResult": string(check.OverallResult),
			"failedCount":   fmt.Sprintf("%d", len(failed)),
		},
	})

	return ToQualityCheckDTO(check, exceptionIDs), nil
}

// VerifyWeight grades one weight measurement against a tolerance. A warning
// opens a minor exception; a failure opens a major one and puts the entity
// on quality hold.
func (s *QualityApplicationService) VerifyWeight(ctx context.Context, cmd VerifyWeightCommand) (*VerificationDTO, error) {
	verdict, deviation, err := domain.VerifyTolerance(cmd.ExpectedKg, cmd.ActualKg, cmd.TolerancePct)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	dto := &VerificationDTO{Verdict: string(verdict), DeviationPct: deviation}
	if verdict == domain.VerdictPassed {
		return dto, nil
	}

	severity := domain.SeverityMinor
	if verdict == domain.VerdictFailed {
		severity = domain.SeverityMajor
	}

	exception, err := s.openException(ctx, "", cmd.EntityType, cmd.EntityID, "weight_mismatch", severity,
		fmt.Sprintf("weight deviates %.1f%% from expected %.2fkg", deviation, cmd.ExpectedKg))
	if err != nil {
		return nil, err
	}
	dto.ExceptionID = exception.ExceptionID

	if verdict == domain.VerdictFailed {
		if err := s.setEntityQuality(ctx, cmd.EntityType, cmd.EntityID, domain.QualityStatusOnHold); err != nil {
			return nil, err
		}
	}
	return dto, nil
}

// VerifyDimensions grades measured dimensions against a tolerance, taking
// the worst verdict across the three axes. Warnings and failures open
// exceptions the same way VerifyWeight does.
func (s *QualityApplicationService) VerifyDimensions(ctx context.Context, cmd VerifyDimensionsCommand) (*VerificationDTO, error) {
	criterion := domain.CheckCriterion{
		Kind:     domain.CriterionDimensionTolerance,
		Severity: domain.SeverityMinor,
		Dimensions: &domain.DimensionToleranceRule{
			ExpectedLengthCm: cmd.ExpectedLengthCm,
			ExpectedWidthCm:  cmd.ExpectedWidthCm,
			ExpectedHeightCm: cmd.ExpectedHeightCm,
			TolerancePct:     cmd.TolerancePct,
		},
	}
	if err := criterion.Validate(); err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	verdict, err := criterion.Evaluate(domain.Measurements{
		ActualLengthCm: cmd.ActualLengthCm,
		ActualWidthCm:  cmd.ActualWidthCm,
		ActualHeightCm: cmd.ActualHeightCm,
	})
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	dto := &VerificationDTO{Verdict: string(verdict)}
	if verdict == domain.VerdictPassed {
		return dto, nil
	}

	severity := domain.SeverityMinor
	if verdict == domain.VerdictFailed {
		severity = domain.SeverityMajor
	}

	exception, err := s.openException(ctx, "", cmd.EntityType, cmd.EntityID, "dimension_mismatch", severity,
		"measured dimensions outside tolerance")
	if err != nil {
		return nil, err
	}
	dto.ExceptionID = exception.ExceptionID

	if verdict == domain.VerdictFailed {
		if err := s.setEntityQuality(ctx, cmd.EntityType, cmd.EntityID, domain.QualityStatusOnHold); err != nil {
			return nil, err
		}
	}
	return dto, nil
}

// RaiseException opens a quality exception manually
func (s *QualityApplicationService) RaiseException(ctx context.Context, cmd RaiseQualityExceptionCommand) (*QualityExceptionDTO, error) {
	if cmd.EntityID == "" || cmd.ExceptionType == "" {
		return nil, apperrors.ErrValidation("entity and exception type are required")
	}

	exception, err := s.openException(ctx, cmd.CheckID, cmd.EntityType, cmd.EntityID, cmd.ExceptionType, cmd.Severity, cmd.Description)
	if err != nil {
		return nil, err
	}

	open, err := s.exceptionRepo.CountOpenByEntity(ctx, cmd.EntityType, cmd.EntityID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count open exceptions", "entityId", cmd.EntityID)
		return nil, fmt.Errorf("failed to count open exceptions: %w", err)
	}

	return ToQualityExceptionDTO(exception, open), nil
}

func (s *QualityApplicationService) openException(ctx context.Context, checkID string, entityType domain.QCEntityType, entityID, exceptionType string, severity domain.ExceptionSeverity, description string) (*domain.QualityException, error) {
	exceptionID := "QX-" + uuid.New().String()[:8]
	exception := domain.NewQualityException(exceptionID, checkID, entityType, entityID, exceptionType, severity, description)

	if err := s.exceptionRepo.Save(ctx, exception); err != nil {
		s.logger.WithError(err).Error("Failed to save quality exception", "exceptionId", exceptionID)
		return nil, fmt.Errorf("failed to save quality exception: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "quality.exception_raised",
		EntityType: string(entityType),
		EntityID:   entityID,
		Action:     "exception_raised",
		RelatedIDs: map[string]string{
			"exceptionId": exceptionID,
			"severity":    string(exception.Severity),
			"type":        exceptionType,
		},
	})

	return exception, nil
}

// StartInvestigation moves an open exception to in_progress
func (s *QualityApplicationService) StartInvestigation(ctx context.Context, cmd StartExceptionInvestigationCommand) (*QualityExceptionDTO, error) {
	exception, err := s.findException(ctx, cmd.ExceptionID)
	if err != nil {
		return nil, err
	}

	if err := exception.StartInvestigation(); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.exceptionRepo.Save(ctx, exception); err != nil {
		s.logger.WithError(err).Error("Failed to save quality exception", "exceptionId", cmd.ExceptionID)
		return nil, fmt.Errorf("failed to save quality exception: %w", err)
	}

	s.logger.Info("Started exception investigation", "exceptionId", cmd.ExceptionID)
	return ToQualityExceptionDTO(exception, 0), nil
}

// ResolveException resolves an exception. Resolving the last open exception
// for an entity releases its quality hold.
func (s *QualityApplicationService) ResolveException(ctx context.Context, cmd ResolveQualityExceptionCommand) (*QualityExceptionDTO, error) {
	exception, err := s.findException(ctx, cmd.ExceptionID)
	if err != nil {
		return nil, err
	}

	if err := exception.Resolve(cmd.ResolvedBy, cmd.Resolution); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.exceptionRepo.Save(ctx, exception); err != nil {
		s.logger.WithError(err).Error("Failed to save quality exception", "exceptionId", cmd.ExceptionID)
		return nil, fmt.Errorf("failed to save quality exception: %w", err)
	}

	open, err := s.exceptionRepo.CountOpenByEntity(ctx, exception.EntityType, exception.EntityID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count open exceptions", "entityId", exception.EntityID)
		return nil, fmt.Errorf("failed to count open exceptions: %w", err)
	}

	if open == 0 {
		if err := s.setEntityQuality(ctx, exception.EntityType, exception.EntityID, domain.QualityStatusPassed); err != nil {
			return nil, err
		}
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "quality.exception_resolved",
		EntityType: string(exception.EntityType),
		EntityID:   exception.EntityID,
		Action:     "exception_resolved",
		RelatedIDs: map[string]string{
			"exceptionId":   cmd.ExceptionID,
			"openRemaining": fmt.Sprintf("%d", open),
		},
	})

	return ToQualityExceptionDTO(exception, open), nil
}

// GetCheck retrieves a quality check by ID
func (s *QualityApplicationService) GetCheck(ctx context.Context, query GetQualityCheckQuery) (*QualityCheckDTO, error) {
	check, err := s.checkRepo.FindByID(ctx, query.CheckID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get quality check", "checkId", query.CheckID)
		return nil, fmt.Errorf("failed to get quality check: %w", err)
	}
	if check == nil {
		return nil, apperrors.ErrNotFound("quality check")
	}
	return ToQualityCheckDTO(check, nil), nil
}

// GetEntityChecks retrieves checks for one carton or shipment
func (s *QualityApplicationService) GetEntityChecks(ctx context.Context, query GetEntityChecksQuery) ([]QualityCheckDTO, error) {
	checks, err := s.checkRepo.FindByEntity(ctx, query.EntityType, query.EntityID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get quality checks", "entityId", query.EntityID)
		return nil, fmt.Errorf("failed to get quality checks: %w", err)
	}

	dtos := make([]QualityCheckDTO, 0, len(checks))
	for _, check := range checks {
		dtos = append(dtos, *ToQualityCheckDTO(check, nil))
	}
	return dtos, nil
}

// GetException retrieves an exception by ID
func (s *QualityApplicationService) GetException(ctx context.Context, query GetQualityExceptionQuery) (*QualityExceptionDTO, error) {
	exception, err := s.findException(ctx, query.ExceptionID)
	if err != nil {
		return nil, err
	}

	open, err := s.exceptionRepo.CountOpenByEntity(ctx, exception.EntityType, exception.EntityID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count open exceptions", "entityId", exception.EntityID)
		return nil, fmt.Errorf("failed to count open exceptions: %w", err)
	}

	return ToQualityExceptionDTO(exception, open), nil
}

// GetExceptions retrieves exceptions in one status
func (s *QualityApplicationService) GetExceptions(ctx context.Context, query GetOpenExceptionsQuery) ([]QualityExceptionDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	status := query.Status
	if status == "" {
		status = domain.ExceptionStatusOpen
	}

	exceptions, err := s.exceptionRepo.FindByStatus(ctx, status, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get quality exceptions", "status", status)
		return nil, fmt.Errorf("failed to get quality exceptions: %w", err)
	}

	return ToQualityExceptionDTOs(exceptions), nil
}

func (s *QualityApplicationService) findException(ctx context.Context, exceptionID string) (*domain.QualityException, error) {
	exception, err := s.exceptionRepo.FindByID(ctx, exceptionID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get quality exception", "exceptionId", exceptionID)
		return nil, fmt.Errorf("failed to get quality exception: %w", err)
	}
	if exception == nil {
		return nil, apperrors.ErrNotFound("quality exception")
	}
	return exception, nil
}
