package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

type fakeQualityCheckRepo struct {
	checks  map[string]*domain.QualityCheck
	saveErr error
	findErr error
}

func (f *fakeQualityCheckRepo) Save(ctx context.Context, check *domain.QualityCheck) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.checks == nil {
		f.checks = make(map[string]*domain.QualityCheck)
	}
	f.checks[check.CheckID] = check
	return nil
}

func (f *fakeQualityCheckRepo) FindByID(ctx context.Context, checkID string) (*domain.QualityCheck, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.checks[checkID], nil
}

func (f *fakeQualityCheckRepo) FindByEntity(ctx context.Context, entityType domain.QCEntityType, entityID string) ([]*domain.QualityCheck, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.QualityCheck, 0)
	for _, check := range f.checks {
		if check.EntityType == entityType && check.EntityID == entityID {
			results = append(results, check)
		}
	}
	return results, nil
}

type fakeQualityExceptionRepo struct {
	exceptions map[string]*domain.QualityException
	saveErr    error
	findErr    error
}

func (f *fakeQualityExceptionRepo) Save(ctx context.Context, exception *domain.QualityException) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.exceptions == nil {
		f.exceptions = make(map[string]*domain.QualityException)
	}
	f.exceptions[exception.ExceptionID] = exception
	return nil
}

func (f *fakeQualityExceptionRepo) FindByID(ctx context.Context, exceptionID string) (*domain.QualityException, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.exceptions[exceptionID], nil
}

func (f *fakeQualityExceptionRepo) FindByEntity(ctx context.Context, entityType domain.QCEntityType, entityID string) ([]*domain.QualityException, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.QualityException, 0)
	for _, exception := range f.exceptions {
		if exception.EntityType == entityType && exception.EntityID == entityID {
			results = append(results, exception)
		}
	}
	return results, nil
}

func (f *fakeQualityExceptionRepo) CountOpenByEntity(ctx context.Context, entityType domain.QCEntityType, entityID string) (int, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	count := 0
	for _, exception := range f.exceptions {
		if exception.EntityType == entityType && exception.EntityID == entityID && exception.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (f *fakeQualityExceptionRepo) FindByStatus(ctx context.Context, status domain.ExceptionStatus, limit int) ([]*domain.QualityException, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.QualityException, 0)
	for _, exception := range f.exceptions {
		if exception.Status == status && len(results) < limit {
			results = append(results, exception)
		}
	}
	return results, nil
}

func newQualityTestService(checkRepo *fakeQualityCheckRepo, exceptionRepo *fakeQualityExceptionRepo) *QualityApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	return NewQualityApplicationService(checkRepo, exceptionRepo, &fakePackOrderRepo{}, &fakeShipmentRepo{}, nil, nil, logger)
}

func newQualityTestServiceWithEntities(checkRepo *fakeQualityCheckRepo, exceptionRepo *fakeQualityExceptionRepo, packOrderRepo *fakePackOrderRepo, shipmentRepo *fakeShipmentRepo) *QualityApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	return NewQualityApplicationService(checkRepo, exceptionRepo, packOrderRepo, shipmentRepo, nil, nil, logger)
}

func TestQualityApplicationService_PerformCheck(t *testing.T) {
	t.Run("all criteria pass", func(t *testing.T) {
		checkRepo := &fakeQualityCheckRepo{}
		exceptionRepo := &fakeQualityExceptionRepo{}
		svc := newQualityTestService(checkRepo, exceptionRepo)

		dto, err := svc.PerformCheck(context.Background(), PerformQualityCheckCommand{
			CheckpointID: "CHKP-PACK",
			EntityType:   domain.QCEntityCarton,
			EntityID:     "BOX-1",
			Criteria: []domain.CheckCriterion{
				{
					Kind:     domain.CriterionWeightTolerance,
					Severity: domain.SeverityMajor,
					Weight:   &domain.WeightToleranceRule{ExpectedKg: 10, TolerancePct: 5},
				},
				{
					Kind:     domain.CriterionQuantityMatch,
					Quantity: &domain.QuantityMatchRule{ExpectedQuantity: 4},
				},
			},
			Measurements: domain.Measurements{ActualWeightKg: 10.2, CountedQuantity: 4},
			PerformedBy:  "inspector-1",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.CheckResultPassed), dto.OverallResult)
		assert.Empty(t, dto.ExceptionIDs)
		assert.Len(t, dto.Results, 2)
		assert.Empty(t, exceptionRepo.exceptions)
	})

	t.Run("failed criteria open one exception each", func(t *testing.T) {
		checkRepo := &fakeQualityCheckRepo{}
		exceptionRepo := &fakeQualityExceptionRepo{}
		svc := newQualityTestService(checkRepo, exceptionRepo)

		dto, err := svc.PerformCheck(context.Background(), PerformQualityCheckCommand{
			CheckpointID: "CHKP-SHIP",
			EntityType:   domain.QCEntityShipment,
			EntityID:     "SHP-1",
			Criteria: []domain.CheckCriterion{
				{
					Kind:     domain.CriterionWeightTolerance,
					Severity: domain.SeverityMajor,
					Weight:   &domain.WeightToleranceRule{ExpectedKg: 10, TolerancePct: 5},
				},
				{
					Kind:     domain.CriterionVisualInspection,
					Severity: domain.SeverityCritical,
					Visual:   &domain.VisualInspectionRule{DefectCode: "crushed_corner"},
				},
			},
			Measurements: domain.Measurements{
				ActualWeightKg:  13, // 30% off, past twice the tolerance
				ObservedDefects: []string{"crushed_corner"},
			},
			PerformedBy: "inspector-1",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.CheckResultFailed), dto.OverallResult)
		require.Len(t, dto.ExceptionIDs, 2)

		severities := make(map[domain.ExceptionSeverity]int)
		for _, exception := range exceptionRepo.exceptions {
			assert.Equal(t, domain.ExceptionStatusOpen, exception.Status)
			assert.Equal(t, "SHP-1", exception.EntityID)
			severities[exception.Severity]++
		}
		assert.Equal(t, 1, severities[domain.SeverityMajor])
		assert.Equal(t, 1, severities[domain.SeverityCritical])
	})

	t.Run("warning grades the check conditional without exceptions", func(t *testing.T) {
		checkRepo := &fakeQualityCheckRepo{}
		exceptionRepo := &fakeQualityExceptionRepo{}
		svc := newQualityTestService(checkRepo, exceptionRepo)

		dto, err := svc.PerformCheck(context.Background(), PerformQualityCheckCommand{
			CheckpointID: "CHKP-PACK",
			EntityType:   domain.QCEntityCarton,
			EntityID:     "BOX-2",
			Criteria: []domain.CheckCriterion{
				{
					Kind:   domain.CriterionWeightTolerance,
					Weight: &domain.WeightToleranceRule{ExpectedKg: 10, TolerancePct: 5},
				},
			},
			// 8% off: past the tolerance, within twice of it
			Measurements: domain.Measurements{ActualWeightKg: 10.8},
			PerformedBy:  "inspector-2",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.CheckResultConditional), dto.OverallResult)
		assert.Empty(t, dto.ExceptionIDs)
		assert.Empty(t, exceptionRepo.exceptions)
	})

	t.Run("rejects malformed criteria", func(t *testing.T) {
		svc := newQualityTestService(&fakeQualityCheckRepo{}, &fakeQualityExceptionRepo{})

		_, err := svc.PerformCheck(context.Background(), PerformQualityCheckCommand{
			CheckpointID: "CHKP-PACK",
			EntityType:   domain.QCEntityCarton,
			EntityID:     "BOX-3",
			Criteria: []domain.CheckCriterion{
				{Kind: domain.CriterionWeightTolerance}, // payload missing
			},
			PerformedBy: "inspector-1",
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)

		_, err = svc.PerformCheck(context.Background(), PerformQualityCheckCommand{
			CheckpointID: "CHKP-PACK",
			EntityType:   domain.QCEntityCarton,
			EntityID:     "BOX-3",
			PerformedBy:  "inspector-1",
		})
		assert.Error(t, err)
	})
}

func TestQualityApplicationService_VerifyWeight(t *testing.T) {
	exceptionRepo := &fakeQualityExceptionRepo{}
	svc := newQualityTestService(&fakeQualityCheckRepo{}, exceptionRepo)

	t.Run("within tolerance passes", func(t *testing.T) {
		dto, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-1",
			ExpectedKg: 10, ActualKg: 10.3, TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictPassed), dto.Verdict)
		assert.InDelta(t, 3.0, dto.DeviationPct, 0.001)
		assert.Empty(t, dto.ExceptionID)
	})

	t.Run("within twice the tolerance warns and opens a minor exception", func(t *testing.T) {
		dto, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-1",
			ExpectedKg: 100, ActualKg: 108, TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictWarning), dto.Verdict)
		require.NotEmpty(t, dto.ExceptionID)

		exception := exceptionRepo.exceptions[dto.ExceptionID]
		require.NotNil(t, exception)
		assert.Equal(t, "weight_mismatch", exception.ExceptionType)
		assert.Equal(t, domain.SeverityMinor, exception.Severity)
	})

	t.Run("beyond twice the tolerance fails and opens an exception", func(t *testing.T) {
		dto, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-1",
			ExpectedKg: 10, ActualKg: 12, TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictFailed), dto.Verdict)
		require.NotEmpty(t, dto.ExceptionID)

		exception := exceptionRepo.exceptions[dto.ExceptionID]
		require.NotNil(t, exception)
		assert.Equal(t, "weight_mismatch", exception.ExceptionType)
		assert.Equal(t, domain.SeverityMajor, exception.Severity)
	})

	t.Run("invalid tolerance is rejected", func(t *testing.T) {
		_, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-1",
			ExpectedKg: 10, ActualKg: 10, TolerancePct: 0,
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	})
}

func TestQualityApplicationService_VerifyDimensions(t *testing.T) {
	exceptionRepo := &fakeQualityExceptionRepo{}
	svc := newQualityTestService(&fakeQualityCheckRepo{}, exceptionRepo)

	t.Run("worst axis decides the verdict", func(t *testing.T) {
		// length and width within tolerance, height 20% off
		dto, err := svc.VerifyDimensions(context.Background(), VerifyDimensionsCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-1",
			ExpectedLengthCm: 40, ExpectedWidthCm: 30, ExpectedHeightCm: 20,
			ActualLengthCm: 40.5, ActualWidthCm: 30, ActualHeightCm: 24,
			TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictFailed), dto.Verdict)
		require.NotEmpty(t, dto.ExceptionID)
		assert.Equal(t, "dimension_mismatch", exceptionRepo.exceptions[dto.ExceptionID].ExceptionType)
		assert.Equal(t, domain.SeverityMajor, exceptionRepo.exceptions[dto.ExceptionID].Severity)
	})

	t.Run("a warning axis opens a minor exception", func(t *testing.T) {
		// width 8% off: past the tolerance, within twice of it
		dto, err := svc.VerifyDimensions(context.Background(), VerifyDimensionsCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-3",
			ExpectedLengthCm: 40, ExpectedWidthCm: 30, ExpectedHeightCm: 20,
			ActualLengthCm: 40, ActualWidthCm: 32.4, ActualHeightCm: 20,
			TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictWarning), dto.Verdict)
		require.NotEmpty(t, dto.ExceptionID)
		assert.Equal(t, domain.SeverityMinor, exceptionRepo.exceptions[dto.ExceptionID].Severity)
	})

	t.Run("all axes within tolerance pass", func(t *testing.T) {
		dto, err := svc.VerifyDimensions(context.Background(), VerifyDimensionsCommand{
			EntityType: domain.QCEntityCarton, EntityID: "BOX-2",
			ExpectedLengthCm: 40, ExpectedWidthCm: 30, ExpectedHeightCm: 20,
			ActualLengthCm: 41, ActualWidthCm: 29.5, ActualHeightCm: 20.2,
			TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictPassed), dto.Verdict)
		assert.Empty(t, dto.ExceptionID)
	})
}

func TestQualityApplicationService_EntityQualityStatus(t *testing.T) {
	newPackOrder := func(t *testing.T, packOrderID string) *domain.PackOrder {
		t.Helper()
		order, err := domain.NewPackOrder(packOrderID, "SO-1", []domain.PackLine{
			{SalesOrderItemID: "ITEM-1", SKU: "SKU-1", RequiredQuantity: 1},
		})
		require.NoError(t, err)
		return order
	}

	t.Run("failed weight verification puts the carton on hold", func(t *testing.T) {
		order := newPackOrder(t, "PKO-1")
		packOrderRepo := &fakePackOrderRepo{orders: map[string]*domain.PackOrder{"PKO-1": order}}
		svc := newQualityTestServiceWithEntities(&fakeQualityCheckRepo{}, &fakeQualityExceptionRepo{}, packOrderRepo, &fakeShipmentRepo{})

		dto, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "PKO-1",
			ExpectedKg: 10, ActualKg: 13, TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.VerdictFailed), dto.Verdict)
		assert.Equal(t, domain.QualityStatusOnHold, order.QualityStatus)
	})

	t.Run("a warning does not hold the carton", func(t *testing.T) {
		order := newPackOrder(t, "PKO-1")
		packOrderRepo := &fakePackOrderRepo{orders: map[string]*domain.PackOrder{"PKO-1": order}}
		svc := newQualityTestServiceWithEntities(&fakeQualityCheckRepo{}, &fakeQualityExceptionRepo{}, packOrderRepo, &fakeShipmentRepo{})

		_, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "PKO-1",
			ExpectedKg: 10, ActualKg: 10.8, TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.QualityStatusUnchecked, order.QualityStatus)
	})

	t.Run("checkpoint result labels the shipment", func(t *testing.T) {
		shipment := newTestShipment("SHP-1", 10, nil)
		shipmentRepo := &fakeShipmentRepo{shipments: map[string]*domain.Shipment{"SHP-1": shipment}}
		svc := newQualityTestServiceWithEntities(&fakeQualityCheckRepo{}, &fakeQualityExceptionRepo{}, &fakePackOrderRepo{}, shipmentRepo)

		_, err := svc.PerformCheck(context.Background(), PerformQualityCheckCommand{
			CheckpointID: "CHKP-SHIP",
			EntityType:   domain.QCEntityShipment,
			EntityID:     "SHP-1",
			Criteria: []domain.CheckCriterion{
				{
					Kind:   domain.CriterionVisualInspection,
					Visual: &domain.VisualInspectionRule{DefectCode: "crushed_corner"},
				},
			},
			Measurements: domain.Measurements{ObservedDefects: []string{"crushed_corner"}},
			PerformedBy:  "inspector-1",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.QualityStatusOnHold, shipment.QualityStatus)
	})

	t.Run("resolving the last exception releases the hold", func(t *testing.T) {
		order := newPackOrder(t, "PKO-1")
		packOrderRepo := &fakePackOrderRepo{orders: map[string]*domain.PackOrder{"PKO-1": order}}
		exceptionRepo := &fakeQualityExceptionRepo{}
		svc := newQualityTestServiceWithEntities(&fakeQualityCheckRepo{}, exceptionRepo, packOrderRepo, &fakeShipmentRepo{})

		first, err := svc.VerifyWeight(context.Background(), VerifyWeightCommand{
			EntityType: domain.QCEntityCarton, EntityID: "PKO-1",
			ExpectedKg: 10, ActualKg: 13, TolerancePct: 5,
		})
		require.NoError(t, err)
		second, err := svc.VerifyDimensions(context.Background(), VerifyDimensionsCommand{
			EntityType: domain.QCEntityCarton, EntityID: "PKO-1",
			ExpectedLengthCm: 40, ExpectedWidthCm: 30, ExpectedHeightCm: 20,
			ActualLengthCm: 50, ActualWidthCm: 30, ActualHeightCm: 20,
			TolerancePct: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.QualityStatusOnHold, order.QualityStatus)

		_, err = svc.ResolveException(context.Background(), ResolveQualityExceptionCommand{
			ExceptionID: first.ExceptionID, ResolvedBy: "supervisor-1", Resolution: "reweighed",
		})
		require.NoError(t, err)
		// one exception still open, the hold stays
		assert.Equal(t, domain.QualityStatusOnHold, order.QualityStatus)

		_, err = svc.ResolveException(context.Background(), ResolveQualityExceptionCommand{
			ExceptionID: second.ExceptionID, ResolvedBy: "supervisor-1", Resolution: "remeasured",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.QualityStatusPassed, order.QualityStatus)
	})
}

func TestQualityApplicationService_ExceptionLifecycle(t *testing.T) {
	exceptionRepo := &fakeQualityExceptionRepo{}
	svc := newQualityTestService(&fakeQualityCheckRepo{}, exceptionRepo)

	raised, err := svc.RaiseException(context.Background(), RaiseQualityExceptionCommand{
		EntityType:    domain.QCEntityShipment,
		EntityID:      "SHP-1",
		ExceptionType: "label_damage",
		Severity:      domain.SeverityMinor,
		Description:   "shipping label torn",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ExceptionStatusOpen), raised.Status)
	assert.Equal(t, 1, raised.OpenRemaining)

	second, err := svc.RaiseException(context.Background(), RaiseQualityExceptionCommand{
		EntityType:    domain.QCEntityShipment,
		EntityID:      "SHP-1",
		ExceptionType: "seal_broken",
		Severity:      domain.SeverityMajor,
		Description:   "carton seal broken",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.OpenRemaining)

	investigating, err := svc.StartInvestigation(context.Background(), StartExceptionInvestigationCommand{
		ExceptionID: raised.ExceptionID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ExceptionStatusInProgress), investigating.Status)

	// only open exceptions can start investigation
	_, err = svc.StartInvestigation(context.Background(), StartExceptionInvestigationCommand{
		ExceptionID: raised.ExceptionID,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)

	resolved, err := svc.ResolveException(context.Background(), ResolveQualityExceptionCommand{
		ExceptionID: raised.ExceptionID,
		ResolvedBy:  "supervisor-1",
		Resolution:  "label reprinted",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ExceptionStatusResolved), resolved.Status)
	assert.Equal(t, "supervisor-1", resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, 1, resolved.OpenRemaining)

	// resolving the last one drains the entity's open count
	last, err := svc.ResolveException(context.Background(), ResolveQualityExceptionCommand{
		ExceptionID: second.ExceptionID,
		ResolvedBy:  "supervisor-1",
		Resolution:  "resealed and reweighed",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, last.OpenRemaining)

	// double resolve is rejected
	_, err = svc.ResolveException(context.Background(), ResolveQualityExceptionCommand{
		ExceptionID: second.ExceptionID,
		ResolvedBy:  "supervisor-1",
		Resolution:  "again",
	})
	assert.Error(t, err)

	_, err = svc.RaiseException(context.Background(), RaiseQualityExceptionCommand{EntityType: domain.QCEntityCarton})
	assert.Error(t, err)
}

func TestQualityApplicationService_GetExceptions(t *testing.T) {
	exceptionRepo := &fakeQualityExceptionRepo{}
	svc := newQualityTestService(&fakeQualityCheckRepo{}, exceptionRepo)

	_, err := svc.RaiseException(context.Background(), RaiseQualityExceptionCommand{
		EntityType: domain.QCEntityCarton, EntityID: "BOX-1", ExceptionType: "damage",
	})
	require.NoError(t, err)

	open, err := svc.GetExceptions(context.Background(), GetOpenExceptionsQuery{})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	resolvedList, err := svc.GetExceptions(context.Background(), GetOpenExceptionsQuery{Status: domain.ExceptionStatusResolved})
	require.NoError(t, err)
	assert.Empty(t, resolvedList)

	_, err = svc.GetException(context.Background(), GetQualityExceptionQuery{ExceptionID: "missing"})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}
