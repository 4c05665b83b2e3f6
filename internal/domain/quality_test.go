package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTolerance(t *testing.T) {
	tests := []struct {
		name         string
		expected     float64
		actual       float64
		tolerancePct float64
		want         Verdict
	}{
		{"within tolerance passes", 10.0, 10.3, 5, VerdictPassed},
		{"exactly at tolerance passes", 10.0, 10.5, 5, VerdictPassed},
		{"within twice tolerance warns", 10.0, 10.8, 5, VerdictWarning},
		{"exactly at twice tolerance warns", 10.0, 11.0, 5, VerdictWarning},
		{"beyond twice tolerance fails", 10.0, 11.5, 5, VerdictFailed},
		{"deviation below expected", 10.0, 8.5, 5, VerdictFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, _, err := VerifyTolerance(tt.expected, tt.actual, tt.tolerancePct)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}

	t.Run("rejects non-positive tolerance", func(t *testing.T) {
		_, _, err := VerifyTolerance(10, 10, 0)
		assert.ErrorIs(t, err, ErrInvalidTolerance)
	})

	t.Run("rejects zero expected value", func(t *testing.T) {
		_, _, err := VerifyTolerance(0, 10, 5)
		assert.ErrorIs(t, err, ErrMissingMeasurement)
	})
}

func TestCheckCriterion_Validate(t *testing.T) {
	tests := []struct {
		name      string
		criterion CheckCriterion
		wantErr   bool
	}{
		{
			name: "weight criterion with payload",
			criterion: CheckCriterion{
				Kind:   CriterionWeightTolerance,
				Weight: &WeightToleranceRule{ExpectedKg: 2, TolerancePct: 5},
			},
		},
		{
			name:      "weight criterion missing payload",
			criterion: CheckCriterion{Kind: CriterionWeightTolerance},
			wantErr:   true,
		},
		{
			name: "visual criterion with defect code",
			criterion: CheckCriterion{
				Kind:   CriterionVisualInspection,
				Visual: &VisualInspectionRule{DefectCode: "crushed_corner"},
			},
		},
		{
			name:      "unknown kind rejected",
			criterion: CheckCriterion{Kind: CriterionKind("psychic")},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criterion.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCriterion)
			} else {
				require.NoError(t, err)
			}
		})
	}

	t.Run("severity defaults to minor", func(t *testing.T) {
		criterion := CheckCriterion{
			Kind:     CriterionQuantityMatch,
			Quantity: &QuantityMatchRule{ExpectedQuantity: 3},
		}
		require.NoError(t, criterion.Validate())
		assert.Equal(t, SeverityMinor, criterion.Severity)
	})
}

func createTestCheck(t *testing.T) *QualityCheck {
	t.Helper()
	check, err := NewQualityCheck("QC-001", "CHKPT-PACK", QCEntityCarton, "CTN-1", []CheckCriterion{
		{
			Kind:     CriterionWeightTolerance,
			Severity: SeverityMajor,
			Weight:   &WeightToleranceRule{ExpectedKg: 10, TolerancePct: 5},
		},
		{
			Kind:   CriterionVisualInspection,
			Visual: &VisualInspectionRule{DefectCode: "crushed_corner"},
		},
		{
			Kind:     CriterionQuantityMatch,
			Quantity: &QuantityMatchRule{ExpectedQuantity: 3},
		},
	}, "inspector-1")
	require.NoError(t, err)
	return check
}

func TestQualityCheck_Perform(t *testing.T) {
	t.Run("all criteria pass", func(t *testing.T) {
		check := createTestCheck(t)

		failed, err := check.Perform(Measurements{ActualWeightKg: 10.2, CountedQuantity: 3})
		require.NoError(t, err)
		assert.Empty(t, failed)
		assert.Equal(t, CheckResultPassed, check.OverallResult)
		assert.Len(t, check.Results, 3)
	})

	t.Run("warning yields conditional result", func(t *testing.T) {
		check := createTestCheck(t)

		failed, err := check.Perform(Measurements{ActualWeightKg: 10.8, CountedQuantity: 3})
		require.NoError(t, err)
		assert.Empty(t, failed)
		assert.Equal(t, CheckResultConditional, check.OverallResult)
	})

	t.Run("failed criteria reported with their severity", func(t *testing.T) {
		check := createTestCheck(t)

		failed, err := check.Perform(Measurements{
			ActualWeightKg:  12,
			ObservedDefects: []string{"crushed_corner"},
			CountedQuantity: 3,
		})
		require.NoError(t, err)
		require.Len(t, failed, 2)
		assert.Equal(t, CheckResultFailed, check.OverallResult)
		assert.Equal(t, SeverityMajor, failed[0].Severity)
		assert.Equal(t, SeverityMinor, failed[1].Severity)
	})

	t.Run("cannot perform twice", func(t *testing.T) {
		check := createTestCheck(t)
		_, err := check.Perform(Measurements{ActualWeightKg: 10, CountedQuantity: 3})
		require.NoError(t, err)

		_, err = check.Perform(Measurements{ActualWeightKg: 10, CountedQuantity: 3})
		assert.ErrorIs(t, err, ErrCheckAlreadyPerformed)
	})
}

func TestQualityException_Lifecycle(t *testing.T) {
	t.Run("opens with default severity", func(t *testing.T) {
		exception := NewQualityException("EXC-001", "QC-001", QCEntityCarton, "CTN-1", "weight_deviation", "", "weight out of tolerance")
		assert.Equal(t, ExceptionStatusOpen, exception.Status)
		assert.Equal(t, SeverityMinor, exception.Severity)
		assert.True(t, exception.IsOpen())
	})

	t.Run("resolve closes the exception", func(t *testing.T) {
		exception := NewQualityException("EXC-001", "QC-001", QCEntityCarton, "CTN-1", "damage", SeverityMajor, "crushed corner")
		require.NoError(t, exception.StartInvestigation())
		assert.Equal(t, ExceptionStatusInProgress, exception.Status)

		require.NoError(t, exception.Resolve("supervisor-1", "repacked into new carton"))
		assert.Equal(t, ExceptionStatusResolved, exception.Status)
		assert.False(t, exception.IsOpen())
		assert.NotNil(t, exception.ResolvedAt)

		assert.ErrorIs(t, exception.Resolve("supervisor-1", "again"), ErrExceptionResolved)
	})

	t.Run("investigation requires open status", func(t *testing.T) {
		exception := NewQualityException("EXC-001", "", QCEntityShipment, "SHIP-1", "damage", SeverityMinor, "dent")
		require.NoError(t, exception.Resolve("supervisor-1", "accepted"))
		assert.ErrorIs(t, exception.StartInvestigation(), ErrExceptionNotOpen)
	})
}

func TestQualityStatusForResult(t *testing.T) {
	assert.Equal(t, QualityStatusPassed, QualityStatusForResult(CheckResultPassed))
	assert.Equal(t, QualityStatusConditional, QualityStatusForResult(CheckResultConditional))
	assert.Equal(t, QualityStatusOnHold, QualityStatusForResult(CheckResultFailed))
}
