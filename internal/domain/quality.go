package domain

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrExceptionNotOpen       = errors.New("quality exception is not open")
	ErrExceptionResolved      = errors.New("quality exception is already resolved")
	ErrInvalidCriterion       = errors.New("invalid check criterion")
	ErrInvalidTolerance       = errors.New("tolerance must be positive")
	ErrCheckAlreadyPerformed  = errors.New("quality check has already been performed")
	ErrMissingMeasurement     = errors.New("measurement missing for criterion")
)

// ExceptionSeverity grades a quality exception
type ExceptionSeverity string

const (
	SeverityMinor    ExceptionSeverity = "minor"
	SeverityMajor    ExceptionSeverity = "major"
	SeverityCritical ExceptionSeverity = "critical"
)

// IsValid checks if the severity is valid
func (s ExceptionSeverity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	default:
		return false
	}
}

// CriterionKind discriminates the typed payload of a check criterion
type CriterionKind string

const (
	CriterionWeightTolerance    CriterionKind = "weight_tolerance"
	CriterionDimensionTolerance CriterionKind = "dimension_tolerance"
	CriterionVisualInspection   CriterionKind = "visual_inspection"
	CriterionQuantityMatch      CriterionKind = "quantity_match"
)

// WeightToleranceRule fails when actual weight deviates from expected by
// more than TolerancePct.
type WeightToleranceRule struct {
	ExpectedKg   float64 `bson:"expectedKg" json:"expectedKg"`
	TolerancePct float64 `bson:"tolerancePct" json:"tolerancePct"`
}

// DimensionToleranceRule fails when any measured dimension deviates from the
// expected one by more than TolerancePct.
type DimensionToleranceRule struct {
	ExpectedLengthCm float64 `bson:"expectedLengthCm" json:"expectedLengthCm"`
	ExpectedWidthCm  float64 `bson:"expectedWidthCm" json:"expectedWidthCm"`
	ExpectedHeightCm float64 `bson:"expectedHeightCm" json:"expectedHeightCm"`
	TolerancePct     float64 `bson:"tolerancePct" json:"tolerancePct"`
}

// VisualInspectionRule fails when the inspector reports the named defect.
type VisualInspectionRule struct {
	DefectCode string `bson:"defectCode" json:"defectCode"`
}

// QuantityMatchRule fails when counted quantity differs from expected.
type QuantityMatchRule struct {
	ExpectedQuantity int `bson:"expectedQuantity" json:"expectedQuantity"`
}

// CheckCriterion is one rule of a checkpoint. Kind selects which payload is
// set; Validate rejects criteria whose payload does not match the kind, so
// failure detection never depends on loose key lookups.
type CheckCriterion struct {
	Kind        CriterionKind           `bson:"kind" json:"kind"`
	Severity    ExceptionSeverity       `bson:"severity" json:"severity"`
	Description string                  `bson:"description,omitempty" json:"description,omitempty"`
	Weight      *WeightToleranceRule    `bson:"weight,omitempty" json:"weight,omitempty"`
	Dimensions  *DimensionToleranceRule `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Visual      *VisualInspectionRule   `bson:"visual,omitempty" json:"visual,omitempty"`
	Quantity    *QuantityMatchRule      `bson:"quantity,omitempty" json:"quantity,omitempty"`
}

// Validate checks the criterion payload matches its kind. Severity defaults
// to minor when unset.
func (c *CheckCriterion) Validate() error {
	if c.Severity == "" {
		c.Severity = SeverityMinor
	}
	if !c.Severity.IsValid() {
		return ErrInvalidCriterion
	}

	switch c.Kind {
	case CriterionWeightTolerance:
		if c.Weight == nil || c.Weight.TolerancePct <= 0 {
			return ErrInvalidCriterion
		}
	case CriterionDimensionTolerance:
		if c.Dimensions == nil || c.Dimensions.TolerancePct <= 0 {
			return ErrInvalidCriterion
		}
	case CriterionVisualInspection:
		if c.Visual == nil || c.Visual.DefectCode == "" {
			return ErrInvalidCriterion
		}
	case CriterionQuantityMatch:
		if c.Quantity == nil {
			return ErrInvalidCriterion
		}
	default:
		return ErrInvalidCriterion
	}
	return nil
}

// Measurements are the observed values evaluated against a checkpoint's
// criteria.
type Measurements struct {
	ActualWeightKg   float64  `json:"actualWeightKg,omitempty"`
	ActualLengthCm   float64  `json:"actualLengthCm,omitempty"`
	ActualWidthCm    float64  `json:"actualWidthCm,omitempty"`
	ActualHeightCm   float64  `json:"actualHeightCm,omitempty"`
	ObservedDefects  []string `json:"observedDefects,omitempty"`
	CountedQuantity  int      `json:"countedQuantity,omitempty"`
}

// Verdict is the graded outcome of a tolerance verification
type Verdict string

const (
	VerdictPassed  Verdict = "passed"
	VerdictWarning Verdict = "warning"
	VerdictFailed  Verdict = "failed"
)

// VerifyTolerance grades the percentage deviation of actual from expected:
// within tolerance passes, within twice the tolerance warns, beyond fails.
func VerifyTolerance(expected, actual, tolerancePct float64) (Verdict, float64, error) {
	if tolerancePct <= 0 {
		return "", 0, ErrInvalidTolerance
	}
	if expected == 0 {
		return "", 0, ErrMissingMeasurement
	}

	deviationPct := math.Abs(actual-expected) / expected * 100
	switch {
	case deviationPct <= tolerancePct:
		return VerdictPassed, deviationPct, nil
	case deviationPct <= 2*tolerancePct:
		return VerdictWarning, deviationPct, nil
	default:
		return VerdictFailed, deviationPct, nil
	}
}

// Evaluate runs one criterion against the measurements.
func (c *CheckCriterion) Evaluate(m Measurements) (Verdict, error) {
	switch c.Kind {
	case CriterionWeightTolerance:
		verdict, _, err := VerifyTolerance(c.Weight.ExpectedKg, m.ActualWeightKg, c.Weight.TolerancePct)
		return verdict, err
	case CriterionDimensionTolerance:
		worst := VerdictPassed
		pairs := [][2]float64{
			{c.Dimensions.ExpectedLengthCm, m.ActualLengthCm},
			{c.Dimensions.ExpectedWidthCm, m.ActualWidthCm},
			{c.Dimensions.ExpectedHeightCm, m.ActualHeightCm},
		}
		for _, pair := range pairs {
			verdict, _, err := VerifyTolerance(pair[0], pair[1], c.Dimensions.TolerancePct)
			if err != nil {
				return "", err
			}
			if verdictRank(verdict) > verdictRank(worst) {
				worst = verdict
			}
		}
		return worst, nil
	case CriterionVisualInspection:
		for _, defect := range m.ObservedDefects {
			if defect == c.Visual.DefectCode {
				return VerdictFailed, nil
			}
		}
		return VerdictPassed, nil
	case CriterionQuantityMatch:
		if m.CountedQuantity != c.Quantity.ExpectedQuantity {
			return VerdictFailed, nil
		}
		return VerdictPassed, nil
	default:
		return "", ErrInvalidCriterion
	}
}

func verdictRank(v Verdict) int {
	switch v {
	case VerdictWarning:
		return 1
	case VerdictFailed:
		return 2
	default:
		return 0
	}
}

// CheckResult is the check-wide outcome derived from criterion verdicts
type CheckResult string

const (
	CheckResultPassed      CheckResult = "passed"
	CheckResultConditional CheckResult = "conditional"
	CheckResultFailed      CheckResult = "failed"
)

// QualityStatus is the quality-control label pinned to a carton or shipment.
// Checks set it from their overall result; resolving the last open exception
// reverts it to passed.
type QualityStatus string

const (
	QualityStatusUnchecked   QualityStatus = ""
	QualityStatusPassed      QualityStatus = "quality_passed"
	QualityStatusConditional QualityStatus = "conditional"
	QualityStatusOnHold      QualityStatus = "on_hold"
)

// QualityStatusForResult maps a check-wide result to the entity label
func QualityStatusForResult(result CheckResult) QualityStatus {
	switch result {
	case CheckResultFailed:
		return QualityStatusOnHold
	case CheckResultConditional:
		return QualityStatusConditional
	default:
		return QualityStatusPassed
	}
}

// QCEntityType names the kind of entity a check or exception refers to
type QCEntityType string

const (
	QCEntityCarton   QCEntityType = "carton"
	QCEntityShipment QCEntityType = "shipment"
)

// CriterionResult is one criterion's verdict on a performed check
type CriterionResult struct {
	Kind        CriterionKind     `bson:"kind"`
	Severity    ExceptionSeverity `bson:"severity"`
	Description string            `bson:"description,omitempty"`
	Verdict     Verdict           `bson:"verdict"`
}

// QualityCheck records one checkpoint run against a carton or shipment
type QualityCheck struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	CheckID       string             `bson:"checkId"`
	CheckpointID  string             `bson:"checkpointId"`
	EntityType    QCEntityType       `bson:"entityType"`
	EntityID      string             `bson:"entityId"`
	Criteria      []CheckCriterion   `bson:"criteria"`
	Results       []CriterionResult  `bson:"results"`
	Measurements  Measurements       `bson:"measurements"`
	OverallResult CheckResult        `bson:"overallResult,omitempty"`
	PerformedBy   string             `bson:"performedBy"`
	PerformedAt   *time.Time         `bson:"performedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
	DomainEvents  []DomainEvent      `bson:"-"`
}

// NewQualityCheck creates a check from a checkpoint's criteria, validating
// every criterion at write time.
func NewQualityCheck(checkID, checkpointID string, entityType QCEntityType, entityID string, criteria []CheckCriterion, performedBy string) (*QualityCheck, error) {
	if len(criteria) == 0 {
		return nil, ErrInvalidCriterion
	}
	for i := range criteria {
		if err := criteria[i].Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	return &QualityCheck{
		CheckID:      checkID,
		CheckpointID: checkpointID,
		EntityType:   entityType,
		EntityID:     entityID,
		Criteria:     criteria,
		Results:      make([]CriterionResult, 0),
		PerformedBy:  performedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}, nil
}

// Perform evaluates every criterion against the measurements and derives the
// overall result: any failure → failed, any warning → conditional, otherwise
// passed. Returns the criteria that failed so the caller can open exceptions.
func (c *QualityCheck) Perform(m Measurements) ([]CriterionResult, error) {
	if c.PerformedAt != nil {
		return nil, ErrCheckAlreadyPerformed
	}

	now := time.Now()
	failed := make([]CriterionResult, 0)
	overall := CheckResultPassed

	for _, criterion := range c.Criteria {
		verdict, err := criterion.Evaluate(m)
		if err != nil {
			return nil, err
		}

		result := CriterionResult{
			Kind:        criterion.Kind,
			Severity:    criterion.Severity,
			Description: criterion.Description,
			Verdict:     verdict,
		}
		c.Results = append(c.Results, result)

		switch verdict {
		case VerdictFailed:
			overall = CheckResultFailed
			failed = append(failed, result)
		case VerdictWarning:
			if overall == CheckResultPassed {
				overall = CheckResultConditional
			}
		}
	}

	c.Measurements = m
	c.OverallResult = overall
	c.PerformedAt = &now
	c.UpdatedAt = now

	c.AddDomainEvent(&QualityCheckPerformedEvent{
		CheckID:       c.CheckID,
		EntityType:    string(c.EntityType),
		EntityID:      c.EntityID,
		OverallResult: string(overall),
		FailedCount:   len(failed),
		PerformedAt:   now,
	})

	return failed, nil
}

// AddDomainEvent adds a domain event
func (c *QualityCheck) AddDomainEvent(event DomainEvent) {
	c.DomainEvents = append(c.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (c *QualityCheck) ClearDomainEvents() {
	c.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (c *QualityCheck) GetDomainEvents() []DomainEvent {
	return c.DomainEvents
}

// ExceptionStatus represents the lifecycle of a quality exception
type ExceptionStatus string

const (
	ExceptionStatusOpen       ExceptionStatus = "open"
	ExceptionStatusInProgress ExceptionStatus = "in_progress"
	ExceptionStatusResolved   ExceptionStatus = "resolved"
)

// QualityException tracks one defect found during quality control until it
// is resolved. The related carton/shipment status follows the count of open
// exceptions for that entity.
type QualityException struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ExceptionID   string             `bson:"exceptionId"`
	CheckID       string             `bson:"checkId,omitempty"`
	EntityType    QCEntityType       `bson:"entityType"`
	EntityID      string             `bson:"entityId"`
	ExceptionType string             `bson:"exceptionType"`
	Severity      ExceptionSeverity  `bson:"severity"`
	Description   string             `bson:"description"`
	Status        ExceptionStatus    `bson:"status"`
	Resolution    string             `bson:"resolution,omitempty"`
	ResolvedBy    string             `bson:"resolvedBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
	ResolvedAt    *time.Time         `bson:"resolvedAt,omitempty"`
	DomainEvents  []DomainEvent      `bson:"-"`
}

// NewQualityException opens an exception. Severity defaults to minor.
func NewQualityException(exceptionID, checkID string, entityType QCEntityType, entityID, exceptionType string, severity ExceptionSeverity, description string) *QualityException {
	if severity == "" {
		severity = SeverityMinor
	}

	now := time.Now()
	exception := &QualityException{
		ExceptionID:   exceptionID,
		CheckID:       checkID,
		EntityType:    entityType,
		EntityID:      entityID,
		ExceptionType: exceptionType,
		Severity:      severity,
		Description:   description,
		Status:        ExceptionStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
		DomainEvents:  make([]DomainEvent, 0),
	}

	exception.AddDomainEvent(&QualityExceptionRaisedEvent{
		ExceptionID: exceptionID,
		EntityType:  string(entityType),
		EntityID:    entityID,
		Severity:    string(severity),
		RaisedAt:    now,
	})

	return exception
}

// StartInvestigation moves an open exception to in_progress
func (e *QualityException) StartInvestigation() error {
	if e.Status != ExceptionStatusOpen {
		return ErrExceptionNotOpen
	}
	e.Status = ExceptionStatusInProgress
	e.UpdatedAt = time.Now()
	return nil
}

// Resolve closes the exception with a resolution note
func (e *QualityException) Resolve(resolvedBy, resolution string) error {
	if e.Status == ExceptionStatusResolved {
		return ErrExceptionResolved
	}

	now := time.Now()
	e.Status = ExceptionStatusResolved
	e.Resolution = resolution
	e.ResolvedBy = resolvedBy
	e.ResolvedAt = &now
	e.UpdatedAt = now

	e.AddDomainEvent(&QualityExceptionResolvedEvent{
		ExceptionID: e.ExceptionID,
		EntityType:  string(e.EntityType),
		EntityID:    e.EntityID,
		ResolvedBy:  resolvedBy,
		ResolvedAt:  now,
	})

	return nil
}

// IsOpen returns true while the exception is unresolved
func (e *QualityException) IsOpen() bool {
	return e.Status != ExceptionStatusResolved
}

// AddDomainEvent adds a domain event
func (e *QualityException) AddDomainEvent(event DomainEvent) {
	e.DomainEvents = append(e.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (e *QualityException) ClearDomainEvents() {
	e.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (e *QualityException) GetDomainEvents() []DomainEvent {
	return e.DomainEvents
}

// Quality Domain Events

// QualityCheckPerformedEvent is emitted when a checkpoint check completes
type QualityCheckPerformedEvent struct {
	CheckID       string    `json:"checkId"`
	EntityType    string    `json:"entityType"`
	EntityID      string    `json:"entityId"`
	OverallResult string    `json:"overallResult"`
	FailedCount   int       `json:"failedCount"`
	PerformedAt   time.Time `json:"performedAt"`
}

func (e *QualityCheckPerformedEvent) EventType() string     { return "quality.check.performed" }
func (e *QualityCheckPerformedEvent) OccurredAt() time.Time { return e.PerformedAt }

// QualityExceptionRaisedEvent is emitted when an exception opens
type QualityExceptionRaisedEvent struct {
	ExceptionID string    `json:"exceptionId"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	Severity    string    `json:"severity"`
	RaisedAt    time.Time `json:"raisedAt"`
}

func (e *QualityExceptionRaisedEvent) EventType() string     { return "quality.exception.raised" }
func (e *QualityExceptionRaisedEvent) OccurredAt() time.Time { return e.RaisedAt }

// QualityExceptionResolvedEvent is emitted when an exception resolves
type QualityExceptionResolvedEvent struct {
	ExceptionID string    `json:"exceptionId"`
	EntityType  string    `json:"entityType"`
	EntityID    string    `json:"entityId"`
	ResolvedBy  string    `json:"resolvedBy"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

func (e *QualityExceptionResolvedEvent) EventType() string     { return "quality.exception.resolved" }
func (e *QualityExceptionResolvedEvent) OccurredAt() time.Time { return e.ResolvedAt }
