package domain

import (
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrLoadPlanNotLoaded    = errors.New("load plan is not in loaded status")
	ErrLoadPlanNotCancellable = errors.New("load plan cannot be cancelled after loading")
	ErrLoadPlanFinal        = errors.New("load plan is in a final status")
	ErrNoShipmentsInPlan    = errors.New("load plan has no shipments")
)

// LoadStatus represents the lifecycle of a load plan
type LoadStatus string

const (
	LoadStatusPlanning   LoadStatus = "planning"
	LoadStatusLoaded     LoadStatus = "loaded"
	LoadStatusDispatched LoadStatus = "dispatched"
	LoadStatusDelivered  LoadStatus = "delivered"
	LoadStatusCancelled  LoadStatus = "cancelled"
)

// LoadStop is one shipment's position in the loading sequence
type LoadStop struct {
	SequenceNumber   int        `bson:"sequenceNumber"` // 1-based
	ShipmentID       string     `bson:"shipmentId"`
	ExpectedDelivery *time.Time `bson:"expectedDelivery,omitempty"`
}

// LoadingConfirmation records who confirmed physical loading and when
type LoadingConfirmation struct {
	ConfirmedBy string    `bson:"confirmedBy"`
	VehicleRef  string    `bson:"vehicleRef,omitempty"`
	SealNumber  string    `bson:"sealNumber,omitempty"`
	ConfirmedAt time.Time `bson:"confirmedAt"`
}

// LoadPlan groups shipments onto one outbound vehicle and tracks trailer
// utilization against the vehicle's rated capacity.
type LoadPlan struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty"`
	LoadPlanID           string               `bson:"loadPlanId"`
	LoadPlanNumber       string               `bson:"loadPlanNumber"`
	CarrierName          string               `bson:"carrierName"`
	WarehouseID          string               `bson:"warehouseId"`
	ShipmentIDs          []string             `bson:"shipmentIds"`
	Status               LoadStatus           `bson:"status"`
	LoadingSequence      []LoadStop           `bson:"loadingSequence"`
	TotalWeightKg        float64              `bson:"totalWeightKg"`
	TotalVolumeM3        float64              `bson:"totalVolumeM3"`
	VehicleWeightCapKg   float64              `bson:"vehicleWeightCapKg,omitempty"`
	VehicleVolumeCapM3   float64              `bson:"vehicleVolumeCapM3,omitempty"`
	UtilizationWeightPct float64              `bson:"utilizationWeightPct"`
	UtilizationVolumePct float64              `bson:"utilizationVolumePct"`
	DockScheduleID       string               `bson:"dockScheduleId,omitempty"`
	PlannedDeparture     *time.Time           `bson:"plannedDeparture,omitempty"`
	ActualDeparture      *time.Time           `bson:"actualDeparture,omitempty"`
	Confirmation         *LoadingConfirmation `bson:"confirmation,omitempty"`
	CreatedAt            time.Time            `bson:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt"`
	DeliveredAt          *time.Time           `bson:"deliveredAt,omitempty"`
	DomainEvents         []DomainEvent        `bson:"-"`
}

// NewLoadPlan creates a new LoadPlan aggregate. Utilization percentages are
// derived from totals and capacities when both are supplied.
func NewLoadPlan(loadPlanID, loadPlanNumber, carrierName, warehouseID string, shipmentIDs []string, totalWeightKg, totalVolumeM3, weightCapKg, volumeCapM3 float64) (*LoadPlan, error) {
	if len(shipmentIDs) == 0 {
		return nil, ErrNoShipmentsInPlan
	}
	if loadPlanNumber == "" {
		loadPlanNumber = generateLoadPlanNumber()
	}

	now := time.Now()
	plan := &LoadPlan{
		LoadPlanID:         loadPlanID,
		LoadPlanNumber:     loadPlanNumber,
		CarrierName:        carrierName,
		WarehouseID:        warehouseID,
		ShipmentIDs:        shipmentIDs,
		Status:             LoadStatusPlanning,
		LoadingSequence:    make([]LoadStop, 0),
		TotalWeightKg:      totalWeightKg,
		TotalVolumeM3:      totalVolumeM3,
		VehicleWeightCapKg: weightCapKg,
		VehicleVolumeCapM3: volumeCapM3,
		CreatedAt:          now,
		UpdatedAt:          now,
		DomainEvents:       make([]DomainEvent, 0),
	}

	if weightCapKg > 0 {
		plan.UtilizationWeightPct = totalWeightKg / weightCapKg * 100
	}
	if volumeCapM3 > 0 {
		plan.UtilizationVolumePct = totalVolumeM3 / volumeCapM3 * 100
	}

	plan.AddDomainEvent(&LoadPlanCreatedEvent{
		LoadPlanID:     loadPlanID,
		LoadPlanNumber: loadPlanNumber,
		CarrierName:    carrierName,
		ShipmentCount:  len(shipmentIDs),
		CreatedAt:      now,
	})

	return plan, nil
}

// LinkDockSchedule attaches the appointment booked for this load.
func (p *LoadPlan) LinkDockSchedule(scheduleID string, departure time.Time) {
	p.DockScheduleID = scheduleID
	p.PlannedDeparture = &departure
	p.UpdatedAt = time.Now()
}

// Sequence orders the plan's shipments by expected delivery date ascending
// and assigns 1-based sequence numbers. Stops without a date sort last.
func (p *LoadPlan) Sequence(deliveries map[string]*time.Time) error {
	if p.Status == LoadStatusDispatched || p.Status == LoadStatusDelivered || p.Status == LoadStatusCancelled {
		return ErrLoadPlanFinal
	}

	stops := make([]LoadStop, 0, len(p.ShipmentIDs))
	for _, shipmentID := range p.ShipmentIDs {
		stops = append(stops, LoadStop{ShipmentID: shipmentID, ExpectedDelivery: deliveries[shipmentID]})
	}

	sort.SliceStable(stops, func(i, j int) bool {
		a, b := stops[i].ExpectedDelivery, stops[j].ExpectedDelivery
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})

	for i := range stops {
		stops[i].SequenceNumber = i + 1
	}
	p.LoadingSequence = stops
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(&LoadPlanSequencedEvent{
		LoadPlanID: p.LoadPlanID,
		StopCount:  len(stops),
		SequencedAt: p.UpdatedAt,
	})

	return nil
}

// ConfirmLoading records a loading confirmation and moves the plan to loaded.
// Shipments move to picked_up and a linked dock schedule completes in the
// same application operation.
func (p *LoadPlan) ConfirmLoading(confirmation LoadingConfirmation) error {
	if p.Status != LoadStatusPlanning {
		return ErrLoadPlanFinal
	}

	confirmation.ConfirmedAt = time.Now()
	p.Confirmation = &confirmation
	p.Status = LoadStatusLoaded
	p.UpdatedAt = confirmation.ConfirmedAt

	p.AddDomainEvent(&LoadPlanLoadedEvent{
		LoadPlanID:  p.LoadPlanID,
		ConfirmedBy: confirmation.ConfirmedBy,
		LoadedAt:    confirmation.ConfirmedAt,
	})

	return nil
}

// Dispatch requires loaded status and records the departure timestamp.
func (p *LoadPlan) Dispatch() error {
	if p.Status != LoadStatusLoaded {
		return ErrLoadPlanNotLoaded
	}

	now := time.Now()
	p.Status = LoadStatusDispatched
	p.ActualDeparture = &now
	p.UpdatedAt = now

	p.AddDomainEvent(&LoadPlanDispatchedEvent{
		LoadPlanID:   p.LoadPlanID,
		CarrierName:  p.CarrierName,
		DispatchedAt: now,
	})

	return nil
}

// Deliver marks the dispatched load as delivered.
func (p *LoadPlan) Deliver() error {
	if p.Status != LoadStatusDispatched {
		return ErrLoadPlanFinal
	}

	now := time.Now()
	p.Status = LoadStatusDelivered
	p.DeliveredAt = &now
	p.UpdatedAt = now
	return nil
}

// Cancel is disallowed once the load is loaded, dispatched or delivered.
// The application layer reverts shipments to ready and cancels the linked
// dock schedule.
func (p *LoadPlan) Cancel() error {
	switch p.Status {
	case LoadStatusLoaded, LoadStatusDispatched, LoadStatusDelivered:
		return ErrLoadPlanNotCancellable
	case LoadStatusCancelled:
		return ErrLoadPlanFinal
	}

	p.Status = LoadStatusCancelled
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(&LoadPlanCancelledEvent{
		LoadPlanID:  p.LoadPlanID,
		CancelledAt: p.UpdatedAt,
	})

	return nil
}

// AddDomainEvent adds a domain event
func (p *LoadPlan) AddDomainEvent(event DomainEvent) {
	p.DomainEvents = append(p.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (p *LoadPlan) ClearDomainEvents() {
	p.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (p *LoadPlan) GetDomainEvents() []DomainEvent {
	return p.DomainEvents
}

func generateLoadPlanNumber() string {
	return "LP-" + time.Now().Format("20060102-150405")
}

// DockUtilization aggregates appointment outcomes for one dock over a date
// range, normalized against a 24/7 availability baseline.
type DockUtilization struct {
	DockID           string  `json:"dockId"`
	CompletedCount   int     `json:"completedCount"`
	CancelledCount   int     `json:"cancelledCount"`
	NoShowCount      int     `json:"noShowCount"`
	ScheduledMinutes int     `json:"scheduledMinutes"`
	ActualMinutes    int     `json:"actualMinutes"`
	UtilizationPct   float64 `json:"utilizationPct"`
}

// ComputeDockUtilization rolls schedules up per dock over a range of whole
// days, with utilization as scheduled minutes over days x 1440, sorted
// descending by utilization.
func ComputeDockUtilization(schedules []*DockSchedule, days int) []DockUtilization {
	if days <= 0 {
		days = 1
	}
	baseline := float64(days * 24 * 60)

	byDock := make(map[string]*DockUtilization)
	order := make([]string, 0)
	for _, schedule := range schedules {
		u, ok := byDock[schedule.DockID]
		if !ok {
			u = &DockUtilization{DockID: schedule.DockID}
			byDock[schedule.DockID] = u
			order = append(order, schedule.DockID)
		}

		switch schedule.Status {
		case ScheduleStatusCompleted:
			u.CompletedCount++
			u.ScheduledMinutes += schedule.ScheduledMinutes()
			u.ActualMinutes += schedule.ActualMinutes()
		case ScheduleStatusCancelled:
			u.CancelledCount++
		case ScheduleStatusNoShow:
			u.NoShowCount++
		default:
			u.ScheduledMinutes += schedule.ScheduledMinutes()
		}
	}

	result := make([]DockUtilization, 0, len(byDock))
	for _, dockID := range order {
		u := byDock[dockID]
		u.UtilizationPct = float64(u.ScheduledMinutes) / baseline * 100
		result = append(result, *u)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UtilizationPct > result[j].UtilizationPct
	})
	return result
}

// Load Plan Domain Events

// LoadPlanCreatedEvent is emitted when a load plan is created
type LoadPlanCreatedEvent struct {
	LoadPlanID     string    `json:"loadPlanId"`
	LoadPlanNumber string    `json:"loadPlanNumber"`
	CarrierName    string    `json:"carrierName"`
	ShipmentCount  int       `json:"shipmentCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (e *LoadPlanCreatedEvent) EventType() string     { return "load.plan.created" }
func (e *LoadPlanCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// LoadPlanSequencedEvent is emitted when the loading sequence is computed
type LoadPlanSequencedEvent struct {
	LoadPlanID  string    `json:"loadPlanId"`
	StopCount   int       `json:"stopCount"`
	SequencedAt time.Time `json:"sequencedAt"`
}

func (e *LoadPlanSequencedEvent) EventType() string     { return "load.plan.sequenced" }
func (e *LoadPlanSequencedEvent) OccurredAt() time.Time { return e.SequencedAt }

// LoadPlanLoadedEvent is emitted when loading is confirmed
type LoadPlanLoadedEvent struct {
	LoadPlanID  string    `json:"loadPlanId"`
	ConfirmedBy string    `json:"confirmedBy"`
	LoadedAt    time.Time `json:"loadedAt"`
}

func (e *LoadPlanLoadedEvent) EventType() string     { return "load.plan.loaded" }
func (e *LoadPlanLoadedEvent) OccurredAt() time.Time { return e.LoadedAt }

// LoadPlanDispatchedEvent is emitted when the load departs
type LoadPlanDispatchedEvent struct {
	LoadPlanID   string    `json:"loadPlanId"`
	CarrierName  string    `json:"carrierName"`
	DispatchedAt time.Time `json:"dispatchedAt"`
}

func (e *LoadPlanDispatchedEvent) EventType() string     { return "load.plan.dispatched" }
func (e *LoadPlanDispatchedEvent) OccurredAt() time.Time { return e.DispatchedAt }

// LoadPlanCancelledEvent is emitted when a plan is cancelled before loading
type LoadPlanCancelledEvent struct {
	LoadPlanID  string    `json:"loadPlanId"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *LoadPlanCancelledEvent) EventType() string     { return "load.plan.cancelled" }
func (e *LoadPlanCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }
