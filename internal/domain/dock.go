package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrDockNotAvailable        = errors.New("loading dock is not available")
	ErrScheduleOverlap         = errors.New("schedule overlaps an existing appointment for this dock")
	ErrScheduleNotEditable     = errors.New("cannot modify a completed or cancelled schedule")
	ErrInvalidDockStatus       = errors.New("invalid dock status")
	ErrInvalidScheduleWindow   = errors.New("schedule end must be after start")
	ErrInvalidStatusTransition = errors.New("cannot transition schedule to requested status")
)

// DockStatus represents the operational status of a loading dock
type DockStatus string

const (
	DockStatusAvailable   DockStatus = "available"
	DockStatusOccupied    DockStatus = "occupied"
	DockStatusMaintenance DockStatus = "maintenance"
)

// IsValid checks if the dock status is valid
func (s DockStatus) IsValid() bool {
	switch s {
	case DockStatusAvailable, DockStatusOccupied, DockStatusMaintenance:
		return true
	default:
		return false
	}
}

// DockType represents the kind of vehicle a dock serves
type DockType string

const (
	DockTypeTruck     DockType = "truck"
	DockTypeTrailer   DockType = "trailer"
	DockTypeContainer DockType = "container"
)

// LoadingDock represents a physical loading dock door
type LoadingDock struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	DockID           string             `bson:"dockId"`
	Code             string             `bson:"code"`
	WarehouseID      string             `bson:"warehouseId"`
	DockType         DockType           `bson:"dockType"`
	Status           DockStatus         `bson:"status"`
	HasLeveler       bool               `bson:"hasLeveler"`
	MaxVehicleLength float64            `bson:"maxVehicleLength"` // in meters
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
	DomainEvents     []DomainEvent      `bson:"-"`
}

// NewLoadingDock creates a new LoadingDock aggregate
func NewLoadingDock(dockID, code, warehouseID string, dockType DockType, hasLeveler bool, maxVehicleLength float64) *LoadingDock {
	now := time.Now()
	return &LoadingDock{
		DockID:           dockID,
		Code:             code,
		WarehouseID:      warehouseID,
		DockType:         dockType,
		Status:           DockStatusAvailable,
		HasLeveler:       hasLeveler,
		MaxVehicleLength: maxVehicleLength,
		CreatedAt:        now,
		UpdatedAt:        now,
		DomainEvents:     make([]DomainEvent, 0),
	}
}

// SetStatus updates the dock status
func (d *LoadingDock) SetStatus(status DockStatus) error {
	if !status.IsValid() {
		return ErrInvalidDockStatus
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	return nil
}

// MarkOccupied flips the dock to occupied while a vehicle is at the door
func (d *LoadingDock) MarkOccupied() {
	d.Status = DockStatusOccupied
	d.UpdatedAt = time.Now()
}

// MarkAvailable flips the dock back to available
func (d *LoadingDock) MarkAvailable() {
	d.Status = DockStatusAvailable
	d.UpdatedAt = time.Now()
}

// IsSchedulable returns true when new appointments can be booked on the dock.
// Occupied and maintenance docks both reject new bookings.
func (d *LoadingDock) IsSchedulable() bool {
	return d.Status == DockStatusAvailable
}

// AddDomainEvent adds a domain event
func (d *LoadingDock) AddDomainEvent(event DomainEvent) {
	d.DomainEvents = append(d.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (d *LoadingDock) ClearDomainEvents() {
	d.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (d *LoadingDock) GetDomainEvents() []DomainEvent {
	return d.DomainEvents
}

// ScheduleStatus represents the appointment state of a dock schedule
type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusConfirmed  ScheduleStatus = "confirmed"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
	ScheduleStatusNoShow     ScheduleStatus = "no_show"
)

// scheduleTransitions is the appointment state graph. A schedule may only
// move to a status listed for its current status.
var scheduleTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleStatusScheduled:  {ScheduleStatusConfirmed, ScheduleStatusInProgress, ScheduleStatusCancelled, ScheduleStatusNoShow},
	ScheduleStatusConfirmed:  {ScheduleStatusInProgress, ScheduleStatusCancelled, ScheduleStatusNoShow},
	ScheduleStatusInProgress: {ScheduleStatusCompleted},
	ScheduleStatusCompleted:  {},
	ScheduleStatusCancelled:  {},
	ScheduleStatusNoShow:     {},
}

// CanTransitionTo reports whether the state graph allows moving to target.
func (s ScheduleStatus) CanTransitionTo(target ScheduleStatus) bool {
	for _, allowed := range scheduleTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// DockSchedule is a reserved time window for a carrier vehicle at a dock.
// Booked intervals are half-open [start, end): appointments that touch at a
// boundary do not conflict.
type DockSchedule struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ScheduleID      string             `bson:"scheduleId"`
	DockID          string             `bson:"dockId"`
	LoadPlanID      string             `bson:"loadPlanId,omitempty"`
	CarrierName     string             `bson:"carrierName"`
	VehicleRef      string             `bson:"vehicleRef,omitempty"`
	ScheduledDate   string             `bson:"scheduledDate"` // YYYY-MM-DD
	ScheduledStart  time.Time          `bson:"scheduledStart"`
	ScheduledEnd    time.Time          `bson:"scheduledEnd"`
	Status          ScheduleStatus     `bson:"status"`
	ActualStartTime *time.Time         `bson:"actualStartTime,omitempty"`
	ActualEndTime   *time.Time         `bson:"actualEndTime,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
	DomainEvents    []DomainEvent      `bson:"-"`
}

// NewDockSchedule creates a new appointment. The caller is responsible for
// running the overlap check against existing schedules before persisting.
func NewDockSchedule(scheduleID, dockID, loadPlanID, carrierName, vehicleRef string, start, end time.Time) (*DockSchedule, error) {
	if !end.After(start) {
		return nil, ErrInvalidScheduleWindow
	}

	now := time.Now()
	schedule := &DockSchedule{
		ScheduleID:     scheduleID,
		DockID:         dockID,
		LoadPlanID:     loadPlanID,
		CarrierName:    carrierName,
		VehicleRef:     vehicleRef,
		ScheduledDate:  start.Format("2006-01-02"),
		ScheduledStart: start,
		ScheduledEnd:   end,
		Status:         ScheduleStatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
		DomainEvents:   make([]DomainEvent, 0),
	}

	schedule.AddDomainEvent(&DockScheduleCreatedEvent{
		ScheduleID:  scheduleID,
		DockID:      dockID,
		CarrierName: carrierName,
		Start:       start,
		End:         end,
		CreatedAt:   now,
	})

	return schedule, nil
}

// OverlapsWindow reports whether this schedule's interval intersects
// [start, end) under half-open semantics.
func (s *DockSchedule) OverlapsWindow(start, end time.Time) bool {
	return s.ScheduledStart.Before(end) && s.ScheduledEnd.After(start)
}

// BlocksWindow reports whether the schedule still occupies its interval.
// Only cancelled appointments free their window.
func (s *DockSchedule) BlocksWindow() bool {
	return s.Status != ScheduleStatusCancelled
}

// Reschedule moves the appointment window. Rejected once the schedule is
// completed or cancelled. The caller re-runs the overlap check when dock,
// date or times change.
func (s *DockSchedule) Reschedule(dockID string, start, end time.Time) error {
	if s.IsFinal() {
		return ErrScheduleNotEditable
	}
	if !end.After(start) {
		return ErrInvalidScheduleWindow
	}

	s.DockID = dockID
	s.ScheduledDate = start.Format("2006-01-02")
	s.ScheduledStart = start
	s.ScheduledEnd = end
	s.UpdatedAt = time.Now()
	return nil
}

// Confirm transitions scheduled → confirmed.
func (s *DockSchedule) Confirm() error {
	if !s.Status.CanTransitionTo(ScheduleStatusConfirmed) {
		return ErrInvalidStatusTransition
	}
	s.Status = ScheduleStatusConfirmed
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(&DockScheduleStatusChangedEvent{
		ScheduleID: s.ScheduleID,
		DockID:     s.DockID,
		NewStatus:  string(ScheduleStatusConfirmed),
		ChangedAt:  s.UpdatedAt,
	})
	return nil
}

// Start transitions to in_progress and records the actual start time. The
// owning dock must be flipped to occupied in the same operation.
func (s *DockSchedule) Start() error {
	if !s.Status.CanTransitionTo(ScheduleStatusInProgress) {
		return ErrInvalidStatusTransition
	}

	now := time.Now()
	s.Status = ScheduleStatusInProgress
	s.ActualStartTime = &now
	s.UpdatedAt = now

	s.AddDomainEvent(&DockScheduleStatusChangedEvent{
		ScheduleID: s.ScheduleID,
		DockID:     s.DockID,
		NewStatus:  string(ScheduleStatusInProgress),
		ChangedAt:  now,
	})
	return nil
}

// Complete transitions in_progress → completed and records the actual end
// time. The dock status write happens in the same transaction.
func (s *DockSchedule) Complete() error {
	if !s.Status.CanTransitionTo(ScheduleStatusCompleted) {
		return ErrInvalidStatusTransition
	}

	now := time.Now()
	s.Status = ScheduleStatusCompleted
	s.ActualEndTime = &now
	s.UpdatedAt = now

	s.AddDomainEvent(&DockScheduleStatusChangedEvent{
		ScheduleID: s.ScheduleID,
		DockID:     s.DockID,
		NewStatus:  string(ScheduleStatusCompleted),
		ChangedAt:  now,
	})
	return nil
}

// Cancel cancels the appointment. Allowed from scheduled and confirmed.
func (s *DockSchedule) Cancel() error {
	if !s.Status.CanTransitionTo(ScheduleStatusCancelled) {
		return ErrInvalidStatusTransition
	}
	s.Status = ScheduleStatusCancelled
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(&DockScheduleStatusChangedEvent{
		ScheduleID: s.ScheduleID,
		DockID:     s.DockID,
		NewStatus:  string(ScheduleStatusCancelled),
		ChangedAt:  s.UpdatedAt,
	})
	return nil
}

// MarkNoShow records that the carrier never arrived.
func (s *DockSchedule) MarkNoShow() error {
	if !s.Status.CanTransitionTo(ScheduleStatusNoShow) {
		return ErrInvalidStatusTransition
	}
	s.Status = ScheduleStatusNoShow
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(&DockScheduleStatusChangedEvent{
		ScheduleID: s.ScheduleID,
		DockID:     s.DockID,
		NewStatus:  string(ScheduleStatusNoShow),
		ChangedAt:  s.UpdatedAt,
	})
	return nil
}

// IsFinal returns true once the schedule can no longer change.
func (s *DockSchedule) IsFinal() bool {
	return s.Status == ScheduleStatusCompleted || s.Status == ScheduleStatusCancelled ||
		s.Status == ScheduleStatusNoShow
}

// ScheduledMinutes returns the booked window length in minutes.
func (s *DockSchedule) ScheduledMinutes() int {
	return int(s.ScheduledEnd.Sub(s.ScheduledStart) / time.Minute)
}

// ActualMinutes returns the realized occupancy in minutes, zero until the
// appointment completes.
func (s *DockSchedule) ActualMinutes() int {
	if s.ActualStartTime == nil || s.ActualEndTime == nil {
		return 0
	}
	return int(s.ActualEndTime.Sub(*s.ActualStartTime) / time.Minute)
}

// AddDomainEvent adds a domain event
func (s *DockSchedule) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (s *DockSchedule) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (s *DockSchedule) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}

// CheckWindowFree returns ErrScheduleOverlap when any blocking schedule in
// existing intersects [start, end). ignoreScheduleID exempts the schedule
// being updated from conflicting with itself.
func CheckWindowFree(existing []*DockSchedule, start, end time.Time, ignoreScheduleID string) error {
	for _, schedule := range existing {
		if schedule.ScheduleID == ignoreScheduleID {
			continue
		}
		if !schedule.BlocksWindow() {
			continue
		}
		if schedule.OverlapsWindow(start, end) {
			return ErrScheduleOverlap
		}
	}
	return nil
}

// TimeWindow is a half-open [Start, End) interval.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Minutes returns the window length in minutes.
func (w TimeWindow) Minutes() int {
	return int(w.End.Sub(w.Start) / time.Minute)
}

// FreeWindows subtracts every blocking schedule's interval from the operating
// window and returns the sub-windows of at least durationMinutes. Each
// schedule shrinks the candidate list independently.
func FreeWindows(operating TimeWindow, schedules []*DockSchedule, durationMinutes int) []TimeWindow {
	windows := []TimeWindow{operating}

	for _, schedule := range schedules {
		if !schedule.BlocksWindow() {
			continue
		}

		next := make([]TimeWindow, 0, len(windows)+1)
		for _, w := range windows {
			if !schedule.OverlapsWindow(w.Start, w.End) {
				next = append(next, w)
				continue
			}
			if schedule.ScheduledStart.After(w.Start) {
				next = append(next, TimeWindow{Start: w.Start, End: schedule.ScheduledStart})
			}
			if schedule.ScheduledEnd.Before(w.End) {
				next = append(next, TimeWindow{Start: schedule.ScheduledEnd, End: w.End})
			}
		}
		windows = next
	}

	result := make([]TimeWindow, 0, len(windows))
	for _, w := range windows {
		if w.Minutes() >= durationMinutes {
			result = append(result, w)
		}
	}
	return result
}

// HourlySlot is one cell of the per-dock availability grid.
type HourlySlot struct {
	Hour      int  `json:"hour"` // 0..23
	Available bool `json:"available"`
}

// HourlyAvailability produces the 00:00-23:00 slot grid for one dock on one
// day. A slot is free only when the dock itself is available and no blocking
// schedule intersects the one-hour window.
func HourlyAvailability(dock *LoadingDock, schedules []*DockSchedule, day time.Time) []HourlySlot {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	slots := make([]HourlySlot, 24)
	for hour := 0; hour < 24; hour++ {
		slotStart := midnight.Add(time.Duration(hour) * time.Hour)
		slotEnd := slotStart.Add(time.Hour)

		available := dock.Status == DockStatusAvailable
		if available {
			for _, schedule := range schedules {
				if schedule.BlocksWindow() && schedule.OverlapsWindow(slotStart, slotEnd) {
					available = false
					break
				}
			}
		}
		slots[hour] = HourlySlot{Hour: hour, Available: available}
	}
	return slots
}

// Dock Domain Events

// DockScheduleCreatedEvent is emitted when an appointment is booked
type DockScheduleCreatedEvent struct {
	ScheduleID  string    `json:"scheduleId"`
	DockID      string    `json:"dockId"`
	CarrierName string    `json:"carrierName"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e *DockScheduleCreatedEvent) EventType() string     { return "dock.schedule.created" }
func (e *DockScheduleCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// DockScheduleStatusChangedEvent is emitted on every appointment transition
type DockScheduleStatusChangedEvent struct {
	ScheduleID string    `json:"scheduleId"`
	DockID     string    `json:"dockId"`
	NewStatus  string    `json:"newStatus"`
	ChangedAt  time.Time `json:"changedAt"`
}

func (e *DockScheduleStatusChangedEvent) EventType() string     { return "dock.schedule.status.changed" }
func (e *DockScheduleStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
