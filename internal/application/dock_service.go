package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/pkg/cloudevents"
	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/kafka"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// DockApplicationService handles dock and appointment use cases
type DockApplicationService struct {
	dockRepo     domain.DockRepository
	scheduleRepo domain.DockScheduleRepository
	loadPlanRepo domain.LoadPlanRepository
	producer     *kafka.InstrumentedProducer
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewDockApplicationService creates a new DockApplicationService
func NewDockApplicationService(
	dockRepo domain.DockRepository,
	scheduleRepo domain.DockScheduleRepository,
	loadPlanRepo domain.LoadPlanRepository,
	producer *kafka.InstrumentedProducer,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
) *DockApplicationService {
	return &DockApplicationService{
		dockRepo:     dockRepo,
		scheduleRepo: scheduleRepo,
		loadPlanRepo: loadPlanRepo,
		producer:     producer,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// CreateDock registers a loading dock
func (s *DockApplicationService) CreateDock(ctx context.Context, cmd CreateDockCommand) (*DockDTO, error) {
	if cmd.Code == "" || cmd.WarehouseID == "" {
		return nil, apperrors.ErrValidation("dock code and warehouse are required")
	}

	dockID := "DOCK-" + uuid.New().String()[:8]
	dock := domain.NewLoadingDock(dockID, cmd.Code, cmd.WarehouseID, cmd.DockType, cmd.HasLeveler, cmd.MaxVehicleLength)

	if err := s.dockRepo.Save(ctx, dock); err != nil {
		s.logger.WithError(err).Error("Failed to create dock", "dockId", dockID)
		return nil, fmt.Errorf("failed to create dock: %w", err)
	}

	s.logger.Info("Created dock", "dockId", dockID, "code", cmd.Code)
	return ToDockDTO(dock), nil
}

// SetDockStatus updates a dock's operational status
func (s *DockApplicationService) SetDockStatus(ctx context.Context, cmd SetDockStatusCommand) (*DockDTO, error) {
	dock, err := s.dockRepo.FindByID(ctx, cmd.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", cmd.DockID)
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	if dock == nil {
		return nil, apperrors.ErrNotFound("dock")
	}

	if err := dock.SetStatus(cmd.Status); err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.dockRepo.Save(ctx, dock); err != nil {
		s.logger.WithError(err).Error("Failed to save dock", "dockId", cmd.DockID)
		return nil, fmt.Errorf("failed to save dock: %w", err)
	}

	s.logger.Info("Updated dock status", "dockId", cmd.DockID, "status", cmd.Status)
	return ToDockDTO(dock), nil
}

// CreateDockSchedule books an appointment window at a dock. The window is
// rejected when it overlaps any blocking appointment on the same dock.
func (s *DockApplicationService) CreateDockSchedule(ctx context.Context, cmd CreateDockScheduleCommand) (*DockScheduleDTO, error) {
	dock, err := s.dockRepo.FindByID(ctx, cmd.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", cmd.DockID)
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	if dock == nil {
		return nil, apperrors.ErrNotFound("dock")
	}
	if !dock.IsSchedulable() {
		return nil, apperrors.ErrBusinessRule(domain.ErrDockNotAvailable.Error())
	}

	scheduleID := "DS-" + uuid.New().String()[:8]
	schedule, err := domain.NewDockSchedule(scheduleID, cmd.DockID, cmd.LoadPlanID, cmd.CarrierName, cmd.VehicleRef, cmd.Start, cmd.End)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.checkWindow(ctx, cmd.DockID, schedule.ScheduledDate, cmd.Start, cmd.End, ""); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", scheduleID)
		return nil, fmt.Errorf("failed to save dock schedule: %w", err)
	}

	if cmd.LoadPlanID != "" {
		if err := s.linkLoadPlan(ctx, cmd.LoadPlanID, scheduleID, cmd.End); err != nil {
			return nil, err
		}
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "dock.schedule_created",
		EntityType: "dockSchedule",
		EntityID:   scheduleID,
		Action:     "created",
		RelatedIDs: map[string]string{
			"dockId":      cmd.DockID,
			"loadPlanId":  cmd.LoadPlanID,
			"carrierName": cmd.CarrierName,
		},
	})

	return ToDockScheduleDTO(schedule), nil
}

// checkWindow loads the dock's appointments for the window's date and runs
// the half-open overlap check against them.
func (s *DockApplicationService) checkWindow(ctx context.Context, dockID, date string, start, end time.Time, ignoreScheduleID string) error {
	existing, err := s.scheduleRepo.FindByDockAndDate(ctx, dockID, date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load dock schedules", "dockId", dockID, "date", date)
		return fmt.Errorf("failed to load dock schedules: %w", err)
	}

	if err := domain.CheckWindowFree(existing, start, end, ignoreScheduleID); err != nil {
		return apperrors.ErrBusinessRule(err.Error())
	}
	return nil
}

// linkLoadPlan attaches a booked appointment to its load plan
func (s *DockApplicationService) linkLoadPlan(ctx context.Context, loadPlanID, scheduleID string, departure time.Time) error {
	plan, err := s.loadPlanRepo.FindByID(ctx, loadPlanID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get load plan", "loadPlanId", loadPlanID)
		return fmt.Errorf("failed to get load plan: %w", err)
	}
	if plan == nil {
		return apperrors.ErrNotFound("load plan")
	}

	plan.LinkDockSchedule(scheduleID, departure)
	if err := s.loadPlanRepo.Save(ctx, plan); err != nil {
		s.logger.WithError(err).Error("Failed to save load plan", "loadPlanId", loadPlanID)
		return fmt.Errorf("failed to save load plan: %w", err)
	}
	return nil
}

// UpdateDockSchedule moves an appointment to a new dock or window. The
// overlap check reruns only when the placement actually changes, and the
// schedule's own window is exempt from it.
func (s *DockApplicationService) UpdateDockSchedule(ctx context.Context, cmd UpdateDockScheduleCommand) (*DockScheduleDTO, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", cmd.ScheduleID)
		return nil, fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil {
		return nil, apperrors.ErrNotFound("dock schedule")
	}

	targetDock := cmd.DockID
	if targetDock == "" {
		targetDock = schedule.DockID
	}

	moved := targetDock != schedule.DockID ||
		!cmd.Start.Equal(schedule.ScheduledStart) ||
		!cmd.End.Equal(schedule.ScheduledEnd)

	if moved {
		if err := s.checkWindow(ctx, targetDock, cmd.Start.Format("2006-01-02"), cmd.Start, cmd.End, cmd.ScheduleID); err != nil {
			return nil, err
		}
	}

	if err := schedule.Reschedule(targetDock, cmd.Start, cmd.End); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", cmd.ScheduleID)
		return nil, fmt.Errorf("failed to save dock schedule: %w", err)
	}

	s.logger.Info("Rescheduled dock appointment", "scheduleId", cmd.ScheduleID, "dockId", targetDock)
	return ToDockScheduleDTO(schedule), nil
}

// ConfirmSchedule confirms a scheduled appointment
func (s *DockApplicationService) ConfirmSchedule(ctx context.Context, cmd ScheduleActionCommand) (*DockScheduleDTO, error) {
	return s.transition(ctx, cmd.ScheduleID, func(schedule *domain.DockSchedule) error {
		return schedule.Confirm()
	})
}

// StartSchedule records vehicle arrival and occupies the dock
func (s *DockApplicationService) StartSchedule(ctx context.Context, cmd ScheduleActionCommand) (*DockScheduleDTO, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", cmd.ScheduleID)
		return nil, fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil {
		return nil, apperrors.ErrNotFound("dock schedule")
	}

	dock, err := s.dockRepo.FindByID(ctx, schedule.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", schedule.DockID)
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	if dock == nil {
		return nil, apperrors.ErrNotFound("dock")
	}

	if err := schedule.Start(); err != nil {
		return nil, apperrors.ErrInvalidTransition("dock schedule", string(schedule.Status), string(domain.ScheduleStatusInProgress))
	}
	dock.MarkOccupied()

	if err := s.scheduleRepo.SaveWithDock(ctx, schedule, dock); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", cmd.ScheduleID)
		return nil, fmt.Errorf("failed to save dock schedule: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.Info("Started dock appointment", "scheduleId", cmd.ScheduleID, "dockId", schedule.DockID)
	return ToDockScheduleDTO(schedule), nil
}

// CompleteSchedule records vehicle departure and frees the dock in one
// transaction with the schedule update.
func (s *DockApplicationService) CompleteSchedule(ctx context.Context, cmd ScheduleActionCommand) (*DockScheduleDTO, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, cmd.ScheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", cmd.ScheduleID)
		return nil, fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil {
		return nil, apperrors.ErrNotFound("dock schedule")
	}

	dock, err := s.dockRepo.FindByID(ctx, schedule.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", schedule.DockID)
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	if dock == nil {
		return nil, apperrors.ErrNotFound("dock")
	}

	if err := schedule.Complete(); err != nil {
		return nil, apperrors.ErrInvalidTransition("dock schedule", string(schedule.Status), string(domain.ScheduleStatusCompleted))
	}
	dock.MarkAvailable()

	if err := s.scheduleRepo.SaveWithDock(ctx, schedule, dock); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", cmd.ScheduleID)
		return nil, fmt.Errorf("failed to save dock schedule: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "dock.schedule_completed",
		EntityType: "dockSchedule",
		EntityID:   cmd.ScheduleID,
		Action:     "completed",
		RelatedIDs: map[string]string{
			"dockId": schedule.DockID,
		},
	})

	return ToDockScheduleDTO(schedule), nil
}

// CancelSchedule cancels an appointment, freeing its window
func (s *DockApplicationService) CancelSchedule(ctx context.Context, cmd ScheduleActionCommand) (*DockScheduleDTO, error) {
	return s.transition(ctx, cmd.ScheduleID, func(schedule *domain.DockSchedule) error {
		return schedule.Cancel()
	})
}

// MarkNoShow records that the carrier never arrived
func (s *DockApplicationService) MarkNoShow(ctx context.Context, cmd ScheduleActionCommand) (*DockScheduleDTO, error) {
	return s.transition(ctx, cmd.ScheduleID, func(schedule *domain.DockSchedule) error {
		return schedule.MarkNoShow()
	})
}

func (s *DockApplicationService) transition(ctx context.Context, scheduleID string, apply func(*domain.DockSchedule) error) (*DockScheduleDTO, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, scheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", scheduleID)
		return nil, fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil {
		return nil, apperrors.ErrNotFound("dock schedule")
	}

	from := schedule.Status
	if err := apply(schedule); err != nil {
		return nil, apperrors.ErrBusinessRule(err.Error())
	}

	if err := s.scheduleRepo.Save(ctx, schedule); err != nil {
		s.logger.WithError(err).Error("Failed to save dock schedule", "scheduleId", scheduleID)
		return nil, fmt.Errorf("failed to save dock schedule: %w", err)
	}

	// Events are saved to outbox by repository in transaction

	s.logger.Info("Dock schedule transitioned", "scheduleId", scheduleID, "from", from, "to", schedule.Status)
	return ToDockScheduleDTO(schedule), nil
}

// GetDock retrieves a dock by ID
func (s *DockApplicationService) GetDock(ctx context.Context, query GetDockQuery) (*DockDTO, error) {
	dock, err := s.dockRepo.FindByID(ctx, query.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", query.DockID)
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	if dock == nil {
		return nil, apperrors.ErrNotFound("dock")
	}

	return ToDockDTO(dock), nil
}

// GetDocks retrieves docks for a warehouse
func (s *DockApplicationService) GetDocks(ctx context.Context, query GetDocksQuery) ([]DockDTO, error) {
	docks, err := s.dockRepo.FindByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get docks", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to get docks: %w", err)
	}

	return ToDockDTOs(docks), nil
}

// GetDockSchedule retrieves a schedule by ID
func (s *DockApplicationService) GetDockSchedule(ctx context.Context, query GetDockScheduleQuery) (*DockScheduleDTO, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, query.ScheduleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock schedule", "scheduleId", query.ScheduleID)
		return nil, fmt.Errorf("failed to get dock schedule: %w", err)
	}
	if schedule == nil {
		return nil, apperrors.ErrNotFound("dock schedule")
	}

	return ToDockScheduleDTO(schedule), nil
}

// FindAvailableSlots finds free windows on a dock within its operating day
// that can hold an appointment of the requested duration.
func (s *DockApplicationService) FindAvailableSlots(ctx context.Context, query FindAvailableSlotsQuery) ([]TimeWindowDTO, error) {
	day, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		return nil, apperrors.ErrValidation("date must be YYYY-MM-DD")
	}
	if query.DurationMinutes <= 0 {
		return nil, apperrors.ErrValidation("duration must be positive")
	}

	dock, err := s.dockRepo.FindByID(ctx, query.DockID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get dock", "dockId", query.DockID)
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	if dock == nil {
		return nil, apperrors.ErrNotFound("dock")
	}
	if !dock.IsSchedulable() {
		return []TimeWindowDTO{}, nil
	}

	schedules, err := s.scheduleRepo.FindByDockAndDate(ctx, query.DockID, query.Date)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load dock schedules", "dockId", query.DockID)
		return nil, fmt.Errorf("failed to load dock schedules: %w", err)
	}

	operating := domain.TimeWindow{Start: day, End: day.Add(24 * time.Hour)}
	windows := domain.FreeWindows(operating, schedules, query.DurationMinutes)
	return ToTimeWindowDTOs(windows), nil
}

// GetAvailability returns the hourly availability grid for every dock of a
// warehouse on one day.
func (s *DockApplicationService) GetAvailability(ctx context.Context, query GetDockAvailabilityQuery) ([]DockAvailabilityDTO, error) {
	day, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		return nil, apperrors.ErrValidation("date must be YYYY-MM-DD")
	}

	docks, err := s.dockRepo.FindByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get docks", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to get docks: %w", err)
	}

	grids := make([]DockAvailabilityDTO, 0, len(docks))
	for _, dock := range docks {
		schedules, err := s.scheduleRepo.FindByDockAndDate(ctx, dock.DockID, query.Date)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load dock schedules", "dockId", dock.DockID)
			return nil, fmt.Errorf("failed to load dock schedules: %w", err)
		}
		grids = append(grids, DockAvailabilityDTO{
			DockID: dock.DockID,
			Code:   dock.Code,
			Date:   query.Date,
			Slots:  domain.HourlyAvailability(dock, schedules, day),
		})
	}
	return grids, nil
}

// GetUtilization aggregates appointment outcomes per dock over a date range
func (s *DockApplicationService) GetUtilization(ctx context.Context, query GetDockUtilizationQuery) ([]domain.DockUtilization, error) {
	from, err := time.Parse("2006-01-02", query.FromDate)
	if err != nil {
		return nil, apperrors.ErrValidation("fromDate must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", query.ToDate)
	if err != nil {
		return nil, apperrors.ErrValidation("toDate must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, apperrors.ErrValidation("toDate must not be before fromDate")
	}

	schedules, err := s.scheduleRepo.FindByDateRange(ctx, query.FromDate, query.ToDate)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load dock schedules", "from", query.FromDate, "to", query.ToDate)
		return nil, fmt.Errorf("failed to load dock schedules: %w", err)
	}

	days := int(to.Sub(from).Hours()/24) + 1
	return domain.ComputeDockUtilization(schedules, days), nil
}
