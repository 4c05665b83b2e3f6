package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

type fakeDockRepo struct {
	docks   map[string]*domain.LoadingDock
	saveErr error
	findErr error
}

func (f *fakeDockRepo) Save(ctx context.Context, dock *domain.LoadingDock) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.docks == nil {
		f.docks = make(map[string]*domain.LoadingDock)
	}
	f.docks[dock.DockID] = dock
	return nil
}

func (f *fakeDockRepo) FindByID(ctx context.Context, dockID string) (*domain.LoadingDock, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.docks[dockID], nil
}

func (f *fakeDockRepo) FindByWarehouse(ctx context.Context, warehouseID string) ([]*domain.LoadingDock, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.LoadingDock, 0)
	for _, dock := range f.docks {
		if dock.WarehouseID == warehouseID {
			results = append(results, dock)
		}
	}
	return results, nil
}

func (f *fakeDockRepo) FindAll(ctx context.Context) ([]*domain.LoadingDock, error) {
	results := make([]*domain.LoadingDock, 0)
	for _, dock := range f.docks {
		results = append(results, dock)
	}
	return results, nil
}

type fakeDockScheduleRepo struct {
	schedules map[string]*domain.DockSchedule
	saveErr   error
	findErr   error
}

func (f *fakeDockScheduleRepo) Save(ctx context.Context, schedule *domain.DockSchedule) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.schedules == nil {
		f.schedules = make(map[string]*domain.DockSchedule)
	}
	f.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (f *fakeDockScheduleRepo) FindByID(ctx context.Context, scheduleID string) (*domain.DockSchedule, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.schedules[scheduleID], nil
}

func (f *fakeDockScheduleRepo) FindByDockAndDate(ctx context.Context, dockID, date string) ([]*domain.DockSchedule, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.DockSchedule, 0)
	for _, schedule := range f.schedules {
		if schedule.DockID == dockID && schedule.ScheduledDate == date {
			results = append(results, schedule)
		}
	}
	return results, nil
}

func (f *fakeDockScheduleRepo) FindByDateRange(ctx context.Context, from, to string) ([]*domain.DockSchedule, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	results := make([]*domain.DockSchedule, 0)
	for _, schedule := range f.schedules {
		if schedule.ScheduledDate >= from && schedule.ScheduledDate <= to {
			results = append(results, schedule)
		}
	}
	return results, nil
}

func (f *fakeDockScheduleRepo) FindByLoadPlanID(ctx context.Context, loadPlanID string) (*domain.DockSchedule, error) {
	for _, schedule := range f.schedules {
		if schedule.LoadPlanID == loadPlanID {
			return schedule, nil
		}
	}
	return nil, nil
}

func (f *fakeDockScheduleRepo) SaveWithDock(ctx context.Context, schedule *domain.DockSchedule, dock *domain.LoadingDock) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.schedules == nil {
		f.schedules = make(map[string]*domain.DockSchedule)
	}
	f.schedules[schedule.ScheduleID] = schedule
	return nil
}

func newDockTestService(dockRepo *fakeDockRepo, scheduleRepo *fakeDockScheduleRepo, loadPlanRepo *fakeLoadPlanRepo) *DockApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	return NewDockApplicationService(dockRepo, scheduleRepo, loadPlanRepo, nil, nil, logger)
}

func newTestDock(dockID string) *domain.LoadingDock {
	return domain.NewLoadingDock(dockID, "D-01", "WH-1", domain.DockTypeTruck, true, 16.5)
}

func newTestSchedule(t *testing.T, scheduleID, dockID string, start, end time.Time) *domain.DockSchedule {
	t.Helper()
	schedule, err := domain.NewDockSchedule(scheduleID, dockID, "", "FastFreight", "TRK-1", start, end)
	require.NoError(t, err)
	return schedule
}

func TestDockApplicationService_CreateDock(t *testing.T) {
	dockRepo := &fakeDockRepo{}
	svc := newDockTestService(dockRepo, &fakeDockScheduleRepo{}, &fakeLoadPlanRepo{})

	dto, err := svc.CreateDock(context.Background(), CreateDockCommand{
		Code:             "D-01",
		WarehouseID:      "WH-1",
		DockType:         domain.DockTypeTruck,
		HasLeveler:       true,
		MaxVehicleLength: 16.5,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.DockStatusAvailable), dto.Status)
	assert.Len(t, dockRepo.docks, 1)

	_, err = svc.CreateDock(context.Background(), CreateDockCommand{Code: "", WarehouseID: "WH-1"})
	assert.Error(t, err)
}

func TestDockApplicationService_CreateDockSchedule(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("books a free window", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		scheduleRepo := &fakeDockScheduleRepo{}
		svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

		dto, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			CarrierName: "FastFreight",
			Start:       base,
			End:         base.Add(2 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.ScheduleStatusScheduled), dto.Status)
		assert.Equal(t, "2026-03-10", dto.ScheduledDate)
		assert.Len(t, scheduleRepo.schedules, 1)
	})

	t.Run("rejects an overlapping window", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		existing := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))
		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": existing}}
		svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

		_, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			CarrierName: "FastFreight",
			Start:       base.Add(1 * time.Hour),
			End:         base.Add(3 * time.Hour),
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})

	t.Run("a no-show appointment still blocks its window", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		existing := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))
		require.NoError(t, existing.Confirm())
		require.NoError(t, existing.MarkNoShow())
		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": existing}}
		svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

		_, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			CarrierName: "FastFreight",
			Start:       base.Add(1 * time.Hour),
			End:         base.Add(3 * time.Hour),
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})

	t.Run("allows windows that touch at a boundary", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		existing := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))
		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": existing}}
		svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

		_, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			CarrierName: "FastFreight",
			Start:       base.Add(2 * time.Hour),
			End:         base.Add(4 * time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("rejects booking on an occupied dock", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		dock.MarkOccupied()
		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		svc := newDockTestService(dockRepo, &fakeDockScheduleRepo{}, &fakeLoadPlanRepo{})

		_, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			CarrierName: "FastFreight",
			Start:       base,
			End:         base.Add(time.Hour),
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})

	t.Run("rejects booking on a dock under maintenance", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		require.NoError(t, dock.SetStatus(domain.DockStatusMaintenance))
		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		svc := newDockTestService(dockRepo, &fakeDockScheduleRepo{}, &fakeLoadPlanRepo{})

		_, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			CarrierName: "FastFreight",
			Start:       base,
			End:         base.Add(time.Hour),
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})

	t.Run("links the load plan when one is named", func(t *testing.T) {
		dock := newTestDock("DOCK-1")
		plan, err := domain.NewLoadPlan("LOAD-1", "", "FastFreight", "WH-1", []string{"SHP-1"}, 100, 2, 0, 0)
		require.NoError(t, err)

		dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
		loadPlanRepo := &fakeLoadPlanRepo{plans: map[string]*domain.LoadPlan{"LOAD-1": plan}}
		svc := newDockTestService(dockRepo, &fakeDockScheduleRepo{}, loadPlanRepo)

		dto, err := svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
			DockID:      "DOCK-1",
			LoadPlanID:  "LOAD-1",
			CarrierName: "FastFreight",
			Start:       base,
			End:         base.Add(2 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, dto.ScheduleID, plan.DockScheduleID)
		require.NotNil(t, plan.PlannedDeparture)
		assert.True(t, plan.PlannedDeparture.Equal(base.Add(2*time.Hour)))
	})
}

func TestDockApplicationService_UpdateDockSchedule(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("moving into another appointment conflicts", func(t *testing.T) {
		first := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))
		second := newTestSchedule(t, "DS-2", "DOCK-1", base.Add(3*time.Hour), base.Add(4*time.Hour))
		scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": first, "DS-2": second}}
		svc := newDockTestService(&fakeDockRepo{}, scheduleRepo, &fakeLoadPlanRepo{})

		_, err := svc.UpdateDockSchedule(context.Background(), UpdateDockScheduleCommand{
			ScheduleID: "DS-2",
			Start:      base.Add(1 * time.Hour),
			End:        base.Add(3 * time.Hour),
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})

	t.Run("a schedule does not conflict with itself", func(t *testing.T) {
		schedule := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))
		scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": schedule}}
		svc := newDockTestService(&fakeDockRepo{}, scheduleRepo, &fakeLoadPlanRepo{})

		dto, err := svc.UpdateDockSchedule(context.Background(), UpdateDockScheduleCommand{
			ScheduleID: "DS-1",
			Start:      base.Add(30 * time.Minute),
			End:        base.Add(150 * time.Minute),
		})
		require.NoError(t, err)
		assert.True(t, dto.ScheduledStart.Equal(base.Add(30 * time.Minute)))
	})

	t.Run("rejects editing a completed schedule", func(t *testing.T) {
		schedule := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(time.Hour))
		require.NoError(t, schedule.Start())
		require.NoError(t, schedule.Complete())
		scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": schedule}}
		svc := newDockTestService(&fakeDockRepo{}, scheduleRepo, &fakeLoadPlanRepo{})

		_, err := svc.UpdateDockSchedule(context.Background(), UpdateDockScheduleCommand{
			ScheduleID: "DS-1",
			Start:      base.Add(5 * time.Hour),
			End:        base.Add(6 * time.Hour),
		})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})
}

func TestDockApplicationService_ScheduleLifecycle(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	dock := newTestDock("DOCK-1")
	schedule := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))

	dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
	scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": schedule}}
	svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

	dto, err := svc.ConfirmSchedule(context.Background(), ScheduleActionCommand{ScheduleID: "DS-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ScheduleStatusConfirmed), dto.Status)

	dto, err = svc.StartSchedule(context.Background(), ScheduleActionCommand{ScheduleID: "DS-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ScheduleStatusInProgress), dto.Status)
	assert.NotNil(t, dto.ActualStartTime)
	assert.Equal(t, domain.DockStatusOccupied, dock.Status)

	dto, err = svc.CompleteSchedule(context.Background(), ScheduleActionCommand{ScheduleID: "DS-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ScheduleStatusCompleted), dto.Status)
	assert.NotNil(t, dto.ActualEndTime)
	assert.Equal(t, domain.DockStatusAvailable, dock.Status)

	// completed schedules accept no further transitions
	_, err = svc.CancelSchedule(context.Background(), ScheduleActionCommand{ScheduleID: "DS-1"})
	assert.Error(t, err)
}

func TestDockApplicationService_MarkNoShow(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	schedule := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(time.Hour))
	scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": schedule}}
	svc := newDockTestService(&fakeDockRepo{}, scheduleRepo, &fakeLoadPlanRepo{})

	dto, err := svc.MarkNoShow(context.Background(), ScheduleActionCommand{ScheduleID: "DS-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ScheduleStatusNoShow), dto.Status)

	// the freed window can be booked again
	dock := newTestDock("DOCK-1")
	svc = newDockTestService(&fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}, scheduleRepo, &fakeLoadPlanRepo{})
	_, err = svc.CreateDockSchedule(context.Background(), CreateDockScheduleCommand{
		DockID:      "DOCK-1",
		CarrierName: "FastFreight",
		Start:       base,
		End:         base.Add(time.Hour),
	})
	assert.NoError(t, err)
}

func TestDockApplicationService_FindAvailableSlots(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	dock := newTestDock("DOCK-1")
	booked := newTestSchedule(t, "DS-1", "DOCK-1", base.Add(8*time.Hour), base.Add(10*time.Hour))

	dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
	scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": booked}}
	svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

	windows, err := svc.FindAvailableSlots(context.Background(), FindAvailableSlotsQuery{
		DockID:          "DOCK-1",
		Date:            "2026-03-10",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.True(t, windows[0].End.Equal(base.Add(8*time.Hour)))
	assert.True(t, windows[1].Start.Equal(base.Add(10*time.Hour)))
	assert.Equal(t, 480, windows[0].Minutes)

	// a long appointment no longer fits anywhere
	windows, err = svc.FindAvailableSlots(context.Background(), FindAvailableSlotsQuery{
		DockID:          "DOCK-1",
		Date:            "2026-03-10",
		DurationMinutes: 900,
	})
	require.NoError(t, err)
	assert.Empty(t, windows)

	_, err = svc.FindAvailableSlots(context.Background(), FindAvailableSlotsQuery{
		DockID:          "DOCK-1",
		Date:            "10/03/2026",
		DurationMinutes: 60,
	})
	assert.Error(t, err)
}

func TestDockApplicationService_GetAvailability(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	dock := newTestDock("DOCK-1")
	booked := newTestSchedule(t, "DS-1", "DOCK-1", base.Add(9*time.Hour), base.Add(11*time.Hour))

	dockRepo := &fakeDockRepo{docks: map[string]*domain.LoadingDock{"DOCK-1": dock}}
	scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": booked}}
	svc := newDockTestService(dockRepo, scheduleRepo, &fakeLoadPlanRepo{})

	grids, err := svc.GetAvailability(context.Background(), GetDockAvailabilityQuery{
		WarehouseID: "WH-1",
		Date:        "2026-03-10",
	})
	require.NoError(t, err)
	require.Len(t, grids, 1)
	require.Len(t, grids[0].Slots, 24)
	assert.True(t, grids[0].Slots[8].Available)
	assert.False(t, grids[0].Slots[9].Available)
	assert.False(t, grids[0].Slots[10].Available)
	assert.True(t, grids[0].Slots[11].Available)
}

func TestDockApplicationService_GetUtilization(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	completed := newTestSchedule(t, "DS-1", "DOCK-1", base, base.Add(2*time.Hour))
	require.NoError(t, completed.Start())
	require.NoError(t, completed.Complete())
	noShow := newTestSchedule(t, "DS-2", "DOCK-1", base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, noShow.MarkNoShow())

	scheduleRepo := &fakeDockScheduleRepo{schedules: map[string]*domain.DockSchedule{"DS-1": completed, "DS-2": noShow}}
	svc := newDockTestService(&fakeDockRepo{}, scheduleRepo, &fakeLoadPlanRepo{})

	utilization, err := svc.GetUtilization(context.Background(), GetDockUtilizationQuery{
		FromDate: "2026-03-10",
		ToDate:   "2026-03-10",
	})
	require.NoError(t, err)
	require.Len(t, utilization, 1)
	assert.Equal(t, "DOCK-1", utilization[0].DockID)
	assert.Equal(t, 1, utilization[0].CompletedCount)
	assert.Equal(t, 1, utilization[0].NoShowCount)
	assert.Equal(t, 120, utilization[0].ScheduledMinutes)
	assert.InDelta(t, 120.0/1440.0*100, utilization[0].UtilizationPct, 0.01)

	_, err = svc.GetUtilization(context.Background(), GetDockUtilizationQuery{
		FromDate: "2026-03-10",
		ToDate:   "2026-03-09",
	})
	assert.Error(t, err)
}
