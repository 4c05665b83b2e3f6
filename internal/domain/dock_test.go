package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(h, m, h2, m2 int) (time.Time, time.Time) {
	day := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute),
		day.Add(time.Duration(h2)*time.Hour + time.Duration(m2)*time.Minute)
}

func createTestSchedule(t *testing.T, dockID string, startH, startM, endH, endM int) *DockSchedule {
	t.Helper()
	start, end := testWindow(startH, startM, endH, endM)
	schedule, err := NewDockSchedule("SCH-"+dockID, dockID, "", "ACME Freight", "TRK-42", start, end)
	require.NoError(t, err)
	return schedule
}

func TestNewDockSchedule(t *testing.T) {
	t.Run("creates scheduled appointment", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)

		assert.Equal(t, ScheduleStatusScheduled, schedule.Status)
		assert.Equal(t, "2025-07-14", schedule.ScheduledDate)
		assert.Equal(t, 60, schedule.ScheduledMinutes())
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		start, end := testWindow(11, 0, 10, 0)
		_, err := NewDockSchedule("SCH-X", "DOCK-01", "", "ACME", "", start, end)
		assert.ErrorIs(t, err, ErrInvalidScheduleWindow)
	})
}

func TestCheckWindowFree(t *testing.T) {
	existing := []*DockSchedule{createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)}

	t.Run("overlapping window rejected", func(t *testing.T) {
		start, end := testWindow(10, 30, 11, 30)
		assert.ErrorIs(t, CheckWindowFree(existing, start, end, ""), ErrScheduleOverlap)
	})

	t.Run("contained window rejected", func(t *testing.T) {
		start, end := testWindow(10, 15, 10, 45)
		assert.ErrorIs(t, CheckWindowFree(existing, start, end, ""), ErrScheduleOverlap)
	})

	t.Run("touching boundary is not an overlap", func(t *testing.T) {
		start, end := testWindow(11, 0, 12, 0)
		assert.NoError(t, CheckWindowFree(existing, start, end, ""))

		start, end = testWindow(9, 0, 10, 0)
		assert.NoError(t, CheckWindowFree(existing, start, end, ""))
	})

	t.Run("cancelled schedule frees its window", func(t *testing.T) {
		cancelled := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		require.NoError(t, cancelled.Cancel())

		start, end := testWindow(10, 30, 11, 30)
		assert.NoError(t, CheckWindowFree([]*DockSchedule{cancelled}, start, end, ""))
	})

	t.Run("no-show schedule keeps blocking its window", func(t *testing.T) {
		noShow := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		require.NoError(t, noShow.MarkNoShow())

		start, end := testWindow(10, 30, 11, 30)
		assert.ErrorIs(t, CheckWindowFree([]*DockSchedule{noShow}, start, end, ""), ErrScheduleOverlap)
	})

	t.Run("schedule does not conflict with itself on update", func(t *testing.T) {
		start, end := testWindow(10, 30, 11, 30)
		assert.NoError(t, CheckWindowFree(existing, start, end, existing[0].ScheduleID))
	})
}

func TestDockSchedule_StateMachine(t *testing.T) {
	t.Run("scheduled confirm start complete", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)

		require.NoError(t, schedule.Confirm())
		assert.Equal(t, ScheduleStatusConfirmed, schedule.Status)

		require.NoError(t, schedule.Start())
		assert.Equal(t, ScheduleStatusInProgress, schedule.Status)
		assert.NotNil(t, schedule.ActualStartTime)

		require.NoError(t, schedule.Complete())
		assert.Equal(t, ScheduleStatusCompleted, schedule.Status)
		assert.NotNil(t, schedule.ActualEndTime)
	})

	t.Run("start allowed directly from scheduled", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		assert.NoError(t, schedule.Start())
	})

	t.Run("complete requires in_progress", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		assert.ErrorIs(t, schedule.Complete(), ErrInvalidStatusTransition)

		require.NoError(t, schedule.Confirm())
		assert.ErrorIs(t, schedule.Complete(), ErrInvalidStatusTransition)
	})

	t.Run("cancel rejected once in progress", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		require.NoError(t, schedule.Start())
		assert.ErrorIs(t, schedule.Cancel(), ErrInvalidStatusTransition)
	})

	t.Run("cancel rejected when already final", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		require.NoError(t, schedule.Cancel())
		assert.ErrorIs(t, schedule.Cancel(), ErrInvalidStatusTransition)
	})

	t.Run("no show from confirmed", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		require.NoError(t, schedule.Confirm())
		require.NoError(t, schedule.MarkNoShow())
		assert.Equal(t, ScheduleStatusNoShow, schedule.Status)
	})
}

func TestDockSchedule_Reschedule(t *testing.T) {
	t.Run("moves the window", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		start, end := testWindow(14, 0, 15, 30)

		require.NoError(t, schedule.Reschedule("DOCK-02", start, end))
		assert.Equal(t, "DOCK-02", schedule.DockID)
		assert.Equal(t, 90, schedule.ScheduledMinutes())
	})

	t.Run("rejected once completed", func(t *testing.T) {
		schedule := createTestSchedule(t, "DOCK-01", 10, 0, 11, 0)
		require.NoError(t, schedule.Start())
		require.NoError(t, schedule.Complete())

		start, end := testWindow(14, 0, 15, 0)
		assert.ErrorIs(t, schedule.Reschedule("DOCK-01", start, end), ErrScheduleNotEditable)
	})
}

func TestFreeWindows(t *testing.T) {
	opStart, opEnd := testWindow(0, 0, 24, 0)
	operating := TimeWindow{Start: opStart, End: opEnd}

	t.Run("subtracts each schedule independently", func(t *testing.T) {
		schedules := []*DockSchedule{
			createTestSchedule(t, "DOCK-01", 9, 0, 10, 0),
			createTestSchedule(t, "DOCK-01", 13, 0, 14, 30),
		}

		windows := FreeWindows(operating, schedules, 60)
		require.Len(t, windows, 3)
		assert.Equal(t, opStart, windows[0].Start)
		assert.Equal(t, schedules[0].ScheduledStart, windows[0].End)
		assert.Equal(t, schedules[0].ScheduledEnd, windows[1].Start)
		assert.Equal(t, schedules[1].ScheduledStart, windows[1].End)
		assert.Equal(t, schedules[1].ScheduledEnd, windows[2].Start)
		assert.Equal(t, opEnd, windows[2].End)
	})

	t.Run("drops sub-windows shorter than the duration", func(t *testing.T) {
		schedules := []*DockSchedule{
			createTestSchedule(t, "DOCK-01", 0, 30, 23, 0),
		}

		windows := FreeWindows(operating, schedules, 45)
		require.Len(t, windows, 1)
		assert.Equal(t, schedules[0].ScheduledEnd, windows[0].Start)
	})

	t.Run("cancelled schedules do not shrink windows", func(t *testing.T) {
		cancelled := createTestSchedule(t, "DOCK-01", 9, 0, 10, 0)
		require.NoError(t, cancelled.Cancel())

		windows := FreeWindows(operating, []*DockSchedule{cancelled}, 60)
		require.Len(t, windows, 1)
		assert.Equal(t, operating, windows[0])
	})
}

func TestHourlyAvailability(t *testing.T) {
	day := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	dock := NewLoadingDock("DOCK-01", "D-01", "WH-01", DockTypeTruck, true, 18)

	t.Run("slots intersecting a schedule are blocked", func(t *testing.T) {
		schedules := []*DockSchedule{createTestSchedule(t, "DOCK-01", 10, 30, 12, 30)}

		slots := HourlyAvailability(dock, schedules, day)
		require.Len(t, slots, 24)
		assert.True(t, slots[9].Available)
		assert.False(t, slots[10].Available)
		assert.False(t, slots[11].Available)
		assert.False(t, slots[12].Available)
		assert.True(t, slots[13].Available)
	})

	t.Run("unavailable dock blocks every slot", func(t *testing.T) {
		require.NoError(t, dock.SetStatus(DockStatusMaintenance))
		defer func() { _ = dock.SetStatus(DockStatusAvailable) }()

		slots := HourlyAvailability(dock, nil, day)
		for _, slot := range slots {
			assert.False(t, slot.Available)
		}
	})
}

func TestComputeDockUtilization(t *testing.T) {
	completed := createTestSchedule(t, "DOCK-01", 8, 0, 12, 0)
	require.NoError(t, completed.Start())
	require.NoError(t, completed.Complete())

	cancelled := createTestSchedule(t, "DOCK-01", 13, 0, 14, 0)
	require.NoError(t, cancelled.Cancel())

	noShow := createTestSchedule(t, "DOCK-02", 9, 0, 10, 0)
	require.NoError(t, noShow.MarkNoShow())

	busy := createTestSchedule(t, "DOCK-02", 8, 0, 20, 0)

	result := ComputeDockUtilization([]*DockSchedule{completed, cancelled, noShow, busy}, 1)
	require.Len(t, result, 2)

	// DOCK-02 has 720 scheduled minutes and sorts first
	assert.Equal(t, "DOCK-02", result[0].DockID)
	assert.Equal(t, 720, result[0].ScheduledMinutes)
	assert.Equal(t, 1, result[0].NoShowCount)
	assert.InDelta(t, 50.0, result[0].UtilizationPct, 0.01)

	assert.Equal(t, "DOCK-01", result[1].DockID)
	assert.Equal(t, 1, result[1].CompletedCount)
	assert.Equal(t, 1, result[1].CancelledCount)
	assert.Equal(t, 240, result[1].ScheduledMinutes)
	assert.InDelta(t, 16.67, result[1].UtilizationPct, 0.01)
}
