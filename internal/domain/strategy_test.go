package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordAt(t *testing.T, location string, received time.Time, expiry *time.Time) *InventoryRecord {
	t.Helper()
	record, err := NewInventoryRecord("SKU-001", location, "WH-01", 10, received, "", "", expiry)
	require.NoError(t, err)
	return record
}

func dayPtr(d time.Time) *time.Time { return &d }

func TestAllocationStrategy_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		strategy AllocationStrategy
		want     bool
	}{
		{"fifo is valid", StrategyFIFO, true},
		{"lifo is valid", StrategyLIFO, true},
		{"fefo is valid", StrategyFEFO, true},
		{"manual is valid", StrategyManual, true},
		{"unknown is invalid", AllocationStrategy("random"), false},
		{"empty is invalid", AllocationStrategy(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.IsValid())
		})
	}
}

func TestOrderCandidates(t *testing.T) {
	day := func(n int) time.Time {
		return time.Date(2025, 6, n, 0, 0, 0, 0, time.UTC)
	}

	t.Run("fifo orders by received date ascending", func(t *testing.T) {
		records := []*InventoryRecord{
			recordAt(t, "LOC-C", day(3), nil),
			recordAt(t, "LOC-A", day(1), nil),
			recordAt(t, "LOC-B", day(2), nil),
		}

		require.NoError(t, OrderCandidates(records, StrategyFIFO))
		assert.Equal(t, []string{"LOC-A", "LOC-B", "LOC-C"}, locationOrder(records))
	})

	t.Run("lifo orders by received date descending", func(t *testing.T) {
		records := []*InventoryRecord{
			recordAt(t, "LOC-A", day(1), nil),
			recordAt(t, "LOC-C", day(3), nil),
			recordAt(t, "LOC-B", day(2), nil),
		}

		require.NoError(t, OrderCandidates(records, StrategyLIFO))
		assert.Equal(t, []string{"LOC-C", "LOC-B", "LOC-A"}, locationOrder(records))
	})

	t.Run("fefo orders by expiry ascending", func(t *testing.T) {
		records := []*InventoryRecord{
			recordAt(t, "LOC-B", day(1), dayPtr(day(20))),
			recordAt(t, "LOC-C", day(1), dayPtr(day(25))),
			recordAt(t, "LOC-A", day(1), dayPtr(day(15))),
		}

		require.NoError(t, OrderCandidates(records, StrategyFEFO))
		assert.Equal(t, []string{"LOC-A", "LOC-B", "LOC-C"}, locationOrder(records))
	})

	t.Run("fefo places records without expiry last", func(t *testing.T) {
		records := []*InventoryRecord{
			recordAt(t, "LOC-A", day(1), nil),
			recordAt(t, "LOC-B", day(1), dayPtr(day(15))),
		}

		require.NoError(t, OrderCandidates(records, StrategyFEFO))
		assert.Equal(t, []string{"LOC-B", "LOC-A"}, locationOrder(records))
	})

	t.Run("manual preserves caller order", func(t *testing.T) {
		records := []*InventoryRecord{
			recordAt(t, "LOC-C", day(3), nil),
			recordAt(t, "LOC-A", day(1), nil),
			recordAt(t, "LOC-B", day(2), nil),
		}

		require.NoError(t, OrderCandidates(records, StrategyManual))
		assert.Equal(t, []string{"LOC-C", "LOC-A", "LOC-B"}, locationOrder(records))
	})

	t.Run("invalid strategy rejected", func(t *testing.T) {
		err := OrderCandidates(nil, AllocationStrategy("random"))
		assert.ErrorIs(t, err, ErrInvalidStrategy)
	})
}

func locationOrder(records []*InventoryRecord) []string {
	order := make([]string, len(records))
	for i, r := range records {
		order[i] = r.LocationID
	}
	return order
}
