package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAllocation(t *testing.T, quantity int, expiresAt *time.Time) *OrderAllocation {
	t.Helper()
	record := createTestRecord(t, 100)
	allocation, err := NewOrderAllocation("ALLOC-001", "SO-001", "SO-001-1", record, quantity, StrategyFIFO, expiresAt)
	require.NoError(t, err)
	return allocation
}

func TestNewOrderAllocation(t *testing.T) {
	t.Run("creates allocation in allocated status", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)

		assert.Equal(t, AllocationStatusAllocated, allocation.Status)
		assert.Equal(t, 10, allocation.AllocatedQuantity)
		assert.Equal(t, 0, allocation.PickedQuantity)
		assert.Equal(t, "SKU-001", allocation.SKU)
		assert.Len(t, allocation.DomainEvents, 1)
	})

	t.Run("rejects invalid strategy", func(t *testing.T) {
		record := createTestRecord(t, 100)
		_, err := NewOrderAllocation("ALLOC-001", "SO-001", "SO-001-1", record, 10, AllocationStrategy("bogus"), nil)
		assert.ErrorIs(t, err, ErrInvalidStrategy)
	})
}

func TestOrderAllocation_RecordPick(t *testing.T) {
	t.Run("partial pick advances to partially_picked", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)

		require.NoError(t, allocation.RecordPick(4))
		assert.Equal(t, AllocationStatusPartiallyPicked, allocation.Status)
		assert.Equal(t, 4, allocation.PickedQuantity)
	})

	t.Run("full pick advances to picked", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)

		require.NoError(t, allocation.RecordPick(6))
		require.NoError(t, allocation.RecordPick(4))
		assert.Equal(t, AllocationStatusPicked, allocation.Status)
	})

	t.Run("pick beyond allocated quantity fails", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)

		require.NoError(t, allocation.RecordPick(8))
		assert.ErrorIs(t, allocation.RecordPick(3), ErrPickExceedsAllocated)
	})

	t.Run("pick on cancelled allocation fails", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)
		_, err := allocation.Cancel()
		require.NoError(t, err)

		assert.ErrorIs(t, allocation.RecordPick(1), ErrAllocationCancelled)
	})
}

func TestOrderAllocation_Cancel(t *testing.T) {
	t.Run("cancel returns unpicked delta", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)
		require.NoError(t, allocation.RecordPick(3))

		remaining, err := allocation.Cancel()
		require.NoError(t, err)
		assert.Equal(t, 7, remaining)
		assert.Equal(t, AllocationStatusCancelled, allocation.Status)
	})

	t.Run("double cancel fails", func(t *testing.T) {
		allocation := createTestAllocation(t, 10, nil)
		_, err := allocation.Cancel()
		require.NoError(t, err)

		_, err = allocation.Cancel()
		assert.ErrorIs(t, err, ErrAllocationCancelled)
	})
}

func TestOrderAllocation_IsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		cancelled bool
		want      bool
	}{
		{"expired allocation", &past, false, true},
		{"future expiry", &future, false, false},
		{"no expiry", nil, false, false},
		{"cancelled allocation never expires", &past, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocation := createTestAllocation(t, 10, tt.expiresAt)
			if tt.cancelled {
				_, err := allocation.Cancel()
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, allocation.IsExpired(now))
		})
	}
}

func TestBackorder(t *testing.T) {
	t.Run("opens with shortfall quantity", func(t *testing.T) {
		backorder, err := NewBackorder("BO-001", "SO-001", "SO-001-1", "SKU-001", 15, StrategyFEFO)
		require.NoError(t, err)

		assert.Equal(t, BackorderStatusOpen, backorder.Status)
		assert.Equal(t, 15, backorder.Quantity)
	})

	t.Run("fulfill closes the backorder", func(t *testing.T) {
		backorder, err := NewBackorder("BO-001", "SO-001", "SO-001-1", "SKU-001", 15, StrategyFIFO)
		require.NoError(t, err)

		require.NoError(t, backorder.Fulfill())
		assert.Equal(t, BackorderStatusFulfilled, backorder.Status)
		assert.ErrorIs(t, backorder.Fulfill(), ErrBackorderClosed)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewBackorder("BO-001", "SO-001", "SO-001-1", "SKU-001", 0, StrategyFIFO)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}
