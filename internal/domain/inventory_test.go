package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRecord(t *testing.T, available int) *InventoryRecord {
	t.Helper()
	record, err := NewInventoryRecord("SKU-001", "LOC-A1", "WH-01", available, time.Now(), "", "", nil)
	require.NoError(t, err)
	return record
}

func TestNewInventoryRecord(t *testing.T) {
	t.Run("creates record with received quantity available", func(t *testing.T) {
		record := createTestRecord(t, 100)

		assert.Equal(t, 100, record.AvailableQuantity)
		assert.Equal(t, 0, record.AllocatedQuantity)
		assert.Len(t, record.DomainEvents, 1)
		assert.Equal(t, "inventory.received", record.DomainEvents[0].EventType())
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewInventoryRecord("SKU-001", "LOC-A1", "WH-01", 0, time.Now(), "", "", nil)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

// Total quantity must be conserved across any allocate/release sequence.
func TestInventoryRecord_Conservation(t *testing.T) {
	record := createTestRecord(t, 100)
	total := record.TotalQuantity()

	require.NoError(t, record.Allocate(30))
	assert.Equal(t, total, record.TotalQuantity())

	require.NoError(t, record.Allocate(50))
	assert.Equal(t, total, record.TotalQuantity())

	require.NoError(t, record.Release(20))
	assert.Equal(t, total, record.TotalQuantity())

	require.NoError(t, record.Release(60))
	assert.Equal(t, total, record.TotalQuantity())
	assert.Equal(t, 100, record.AvailableQuantity)
	assert.Equal(t, 0, record.AllocatedQuantity)
}

func TestInventoryRecord_Allocate(t *testing.T) {
	tests := []struct {
		name          string
		available     int
		quantity      int
		expectError   error
		wantAvailable int
		wantAllocated int
	}{
		{
			name:          "full allocation",
			available:     10,
			quantity:      10,
			wantAvailable: 0,
			wantAllocated: 10,
		},
		{
			name:          "partial allocation",
			available:     10,
			quantity:      4,
			wantAvailable: 6,
			wantAllocated: 4,
		},
		{
			name:          "insufficient inventory leaves record unchanged",
			available:     5,
			quantity:      6,
			expectError:   ErrInsufficientInventory,
			wantAvailable: 5,
			wantAllocated: 0,
		},
		{
			name:          "zero quantity rejected",
			available:     5,
			quantity:      0,
			expectError:   ErrInvalidQuantity,
			wantAvailable: 5,
			wantAllocated: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := createTestRecord(t, tt.available)
			err := record.Allocate(tt.quantity)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAvailable, record.AvailableQuantity)
			assert.Equal(t, tt.wantAllocated, record.AllocatedQuantity)
		})
	}
}

func TestInventoryRecord_Release(t *testing.T) {
	record := createTestRecord(t, 10)
	require.NoError(t, record.Allocate(8))

	t.Run("release beyond allocated fails", func(t *testing.T) {
		assert.ErrorIs(t, record.Release(9), ErrReleaseExceedsAlloc)
	})

	t.Run("release returns quantity to available", func(t *testing.T) {
		require.NoError(t, record.Release(3))
		assert.Equal(t, 5, record.AvailableQuantity)
		assert.Equal(t, 5, record.AllocatedQuantity)
	})
}

func TestInventoryRecord_ShipOut(t *testing.T) {
	record := createTestRecord(t, 10)
	require.NoError(t, record.Allocate(6))

	require.NoError(t, record.ShipOut(6))
	assert.Equal(t, 4, record.AvailableQuantity)
	assert.Equal(t, 0, record.AllocatedQuantity)
	assert.Equal(t, 4, record.TotalQuantity())
}
