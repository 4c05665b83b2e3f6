package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPackOrder(t *testing.T) *PackOrder {
	t.Helper()
	order, err := NewPackOrder("PACK-001", "SO-001", []PackLine{
		{SalesOrderItemID: "SO-001-1", SKU: "SKU-001", RequiredQuantity: 4},
		{SalesOrderItemID: "SO-001-2", SKU: "SKU-002", RequiredQuantity: 2},
	})
	require.NoError(t, err)
	return order
}

func TestNewPackOrder(t *testing.T) {
	t.Run("creates pending pack order", func(t *testing.T) {
		order := createTestPackOrder(t)
		assert.Equal(t, PackOrderStatusPending, order.Status)
		assert.Len(t, order.Lines, 2)
	})

	t.Run("rejects empty line list", func(t *testing.T) {
		_, err := NewPackOrder("PACK-002", "SO-002", nil)
		assert.ErrorIs(t, err, ErrNoLinesToPack)
	})
}

func TestPackOrder_Pack(t *testing.T) {
	t.Run("requires started order", func(t *testing.T) {
		order := createTestPackOrder(t)
		assert.ErrorIs(t, order.Pack("CTN-1", "CTN-M", "SKU-001", 1), ErrPackOrderNotStarted)
	})

	t.Run("records quantity into cartons", func(t *testing.T) {
		order := createTestPackOrder(t)
		require.NoError(t, order.Assign("packer-1", "STATION-3"))
		require.NoError(t, order.Start())

		require.NoError(t, order.Pack("CTN-1", "CTN-M", "SKU-001", 3))
		require.NoError(t, order.Pack("CTN-2", "CTN-S", "SKU-001", 1))
		require.NoError(t, order.Pack("CTN-1", "CTN-M", "SKU-002", 2))

		assert.Equal(t, 4, order.PackedQuantity("SKU-001"))
		assert.Equal(t, 2, order.PackedQuantity("SKU-002"))
		assert.Len(t, order.Cartons, 2)
	})

	t.Run("rejects unknown sku", func(t *testing.T) {
		order := createTestPackOrder(t)
		require.NoError(t, order.Start())
		assert.ErrorIs(t, order.Pack("CTN-1", "CTN-M", "SKU-999", 1), ErrPackLineNotFound)
	})

	t.Run("rejects packing beyond required quantity", func(t *testing.T) {
		order := createTestPackOrder(t)
		require.NoError(t, order.Start())
		require.NoError(t, order.Pack("CTN-1", "CTN-M", "SKU-002", 2))
		assert.ErrorIs(t, order.Pack("CTN-1", "CTN-M", "SKU-002", 1), ErrPackExceedsRequired)
	})
}

func TestPackOrder_Complete(t *testing.T) {
	t.Run("rejected while lines are short", func(t *testing.T) {
		order := createTestPackOrder(t)
		require.NoError(t, order.Start())
		require.NoError(t, order.Pack("CTN-1", "CTN-M", "SKU-001", 4))

		assert.False(t, order.IsComplete())
		assert.ErrorIs(t, order.Complete(), ErrPackOrderIncomplete)
	})

	t.Run("completes when every line is satisfied", func(t *testing.T) {
		order := createTestPackOrder(t)
		require.NoError(t, order.Start())
		require.NoError(t, order.Pack("CTN-1", "CTN-M", "SKU-001", 4))
		require.NoError(t, order.Pack("CTN-1", "CTN-M", "SKU-002", 2))

		assert.True(t, order.IsComplete())
		require.NoError(t, order.Complete())
		assert.Equal(t, PackOrderStatusCompleted, order.Status)
		assert.NotNil(t, order.CompletedAt)

		assert.ErrorIs(t, order.Complete(), ErrPackOrderCompleted)
	})
}
