package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []CartonType {
	return []CartonType{
		*NewCartonType("CTN-S", "Small", 20, 15, 10, 5, 0.2),    // 3,000 cm3
		*NewCartonType("CTN-M", "Medium", 40, 30, 20, 15, 0.4),  // 24,000 cm3
		*NewCartonType("CTN-L", "Large", 60, 40, 40, 25, 0.8),   // 96,000 cm3
	}
}

func TestRecommendCarton(t *testing.T) {
	t.Run("prefers the tighter fit", func(t *testing.T) {
		// 2,400 cm3, 2 kg: small fits with buffer, medium is oversized
		items := []PackItem{{SKU: "SKU-001", Quantity: 2, LengthCm: 20, WidthCm: 15, HeightCm: 4, WeightKg: 1}}

		rec, ok := RecommendCarton(items, testCatalog())
		require.True(t, ok)
		assert.Equal(t, "CTN-S", rec.Best.CartonType.CartonTypeID)
		assert.Greater(t, rec.Best.Score, rec.RunnersUp[0].Score)
	})

	t.Run("volume buffer excludes a nominally sufficient carton", func(t *testing.T) {
		// 2,800 cm3 raw fits the small carton, but 10% buffer pushes it past 3,000
		items := []PackItem{{SKU: "SKU-001", Quantity: 1, LengthCm: 20, WidthCm: 14, HeightCm: 10, WeightKg: 1}}

		rec, ok := RecommendCarton(items, testCatalog())
		require.True(t, ok)
		assert.Equal(t, "CTN-M", rec.Best.CartonType.CartonTypeID)
	})

	t.Run("weight buffer excludes an overweight match", func(t *testing.T) {
		// tiny volume but 4.9 kg: 5% buffer exceeds the small carton's 5 kg cap
		items := []PackItem{{SKU: "SKU-001", Quantity: 1, LengthCm: 5, WidthCm: 5, HeightCm: 5, WeightKg: 4.9}}

		rec, ok := RecommendCarton(items, testCatalog())
		require.True(t, ok)
		assert.Equal(t, "CTN-M", rec.Best.CartonType.CartonTypeID)
	})

	t.Run("returns at most two runners-up", func(t *testing.T) {
		items := []PackItem{{SKU: "SKU-001", Quantity: 1, LengthCm: 10, WidthCm: 10, HeightCm: 10, WeightKg: 1}}

		rec, ok := RecommendCarton(items, testCatalog())
		require.True(t, ok)
		assert.LessOrEqual(t, len(rec.RunnersUp), 2)
	})

	t.Run("no single carton fits", func(t *testing.T) {
		items := []PackItem{{SKU: "SKU-001", Quantity: 10, LengthCm: 50, WidthCm: 40, HeightCm: 30, WeightKg: 2}}

		_, ok := RecommendCarton(items, testCatalog())
		assert.False(t, ok)
	})
}

func TestRecommendMultipleCartons(t *testing.T) {
	t.Run("splits an oversized set across cartons", func(t *testing.T) {
		// 6 units x 30,000 cm3; large carton allows 86,400 cm3 at the 90% ceiling
		items := []PackItem{{SKU: "SKU-001", Quantity: 6, LengthCm: 50, WidthCm: 30, HeightCm: 20, WeightKg: 2}}

		plan := RecommendMultipleCartons(items, testCatalog())
		assert.Empty(t, plan.Unplaced)
		require.Len(t, plan.Cartons, 3)

		placed := 0
		for _, carton := range plan.Cartons {
			assert.Equal(t, "CTN-L", carton.CartonType.CartonTypeID)
			assert.LessOrEqual(t, carton.UsedVolume, carton.CartonType.VolumeCm3*MaxCartonFillPct)
			assert.LessOrEqual(t, carton.UsedWeight, carton.CartonType.MaxWeightKg*MaxCartonWeightPct)
			for _, item := range carton.Items {
				placed += item.Quantity
			}
		}
		assert.Equal(t, 6, placed)
	})

	t.Run("weight ceiling opens additional cartons", func(t *testing.T) {
		// 10 kg units: large carton holds two at the 95% weight ceiling (23.75 kg)
		items := []PackItem{{SKU: "SKU-HEAVY", Quantity: 5, LengthCm: 10, WidthCm: 10, HeightCm: 10, WeightKg: 10}}

		plan := RecommendMultipleCartons(items, testCatalog())
		assert.Empty(t, plan.Unplaced)
		require.Len(t, plan.Cartons, 3)
	})

	t.Run("reports units no carton type can hold", func(t *testing.T) {
		items := []PackItem{
			{SKU: "SKU-OK", Quantity: 1, LengthCm: 10, WidthCm: 10, HeightCm: 10, WeightKg: 1},
			{SKU: "SKU-HUGE", Quantity: 2, LengthCm: 100, WidthCm: 100, HeightCm: 100, WeightKg: 1},
		}

		plan := RecommendMultipleCartons(items, testCatalog())
		require.Len(t, plan.Unplaced, 1)
		assert.Equal(t, "SKU-HUGE", plan.Unplaced[0].SKU)
		assert.Equal(t, 2, plan.Unplaced[0].Quantity)
		require.Len(t, plan.Cartons, 1)
	})
}
