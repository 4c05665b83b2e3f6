package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Safety buffers applied on top of the raw item totals before matching a
// carton, and fill ceilings for the multi-carton fallback packer.
const (
	VolumeBufferFactor = 1.10
	WeightBufferFactor = 1.05
	MaxCartonFillPct   = 0.90
	MaxCartonWeightPct = 0.95
)

// CartonType is a catalog entry describing one carton size.
type CartonType struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	CartonTypeID   string             `bson:"cartonTypeId"`
	Name           string             `bson:"name"`
	LengthCm       float64            `bson:"lengthCm"`
	WidthCm        float64            `bson:"widthCm"`
	HeightCm       float64            `bson:"heightCm"`
	VolumeCm3      float64            `bson:"volumeCm3"`
	MaxWeightKg    float64            `bson:"maxWeightKg"`
	TareWeightKg   float64            `bson:"tareWeightKg"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// NewCartonType creates a catalog entry; volume is derived from dimensions
// when not supplied.
func NewCartonType(cartonTypeID, name string, lengthCm, widthCm, heightCm, maxWeightKg, tareWeightKg float64) *CartonType {
	now := time.Now()
	return &CartonType{
		CartonTypeID: cartonTypeID,
		Name:         name,
		LengthCm:     lengthCm,
		WidthCm:      widthCm,
		HeightCm:     heightCm,
		VolumeCm3:    lengthCm * widthCm * heightCm,
		MaxWeightKg:  maxWeightKg,
		TareWeightKg: tareWeightKg,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PackItem is one line of goods to be packed.
type PackItem struct {
	SKU      string  `bson:"sku" json:"sku"`
	Quantity int     `bson:"quantity" json:"quantity"`
	LengthCm float64 `bson:"lengthCm" json:"lengthCm"`
	WidthCm  float64 `bson:"widthCm" json:"widthCm"`
	HeightCm float64 `bson:"heightCm" json:"heightCm"`
	WeightKg float64 `bson:"weightKg" json:"weightKg"` // per unit
}

// UnitVolume returns the volume of a single unit in cm3.
func (i PackItem) UnitVolume() float64 {
	return i.LengthCm * i.WidthCm * i.HeightCm
}

// TotalVolume returns quantity x unit volume.
func (i PackItem) TotalVolume() float64 {
	return i.UnitVolume() * float64(i.Quantity)
}

// TotalWeight returns quantity x unit weight.
func (i PackItem) TotalWeight() float64 {
	return i.WeightKg * float64(i.Quantity)
}

// CartonCandidate is one scored catalog option for an item set.
type CartonCandidate struct {
	CartonType        CartonType `json:"cartonType"`
	VolumeUtilization float64    `json:"volumeUtilization"` // 0..1 against raw totals
	WeightUtilization float64    `json:"weightUtilization"`
	Score             float64    `json:"score"` // average of the two utilizations
}

// CartonRecommendation is the outcome of single-carton selection: the best
// fit plus up to two runners-up.
type CartonRecommendation struct {
	Best      CartonCandidate   `json:"best"`
	RunnersUp []CartonCandidate `json:"runnersUp"`
}

// RecommendCarton picks the tightest-fitting carton for the item set. Totals
// are padded by the 10% volume / 5% weight buffers before matching; scoring
// uses the raw utilizations so a just-sufficient carton beats an oversized
// one. Returns false when no single carton can hold the buffered totals.
func RecommendCarton(items []PackItem, catalog []CartonType) (CartonRecommendation, bool) {
	totalVolume := 0.0
	totalWeight := 0.0
	for _, item := range items {
		totalVolume += item.TotalVolume()
		totalWeight += item.TotalWeight()
	}

	requiredVolume := totalVolume * VolumeBufferFactor
	requiredWeight := totalWeight * WeightBufferFactor

	candidates := make([]CartonCandidate, 0, len(catalog))
	for _, carton := range catalog {
		if carton.VolumeCm3 < requiredVolume || carton.MaxWeightKg < requiredWeight {
			continue
		}
		c := CartonCandidate{
			CartonType:        carton,
			VolumeUtilization: totalVolume / carton.VolumeCm3,
			WeightUtilization: totalWeight / carton.MaxWeightKg,
		}
		c.Score = (c.VolumeUtilization + c.WeightUtilization) / 2
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return CartonRecommendation{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	rec := CartonRecommendation{Best: candidates[0]}
	if len(candidates) > 1 {
		end := len(candidates)
		if end > 3 {
			end = 3
		}
		rec.RunnersUp = candidates[1:end]
	}
	return rec, true
}

// PlannedCarton is one carton of a multi-carton packing plan.
type PlannedCarton struct {
	CartonType CartonType `json:"cartonType"`
	Items      []PackItem `json:"items"`
	UsedVolume float64    `json:"usedVolume"`
	UsedWeight float64    `json:"usedWeight"`
}

// MultiCartonPlan is the fallback plan when the item set exceeds any single
// carton. Unplaced holds the remainder no carton type could hold; it is
// reported, not an error.
type MultiCartonPlan struct {
	Cartons  []PlannedCarton `json:"cartons"`
	Unplaced []PackItem      `json:"unplaced"`
}

// RecommendMultipleCartons packs the item set into multiple cartons with a
// first-fit-decreasing heuristic: units sorted by volume descending, placed
// into the current carton while it stays under the 90% volume / 95% weight
// ceilings, opening the largest carton type that fits the unit when nothing
// open can take it. The plan is heuristic, not optimal.
func RecommendMultipleCartons(items []PackItem, catalog []CartonType) MultiCartonPlan {
	// explode into single units so large lines can split across cartons
	units := make([]PackItem, 0)
	for _, item := range items {
		for q := 0; q < item.Quantity; q++ {
			unit := item
			unit.Quantity = 1
			units = append(units, unit)
		}
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].UnitVolume() > units[j].UnitVolume()
	})

	// largest first so the fallback opens the biggest usable carton
	sorted := make([]CartonType, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VolumeCm3 > sorted[j].VolumeCm3
	})

	plan := MultiCartonPlan{Cartons: make([]PlannedCarton, 0), Unplaced: make([]PackItem, 0)}

	for _, unit := range units {
		placed := false
		for i := range plan.Cartons {
			if cartonFits(&plan.Cartons[i], unit) {
				addUnit(&plan.Cartons[i], unit)
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		opened := false
		for _, carton := range sorted {
			candidate := PlannedCarton{CartonType: carton, Items: make([]PackItem, 0)}
			if cartonFits(&candidate, unit) {
				addUnit(&candidate, unit)
				plan.Cartons = append(plan.Cartons, candidate)
				opened = true
				break
			}
		}
		if !opened {
			plan.Unplaced = appendUnit(plan.Unplaced, unit)
		}
	}

	return plan
}

func cartonFits(carton *PlannedCarton, unit PackItem) bool {
	maxVolume := carton.CartonType.VolumeCm3 * MaxCartonFillPct
	maxWeight := carton.CartonType.MaxWeightKg * MaxCartonWeightPct
	return carton.UsedVolume+unit.UnitVolume() <= maxVolume &&
		carton.UsedWeight+unit.WeightKg <= maxWeight
}

func addUnit(carton *PlannedCarton, unit PackItem) {
	carton.UsedVolume += unit.UnitVolume()
	carton.UsedWeight += unit.WeightKg
	carton.Items = appendUnit(carton.Items, unit)
}

// appendUnit merges single units back into per-SKU lines.
func appendUnit(items []PackItem, unit PackItem) []PackItem {
	for i := range items {
		if items[i].SKU == unit.SKU {
			items[i].Quantity++
			return items
		}
	}
	return append(items, unit)
}
