package domain

import (
	"errors"
	"sort"
)

var ErrInvalidStrategy = errors.New("invalid allocation strategy")

// AllocationStrategy determines the order in which inventory slices are
// consumed when allocating an order item.
type AllocationStrategy string

const (
	StrategyFIFO   AllocationStrategy = "fifo"
	StrategyLIFO   AllocationStrategy = "lifo"
	StrategyFEFO   AllocationStrategy = "fefo"
	StrategyManual AllocationStrategy = "manual"
)

// IsValid checks if the strategy is valid
func (s AllocationStrategy) IsValid() bool {
	switch s {
	case StrategyFIFO, StrategyLIFO, StrategyFEFO, StrategyManual:
		return true
	default:
		return false
	}
}

// OrderCandidates sorts candidate ledger records in consumption order for the
// given strategy. Manual preserves the caller-supplied order. FEFO places
// records without an expiry date after all dated records so perishable stock
// drains first. Sorting is stable so equal keys keep their incoming order.
func OrderCandidates(records []*InventoryRecord, strategy AllocationStrategy) error {
	switch strategy {
	case StrategyFIFO:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ReceivedDate.Before(records[j].ReceivedDate)
		})
	case StrategyLIFO:
		sort.SliceStable(records, func(i, j int) bool {
			return records[j].ReceivedDate.Before(records[i].ReceivedDate)
		})
	case StrategyFEFO:
		sort.SliceStable(records, func(i, j int) bool {
			a, b := records[i].ExpiryDate, records[j].ExpiryDate
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.Before(*b)
		})
	case StrategyManual:
		// caller-supplied order
	default:
		return ErrInvalidStrategy
	}
	return nil
}
