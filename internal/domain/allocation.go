package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAllocationCancelled  = errors.New("allocation has been cancelled")
	ErrAllocationPicked     = errors.New("allocation is fully picked")
	ErrPickExceedsAllocated = errors.New("picked quantity exceeds allocated quantity")
	ErrBackorderClosed      = errors.New("backorder is not open")
)

// AllocationStatus represents the lifecycle of an order allocation
type AllocationStatus string

const (
	AllocationStatusAllocated       AllocationStatus = "allocated"
	AllocationStatusPartiallyPicked AllocationStatus = "partially_picked"
	AllocationStatusPicked          AllocationStatus = "picked"
	AllocationStatusCancelled       AllocationStatus = "cancelled"
)

// OrderAllocation reserves quantity from one inventory slice against one
// sales-order line.
type OrderAllocation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	AllocationID      string             `bson:"allocationId"`
	SalesOrderID      string             `bson:"salesOrderId"`
	SalesOrderItemID  string             `bson:"salesOrderItemId"`
	SKU               string             `bson:"sku"`
	LocationID        string             `bson:"locationId"`
	LotNumber         string             `bson:"lotNumber,omitempty"`
	SerialNumber      string             `bson:"serialNumber,omitempty"`
	AllocatedQuantity int                `bson:"allocatedQuantity"`
	PickedQuantity    int                `bson:"pickedQuantity"`
	Status            AllocationStatus   `bson:"status"`
	Strategy          AllocationStrategy `bson:"strategy"`
	AllocatedAt       time.Time          `bson:"allocatedAt"`
	ExpiresAt         *time.Time         `bson:"expiresAt,omitempty"`
	CancelledAt       *time.Time         `bson:"cancelledAt,omitempty"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
	DomainEvents      []DomainEvent      `bson:"-"`
}

// NewOrderAllocation creates a new allocation against a ledger slice.
func NewOrderAllocation(allocationID, salesOrderID, salesOrderItemID string, record *InventoryRecord, quantity int, strategy AllocationStrategy, expiresAt *time.Time) (*OrderAllocation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !strategy.IsValid() {
		return nil, ErrInvalidStrategy
	}

	now := time.Now()
	allocation := &OrderAllocation{
		AllocationID:      allocationID,
		SalesOrderID:      salesOrderID,
		SalesOrderItemID:  salesOrderItemID,
		SKU:               record.SKU,
		LocationID:        record.LocationID,
		LotNumber:         record.LotNumber,
		SerialNumber:      record.SerialNumber,
		AllocatedQuantity: quantity,
		PickedQuantity:    0,
		Status:            AllocationStatusAllocated,
		Strategy:          strategy,
		AllocatedAt:       now,
		ExpiresAt:         expiresAt,
		UpdatedAt:         now,
		DomainEvents:      make([]DomainEvent, 0),
	}

	allocation.AddDomainEvent(&AllocationCreatedEvent{
		AllocationID: allocationID,
		SalesOrderID: salesOrderID,
		SKU:          record.SKU,
		LocationID:   record.LocationID,
		Quantity:     quantity,
		Strategy:     string(strategy),
		AllocatedAt:  now,
	})

	return allocation, nil
}

// RecordPick records picked quantity and advances the status to
// partially_picked or picked.
func (a *OrderAllocation) RecordPick(quantity int) error {
	if a.Status == AllocationStatusCancelled {
		return ErrAllocationCancelled
	}
	if a.Status == AllocationStatusPicked {
		return ErrAllocationPicked
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if a.PickedQuantity+quantity > a.AllocatedQuantity {
		return ErrPickExceedsAllocated
	}

	a.PickedQuantity += quantity
	if a.PickedQuantity == a.AllocatedQuantity {
		a.Status = AllocationStatusPicked
	} else {
		a.Status = AllocationStatusPartiallyPicked
	}
	a.UpdatedAt = time.Now()

	a.AddDomainEvent(&AllocationPickedEvent{
		AllocationID:   a.AllocationID,
		SalesOrderID:   a.SalesOrderID,
		SKU:            a.SKU,
		PickedQuantity: quantity,
		TotalPicked:    a.PickedQuantity,
		PickedAt:       a.UpdatedAt,
	})

	return nil
}

// Cancel cancels the allocation and returns the unpicked quantity that must
// be released back to the ledger.
func (a *OrderAllocation) Cancel() (int, error) {
	if a.Status == AllocationStatusCancelled {
		return 0, ErrAllocationCancelled
	}

	remaining := a.AllocatedQuantity - a.PickedQuantity
	now := time.Now()
	a.Status = AllocationStatusCancelled
	a.CancelledAt = &now
	a.UpdatedAt = now

	a.AddDomainEvent(&AllocationCancelledEvent{
		AllocationID:     a.AllocationID,
		SalesOrderID:     a.SalesOrderID,
		SKU:              a.SKU,
		LocationID:       a.LocationID,
		ReleasedQuantity: remaining,
		CancelledAt:      now,
	})

	return remaining, nil
}

// IsExpired reports whether the allocation passed its expiry while still in
// allocated status.
func (a *OrderAllocation) IsExpired(now time.Time) bool {
	return a.Status == AllocationStatusAllocated && a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// IsActive returns true while the allocation still holds ledger quantity.
func (a *OrderAllocation) IsActive() bool {
	return a.Status != AllocationStatusCancelled
}

// AddDomainEvent adds a domain event
func (a *OrderAllocation) AddDomainEvent(event DomainEvent) {
	a.DomainEvents = append(a.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (a *OrderAllocation) ClearDomainEvents() {
	a.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (a *OrderAllocation) GetDomainEvents() []DomainEvent {
	return a.DomainEvents
}

// BackorderStatus represents the lifecycle of a backorder
type BackorderStatus string

const (
	BackorderStatusOpen      BackorderStatus = "open"
	BackorderStatusFulfilled BackorderStatus = "fulfilled"
	BackorderStatusCancelled BackorderStatus = "cancelled"
)

// Backorder records the unmet portion of demand after allocation exhausted
// available inventory. Shortfall is a normal outcome, not an error.
type Backorder struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	BackorderID      string             `bson:"backorderId"`
	SalesOrderID     string             `bson:"salesOrderId"`
	SalesOrderItemID string             `bson:"salesOrderItemId"`
	SKU              string             `bson:"sku"`
	Quantity         int                `bson:"quantity"`
	Strategy         AllocationStrategy `bson:"strategy"`
	Status           BackorderStatus    `bson:"status"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
	DomainEvents     []DomainEvent      `bson:"-"`
}

// NewBackorder creates a backorder for the unmet quantity of an order item.
func NewBackorder(backorderID, salesOrderID, salesOrderItemID, sku string, quantity int, strategy AllocationStrategy) (*Backorder, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	backorder := &Backorder{
		BackorderID:      backorderID,
		SalesOrderID:     salesOrderID,
		SalesOrderItemID: salesOrderItemID,
		SKU:              sku,
		Quantity:         quantity,
		Strategy:         strategy,
		Status:           BackorderStatusOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
		DomainEvents:     make([]DomainEvent, 0),
	}

	backorder.AddDomainEvent(&BackorderCreatedEvent{
		BackorderID:  backorderID,
		SalesOrderID: salesOrderID,
		SKU:          sku,
		Quantity:     quantity,
		CreatedAt:    now,
	})

	return backorder, nil
}

// Fulfill closes the backorder once the demand has been re-allocated.
func (b *Backorder) Fulfill() error {
	if b.Status != BackorderStatusOpen {
		return ErrBackorderClosed
	}
	b.Status = BackorderStatusFulfilled
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel closes the backorder without fulfillment.
func (b *Backorder) Cancel() error {
	if b.Status != BackorderStatusOpen {
		return ErrBackorderClosed
	}
	b.Status = BackorderStatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// AddDomainEvent adds a domain event
func (b *Backorder) AddDomainEvent(event DomainEvent) {
	b.DomainEvents = append(b.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (b *Backorder) ClearDomainEvents() {
	b.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (b *Backorder) GetDomainEvents() []DomainEvent {
	return b.DomainEvents
}

// Allocation Domain Events

// AllocationCreatedEvent is emitted when an allocation reserves inventory
type AllocationCreatedEvent struct {
	AllocationID string    `json:"allocationId"`
	SalesOrderID string    `json:"salesOrderId"`
	SKU          string    `json:"sku"`
	LocationID   string    `json:"locationId"`
	Quantity     int       `json:"quantity"`
	Strategy     string    `json:"strategy"`
	AllocatedAt  time.Time `json:"allocatedAt"`
}

func (e *AllocationCreatedEvent) EventType() string     { return "allocation.created" }
func (e *AllocationCreatedEvent) OccurredAt() time.Time { return e.AllocatedAt }

// AllocationPickedEvent is emitted when picked quantity is recorded
type AllocationPickedEvent struct {
	AllocationID   string    `json:"allocationId"`
	SalesOrderID   string    `json:"salesOrderId"`
	SKU            string    `json:"sku"`
	PickedQuantity int       `json:"pickedQuantity"`
	TotalPicked    int       `json:"totalPicked"`
	PickedAt       time.Time `json:"pickedAt"`
}

func (e *AllocationPickedEvent) EventType() string     { return "allocation.picked" }
func (e *AllocationPickedEvent) OccurredAt() time.Time { return e.PickedAt }

// AllocationCancelledEvent is emitted when an allocation is cancelled
type AllocationCancelledEvent struct {
	AllocationID     string    `json:"allocationId"`
	SalesOrderID     string    `json:"salesOrderId"`
	SKU              string    `json:"sku"`
	LocationID       string    `json:"locationId"`
	ReleasedQuantity int       `json:"releasedQuantity"`
	CancelledAt      time.Time `json:"cancelledAt"`
}

func (e *AllocationCancelledEvent) EventType() string     { return "allocation.cancelled" }
func (e *AllocationCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// BackorderCreatedEvent is emitted when allocation shortfall creates a backorder
type BackorderCreatedEvent struct {
	BackorderID  string    `json:"backorderId"`
	SalesOrderID string    `json:"salesOrderId"`
	SKU          string    `json:"sku"`
	Quantity     int       `json:"quantity"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *BackorderCreatedEvent) EventType() string     { return "allocation.backorder.created" }
func (e *BackorderCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }
