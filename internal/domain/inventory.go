package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInsufficientInventory = errors.New("insufficient inventory for allocation")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrReleaseExceedsAlloc   = errors.New("release exceeds allocated quantity")
)

// InventoryRecord tracks available and allocated quantity for one inventory
// slice: a (SKU, location, lot, serial) combination. The ledger invariant is
// that availableQuantity + allocatedQuantity only changes through Receive and
// ShipOut; Allocate and Release move quantity between the two buckets.
type InventoryRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	SKU               string             `bson:"sku"`
	LocationID        string             `bson:"locationId"`
	LotNumber         string             `bson:"lotNumber,omitempty"`
	SerialNumber      string             `bson:"serialNumber,omitempty"`
	WarehouseID       string             `bson:"warehouseId"`
	ReceivedDate      time.Time          `bson:"receivedDate"`
	ExpiryDate        *time.Time         `bson:"expiryDate,omitempty"`
	AvailableQuantity int                `bson:"availableQuantity"`
	AllocatedQuantity int                `bson:"allocatedQuantity"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
	DomainEvents      []DomainEvent      `bson:"-"`
}

// NewInventoryRecord creates a new ledger record from a receipt.
func NewInventoryRecord(sku, locationID, warehouseID string, quantity int, receivedDate time.Time, lotNumber, serialNumber string, expiryDate *time.Time) (*InventoryRecord, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now()
	record := &InventoryRecord{
		SKU:               sku,
		LocationID:        locationID,
		LotNumber:         lotNumber,
		SerialNumber:      serialNumber,
		WarehouseID:       warehouseID,
		ReceivedDate:      receivedDate,
		ExpiryDate:        expiryDate,
		AvailableQuantity: quantity,
		AllocatedQuantity: 0,
		CreatedAt:         now,
		UpdatedAt:         now,
		DomainEvents:      make([]DomainEvent, 0),
	}

	record.AddDomainEvent(&InventoryReceivedEvent{
		SKU:        sku,
		LocationID: locationID,
		Quantity:   quantity,
		LotNumber:  lotNumber,
		ReceivedAt: now,
	})

	return record, nil
}

// SliceKey identifies the ledger slice this record tracks. Allocation must be
// serialized per slice key; see InventoryRepository.
func (r *InventoryRecord) SliceKey() string {
	return r.SKU + "|" + r.LocationID + "|" + r.LotNumber + "|" + r.SerialNumber
}

// Allocate moves quantity from available to allocated. Fails without mutating
// the record when available quantity is insufficient.
func (r *InventoryRecord) Allocate(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.AvailableQuantity < quantity {
		return ErrInsufficientInventory
	}

	r.AvailableQuantity -= quantity
	r.AllocatedQuantity += quantity
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(&InventoryAllocatedEvent{
		SKU:         r.SKU,
		LocationID:  r.LocationID,
		LotNumber:   r.LotNumber,
		Quantity:    quantity,
		AllocatedAt: r.UpdatedAt,
	})

	return nil
}

// Release moves quantity back from allocated to available, reversing a prior
// allocation.
func (r *InventoryRecord) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.AllocatedQuantity < quantity {
		return ErrReleaseExceedsAlloc
	}

	r.AllocatedQuantity -= quantity
	r.AvailableQuantity += quantity
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(&InventoryReleasedEvent{
		SKU:        r.SKU,
		LocationID: r.LocationID,
		LotNumber:  r.LotNumber,
		Quantity:   quantity,
		ReleasedAt: r.UpdatedAt,
	})

	return nil
}

// Receive adds externally received quantity to the available bucket.
func (r *InventoryRecord) Receive(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	r.AvailableQuantity += quantity
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(&InventoryReceivedEvent{
		SKU:        r.SKU,
		LocationID: r.LocationID,
		Quantity:   quantity,
		LotNumber:  r.LotNumber,
		ReceivedAt: r.UpdatedAt,
	})

	return nil
}

// ShipOut removes shipped quantity from the allocated bucket after picking.
func (r *InventoryRecord) ShipOut(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.AllocatedQuantity < quantity {
		return ErrReleaseExceedsAlloc
	}

	r.AllocatedQuantity -= quantity
	r.UpdatedAt = time.Now()
	return nil
}

// TotalQuantity returns available + allocated.
func (r *InventoryRecord) TotalQuantity() int {
	return r.AvailableQuantity + r.AllocatedQuantity
}

// AddDomainEvent adds a domain event
func (r *InventoryRecord) AddDomainEvent(event DomainEvent) {
	r.DomainEvents = append(r.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (r *InventoryRecord) ClearDomainEvents() {
	r.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (r *InventoryRecord) GetDomainEvents() []DomainEvent {
	return r.DomainEvents
}

// Inventory Domain Events

// InventoryReceivedEvent is emitted when quantity is received into a slice
type InventoryReceivedEvent struct {
	SKU        string    `json:"sku"`
	LocationID string    `json:"locationId"`
	Quantity   int       `json:"quantity"`
	LotNumber  string    `json:"lotNumber,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (e *InventoryReceivedEvent) EventType() string     { return "inventory.received" }
func (e *InventoryReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }

// InventoryAllocatedEvent is emitted when available quantity is reserved
type InventoryAllocatedEvent struct {
	SKU         string    `json:"sku"`
	LocationID  string    `json:"locationId"`
	LotNumber   string    `json:"lotNumber,omitempty"`
	Quantity    int       `json:"quantity"`
	AllocatedAt time.Time `json:"allocatedAt"`
}

func (e *InventoryAllocatedEvent) EventType() string     { return "inventory.allocated" }
func (e *InventoryAllocatedEvent) OccurredAt() time.Time { return e.AllocatedAt }

// InventoryReleasedEvent is emitted when allocated quantity returns to available
type InventoryReleasedEvent struct {
	SKU        string    `json:"sku"`
	LocationID string    `json:"locationId"`
	LotNumber  string    `json:"lotNumber,omitempty"`
	Quantity   int       `json:"quantity"`
	ReleasedAt time.Time `json:"releasedAt"`
}

func (e *InventoryReleasedEvent) EventType() string     { return "inventory.released" }
func (e *InventoryReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }
