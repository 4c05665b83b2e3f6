package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPackOrderCompleted    = errors.New("pack order is already completed")
	ErrPackOrderNotStarted   = errors.New("pack order has not been started")
	ErrPackOrderIncomplete   = errors.New("pack order lines are not fully packed")
	ErrPackLineNotFound      = errors.New("sku is not on the pack order")
	ErrPackExceedsRequired   = errors.New("packed quantity exceeds required quantity")
	ErrCartonNotFound        = errors.New("carton not found on pack order")
	ErrNoLinesToPack         = errors.New("pack order has no lines")
)

// PackOrderStatus represents the lifecycle of a pack order
type PackOrderStatus string

const (
	PackOrderStatusPending    PackOrderStatus = "pending"
	PackOrderStatusAssigned   PackOrderStatus = "assigned"
	PackOrderStatusInProgress PackOrderStatus = "in_progress"
	PackOrderStatusCompleted  PackOrderStatus = "completed"
	PackOrderStatusCancelled  PackOrderStatus = "cancelled"
)

// PackLine is one required sales-order line on a pack order
type PackLine struct {
	SalesOrderItemID string `bson:"salesOrderItemId"`
	SKU              string `bson:"sku"`
	RequiredQuantity int    `bson:"requiredQuantity"`
}

// PackedItem is quantity of one SKU placed into a carton
type PackedItem struct {
	SKU      string `bson:"sku"`
	Quantity int    `bson:"quantity"`
}

// PackedCarton is one physical carton being filled for the order
type PackedCarton struct {
	CartonID     string       `bson:"cartonId"`
	CartonTypeID string       `bson:"cartonTypeId"`
	Items        []PackedItem `bson:"items"`
}

// PackOrder tracks packing of one sales order into cartons. Completion
// requires every line's packed quantity across all cartons to equal the
// required quantity.
type PackOrder struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	PackOrderID   string             `bson:"packOrderId"`
	SalesOrderID  string             `bson:"salesOrderId"`
	Lines         []PackLine         `bson:"lines"`
	Cartons       []PackedCarton     `bson:"cartons"`
	Status        PackOrderStatus    `bson:"status"`
	QualityStatus QualityStatus      `bson:"qualityStatus,omitempty"`
	PackerID      string             `bson:"packerId,omitempty"`
	Station       string             `bson:"station,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
	StartedAt     *time.Time         `bson:"startedAt,omitempty"`
	CompletedAt   *time.Time         `bson:"completedAt,omitempty"`
	DomainEvents  []DomainEvent      `bson:"-"`
}

// NewPackOrder creates a new PackOrder aggregate
func NewPackOrder(packOrderID, salesOrderID string, lines []PackLine) (*PackOrder, error) {
	if len(lines) == 0 {
		return nil, ErrNoLinesToPack
	}

	now := time.Now()
	order := &PackOrder{
		PackOrderID:  packOrderID,
		SalesOrderID: salesOrderID,
		Lines:        lines,
		Cartons:      make([]PackedCarton, 0),
		Status:       PackOrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	order.AddDomainEvent(&PackOrderCreatedEvent{
		PackOrderID:  packOrderID,
		SalesOrderID: salesOrderID,
		LineCount:    len(lines),
		CreatedAt:    now,
	})

	return order, nil
}

// Assign assigns the pack order to a packer and station
func (o *PackOrder) Assign(packerID, station string) error {
	if o.Status == PackOrderStatusCompleted || o.Status == PackOrderStatusCancelled {
		return ErrPackOrderCompleted
	}

	o.PackerID = packerID
	o.Station = station
	if o.Status == PackOrderStatusPending {
		o.Status = PackOrderStatusAssigned
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Start marks the pack order as in progress
func (o *PackOrder) Start() error {
	if o.Status != PackOrderStatusPending && o.Status != PackOrderStatusAssigned {
		return ErrPackOrderCompleted
	}

	now := time.Now()
	o.Status = PackOrderStatusInProgress
	o.StartedAt = &now
	o.UpdatedAt = now
	return nil
}

// Pack records quantity of a SKU packed into a carton, creating the carton
// entry on first use. Packing beyond the line's required quantity fails.
func (o *PackOrder) Pack(cartonID, cartonTypeID, sku string, quantity int) error {
	if o.Status != PackOrderStatusInProgress {
		return ErrPackOrderNotStarted
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	line := o.findLine(sku)
	if line == nil {
		return ErrPackLineNotFound
	}
	if o.PackedQuantity(sku)+quantity > line.RequiredQuantity {
		return ErrPackExceedsRequired
	}

	carton := o.findCarton(cartonID)
	if carton == nil {
		o.Cartons = append(o.Cartons, PackedCarton{
			CartonID:     cartonID,
			CartonTypeID: cartonTypeID,
			Items:        make([]PackedItem, 0),
		})
		carton = &o.Cartons[len(o.Cartons)-1]
	}

	for i := range carton.Items {
		if carton.Items[i].SKU == sku {
			carton.Items[i].Quantity += quantity
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	carton.Items = append(carton.Items, PackedItem{SKU: sku, Quantity: quantity})
	o.UpdatedAt = time.Now()
	return nil
}

// PackedQuantity sums the packed quantity of a SKU across all cartons
func (o *PackOrder) PackedQuantity(sku string) int {
	total := 0
	for _, carton := range o.Cartons {
		for _, item := range carton.Items {
			if item.SKU == sku {
				total += item.Quantity
			}
		}
	}
	return total
}

// IsComplete reports whether every line is fully packed
func (o *PackOrder) IsComplete() bool {
	for _, line := range o.Lines {
		if o.PackedQuantity(line.SKU) < line.RequiredQuantity {
			return false
		}
	}
	return true
}

// Complete marks the pack order completed; only allowed when every line's
// required quantity has been packed.
func (o *PackOrder) Complete() error {
	if o.Status == PackOrderStatusCompleted {
		return ErrPackOrderCompleted
	}
	if !o.IsComplete() {
		return ErrPackOrderIncomplete
	}

	now := time.Now()
	o.Status = PackOrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(&PackOrderCompletedEvent{
		PackOrderID:  o.PackOrderID,
		SalesOrderID: o.SalesOrderID,
		CartonCount:  len(o.Cartons),
		CompletedAt:  now,
	})

	return nil
}

// Cancel cancels the pack order
func (o *PackOrder) Cancel() error {
	if o.Status == PackOrderStatusCompleted {
		return ErrPackOrderCompleted
	}
	o.Status = PackOrderStatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// SetQualityStatus pins the quality-control label on the order
func (o *PackOrder) SetQualityStatus(status QualityStatus) {
	o.QualityStatus = status
	o.UpdatedAt = time.Now()
}

func (o *PackOrder) findLine(sku string) *PackLine {
	for i := range o.Lines {
		if o.Lines[i].SKU == sku {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *PackOrder) findCarton(cartonID string) *PackedCarton {
	for i := range o.Cartons {
		if o.Cartons[i].CartonID == cartonID {
			return &o.Cartons[i]
		}
	}
	return nil
}

// AddDomainEvent adds a domain event
func (o *PackOrder) AddDomainEvent(event DomainEvent) {
	o.DomainEvents = append(o.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (o *PackOrder) ClearDomainEvents() {
	o.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (o *PackOrder) GetDomainEvents() []DomainEvent {
	return o.DomainEvents
}

// Pack Order Domain Events

// PackOrderCreatedEvent is emitted when a pack order is created
type PackOrderCreatedEvent struct {
	PackOrderID  string    `json:"packOrderId"`
	SalesOrderID string    `json:"salesOrderId"`
	LineCount    int       `json:"lineCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (e *PackOrderCreatedEvent) EventType() string     { return "packing.order.created" }
func (e *PackOrderCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// PackOrderCompletedEvent is emitted when every line is fully packed
type PackOrderCompletedEvent struct {
	PackOrderID  string    `json:"packOrderId"`
	SalesOrderID string    `json:"salesOrderId"`
	CartonCount  int       `json:"cartonCount"`
	CompletedAt  time.Time `json:"completedAt"`
}

func (e *PackOrderCompletedEvent) EventType() string     { return "packing.order.completed" }
func (e *PackOrderCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
