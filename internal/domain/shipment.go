package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrShipmentNotReady      = errors.New("shipment is not in ready status")
	ErrShipmentNotAssigned   = errors.New("shipment is not assigned to a load")
	ErrShipmentFinal         = errors.New("shipment is in a final status")
	ErrShipmentNoLabel       = errors.New("shipment has no label")
	ErrShipmentAlreadyLabeled = errors.New("shipment already has a label")
)

// ShipmentStatus represents the outbound lifecycle of a shipment
type ShipmentStatus string

const (
	ShipmentStatusReady          ShipmentStatus = "ready"
	ShipmentStatusAssignedToLoad ShipmentStatus = "assigned_to_load"
	ShipmentStatusPickedUp       ShipmentStatus = "picked_up"
	ShipmentStatusInTransit      ShipmentStatus = "in_transit"
	ShipmentStatusDelivered      ShipmentStatus = "delivered"
	ShipmentStatusCancelled      ShipmentStatus = "cancelled"
)

// Address represents a shipping address
type Address struct {
	Name       string `bson:"name" json:"name"`
	Company    string `bson:"company,omitempty" json:"company,omitempty"`
	Street1    string `bson:"street1" json:"street1"`
	Street2    string `bson:"street2,omitempty" json:"street2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Dimensions represents package dimensions in cm
type Dimensions struct {
	Length float64 `bson:"length" json:"length"`
	Width  float64 `bson:"width" json:"width"`
	Height float64 `bson:"height" json:"height"`
}

// VolumeM3 returns the package volume in cubic meters
func (d Dimensions) VolumeM3() float64 {
	return d.Length * d.Width * d.Height / 1_000_000
}

// ShippingLabel is a generated carrier label
type ShippingLabel struct {
	TrackingNumber string    `bson:"trackingNumber" json:"trackingNumber"`
	CarrierCode    string    `bson:"carrierCode" json:"carrierCode"`
	ServiceType    string    `bson:"serviceType" json:"serviceType"`
	LabelFormat    string    `bson:"labelFormat" json:"labelFormat"` // PDF, ZPL, PNG
	LabelData      string    `bson:"labelData,omitempty" json:"labelData,omitempty"` // Base64 encoded
	GeneratedAt    time.Time `bson:"generatedAt" json:"generatedAt"`
}

// Shipment is one packed order moving out through a load
type Shipment struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	ShipmentID       string             `bson:"shipmentId"`
	OrderID          string             `bson:"orderId"`
	PackOrderID      string             `bson:"packOrderId,omitempty"`
	WarehouseID      string             `bson:"warehouseId"`
	Status           ShipmentStatus     `bson:"status"`
	QualityStatus    QualityStatus      `bson:"qualityStatus,omitempty"`
	LoadPlanID       string             `bson:"loadPlanId,omitempty"`
	CarrierCode      string             `bson:"carrierCode,omitempty"`
	ServiceType      string             `bson:"serviceType,omitempty"`
	WeightKg         float64            `bson:"weightKg"`
	Dimensions       Dimensions         `bson:"dimensions"`
	Shipper          Address            `bson:"shipper"`
	Recipient        Address            `bson:"recipient"`
	Label            *ShippingLabel     `bson:"label,omitempty"`
	ExpectedDelivery *time.Time         `bson:"expectedDelivery,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
	DeliveredAt      *time.Time         `bson:"deliveredAt,omitempty"`
	DomainEvents     []DomainEvent      `bson:"-"`
}

// NewShipment creates a ready-to-ship shipment
func NewShipment(shipmentID, orderID, packOrderID, warehouseID string, weightKg float64, dims Dimensions, shipper, recipient Address, expectedDelivery *time.Time) *Shipment {
	now := time.Now()
	return &Shipment{
		ShipmentID:       shipmentID,
		OrderID:          orderID,
		PackOrderID:      packOrderID,
		WarehouseID:      warehouseID,
		Status:           ShipmentStatusReady,
		WeightKg:         weightKg,
		Dimensions:       dims,
		Shipper:          shipper,
		Recipient:        recipient,
		ExpectedDelivery: expectedDelivery,
		CreatedAt:        now,
		UpdatedAt:        now,
		DomainEvents:     make([]DomainEvent, 0),
	}
}

// AssignToLoad attaches the shipment to a load plan
func (s *Shipment) AssignToLoad(loadPlanID string) error {
	if s.Status != ShipmentStatusReady {
		return ErrShipmentNotReady
	}
	s.Status = ShipmentStatusAssignedToLoad
	s.LoadPlanID = loadPlanID
	s.UpdatedAt = time.Now()
	return nil
}

// RevertToReady detaches the shipment from a cancelled load plan
func (s *Shipment) RevertToReady() error {
	if s.Status != ShipmentStatusAssignedToLoad {
		return ErrShipmentNotAssigned
	}
	s.Status = ShipmentStatusReady
	s.LoadPlanID = ""
	s.UpdatedAt = time.Now()
	return nil
}

// MarkPickedUp records loading confirmation for the shipment
func (s *Shipment) MarkPickedUp() error {
	if s.Status != ShipmentStatusAssignedToLoad {
		return ErrShipmentNotAssigned
	}
	s.Status = ShipmentStatusPickedUp
	s.UpdatedAt = time.Now()
	return nil
}

// MarkInTransit records the load's dispatch
func (s *Shipment) MarkInTransit() error {
	if s.Status != ShipmentStatusPickedUp {
		return ErrShipmentFinal
	}
	s.Status = ShipmentStatusInTransit
	s.UpdatedAt = time.Now()
	return nil
}

// MarkDelivered closes the shipment
func (s *Shipment) MarkDelivered() error {
	if s.Status != ShipmentStatusInTransit {
		return ErrShipmentFinal
	}

	now := time.Now()
	s.Status = ShipmentStatusDelivered
	s.DeliveredAt = &now
	s.UpdatedAt = now
	return nil
}

// ApplyLabel attaches a generated carrier label
func (s *Shipment) ApplyLabel(label ShippingLabel) error {
	if s.Status == ShipmentStatusDelivered || s.Status == ShipmentStatusCancelled {
		return ErrShipmentFinal
	}
	if s.Label != nil {
		return ErrShipmentAlreadyLabeled
	}

	s.Label = &label
	s.CarrierCode = label.CarrierCode
	s.ServiceType = label.ServiceType
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(&ShipmentLabeledEvent{
		ShipmentID:     s.ShipmentID,
		OrderID:        s.OrderID,
		CarrierCode:    label.CarrierCode,
		TrackingNumber: label.TrackingNumber,
		LabeledAt:      s.UpdatedAt,
	})

	return nil
}

// SetQualityStatus pins the quality-control label on the shipment
func (s *Shipment) SetQualityStatus(status QualityStatus) {
	s.QualityStatus = status
	s.UpdatedAt = time.Now()
}

// IsLabeled returns true once a label is attached
func (s *Shipment) IsLabeled() bool {
	return s.Label != nil
}

// AddDomainEvent adds a domain event
func (s *Shipment) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (s *Shipment) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (s *Shipment) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}

// ShipmentLabeledEvent is emitted when a carrier label is applied
type ShipmentLabeledEvent struct {
	ShipmentID     string    `json:"shipmentId"`
	OrderID        string    `json:"orderId"`
	CarrierCode    string    `json:"carrierCode"`
	TrackingNumber string    `json:"trackingNumber"`
	LabeledAt      time.Time `json:"labeledAt"`
}

func (e *ShipmentLabeledEvent) EventType() string     { return "shipping.shipment.labeled" }
func (e *ShipmentLabeledEvent) OccurredAt() time.Time { return e.LabeledAt }

// Manifest is an end-of-day summary of labeled shipments for one carrier
type Manifest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ManifestID    string             `bson:"manifestId"`
	CarrierCode   string             `bson:"carrierCode"`
	ShipmentIDs   []string           `bson:"shipmentIds"`
	ShipmentCount int                `bson:"shipmentCount"`
	TotalWeightKg float64            `bson:"totalWeightKg"`
	GeneratedAt   time.Time          `bson:"generatedAt"`
}
