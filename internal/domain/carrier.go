package domain

import (
	"context"
	"time"
)

// CarrierService is the domain port for carrier integration. Adapters
// translate the domain models to carrier-specific APIs.
type CarrierService interface {
	// GetRates retrieves shipping rates for a package on a lane
	GetRates(ctx context.Context, request RateRequest) ([]RateQuote, error)

	// GenerateLabel generates a shipping label for a shipment
	GenerateLabel(ctx context.Context, request LabelRequest) (*ShippingLabel, error)

	// CreateManifest creates an end-of-day manifest for multiple shipments
	CreateManifest(ctx context.Context, shipments []*Shipment) (*Manifest, error)

	// GetCarrierCode returns the carrier code this adapter handles (UPS, FEDEX, ...)
	GetCarrierCode() string
}

// RateRequest describes the package and lane to quote
type RateRequest struct {
	Shipper     Address
	Recipient   Address
	WeightKg    float64
	Dimensions  Dimensions
	ServiceType string // empty quotes all service levels
}

// RateQuote is one carrier rate option
type RateQuote struct {
	CarrierCode       string    `json:"carrierCode"`
	ServiceType       string    `json:"serviceType"`
	ServiceName       string    `json:"serviceName"`
	TotalCost         float64   `json:"totalCost"`
	Currency          string    `json:"currency"`
	TransitDays       int       `json:"transitDays"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
	IsGuaranteed      bool      `json:"isGuaranteed"`
}

// LabelRequest describes a label generation request
type LabelRequest struct {
	ShipmentID  string
	WeightKg    float64
	Dimensions  Dimensions
	Shipper     Address
	Recipient   Address
	ServiceType string
	LabelFormat string // PDF, ZPL, PNG
}

// RateSelection is the outcome of rate shopping across carriers
type RateSelection struct {
	Quotes   []RateQuote `json:"quotes"`
	Cheapest *RateQuote  `json:"cheapest,omitempty"`
	Fastest  *RateQuote  `json:"fastest,omitempty"`
}

// SelectRates picks the lowest-cost and fastest quotes from the pool. Ties
// on transit days go to the cheaper quote.
func SelectRates(quotes []RateQuote) RateSelection {
	selection := RateSelection{Quotes: quotes}
	for i := range quotes {
		q := &quotes[i]
		if selection.Cheapest == nil || q.TotalCost < selection.Cheapest.TotalCost {
			selection.Cheapest = q
		}
		if selection.Fastest == nil || q.TransitDays < selection.Fastest.TransitDays ||
			(q.TransitDays == selection.Fastest.TransitDays && q.TotalCost < selection.Fastest.TotalCost) {
			selection.Fastest = q
		}
	}
	return selection
}

// CarrierError represents errors from carrier APIs
type CarrierError struct {
	Code        string
	Message     string
	Retryable   bool
	OriginalErr error
}

func (e *CarrierError) Error() string {
	if e.OriginalErr != nil {
		return e.Message + ": " + e.OriginalErr.Error()
	}
	return e.Message
}

func (e *CarrierError) Unwrap() error {
	return e.OriginalErr
}

// NewCarrierError creates a new CarrierError
func NewCarrierError(code, message string, retryable bool, originalErr error) *CarrierError {
	return &CarrierError{
		Code:        code,
		Message:     message,
		Retryable:   retryable,
		OriginalErr: originalErr,
	}
}
