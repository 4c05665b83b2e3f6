package carriers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// UPSAdapter is the Anti-Corruption Layer adapter for UPS carrier integration.
// It translates between domain models and UPS API models.
type UPSAdapter struct {
	// UPS API client would go here
	// client *ups.Client
	accessKey     string
	accountNumber string
	apiURL        string
}

// NewUPSAdapter creates a new UPS carrier adapter
func NewUPSAdapter(accessKey, accountNumber, apiURL string) *UPSAdapter {
	return &UPSAdapter{
		accessKey:     accessKey,
		accountNumber: accountNumber,
		apiURL:        apiURL,
	}
}

// GetCarrierCode returns the carrier code this adapter handles
func (a *UPSAdapter) GetCarrierCode() string {
	return "UPS"
}

// GetRates retrieves shipping rates from UPS
func (a *UPSAdapter) GetRates(ctx context.Context, request domain.RateRequest) ([]domain.RateQuote, error) {
	upsRequest := a.toUPSRateRequest(request)

	// Call UPS Rating API (would use the actual UPS SDK here)
	// upsResponse, err := a.client.GetRates(ctx, upsRequest)
	// if err != nil {
	//     return nil, a.translateUPSError(err)
	// }
	_ = upsRequest
	upsResponse := []upsRateResponse{
		{ServiceCode: "03", ServiceName: "UPS Ground", TotalCharge: baseCharge(request, 1.0), Currency: "EUR", TransitDays: 3},
		{ServiceCode: "02", ServiceName: "UPS Expedited", TotalCharge: baseCharge(request, 1.9), Currency: "EUR", TransitDays: 2},
		{ServiceCode: "01", ServiceName: "UPS Express", TotalCharge: baseCharge(request, 2.8), Currency: "EUR", TransitDays: 1},
	}

	quotes := make([]domain.RateQuote, 0, len(upsResponse))
	for _, upsRate := range upsResponse {
		if request.ServiceType != "" && mapServiceTypeToUPS(request.ServiceType) != upsRate.ServiceCode {
			continue
		}
		quotes = append(quotes, domain.RateQuote{
			CarrierCode:       "UPS",
			ServiceType:       upsRate.ServiceCode,
			ServiceName:       upsRate.ServiceName,
			TotalCost:         upsRate.TotalCharge,
			Currency:          upsRate.Currency,
			TransitDays:       upsRate.TransitDays,
			EstimatedDelivery: time.Now().AddDate(0, 0, upsRate.TransitDays),
			IsGuaranteed:      upsRate.ServiceCode != "03", // Ground is not guaranteed
		})
	}

	return quotes, nil
}

// GenerateLabel generates a shipping label using the UPS API
func (a *UPSAdapter) GenerateLabel(ctx context.Context, request domain.LabelRequest) (*domain.ShippingLabel, error) {
	upsRequest := a.toUPSShipmentRequest(request)

	// Call UPS Shipping API
	// upsResponse, err := a.client.CreateShipment(ctx, upsRequest)
	// if err != nil {
	//     return nil, a.translateUPSError(err)
	// }
	_ = upsRequest
	upsResponse := &upsShipmentResponse{
		TrackingNumber: "1Z" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:16]),
		LabelImage:     "base64encodedimage...",
	}

	return &domain.ShippingLabel{
		TrackingNumber: upsResponse.TrackingNumber,
		CarrierCode:    "UPS",
		ServiceType:    request.ServiceType,
		LabelFormat:    request.LabelFormat,
		LabelData:      upsResponse.LabelImage,
		GeneratedAt:    time.Now(),
	}, nil
}

// CreateManifest creates an end-of-day manifest with UPS
func (a *UPSAdapter) CreateManifest(ctx context.Context, shipments []*domain.Shipment) (*domain.Manifest, error) {
	shipmentIDs := make([]string, 0, len(shipments))
	totalWeight := 0.0
	for _, shipment := range shipments {
		shipmentIDs = append(shipmentIDs, shipment.ShipmentID)
		totalWeight += shipment.WeightKg
	}

	// Call UPS Manifest API
	// upsResponse, err := a.client.CreateManifest(ctx, a.toUPSManifestRequest(shipments))
	// if err != nil {
	//     return nil, a.translateUPSError(err)
	// }
	upsResponse := &upsManifestResponse{
		ManifestID: "MNFT" + time.Now().Format("20060102150405"),
	}

	return &domain.Manifest{
		ManifestID:    upsResponse.ManifestID,
		CarrierCode:   "UPS",
		ShipmentIDs:   shipmentIDs,
		ShipmentCount: len(shipmentIDs),
		TotalWeightKg: totalWeight,
		GeneratedAt:   time.Now(),
	}, nil
}

// --- Translation methods (ACL) ---

func (a *UPSAdapter) toUPSShipmentRequest(request domain.LabelRequest) *upsShipmentRequest {
	return &upsShipmentRequest{
		Shipper:     toUPSAddress(request.Shipper),
		ShipTo:      toUPSAddress(request.Recipient),
		Package:     toUPSPackage(request.WeightKg, request.Dimensions),
		Service:     mapServiceTypeToUPS(request.ServiceType),
		Reference1:  request.ShipmentID,
		LabelFormat: request.LabelFormat,
	}
}

func (a *UPSAdapter) toUPSRateRequest(request domain.RateRequest) *upsRateRequest {
	return &upsRateRequest{
		Shipper: upsAddress{PostalCode: request.Shipper.PostalCode, Country: request.Shipper.Country},
		ShipTo:  upsAddress{PostalCode: request.Recipient.PostalCode, Country: request.Recipient.Country},
		Package: toUPSPackage(request.WeightKg, request.Dimensions),
	}
}

func (a *UPSAdapter) translateUPSError(err error) error {
	return domain.NewCarrierError("UPS_ERROR", "UPS request failed", true, err)
}

func toUPSAddress(address domain.Address) upsAddress {
	return upsAddress{
		Name:       address.Name,
		Street1:    address.Street1,
		Street2:    address.Street2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
}

func toUPSPackage(weightKg float64, dims domain.Dimensions) upsPackage {
	return upsPackage{
		Weight: weightKg,
		Length: dims.Length,
		Width:  dims.Width,
		Height: dims.Height,
	}
}

// --- UPS API models (would come from the UPS SDK) ---

type upsShipmentRequest struct {
	Shipper     upsAddress
	ShipTo      upsAddress
	Package     upsPackage
	Service     string
	Reference1  string
	LabelFormat string
}

type upsShipmentResponse struct {
	TrackingNumber string
	LabelImage     string
}

type upsAddress struct {
	Name       string
	Street1    string
	Street2    string
	City       string
	State      string
	PostalCode string
	Country    string
}

type upsPackage struct {
	Weight float64
	Length float64
	Width  float64
	Height float64
}

type upsManifestResponse struct {
	ManifestID string
}

type upsRateRequest struct {
	Shipper upsAddress
	ShipTo  upsAddress
	Package upsPackage
}

type upsRateResponse struct {
	ServiceCode string
	ServiceName string
	TotalCharge float64
	Currency    string
	TransitDays int
}

func mapServiceTypeToUPS(serviceType string) string {
	mapping := map[string]string{
		"GROUND":    "03",
		"EXPEDITED": "02",
		"EXPRESS":   "01",
	}
	if code, exists := mapping[serviceType]; exists {
		return code
	}
	return "03"
}

// baseCharge derives a deterministic mock charge from the package so rate
// shopping tests see distinct, weight-sensitive prices.
func baseCharge(request domain.RateRequest, multiplier float64) float64 {
	charge := 6.0 + request.WeightKg*0.8 + request.Dimensions.VolumeM3()*40
	return float64(int(charge*multiplier*100)) / 100
}
