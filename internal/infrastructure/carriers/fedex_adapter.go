package carriers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// FedExAdapter is the Anti-Corruption Layer adapter for FedEx carrier
// integration.
type FedExAdapter struct {
	// FedEx API client would go here
	// client *fedex.Client
	apiKey        string
	accountNumber string
	apiURL        string
}

// NewFedExAdapter creates a new FedEx carrier adapter
func NewFedExAdapter(apiKey, accountNumber, apiURL string) *FedExAdapter {
	return &FedExAdapter{
		apiKey:        apiKey,
		accountNumber: accountNumber,
		apiURL:        apiURL,
	}
}

// GetCarrierCode returns the carrier code this adapter handles
func (a *FedExAdapter) GetCarrierCode() string {
	return "FEDEX"
}

// GetRates retrieves shipping rates from FedEx
func (a *FedExAdapter) GetRates(ctx context.Context, request domain.RateRequest) ([]domain.RateQuote, error) {
	fedexRequest := a.toFedExRateRequest(request)

	// Call FedEx Rates API
	// fedexResponse, err := a.client.RateQuote(ctx, fedexRequest)
	// if err != nil {
	//     return nil, a.translateFedExError(err)
	// }
	_ = fedexRequest
	fedexResponse := []fedexRateReply{
		{ServiceType: "FEDEX_GROUND", ServiceName: "FedEx Ground", NetCharge: baseCharge(request, 0.95), Currency: "EUR", TransitDays: 3},
		{ServiceType: "FEDEX_2_DAY", ServiceName: "FedEx 2Day", NetCharge: baseCharge(request, 1.8), Currency: "EUR", TransitDays: 2},
		{ServiceType: "PRIORITY_OVERNIGHT", ServiceName: "FedEx Priority Overnight", NetCharge: baseCharge(request, 3.1), Currency: "EUR", TransitDays: 1},
	}

	quotes := make([]domain.RateQuote, 0, len(fedexResponse))
	for _, reply := range fedexResponse {
		if request.ServiceType != "" && mapServiceTypeToFedEx(request.ServiceType) != reply.ServiceType {
			continue
		}
		quotes = append(quotes, domain.RateQuote{
			CarrierCode:       "FEDEX",
			ServiceType:       reply.ServiceType,
			ServiceName:       reply.ServiceName,
			TotalCost:         reply.NetCharge,
			Currency:          reply.Currency,
			TransitDays:       reply.TransitDays,
			EstimatedDelivery: time.Now().AddDate(0, 0, reply.TransitDays),
			IsGuaranteed:      reply.TransitDays <= 2,
		})
	}

	return quotes, nil
}

// GenerateLabel generates a shipping label using the FedEx API
func (a *FedExAdapter) GenerateLabel(ctx context.Context, request domain.LabelRequest) (*domain.ShippingLabel, error) {
	fedexRequest := a.toFedExShipRequest(request)

	// Call FedEx Ship API
	// fedexResponse, err := a.client.CreateShipment(ctx, fedexRequest)
	// if err != nil {
	//     return nil, a.translateFedExError(err)
	// }
	_ = fedexRequest
	fedexResponse := &fedexShipReply{
		TrackingNumber: strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		LabelImage:     "base64encodedimage...",
	}

	return &domain.ShippingLabel{
		TrackingNumber: fedexResponse.TrackingNumber,
		CarrierCode:    "FEDEX",
		ServiceType:    request.ServiceType,
		LabelFormat:    request.LabelFormat,
		LabelData:      fedexResponse.LabelImage,
		GeneratedAt:    time.Now(),
	}, nil
}

// CreateManifest creates an end-of-day close with FedEx
func (a *FedExAdapter) CreateManifest(ctx context.Context, shipments []*domain.Shipment) (*domain.Manifest, error) {
	shipmentIDs := make([]string, 0, len(shipments))
	totalWeight := 0.0
	for _, shipment := range shipments {
		shipmentIDs = append(shipmentIDs, shipment.ShipmentID)
		totalWeight += shipment.WeightKg
	}

	// Call FedEx Ground Close API
	// fedexResponse, err := a.client.GroundClose(ctx, ...)
	// if err != nil {
	//     return nil, a.translateFedExError(err)
	// }
	fedexResponse := &fedexCloseReply{
		CloseID: "CLS" + time.Now().Format("20060102150405"),
	}

	return &domain.Manifest{
		ManifestID:    fedexResponse.CloseID,
		CarrierCode:   "FEDEX",
		ShipmentIDs:   shipmentIDs,
		ShipmentCount: len(shipmentIDs),
		TotalWeightKg: totalWeight,
		GeneratedAt:   time.Now(),
	}, nil
}

// --- Translation methods (ACL) ---

func (a *FedExAdapter) toFedExShipRequest(request domain.LabelRequest) *fedexShipRequest {
	return &fedexShipRequest{
		Shipper:     toFedExParty(request.Shipper),
		Recipient:   toFedExParty(request.Recipient),
		WeightKg:    request.WeightKg,
		LengthCm:    request.Dimensions.Length,
		WidthCm:     request.Dimensions.Width,
		HeightCm:    request.Dimensions.Height,
		ServiceType: mapServiceTypeToFedEx(request.ServiceType),
		LabelFormat: request.LabelFormat,
		Reference:   request.ShipmentID,
	}
}

func (a *FedExAdapter) toFedExRateRequest(request domain.RateRequest) *fedexRateRequest {
	return &fedexRateRequest{
		OriginPostal:      request.Shipper.PostalCode,
		OriginCountry:     request.Shipper.Country,
		DestinationPostal: request.Recipient.PostalCode,
		DestinationCountry: request.Recipient.Country,
		WeightKg:          request.WeightKg,
	}
}

func (a *FedExAdapter) translateFedExError(err error) error {
	return domain.NewCarrierError("FEDEX_ERROR", "FedEx request failed", true, err)
}

func toFedExParty(address domain.Address) fedexParty {
	return fedexParty{
		PersonName: address.Name,
		Street:     address.Street1,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
}

// --- FedEx API models (would come from the FedEx SDK) ---

type fedexShipRequest struct {
	Shipper     fedexParty
	Recipient   fedexParty
	WeightKg    float64
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
	ServiceType string
	LabelFormat string
	Reference   string
}

type fedexShipReply struct {
	TrackingNumber string
	LabelImage     string
}

type fedexParty struct {
	PersonName string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

type fedexRateRequest struct {
	OriginPostal       string
	OriginCountry      string
	DestinationPostal  string
	DestinationCountry string
	WeightKg           float64
}

type fedexRateReply struct {
	ServiceType string
	ServiceName string
	NetCharge   float64
	Currency    string
	TransitDays int
}

type fedexCloseReply struct {
	CloseID string
}

func mapServiceTypeToFedEx(serviceType string) string {
	mapping := map[string]string{
		"GROUND":    "FEDEX_GROUND",
		"EXPEDITED": "FEDEX_2_DAY",
		"EXPRESS":   "PRIORITY_OVERNIGHT",
	}
	if code, exists := mapping[serviceType]; exists {
		return code
	}
	return "FEDEX_GROUND"
}
