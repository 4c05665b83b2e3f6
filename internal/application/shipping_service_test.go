package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/outbound-service/pkg/errors"
	"github.com/wms-platform/outbound-service/pkg/logging"

	"github.com/wms-platform/outbound-service/internal/domain"
)

type fakeManifestRepo struct {
	manifests map[string]*domain.Manifest
	saveErr   error
}

func (f *fakeManifestRepo) Save(ctx context.Context, manifest *domain.Manifest) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.manifests == nil {
		f.manifests = make(map[string]*domain.Manifest)
	}
	f.manifests[manifest.ManifestID] = manifest
	return nil
}

func (f *fakeManifestRepo) FindByID(ctx context.Context, manifestID string) (*domain.Manifest, error) {
	return f.manifests[manifestID], nil
}

type fakeCarrier struct {
	code        string
	quotes      []domain.RateQuote
	ratesErr    error
	labelErr    error
	manifestErr error
}

func (f *fakeCarrier) GetRates(ctx context.Context, request domain.RateRequest) ([]domain.RateQuote, error) {
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.quotes, nil
}

func (f *fakeCarrier) GenerateLabel(ctx context.Context, request domain.LabelRequest) (*domain.ShippingLabel, error) {
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	return &domain.ShippingLabel{
		TrackingNumber: "TRK-" + request.ShipmentID,
		CarrierCode:    f.code,
		ServiceType:    request.ServiceType,
		LabelFormat:    request.LabelFormat,
		GeneratedAt:    time.Now(),
	}, nil
}

func (f *fakeCarrier) CreateManifest(ctx context.Context, shipments []*domain.Shipment) (*domain.Manifest, error) {
	if f.manifestErr != nil {
		return nil, f.manifestErr
	}
	ids := make([]string, 0, len(shipments))
	total := 0.0
	for _, shipment := range shipments {
		ids = append(ids, shipment.ShipmentID)
		total += shipment.WeightKg
	}
	return &domain.Manifest{
		ManifestID:    "MAN-" + f.code,
		CarrierCode:   f.code,
		ShipmentIDs:   ids,
		ShipmentCount: len(ids),
		TotalWeightKg: total,
		GeneratedAt:   time.Now(),
	}, nil
}

func (f *fakeCarrier) GetCarrierCode() string {
	return f.code
}

func newShippingTestService(shipmentRepo *fakeShipmentRepo, manifestRepo *fakeManifestRepo, carriers ...domain.CarrierService) *ShippingApplicationService {
	logger := logging.New(logging.DefaultConfig("test"))
	return NewShippingApplicationService(shipmentRepo, manifestRepo, carriers, nil, nil, logger)
}

func TestShippingApplicationService_CreateShipment(t *testing.T) {
	shipmentRepo := &fakeShipmentRepo{}
	svc := newShippingTestService(shipmentRepo, &fakeManifestRepo{})

	dto, err := svc.CreateShipment(context.Background(), CreateShipmentCommand{
		OrderID:     "SO-1",
		PackOrderID: "PKO-1",
		WarehouseID: "WH-1",
		WeightKg:    12.5,
		Dimensions:  domain.Dimensions{Length: 40, Width: 30, Height: 20},
		Shipper:     domain.Address{City: "Rotterdam", Country: "NL"},
		Recipient:   domain.Address{City: "Berlin", Country: "DE"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ShipmentStatusReady), dto.Status)
	assert.NotEmpty(t, dto.ShipmentID)
	assert.Len(t, shipmentRepo.shipments, 1)

	_, err = svc.CreateShipment(context.Background(), CreateShipmentCommand{OrderID: "", WarehouseID: "WH-1", WeightKg: 1})
	assert.Error(t, err)

	_, err = svc.CreateShipment(context.Background(), CreateShipmentCommand{OrderID: "SO-1", WarehouseID: "WH-1", WeightKg: 0})
	assert.Error(t, err)
}

func TestShippingApplicationService_ShopRates(t *testing.T) {
	delivery := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ups := &fakeCarrier{code: "UPS", quotes: []domain.RateQuote{
		{CarrierCode: "UPS", ServiceType: "GROUND", TotalCost: 12.40, Currency: "EUR", TransitDays: 3, EstimatedDelivery: delivery},
		{CarrierCode: "UPS", ServiceType: "EXPRESS", TotalCost: 29.90, Currency: "EUR", TransitDays: 1, EstimatedDelivery: delivery},
	}}
	fedex := &fakeCarrier{code: "FEDEX", quotes: []domain.RateQuote{
		{CarrierCode: "FEDEX", ServiceType: "PRIORITY", TotalCost: 24.50, Currency: "EUR", TransitDays: 1, EstimatedDelivery: delivery},
	}}

	cmd := ShopRatesCommand{
		Shipper:    domain.Address{City: "Rotterdam", Country: "NL"},
		Recipient:  domain.Address{City: "Berlin", Country: "DE"},
		WeightKg:   5,
		Dimensions: domain.Dimensions{Length: 30, Width: 20, Height: 15},
	}

	t.Run("pools quotes and picks cheapest and fastest", func(t *testing.T) {
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, ups, fedex)

		selection, err := svc.ShopRates(context.Background(), cmd)
		require.NoError(t, err)
		assert.Len(t, selection.Quotes, 3)
		require.NotNil(t, selection.Cheapest)
		assert.Equal(t, 12.40, selection.Cheapest.TotalCost)
		// ties on transit days go to the cheaper quote
		require.NotNil(t, selection.Fastest)
		assert.Equal(t, "FEDEX", selection.Fastest.CarrierCode)
	})

	t.Run("one failing carrier degrades the pool", func(t *testing.T) {
		broken := &fakeCarrier{code: "UPS", ratesErr: errors.New("gateway timeout")}
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, broken, fedex)

		selection, err := svc.ShopRates(context.Background(), cmd)
		require.NoError(t, err)
		assert.Len(t, selection.Quotes, 1)
		assert.Equal(t, "FEDEX", selection.Cheapest.CarrierCode)
	})

	t.Run("all carriers failing is unavailable", func(t *testing.T) {
		broken := &fakeCarrier{code: "UPS", ratesErr: errors.New("gateway timeout")}
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, broken)

		_, err := svc.ShopRates(context.Background(), cmd)
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeServiceUnavailable, appErr.Code)
	})

	t.Run("no carriers registered is unavailable", func(t *testing.T) {
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{})

		_, err := svc.ShopRates(context.Background(), cmd)
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeServiceUnavailable, appErr.Code)
	})
}

func TestShippingApplicationService_GenerateLabel(t *testing.T) {
	ups := &fakeCarrier{code: "UPS"}

	t.Run("labels a shipment", func(t *testing.T) {
		shipment := newTestShipment("SHP-1", 10, nil)
		shipmentRepo := &fakeShipmentRepo{shipments: map[string]*domain.Shipment{"SHP-1": shipment}}
		svc := newShippingTestService(shipmentRepo, &fakeManifestRepo{}, ups)

		dto, err := svc.GenerateLabel(context.Background(), GenerateLabelCommand{
			ShipmentID:  "SHP-1",
			CarrierCode: "UPS",
			ServiceType: "GROUND",
		})
		require.NoError(t, err)
		require.NotNil(t, dto.Label)
		assert.Equal(t, "TRK-SHP-1", dto.Label.TrackingNumber)
		assert.Equal(t, "PDF", dto.Label.LabelFormat)
		assert.Equal(t, "UPS", dto.CarrierCode)
		assert.True(t, shipment.IsLabeled())
	})

	t.Run("unknown carrier is rejected", func(t *testing.T) {
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, ups)

		_, err := svc.GenerateLabel(context.Background(), GenerateLabelCommand{ShipmentID: "SHP-1", CarrierCode: "DHL"})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	})

	t.Run("relabeling is rejected", func(t *testing.T) {
		shipment := newTestShipment("SHP-1", 10, nil)
		require.NoError(t, shipment.ApplyLabel(domain.ShippingLabel{TrackingNumber: "TRK-OLD", CarrierCode: "UPS"}))
		shipmentRepo := &fakeShipmentRepo{shipments: map[string]*domain.Shipment{"SHP-1": shipment}}
		svc := newShippingTestService(shipmentRepo, &fakeManifestRepo{}, ups)

		_, err := svc.GenerateLabel(context.Background(), GenerateLabelCommand{ShipmentID: "SHP-1", CarrierCode: "UPS"})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	})

	t.Run("carrier failure is unavailable", func(t *testing.T) {
		broken := &fakeCarrier{code: "UPS", labelErr: errors.New("label api down")}
		shipmentRepo := &fakeShipmentRepo{shipments: map[string]*domain.Shipment{"SHP-1": newTestShipment("SHP-1", 10, nil)}}
		svc := newShippingTestService(shipmentRepo, &fakeManifestRepo{}, broken)

		_, err := svc.GenerateLabel(context.Background(), GenerateLabelCommand{ShipmentID: "SHP-1", CarrierCode: "UPS"})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeServiceUnavailable, appErr.Code)
	})

	t.Run("missing shipment is not found", func(t *testing.T) {
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, ups)

		_, err := svc.GenerateLabel(context.Background(), GenerateLabelCommand{ShipmentID: "missing", CarrierCode: "UPS"})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	})
}

func TestShippingApplicationService_CreateManifest(t *testing.T) {
	ups := &fakeCarrier{code: "UPS"}

	t.Run("builds the manifest from labeled shipments", func(t *testing.T) {
		first := newTestShipment("SHP-1", 10, nil)
		second := newTestShipment("SHP-2", 15, nil)
		require.NoError(t, first.ApplyLabel(domain.ShippingLabel{TrackingNumber: "TRK-1", CarrierCode: "UPS"}))
		require.NoError(t, second.ApplyLabel(domain.ShippingLabel{TrackingNumber: "TRK-2", CarrierCode: "UPS"}))
		shipmentRepo := &fakeShipmentRepo{shipments: map[string]*domain.Shipment{"SHP-1": first, "SHP-2": second}}
		manifestRepo := &fakeManifestRepo{}
		svc := newShippingTestService(shipmentRepo, manifestRepo, ups)

		dto, err := svc.CreateManifest(context.Background(), CreateManifestCommand{CarrierCode: "UPS"})
		require.NoError(t, err)
		assert.Equal(t, 2, dto.ShipmentCount)
		assert.Equal(t, 25.0, dto.TotalWeightKg)
		assert.Len(t, manifestRepo.manifests, 1)
	})

	t.Run("no labeled shipments is a business rule violation", func(t *testing.T) {
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, ups)

		_, err := svc.CreateManifest(context.Background(), CreateManifestCommand{CarrierCode: "UPS"})
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeBusinessRule, appErr.Code)
	})

	t.Run("unknown carrier is rejected", func(t *testing.T) {
		svc := newShippingTestService(&fakeShipmentRepo{}, &fakeManifestRepo{}, ups)

		_, err := svc.CreateManifest(context.Background(), CreateManifestCommand{CarrierCode: "DHL"})
		assert.Error(t, err)
	})
}

func TestShippingApplicationService_GetShipmentsByStatus(t *testing.T) {
	ready := newTestShipment("SHP-1", 10, nil)
	shipmentRepo := &fakeShipmentRepo{shipments: map[string]*domain.Shipment{"SHP-1": ready}}
	svc := newShippingTestService(shipmentRepo, &fakeManifestRepo{})

	dtos, err := svc.GetShipmentsByStatus(context.Background(), GetShipmentsByStatusQuery{Status: domain.ShipmentStatusReady})
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "SHP-1", dtos[0].ShipmentID)

	delivered, err := svc.GetShipmentsByStatus(context.Background(), GetShipmentsByStatusQuery{Status: domain.ShipmentStatusDelivered})
	require.NoError(t, err)
	assert.Empty(t, delivered)
}
