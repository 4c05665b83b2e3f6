package carriers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wms-platform/outbound-service/pkg/resilience"

	"github.com/wms-platform/outbound-service/internal/domain"
)

// ResilientCarrier wraps a carrier adapter with a circuit breaker so a
// degraded carrier API fails fast instead of stalling rate shopping and
// labeling for every request. Retryable carrier errors are retried with
// backoff before they count against the breaker.
type ResilientCarrier struct {
	inner   domain.CarrierService
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
}

// WithCircuitBreaker wraps a carrier adapter with a per-carrier breaker.
func WithCircuitBreaker(inner domain.CarrierService, logger *slog.Logger) *ResilientCarrier {
	config := resilience.DefaultCircuitBreakerConfig("carrier-" + inner.GetCarrierCode())
	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.RetryableErrors = func(err error) bool {
		var carrierErr *domain.CarrierError
		return errors.As(err, &carrierErr) && carrierErr.Retryable
	}
	return &ResilientCarrier{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(config, logger),
		retry:   retryConfig,
	}
}

func (c *ResilientCarrier) GetCarrierCode() string {
	return c.inner.GetCarrierCode()
}

func (c *ResilientCarrier) GetRates(ctx context.Context, request domain.RateRequest) ([]domain.RateQuote, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, c.retry, func() ([]domain.RateQuote, error) {
			return c.inner.GetRates(ctx, request)
		})
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.RateQuote), nil
}

func (c *ResilientCarrier) GenerateLabel(ctx context.Context, request domain.LabelRequest) (*domain.ShippingLabel, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, c.retry, func() (*domain.ShippingLabel, error) {
			return c.inner.GenerateLabel(ctx, request)
		})
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.ShippingLabel), nil
}

func (c *ResilientCarrier) CreateManifest(ctx context.Context, shipments []*domain.Shipment) (*domain.Manifest, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.inner.CreateManifest(ctx, shipments)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Manifest), nil
}
