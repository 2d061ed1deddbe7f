// internal/providers/providers.go
package providers

import (
	"context"
	"errors"

	"github.com/logisa/automation-service/internal/models"
)

// Standard provider errors.
var (
	ErrPaymentFailed = errors.New("payment provider rejected the request")
	ErrInvalidAmount = errors.New("invalid payment amount")
	ErrCarrierFailed = errors.New("carrier rejected the shipment request")
)

// PaymentRequest encapsulates everything needed to open a checkout at the
// payment provider. Metadata carries the tracking number so the provider
// echoes it back in its webhook.
type PaymentRequest struct {
	Amount   float64
	Currency string
	Metadata map[string]string
}

// PaymentResult is the provider's answer: its own id for the checkout,
// the URL the customer pays at, and the initial status.
type PaymentResult struct {
	ProviderID string
	PaymentURL string
	Status     models.PaymentStatus
}

// PaymentGateway abstracts the external payment-initiation oracle.
// Implementations must respect ctx for timeout and cancellation.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// CarrierResult is the carrier's answer to a booking request.
type CarrierResult struct {
	TrackingNumber    string
	Status            models.ShipmentStatus
	EstimatedDelivery string
	Carrier           models.Carrier
}

// CarrierGateway abstracts the external carrier API used to book a
// physical pickup for a drafted shipment.
type CarrierGateway interface {
	CreateShipment(ctx context.Context, shipment models.Shipment) (*CarrierResult, error)
}
