// store/store.go
package store

import (
	"context"
	"errors"

	"github.com/logisa/automation-service/internal/models"
)

// ErrNotFound is returned by the Find* methods when no record matches.
var ErrNotFound = errors.New("record not found")

// ShipmentStore is the storage interface for shipments. The webhook
// pipeline relies on UpdateStatusByTrackingNumber being idempotent:
// redelivering the same callback must report zero updated rows the second
// time, which is what keeps notifications at-most-once.
type ShipmentStore interface {
	CreateShipment(ctx context.Context, shipment models.Shipment) (models.Shipment, error)

	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)

	// UpdateStatusByTrackingNumber sets the status on every shipment with
	// the given tracking number and returns how many rows actually
	// changed. Rows already in the target status are not counted.
	UpdateStatusByTrackingNumber(ctx context.Context, trackingNumber string, status models.ShipmentStatus) (int64, error)

	// ListShipments returns shipments newest first.
	ListShipments(ctx context.Context, limit, offset int32) ([]models.Shipment, error)
}

// PaymentStore is the storage interface for payment records.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment models.Payment) error

	FindPaymentByProviderID(ctx context.Context, providerID string) (*models.Payment, error)

	FindPaymentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Payment, error)

	// UpdatePaymentStatusByProviderID transitions the payment state and
	// returns the number of rows changed. A payment already in SUCCEEDED
	// is never downgraded, whatever the webhook says.
	UpdatePaymentStatusByProviderID(ctx context.Context, providerID string, status models.PaymentStatus) (int64, error)
}
