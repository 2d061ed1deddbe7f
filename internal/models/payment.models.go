// internal/models/payment.models.go
package models

import "time"

// PaymentStatus is the universal payment state, whatever provider the
// checkout went through.
type PaymentStatus string

const (
	PaymentStatusCreated PaymentStatus = "CREATED"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentSucceeded     PaymentStatus = "SUCCEEDED"
	PaymentFailed        PaymentStatus = "FAILED"
)

// Payment links a checkout created at the payment provider back to the
// shipment it pays for. ProviderID is the provider's own identifier
// (e.g. "mf_1712..." or a Stripe PaymentIntent id) and is the correlating
// identifier payment webhooks carry.
type Payment struct {
	ID             string        `json:"id"`
	ProviderID     string        `json:"providerId"`
	Provider       string        `json:"provider"`
	TrackingNumber string        `json:"trackingNumber"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	PaymentURL     string        `json:"paymentUrl,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
