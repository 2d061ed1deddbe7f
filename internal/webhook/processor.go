// internal/webhook/processor.go
package webhook

import (
	"errors"
	"net/http"

	"github.com/logisa/automation-service/internal/models"
)

// Boundary errors. Handlers map these to HTTP status codes; nothing else
// about the failure is echoed to the caller.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrMissingField     = errors.New("missing required webhook field")
)

// EventKind says which record family the event applies to.
type EventKind string

const (
	KindShipment EventKind = "shipment"
	KindPayment  EventKind = "payment"
)

// NormalizedEvent is the universal language of the ingestion pipeline:
// whatever provider the callback came from, it always looks like this.
// TrackingNumber or ProviderPaymentID is the correlating identifier used
// to locate the records the event applies to.
type NormalizedEvent struct {
	Provider          string
	Kind              EventKind
	TrackingNumber    string
	ProviderPaymentID string
	ShipmentStatus    models.ShipmentStatus
	PaymentStatus     models.PaymentStatus
	ErrorCode         *string
	ErrorMessage      *string
}

// Processor verifies and parses one provider's raw callback bytes into a
// NormalizedEvent. A (nil, nil) return means "authentic but nothing to
// apply": the callback is acknowledged so the provider stops retrying.
type Processor interface {
	Provider() string
	VerifyAndParse(payload []byte, headers http.Header) (*NormalizedEvent, error)
}
