// internal/webhook/stripe/processor.go
package stripe

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"

	"github.com/logisa/automation-service/internal/models"
	"github.com/logisa/automation-service/internal/webhook"
)

// Processor adapts Stripe's signed-event format to the normalized
// ingestion pipeline. Signature verification is delegated to the Stripe
// SDK, which performs its own constant-time HMAC check over the raw body.
type Processor struct {
	secret string
}

func New(secret string) *Processor {
	return &Processor{secret: secret}
}

func (p *Processor) Provider() string {
	return "Stripe"
}

func (p *Processor) VerifyAndParse(payload []byte, headers http.Header) (*webhook.NormalizedEvent, error) {
	event, err := stripewebhook.ConstructEvent(
		payload,
		headers.Get("Stripe-Signature"),
		p.secret,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", webhook.ErrInvalidSignature, err)
	}

	var pi stripe.PaymentIntent
	if event.Data == nil {
		return nil, nil
	}
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		// Authentic event of a shape we do not track; acknowledge it.
		return nil, nil
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return &webhook.NormalizedEvent{
			Provider:          p.Provider(),
			Kind:              webhook.KindPayment,
			TrackingNumber:    pi.Metadata["trackingNumber"],
			ProviderPaymentID: pi.ID,
			PaymentStatus:     models.PaymentSucceeded,
		}, nil

	case "payment_intent.payment_failed":
		var code, msg *string
		if pi.LastPaymentError != nil {
			c := string(pi.LastPaymentError.Code)
			m := pi.LastPaymentError.Msg
			code, msg = &c, &m
		}
		return &webhook.NormalizedEvent{
			Provider:          p.Provider(),
			Kind:              webhook.KindPayment,
			TrackingNumber:    pi.Metadata["trackingNumber"],
			ProviderPaymentID: pi.ID,
			PaymentStatus:     models.PaymentFailed,
			ErrorCode:         code,
			ErrorMessage:      msg,
		}, nil
	}

	// Event types we ignore are still acknowledged.
	return nil, nil
}
