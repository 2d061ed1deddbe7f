// internal/webhook/myfatora.go
package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/logisa/automation-service/internal/models"
)

// MyfatoraProcessor handles payment status callbacks from Myfatora.
type MyfatoraProcessor struct {
	verifier *Verifier
}

func NewMyfatoraProcessor(secret string) *MyfatoraProcessor {
	return &MyfatoraProcessor{verifier: NewVerifier(secret, "X-Myfatora-Signature")}
}

func (p *MyfatoraProcessor) Provider() string {
	return "Myfatora"
}

func (p *MyfatoraProcessor) VerifyAndParse(payload []byte, headers http.Header) (*NormalizedEvent, error) {
	if !p.verifier.Verify(headers, payload) {
		return nil, ErrInvalidSignature
	}

	// The provider nests metadata differently across API versions; check
	// both shapes, same as the dashboard integration always has.
	var body struct {
		ID        string `json:"id"`
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
		Metadata  struct {
			TrackingNumber string `json:"trackingNumber"`
		} `json:"metadata"`
		Data struct {
			Metadata struct {
				TrackingNumber string `json:"trackingNumber"`
			} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	providerID := body.ID
	if providerID == "" {
		providerID = body.PaymentID
	}
	tracking := body.Metadata.TrackingNumber
	if tracking == "" {
		tracking = body.Data.Metadata.TrackingNumber
	}

	// No correlating identifier at all: acknowledge, apply nothing.
	if providerID == "" && tracking == "" {
		return nil, nil
	}
	if body.Status == "" {
		return nil, fmt.Errorf("%w: status", ErrMissingField)
	}

	return &NormalizedEvent{
		Provider:          p.Provider(),
		Kind:              KindPayment,
		TrackingNumber:    tracking,
		ProviderPaymentID: providerID,
		PaymentStatus:     mapPaymentStatus(body.Status),
	}, nil
}

func mapPaymentStatus(s string) models.PaymentStatus {
	switch strings.ToLower(s) {
	case "paid", "succeeded", "success", "completed":
		return models.PaymentSucceeded
	case "failed", "declined", "expired":
		return models.PaymentFailed
	case "pending":
		return models.PaymentStatusPending
	}
	return models.PaymentStatus(strings.ToUpper(s))
}
