// internal/webhook/mapit.go
package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/logisa/automation-service/internal/models"
)

// MapitProcessor handles carrier status callbacks from Mapit.
type MapitProcessor struct {
	verifier *Verifier
}

func NewMapitProcessor(secret string) *MapitProcessor {
	return &MapitProcessor{verifier: NewVerifier(secret, "X-Mapit-Signature")}
}

func (p *MapitProcessor) Provider() string {
	return "Mapit"
}

func (p *MapitProcessor) VerifyAndParse(payload []byte, headers http.Header) (*NormalizedEvent, error) {
	// Authentication first: nothing is parsed before the signature holds.
	if !p.verifier.Verify(headers, payload) {
		return nil, ErrInvalidSignature
	}

	var body struct {
		TrackingNumber string `json:"trackingNumber"`
		Status         string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	// A callback with no tracking number is authentic but unactionable:
	// acknowledge it so the carrier does not retry indefinitely.
	if body.TrackingNumber == "" {
		return nil, nil
	}
	if body.Status == "" {
		return nil, fmt.Errorf("%w: status", ErrMissingField)
	}

	return &NormalizedEvent{
		Provider:       p.Provider(),
		Kind:           KindShipment,
		TrackingNumber: body.TrackingNumber,
		ShipmentStatus: mapCarrierStatus(body.Status),
	}, nil
}

// mapCarrierStatus maps the carrier's status vocabulary onto ours.
// Unknown strings pass through untouched so a new carrier status is
// stored rather than lost.
func mapCarrierStatus(s string) models.ShipmentStatus {
	switch strings.ToLower(strings.ReplaceAll(s, "_", " ")) {
	case "created", "pre transit":
		return models.StatusCreated
	case "picked up", "pickup":
		return models.StatusPickedUp
	case "in transit", "transit":
		return models.StatusInTransit
	case "delivered":
		return models.StatusDelivered
	case "cancelled", "canceled":
		return models.StatusCancelled
	case "exception", "failed":
		return models.StatusException
	}
	return models.ShipmentStatus(s)
}
