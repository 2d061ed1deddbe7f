// internal/webhook/service.go
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/logisa/automation-service/internal/kafka"
	"github.com/logisa/automation-service/internal/models"
	"github.com/logisa/automation-service/internal/notifications"
	"github.com/logisa/automation-service/store"
)

// Service applies normalized provider events to the datastore. Every
// apply is an idempotent "update status for all records matching this
// correlating identifier": the same callback may be redelivered by the
// provider and must change nothing the second time.
type Service struct {
	shipments store.ShipmentStore
	payments  store.PaymentStore
	notifier  notifications.Notifier // nil disables notifications
	producer  kafka.Publisher        // nil disables event publishing
}

func NewService(
	shipments store.ShipmentStore,
	payments store.PaymentStore,
	notifier notifications.Notifier,
	producer kafka.Publisher,
) *Service {
	return &Service{
		shipments: shipments,
		payments:  payments,
		notifier:  notifier,
		producer:  producer,
	}
}

// HandleEvent applies one event and returns how many records changed.
// An unknown correlating identifier is not an error: zero mutations, and
// the caller acknowledges the callback anyway.
func (s *Service) HandleEvent(ctx context.Context, event NormalizedEvent) (int64, error) {
	log.Printf("[Webhook] processing %s %s event (tracking=%q payment=%q)",
		event.Provider, event.Kind, event.TrackingNumber, event.ProviderPaymentID)

	switch event.Kind {
	case KindShipment:
		return s.applyShipmentEvent(ctx, event)
	case KindPayment:
		return s.applyPaymentEvent(ctx, event)
	}
	return 0, fmt.Errorf("unknown event kind %q", event.Kind)
}

func (s *Service) applyShipmentEvent(ctx context.Context, event NormalizedEvent) (int64, error) {
	count, err := s.shipments.UpdateStatusByTrackingNumber(ctx, event.TrackingNumber, event.ShipmentStatus)
	if err != nil {
		return 0, fmt.Errorf("failed to update shipment status: %w", err)
	}
	if count == 0 {
		// Unknown tracking number or a redelivered callback. Either way
		// there is nothing more to do.
		return 0, nil
	}

	s.publishStatusChange(event.TrackingNumber, event.ShipmentStatus)

	if event.ShipmentStatus.IsTerminal() {
		s.notifyTransition(ctx, event.TrackingNumber, event.ShipmentStatus)
	}
	return count, nil
}

func (s *Service) applyPaymentEvent(ctx context.Context, event NormalizedEvent) (int64, error) {
	var total int64

	tracking := event.TrackingNumber
	if event.ProviderPaymentID != "" {
		count, err := s.payments.UpdatePaymentStatusByProviderID(ctx, event.ProviderPaymentID, event.PaymentStatus)
		if err != nil {
			return total, fmt.Errorf("failed to update payment status: %w", err)
		}
		total += count

		// The callback may carry only the provider's id; our own payment
		// record knows which shipment it pays for.
		if tracking == "" {
			p, err := s.payments.FindPaymentByProviderID(ctx, event.ProviderPaymentID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return total, fmt.Errorf("failed to look up payment: %w", err)
			}
			if p != nil {
				tracking = p.TrackingNumber
			}
		}
	}

	if event.PaymentStatus == models.PaymentSucceeded && tracking != "" {
		count, err := s.shipments.UpdateStatusByTrackingNumber(ctx, tracking, models.StatusPaid)
		if err != nil {
			return total, fmt.Errorf("failed to mark shipment paid: %w", err)
		}
		total += count
		if count > 0 {
			s.publishStatusChange(tracking, models.StatusPaid)
			s.notifyTransition(ctx, tracking, models.StatusPaid)
		}
	}
	return total, nil
}

// notifyTransition sends at most one notification per real transition
// into a terminal state. The store's conditional update already
// guaranteed this call happens once per transition, so no extra
// bookkeeping is needed here.
func (s *Service) notifyTransition(ctx context.Context, trackingNumber string, status models.ShipmentStatus) {
	if s.notifier == nil {
		return
	}
	shipment, err := s.shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		log.Printf("[WARN] cannot notify for %s: %v", trackingNumber, err)
		return
	}
	if shipment.CustomerContact == "" {
		log.Printf("[Webhook] no contact on shipment %s, skipping notification", trackingNumber)
		return
	}

	var message string
	switch status {
	case models.StatusPaid:
		message = fmt.Sprintf("✅ تم استلام الدفع للشحنة %s", trackingNumber)
	case models.StatusDelivered:
		message = fmt.Sprintf("📦 تم تسليم الشحنة %s بنجاح", trackingNumber)
	default:
		message = fmt.Sprintf("تحديث حالة الشحنة %s: %s", trackingNumber, status)
	}

	channel := notifications.ChannelWhatsApp
	if shipment.Source == models.ChannelTelegram {
		channel = notifications.ChannelTelegram
	}
	meta := map[string]string{"trackingNumber": trackingNumber, "status": string(status)}
	if err := s.notifier.Send(ctx, channel, shipment.CustomerContact, message, meta); err != nil {
		// A lost notification is not a lost mutation; log and move on.
		log.Printf("[WARN] notification failed for %s: %v", trackingNumber, err)
	}
}

func (s *Service) publishStatusChange(trackingNumber string, status models.ShipmentStatus) {
	if s.producer == nil {
		return
	}
	event := map[string]interface{}{
		"event": "shipment.status_changed",
		"payload": map[string]string{
			"trackingNumber": trackingNumber,
			"status":         string(status),
		},
	}
	go s.producer.Publish(context.Background(), trackingNumber, event)
}
