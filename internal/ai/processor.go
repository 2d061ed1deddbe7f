// internal/ai/processor.go
package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/logisa/automation-service/internal/kafka"
	"github.com/logisa/automation-service/internal/models"
	"github.com/logisa/automation-service/internal/providers"
	"github.com/logisa/automation-service/store"
)

// OutcomeType tags the decision the gate made for one message.
type OutcomeType string

const (
	OutcomeImmediateCreation OutcomeType = "immediate_creation"
	OutcomeNeedClarification OutcomeType = "need_clarification"
	OutcomeTrack             OutcomeType = "track"
	OutcomeCancel            OutcomeType = "cancel"
	OutcomeUnhandled         OutcomeType = "unhandled"
	OutcomeError             OutcomeType = "error"
)

// Outcome is the gate's one decision per inbound message. Exactly one
// case is populated; Confidence is present wherever the gate made a
// judgment call and zero on the error path.
type Outcome struct {
	Type          OutcomeType
	Message       string
	Shipment      *models.Shipment
	PaymentLink   string
	MissingFields []Field
	Details       Entities
	AutoProcessed bool
	Confidence    float64
}

// Request is one inbound message plus whatever the caller already knows.
// Known carries fields extracted on earlier turns; the gate itself keeps
// no state between calls.
type Request struct {
	Message      string
	Channel      models.SourceChannel
	CustomerName string
	Contact      string
	Known        Entities
}

// Processor is the automatic decision gate: classify, extract, evaluate
// sufficiency, then either create immediately, ask for the missing
// fields, or hand the request on. Stateless per call and safe for
// concurrent use.
type Processor struct {
	classifier *Classifier
	extractor  *Extractor
	shipments  store.ShipmentStore
	payments   store.PaymentStore
	gateway    providers.PaymentGateway
	carrier    providers.CarrierGateway // nil skips carrier booking
	producer   kafka.Publisher          // nil disables event publishing
	timeout    time.Duration            // cap on external oracle calls

	// Collapses concurrent deliveries of the same creation request into
	// one flight, the same guard the billing flow puts around PayInvoice.
	sf singleflight.Group
}

func NewProcessor(
	shipments store.ShipmentStore,
	payments store.PaymentStore,
	gateway providers.PaymentGateway,
	carrier providers.CarrierGateway,
	producer kafka.Publisher,
) *Processor {
	return &Processor{
		classifier: NewClassifier(),
		extractor:  NewExtractor(),
		shipments:  shipments,
		payments:   payments,
		gateway:    gateway,
		carrier:    carrier,
		producer:   producer,
		timeout:    15 * time.Second,
	}
}

// Process runs one message through the gate. It never raises past its own
// boundary: oracle failures, datastore failures and panics all come back
// as an Error outcome with confidence 0.
func (p *Processor) Process(ctx context.Context, req Request) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Processor] recovered from panic: %v", r)
			out = errorOutcome()
		}
	}()

	intent, confidence := p.classifier.Classify(req.Message)
	entities := Merge(req.Known, p.extractor.Extract(req.Message))

	switch intent {
	case IntentCreateShipment:
		return p.autoCreateShipment(ctx, req, entities, confidence)

	case IntentTrackShipment:
		// The actual lookup is the tracking collaborator's job; the gate
		// only decides this is a track request and packages the hints.
		return Outcome{
			Type:          OutcomeTrack,
			Message:       "جاري تتبع الشحنة.",
			Details:       entities,
			AutoProcessed: true,
			Confidence:    confidence,
		}

	case IntentCancelShipment:
		return Outcome{
			Type:          OutcomeCancel,
			Message:       "تم استلام طلب إلغاء الشحنة.",
			Details:       entities,
			AutoProcessed: true,
			Confidence:    confidence,
		}
	}

	// No recognized verb, but the message still carried shipment fields
	// ("to Jeddah" as a follow-up turn): treat it as a continuation of a
	// creation request. The low classifier confidence rides along
	// unchanged, so an incomplete follow-up reads as low confidence.
	if hasAnyField(entities) {
		return p.autoCreateShipment(ctx, req, entities, confidence)
	}

	return Outcome{
		Type:       OutcomeUnhandled,
		Message:    "Intent not supported",
		Confidence: confidence,
	}
}

func (p *Processor) autoCreateShipment(ctx context.Context, req Request, entities Entities, confidence float64) Outcome {
	if !Sufficient(entities) {
		// Raw classifier confidence here, no floor: low confidence on an
		// incomplete request should read as low confidence.
		return Outcome{
			Type:          OutcomeNeedClarification,
			Message:       "أحتاج بعض المعلومات الإضافية:",
			MissingFields: Missing(entities),
			Confidence:    confidence,
		}
	}

	// Concurrent duplicates of one message (channel redelivery, double
	// taps) join a single creation flight and share its outcome. A later
	// identical message is a new request and gets its own shipment.
	v, _, _ := p.sf.Do(creationKey(req), func() (interface{}, error) {
		return p.createShipment(ctx, req, entities, confidence), nil
	})
	return v.(Outcome)
}

// creationKey identifies one creation attempt across concurrent duplicate
// deliveries: same sender, same message text modulo case and whitespace.
func creationKey(req Request) string {
	text := strings.Join(strings.Fields(strings.ToLower(req.Message)), " ")
	return req.Contact + "|" + text
}

func (p *Processor) createShipment(ctx context.Context, req Request, entities Entities, confidence float64) Outcome {
	draft := p.newDraft(req, entities)

	// Payment link first: the datastore write is applied only after every
	// upstream decision succeeded, so an oracle failure leaves nothing
	// half-created.
	payment, err := p.createPaymentLink(ctx, draft)
	if err != nil {
		log.Printf("[Processor] payment initiation failed for %s: %v", draft.TrackingNumber, err)
		return errorOutcome()
	}

	// Carrier booking is best-effort: the record keeps its local tracking
	// number either way, the carrier's own number rides along when the
	// booking went through.
	if p.carrier != nil {
		bookCtx, cancel := context.WithTimeout(ctx, p.timeout)
		booking, err := p.carrier.CreateShipment(bookCtx, draft)
		cancel()
		if err != nil {
			log.Printf("[WARN] carrier booking failed for %s: %v", draft.TrackingNumber, err)
		} else if booking != nil {
			draft.CarrierTracking = booking.TrackingNumber
			draft.Carrier = booking.Carrier
		}
	}

	created, err := p.shipments.CreateShipment(ctx, draft)
	if err != nil {
		log.Printf("[Processor] failed to persist shipment %s: %v", draft.TrackingNumber, err)
		return errorOutcome()
	}

	if p.payments != nil && payment != nil {
		record := models.Payment{
			ID:             uuid.NewString(),
			ProviderID:     payment.ProviderID,
			Provider:       "Myfatora",
			TrackingNumber: created.TrackingNumber,
			Amount:         created.Price,
			Currency:       "SAR",
			Status:         payment.Status,
			PaymentURL:     payment.PaymentURL,
			CreatedAt:      time.Now().UTC(),
			UpdatedAt:      time.Now().UTC(),
		}
		if err := p.payments.CreatePayment(ctx, record); err != nil {
			// The shipment exists and the checkout exists; losing the local
			// payment row is recoverable, so log and continue.
			log.Printf("[WARN] failed to persist payment record for %s: %v", created.TrackingNumber, err)
		}
	}

	if p.producer != nil {
		event := map[string]interface{}{
			"event":   "shipment.created",
			"payload": created,
		}
		// Fire-and-forget; event delivery must not block the reply.
		go p.producer.Publish(context.Background(), created.ID, event)
	}

	link := ""
	if payment != nil {
		link = payment.PaymentURL
	}
	floored := confidence
	if floored < 0.8 {
		floored = 0.8
	}
	return Outcome{
		Type:          OutcomeImmediateCreation,
		Message:       "✅ تم إنشاء الشحنة تلقائياً!",
		Shipment:      &created,
		PaymentLink:   link,
		AutoProcessed: true,
		Confidence:    floored,
	}
}

// createPaymentLink asks the payment oracle for a checkout, bounded by the
// processor timeout.
func (p *Processor) createPaymentLink(ctx context.Context, draft models.Shipment) (*providers.PaymentResult, error) {
	if p.gateway == nil {
		return nil, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.gateway.CreatePayment(callCtx, providers.PaymentRequest{
		Amount:   draft.Price,
		Currency: "SAR",
		Metadata: map[string]string{
			"trackingNumber": draft.TrackingNumber,
			"customerName":   draft.CustomerName,
		},
	})
}

// newDraft synthesizes the shipment record once all slots are known.
// The identifier is timestamp-prefixed so records sort by creation time,
// with a uuid suffix for global uniqueness.
func (p *Processor) newDraft(req Request, entities Entities) models.Shipment {
	now := time.Now().UTC()
	id := fmt.Sprintf("AUTO-%s-%s",
		now.Format("20060102150405"),
		strings.ToUpper(uuid.NewString()[:8]),
	)

	customerName := "Unknown"
	if entities.CustomerName != nil {
		customerName = *entities.CustomerName
	} else if req.CustomerName != "" {
		customerName = req.CustomerName
	}

	source := req.Channel
	if source == "" {
		source = models.ChannelWhatsApp
	}

	return models.Shipment{
		ID:              id,
		TrackingNumber:  id,
		CarrierTracking: "",
		Carrier:         models.CarrierAuto,
		Status:          models.StatusCreated,
		CustomerName:    customerName,
		CustomerContact: req.Contact,
		Origin:          *entities.Origin,
		Destination:     *entities.Destination,
		Weight:          *entities.Weight,
		PackageType:     *entities.PackageType,
		Cost:            0,
		Price:           0,
		Source:          source,
		CreatedAt:       now,
	}
}

func errorOutcome() Outcome {
	return Outcome{
		Type:       OutcomeError,
		Message:    "automatic processing failed",
		Confidence: 0,
	}
}
