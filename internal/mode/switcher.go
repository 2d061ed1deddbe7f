// internal/mode/switcher.go
package mode

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/logisa/automation-service/internal/ai"
	"github.com/logisa/automation-service/internal/genai"
	"github.com/logisa/automation-service/internal/models"
)

// Mode is the process-wide handling mode for inbound messages.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

var ErrInvalidMode = errors.New("mode must be auto or manual")

// MessageProcessor is the decision gate as the switcher sees it.
type MessageProcessor interface {
	Process(ctx context.Context, req ai.Request) ai.Outcome
}

// UserContext is whatever the channel knows about the sender, plus any
// entities extracted on earlier turns of this conversation. Continuity is
// the caller's responsibility; the pipeline itself is stateless.
type UserContext struct {
	Name    string
	Contact string
	Known   ai.Entities
}

// Response is the channel-agnostic reply shape every outcome maps into.
type Response struct {
	Type          string           `json:"type"`
	Reply         string           `json:"reply"`
	Shipment      *models.Shipment `json:"shipment,omitempty"`
	PaymentLink   string           `json:"payment_link,omitempty"`
	MissingFields []ai.Field       `json:"missing_fields,omitempty"`
	AutoProcessed bool             `json:"auto_processed"`
	Confidence    float64          `json:"confidence,omitempty"`
}

// Switcher gates whether the decision gate runs at all. The mode is the
// only mutable process-wide state in the pipeline; reads and writes go
// through an RWMutex so a toggle is observed consistently by
// concurrently-processing requests.
type Switcher struct {
	mu        sync.RWMutex
	mode      Mode
	processor MessageProcessor
	replies   genai.ReplyGenerator // optional; nil disables richer replies
}

// NewSwitcher starts in auto mode, which is the default for the service.
func NewSwitcher(processor MessageProcessor, replies genai.ReplyGenerator) *Switcher {
	return &Switcher{
		mode:      ModeAuto,
		processor: processor,
		replies:   replies,
	}
}

// SetMode is the operator action. Message processing never calls it.
func (s *Switcher) SetMode(m Mode) error {
	if m != ModeAuto && m != ModeManual {
		return ErrInvalidMode
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	log.Printf("[Mode] switched to %s", m)
	return nil
}

func (s *Switcher) GetMode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// ProcessMessage checks the mode first. Manual mode is a hard gate: it
// short-circuits before any extraction or classification happens.
func (s *Switcher) ProcessMessage(ctx context.Context, message string, channel models.SourceChannel, user UserContext) Response {
	if s.GetMode() == ModeManual {
		return Response{
			Type:          "manual",
			Reply:         "Manual mode is active. Please use dashboard to create shipments.",
			AutoProcessed: false,
		}
	}

	out := s.processor.Process(ctx, ai.Request{
		Message:      message,
		Channel:      channel,
		CustomerName: user.Name,
		Contact:      user.Contact,
		Known:        user.Known,
	})

	switch out.Type {
	case ai.OutcomeImmediateCreation:
		return Response{
			Type:          string(out.Type),
			Reply:         out.Message,
			Shipment:      out.Shipment,
			PaymentLink:   out.PaymentLink,
			AutoProcessed: true,
			Confidence:    out.Confidence,
		}

	case ai.OutcomeNeedClarification:
		return Response{
			Type:          string(out.Type),
			Reply:         out.Message,
			MissingFields: out.MissingFields,
			AutoProcessed: false,
			Confidence:    out.Confidence,
		}

	case ai.OutcomeError:
		return Response{
			Type:          string(out.Type),
			Reply:         "حدث خطأ في معالجة الرسالة. يرجى المحاولة مرة أخرى.",
			AutoProcessed: false,
		}
	}

	reply := out.Message
	if out.Type == ai.OutcomeUnhandled && s.replies != nil {
		// The bounded matcher gave up; let the conversational oracle try.
		// Its failure is not ours: fall back to the fixed reply.
		genCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if r, err := s.replies.GenerateReply(genCtx, nil, message); err == nil && r.Text != "" {
			reply = r.Text
		} else if err != nil {
			log.Printf("[WARN] reply generator failed: %v", err)
		}
	}

	return Response{
		Type:          string(out.Type),
		Reply:         reply,
		AutoProcessed: out.AutoProcessed,
		Confidence:    out.Confidence,
	}
}
