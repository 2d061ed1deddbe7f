// internal/ai/processor_test.go
package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/logisa/automation-service/internal/models"
	"github.com/logisa/automation-service/internal/providers"
	"github.com/logisa/automation-service/store"
)

// mockGateway is a hand-rolled payment gateway double. It records every
// call so tests can assert the oracle was (or was not) consulted.
type mockGateway struct {
	calls int
	err   error
	panic bool
}

func (m *mockGateway) CreatePayment(ctx context.Context, req providers.PaymentRequest) (*providers.PaymentResult, error) {
	m.calls++
	if m.panic {
		panic("gateway exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	return &providers.PaymentResult{
		ProviderID: "mf_test",
		PaymentURL: "https://myfatora.example/pay/mf_test",
		Status:     models.PaymentStatusCreated,
	}, nil
}

func newTestProcessor(gw providers.PaymentGateway) (*Processor, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewProcessor(st, st, gw, nil, nil), st
}

func TestProcessCompleteArabicMessage(t *testing.T) {
	gw := &mockGateway{}
	p, st := newTestProcessor(gw)

	out := p.Process(context.Background(), Request{
		Message: "ابي اسوي شحن من الرياض الى جدة، طرد ٢ كيلو",
		Contact: "+966500000001",
	})

	if out.Type != OutcomeImmediateCreation {
		t.Fatalf("outcome = %s (%s), want %s", out.Type, out.Message, OutcomeImmediateCreation)
	}
	if out.Shipment == nil {
		t.Fatal("immediate creation returned no shipment")
	}
	if out.Shipment.Origin != "الرياض" || out.Shipment.Destination != "جدة" {
		t.Errorf("route = %s -> %s, want الرياض -> جدة", out.Shipment.Origin, out.Shipment.Destination)
	}
	if out.Shipment.Weight != 2 {
		t.Errorf("weight = %v, want 2", out.Shipment.Weight)
	}
	if out.Shipment.PackageType != models.PackageParcel {
		t.Errorf("packageType = %s, want %s", out.Shipment.PackageType, models.PackageParcel)
	}
	if out.Confidence != MatchConfidence {
		t.Errorf("confidence = %v, want %v", out.Confidence, MatchConfidence)
	}
	if !out.AutoProcessed {
		t.Error("immediate creation must report autoProcessed")
	}
	if out.PaymentLink == "" {
		t.Error("payment link missing on immediate creation")
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.calls)
	}

	// Shipment and payment record both persisted.
	if _, err := st.FindByTrackingNumber(context.Background(), out.Shipment.TrackingNumber); err != nil {
		t.Errorf("shipment not persisted: %v", err)
	}
	if _, err := st.FindPaymentByProviderID(context.Background(), "mf_test"); err != nil {
		t.Errorf("payment record not persisted: %v", err)
	}
}

// A message with no recognized verb but a shipment field is treated as a
// continuation of a creation request, so a bare "to Jeddah" asks for the
// rest instead of being rejected.
func TestProcessPartialFollowUp(t *testing.T) {
	gw := &mockGateway{}
	p, _ := newTestProcessor(gw)

	out := p.Process(context.Background(), Request{Message: "to Jeddah"})

	if out.Type != OutcomeNeedClarification {
		t.Fatalf("outcome = %s, want %s", out.Type, OutcomeNeedClarification)
	}
	want := []Field{FieldOrigin, FieldWeight, FieldPackageType}
	if len(out.MissingFields) != len(want) {
		t.Fatalf("missing = %v, want %v", out.MissingFields, want)
	}
	for i, f := range want {
		if out.MissingFields[i] != f {
			t.Fatalf("missing = %v, want %v", out.MissingFields, want)
		}
	}
	if out.Confidence != UnknownConfidence {
		t.Errorf("confidence = %v, want %v", out.Confidence, UnknownConfidence)
	}
	if gw.calls != 0 {
		t.Errorf("gateway consulted on an incomplete request (%d calls)", gw.calls)
	}
}

func TestProcessKnownFieldsCompleteTheDraft(t *testing.T) {
	gw := &mockGateway{}
	p, _ := newTestProcessor(gw)

	origin := "Riyadh"
	dest := "Jeddah"
	pkg := models.PackageDocuments
	known := Entities{Origin: &origin, Destination: &dest, PackageType: &pkg}

	out := p.Process(context.Background(), Request{
		Message: "please ship it, 3 kg",
		Known:   known,
	})

	if out.Type != OutcomeImmediateCreation {
		t.Fatalf("outcome = %s, want %s (missing: %v)", out.Type, OutcomeImmediateCreation, out.MissingFields)
	}
	if out.Shipment.Origin != "Riyadh" || out.Shipment.Weight != 3 {
		t.Errorf("draft did not merge earlier turns: %+v", out.Shipment)
	}
}

func TestProcessZeroWeightCreates(t *testing.T) {
	gw := &mockGateway{}
	p, _ := newTestProcessor(gw)

	zero := 0.0
	origin := "Riyadh"
	dest := "Jeddah"
	pkg := models.PackageGift
	out := p.Process(context.Background(), Request{
		Message: "please ship it",
		Known:   Entities{Origin: &origin, Destination: &dest, Weight: &zero, PackageType: &pkg},
	})

	if out.Type != OutcomeImmediateCreation {
		t.Fatalf("zero weight re-asked: outcome = %s, missing = %v", out.Type, out.MissingFields)
	}
}

// blockingGateway parks every CreatePayment call until released so a test
// can hold two requests in flight at the same time.
type blockingGateway struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) CreatePayment(ctx context.Context, req providers.PaymentRequest) (*providers.PaymentResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	return &providers.PaymentResult{
		ProviderID: "mf_dup",
		PaymentURL: "https://myfatora.example/pay/mf_dup",
		Status:     models.PaymentStatusCreated,
	}, nil
}

// A message delivered twice at the same instant (channel redelivery,
// customer double tap) must open one checkout and create one shipment,
// with both deliveries receiving the same outcome.
func TestProcessConcurrentDuplicatesCreateOnce(t *testing.T) {
	gw := &blockingGateway{entered: make(chan struct{}, 2), release: make(chan struct{})}
	p, st := newTestProcessor(gw)

	req := Request{
		Message: "ship from Riyadh to Jeddah, a parcel, 2 kg",
		Contact: "+966500000001",
	}
	outcomes := make(chan Outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			outcomes <- p.Process(context.Background(), req)
		}()
	}

	// First delivery is inside the gateway; give the duplicate time to
	// reach the dedupe before letting the call finish.
	<-gw.entered
	time.Sleep(100 * time.Millisecond)
	close(gw.release)

	first := <-outcomes
	second := <-outcomes
	if first.Type != OutcomeImmediateCreation || second.Type != OutcomeImmediateCreation {
		t.Fatalf("outcomes = %s / %s", first.Type, second.Type)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if first.Shipment.TrackingNumber != second.Shipment.TrackingNumber {
		t.Errorf("duplicates created distinct shipments: %s vs %s",
			first.Shipment.TrackingNumber, second.Shipment.TrackingNumber)
	}

	list, err := st.ListShipments(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListShipments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("persisted shipments = %d, want 1", len(list))
	}
}

// mockCarrier books every shipment with a fixed carrier tracking number.
type mockCarrier struct {
	calls int
	err   error
}

func (m *mockCarrier) CreateShipment(ctx context.Context, shipment models.Shipment) (*providers.CarrierResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &providers.CarrierResult{
		TrackingNumber: "MAPIT-42",
		Status:         models.StatusCreated,
		Carrier:        models.CarrierMapit,
	}, nil
}

func TestProcessBooksCarrier(t *testing.T) {
	st := store.NewMemoryStore()
	carrier := &mockCarrier{}
	p := NewProcessor(st, st, &mockGateway{}, carrier, nil)

	out := p.Process(context.Background(), Request{
		Message: "ship from Riyadh to Jeddah, a parcel, 2 kg",
	})

	if out.Type != OutcomeImmediateCreation {
		t.Fatalf("outcome = %s", out.Type)
	}
	if carrier.calls != 1 {
		t.Fatalf("carrier calls = %d, want 1", carrier.calls)
	}
	if out.Shipment.CarrierTracking != "MAPIT-42" || out.Shipment.Carrier != models.CarrierMapit {
		t.Errorf("booking not applied: %+v", out.Shipment)
	}
	// The local tracking number stays the correlating identifier.
	if out.Shipment.TrackingNumber == "MAPIT-42" {
		t.Error("carrier tracking must not replace the local tracking number")
	}
}

// A carrier outage must not block creation; the booking is retried out of
// band while the record keeps its local tracking number.
func TestProcessCarrierFailureStillCreates(t *testing.T) {
	st := store.NewMemoryStore()
	carrier := &mockCarrier{err: errors.New("mapit down")}
	p := NewProcessor(st, st, &mockGateway{}, carrier, nil)

	out := p.Process(context.Background(), Request{
		Message: "ship from Riyadh to Jeddah, a parcel, 2 kg",
	})

	if out.Type != OutcomeImmediateCreation {
		t.Fatalf("outcome = %s, want creation despite carrier failure", out.Type)
	}
	if out.Shipment.CarrierTracking != "" {
		t.Errorf("carrierTracking = %q, want empty", out.Shipment.CarrierTracking)
	}
}

func TestProcessGatewayFailure(t *testing.T) {
	gw := &mockGateway{err: errors.New("myfatora down")}
	p, st := newTestProcessor(gw)

	out := p.Process(context.Background(), Request{
		Message: "ship from Riyadh to Jeddah, a parcel, 2 kg",
	})

	if out.Type != OutcomeError {
		t.Fatalf("outcome = %s, want %s", out.Type, OutcomeError)
	}
	if out.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", out.Confidence)
	}

	// Oracle failed before the write, so nothing may be half-created.
	list, err := st.ListShipments(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListShipments: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("shipment persisted despite payment failure: %+v", list)
	}
}

func TestProcessRecoversFromPanic(t *testing.T) {
	gw := &mockGateway{panic: true}
	p, _ := newTestProcessor(gw)

	out := p.Process(context.Background(), Request{
		Message: "ship from Riyadh to Jeddah, a parcel, 2 kg",
	})

	if out.Type != OutcomeError {
		t.Fatalf("panic leaked past the gate: outcome = %s", out.Type)
	}
}

func TestProcessTrackAndCancel(t *testing.T) {
	p, _ := newTestProcessor(&mockGateway{})

	out := p.Process(context.Background(), Request{Message: "track my order"})
	if out.Type != OutcomeTrack {
		t.Fatalf("outcome = %s, want %s", out.Type, OutcomeTrack)
	}

	out = p.Process(context.Background(), Request{Message: "الغاء الطلب"})
	if out.Type != OutcomeCancel {
		t.Fatalf("outcome = %s, want %s", out.Type, OutcomeCancel)
	}
}

func TestProcessUnhandled(t *testing.T) {
	gw := &mockGateway{}
	p, _ := newTestProcessor(gw)

	out := p.Process(context.Background(), Request{Message: "hello, how are you?"})
	if out.Type != OutcomeUnhandled {
		t.Fatalf("outcome = %s, want %s", out.Type, OutcomeUnhandled)
	}
	if gw.calls != 0 {
		t.Errorf("gateway consulted for an unrelated message")
	}
}
