// store/memory.go
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/logisa/automation-service/internal/models"
)

// MemoryStore is the in-memory implementation used in local/dev mode and
// in tests. It honours the same idempotency rules as the Postgres store.
type MemoryStore struct {
	mu        sync.RWMutex
	shipments map[string]models.Shipment // keyed by ID
	payments  map[string]models.Payment  // keyed by provider ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shipments: make(map[string]models.Shipment),
		payments:  make(map[string]models.Payment),
	}
}

func (s *MemoryStore) CreateShipment(ctx context.Context, shipment models.Shipment) (models.Shipment, error) {
	select {
	case <-ctx.Done():
		return models.Shipment{}, ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments[shipment.ID] = shipment
	return shipment, nil
}

func (s *MemoryStore) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sh := range s.shipments {
		if sh.TrackingNumber == trackingNumber {
			out := sh
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateStatusByTrackingNumber(ctx context.Context, trackingNumber string, status models.ShipmentStatus) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for id, sh := range s.shipments {
		// Same-status rows are skipped so redelivered callbacks count 0.
		if sh.TrackingNumber == trackingNumber && sh.Status != status {
			sh.Status = status
			s.shipments[id] = sh
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListShipments(ctx context.Context, limit, offset int32) ([]models.Shipment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.Shipment, 0, len(s.shipments))
	for _, sh := range s.shipments {
		all = append(all, sh)
	}
	// Newest first, matching the Postgres ORDER BY created_at DESC.
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	start := int(offset)
	if start >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && start+int(limit) < end {
		end = start + int(limit)
	}
	return all[start:end], nil
}

func (s *MemoryStore) CreatePayment(ctx context.Context, payment models.Payment) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.ProviderID] = payment
	return nil
}

func (s *MemoryStore) FindPaymentByProviderID(ctx context.Context, providerID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.payments[providerID]; ok {
		out := p
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindPaymentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.TrackingNumber == trackingNumber {
			out := p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdatePaymentStatusByProviderID(ctx context.Context, providerID string, status models.PaymentStatus) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[providerID]
	if !ok {
		return 0, nil
	}
	if p.Status == status {
		return 0, nil
	}
	// Never overwrite a success with anything else.
	if p.Status == models.PaymentSucceeded {
		return 0, nil
	}
	p.Status = status
	s.payments[providerID] = p
	return 1, nil
}
