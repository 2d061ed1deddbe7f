// internal/providers/mapit.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/logisa/automation-service/internal/models"
)

// MapitGateway books shipments with the Mapit carrier API. Like the
// payment gateway it degrades to a simulated booking when the key is
// missing or the call fails, so dev environments never block on the
// carrier being reachable.
type MapitGateway struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

func NewMapitGateway(apiKey, apiURL string) *MapitGateway {
	return &MapitGateway{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *MapitGateway) CreateShipment(ctx context.Context, shipment models.Shipment) (*CarrierResult, error) {
	if g.apiKey != "" {
		if res, err := g.createRemote(ctx, shipment); err == nil {
			return res, nil
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else {
			log.Printf("[WARN] mapit create failed, falling back to simulated booking: %v", err)
		}
	}

	// Simulated fallback booking: three-day delivery window.
	return &CarrierResult{
		TrackingNumber:    fmt.Sprintf("MAPIT-%d", time.Now().UnixMilli()),
		Status:            models.StatusCreated,
		EstimatedDelivery: time.Now().Add(3 * 24 * time.Hour).UTC().Format(time.RFC3339),
		Carrier:           models.CarrierMapit,
	}, nil
}

func (g *MapitGateway) createRemote(ctx context.Context, shipment models.Shipment) (*CarrierResult, error) {
	origin := shipment.Origin
	if origin == "" {
		origin = "Default Warehouse"
	}
	weight := shipment.Weight
	if weight == 0 {
		weight = 1
	}
	packageType := shipment.PackageType
	if packageType == "" {
		packageType = models.PackageParcel
	}

	payload := map[string]interface{}{
		"customer_name": shipment.CustomerName,
		"destination":   shipment.Destination,
		"origin":        origin,
		"weight":        weight,
		"package_type":  packageType,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create mapit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call mapit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: status %s", ErrCarrierFailed, resp.Status)
	}

	var data struct {
		TrackingNumber    string `json:"tracking_number"`
		Status            string `json:"status"`
		EstimatedDelivery string `json:"estimated_delivery"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse mapit response: %w", err)
	}

	status := models.StatusCreated
	if data.Status != "" {
		status = models.ShipmentStatus(data.Status)
	}
	return &CarrierResult{
		TrackingNumber:    data.TrackingNumber,
		Status:            status,
		EstimatedDelivery: data.EstimatedDelivery,
		Carrier:           models.CarrierMapit,
	}, nil
}
