// internal/models/shipment.models.go
package models

import "time"

// ShipmentStatus is the lifecycle status of a shipment. The string values
// are what the dashboard and the carriers exchange, so they are part of
// the wire contract, not just internal labels.
type ShipmentStatus string

const (
	StatusCreated   ShipmentStatus = "Created"
	StatusPickedUp  ShipmentStatus = "Picked Up"
	StatusInTransit ShipmentStatus = "In Transit"
	StatusDelivered ShipmentStatus = "Delivered"
	StatusPaid      ShipmentStatus = "Paid"
	StatusCancelled ShipmentStatus = "Cancelled"
	StatusException ShipmentStatus = "Exception"
)

// IsTerminal reports whether a transition INTO this status should trigger
// an outbound customer notification. Redelivered webhooks must not
// re-trigger it; the store's conditional update takes care of that.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusDelivered
}

// Carrier identifies which carrier moves the shipment.
type Carrier string

const (
	CarrierAramex Carrier = "Aramex"
	CarrierSMSA   Carrier = "SMSA"
	CarrierDHL    Carrier = "DHL"
	CarrierSPL    Carrier = "SPL"
	CarrierMapit  Carrier = "MAPIT"
	CarrierAuto   Carrier = "AUTO"
)

// SourceChannel is where the shipment request originally came from.
type SourceChannel string

const (
	ChannelWhatsApp SourceChannel = "WhatsApp"
	ChannelTelegram SourceChannel = "Telegram"
	ChannelAPI      SourceChannel = "API"
	ChannelStore    SourceChannel = "My Store"
	ChannelLanding  SourceChannel = "Landing Page"
)

// PackageType is the closed set of package categories the extractor can
// recognize.
type PackageType string

const (
	PackageGift      PackageType = "gift"
	PackageDocuments PackageType = "documents"
	PackageParcel    PackageType = "parcel"
)

// Shipment is the single source of truth for a shipment record.
// TrackingNumber equals ID on the auto-created path and is the correlating
// identifier every webhook uses to find the record it applies to.
type Shipment struct {
	ID              string         `json:"id"`
	TrackingNumber  string         `json:"trackingNumber"`
	CarrierTracking string         `json:"carrierTracking"`
	Carrier         Carrier        `json:"carrier"`
	Status          ShipmentStatus `json:"status"`
	CustomerName    string         `json:"customerName"`
	CustomerContact string         `json:"customerContact,omitempty"`
	Origin          string         `json:"origin"`
	Destination     string         `json:"destination"`
	Weight          float64        `json:"weight"`
	PackageType     PackageType    `json:"packageType,omitempty"`
	Cost            float64        `json:"cost"`
	Price           float64        `json:"price"`
	Source          SourceChannel  `json:"source"`
	CreatedAt       time.Time      `json:"createdAt"`
}
