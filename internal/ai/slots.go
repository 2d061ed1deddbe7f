// internal/ai/slots.go
package ai

// Field names one required slot of a shipment draft. The JSON names match
// what the dashboard and the chat clients already use.
type Field string

const (
	FieldOrigin       Field = "origin"
	FieldDestination  Field = "destination"
	FieldWeight       Field = "weight"
	FieldPackageType  Field = "packageType"
	FieldCustomerName Field = "customerName"
)

// requiredFields is the canonical clarification order. The order is a
// contract: it drives the order in which missing data is asked for across
// turns, so it must never be arbitrary.
var requiredFields = []Field{FieldOrigin, FieldDestination, FieldWeight, FieldPackageType}

// has reports presence of a required field. Presence means "the key
// exists", independent of value: a zero weight still counts as provided.
// A truthiness check here would silently re-ask for weight 0.
func (e Entities) has(f Field) bool {
	switch f {
	case FieldOrigin:
		return e.Origin != nil
	case FieldDestination:
		return e.Destination != nil
	case FieldWeight:
		return e.Weight != nil
	case FieldPackageType:
		return e.PackageType != nil
	case FieldCustomerName:
		return e.CustomerName != nil
	}
	return false
}

// Sufficient is true iff every required slot is filled and the shipment
// can be created without asking anything else.
func Sufficient(e Entities) bool {
	for _, f := range requiredFields {
		if !e.has(f) {
			return false
		}
	}
	return true
}

// hasAnyField reports whether the message filled anything at all,
// required or not.
func hasAnyField(e Entities) bool {
	return e.Origin != nil || e.Destination != nil || e.Weight != nil ||
		e.PackageType != nil || e.CustomerName != nil
}

// Missing returns the required fields absent from e, always in canonical
// order.
func Missing(e Entities) []Field {
	var missing []Field
	for _, f := range requiredFields {
		if !e.has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
