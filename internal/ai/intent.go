// internal/ai/intent.go
package ai

import "strings"

// Intent is the classified purpose of an inbound customer message.
type Intent string

const (
	IntentCreateShipment Intent = "create_shipment"
	IntentTrackShipment  Intent = "track_shipment"
	IntentCancelShipment Intent = "cancel_shipment"
	IntentUnknown        Intent = "unknown"
)

// Confidence levels are fixed by contract: any keyword match is a high
// confidence classification, no match resolves to unknown with low
// confidence. Classification ambiguity is not an error.
const (
	MatchConfidence   = 0.9
	UnknownConfidence = 0.5
)

// intentGroup couples one intent with its bilingual vocabulary. Groups are
// tested in order and the first group that matches wins; order of keywords
// inside a group does not matter.
type intentGroup struct {
	intent   Intent
	keywords []string
}

// Both Arabic and English vocabulary must be present in every group.
// Matching is a lower-cased substring test, like the rest of the
// extraction pipeline. This is a bounded pattern matcher on purpose, not
// an NLU model.
var intentGroups = []intentGroup{
	{IntentCreateShipment, []string{
		"شحن", "ابعث", "ارسال", "أرسل", "ارسل",
		"ship", "send", "deliver",
	}},
	{IntentTrackShipment, []string{
		"تتبع", "رقم التتبع", "وين طلبي",
		"track", "where is my", "tracking",
	}},
	{IntentCancelShipment, []string{
		"الغاء", "إلغاء", "الغي",
		"cancel",
	}},
}

// Classifier maps raw message text to an intent with a confidence score.
// It holds no state and is safe for concurrent use.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the first matching intent group and its confidence.
// Absence of a match is not an error; it is the unknown intent.
func (c *Classifier) Classify(message string) (Intent, float64) {
	m := strings.ToLower(message)
	for _, group := range intentGroups {
		for _, kw := range group.keywords {
			if strings.Contains(m, kw) {
				return group.intent, MatchConfidence
			}
		}
	}
	return IntentUnknown, UnknownConfidence
}
