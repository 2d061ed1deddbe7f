// internal/ai/intent_test.go
package ai

import "testing"

func TestClassifyIntents(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		message string
		intent  Intent
		conf    float64
	}{
		{"arabic create", "ابي اسوي شحن جديد", IntentCreateShipment, MatchConfidence},
		{"arabic create send", "ابعث طرد الى جدة", IntentCreateShipment, MatchConfidence},
		{"english create", "I want to ship a laptop", IntentCreateShipment, MatchConfidence},
		{"english create send", "please send this for me", IntentCreateShipment, MatchConfidence},
		{"arabic track", "تتبع الطلب رقم 55", IntentTrackShipment, MatchConfidence},
		{"english track", "track my order please", IntentTrackShipment, MatchConfidence},
		{"arabic cancel", "ابي الغاء الطلب", IntentCancelShipment, MatchConfidence},
		{"english cancel", "cancel the order", IntentCancelShipment, MatchConfidence},
		{"no match", "hello, how are you?", IntentUnknown, UnknownConfidence},
		{"empty", "", IntentUnknown, UnknownConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, conf := c.Classify(tt.message)
			if intent != tt.intent {
				t.Errorf("Classify(%q) intent = %s, want %s", tt.message, intent, tt.intent)
			}
			if conf != tt.conf {
				t.Errorf("Classify(%q) confidence = %v, want %v", tt.message, conf, tt.conf)
			}
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewClassifier()

	intent, _ := c.Classify("SEND THIS PACKAGE TODAY")
	if intent != IntentCreateShipment {
		t.Fatalf("upper-case message classified as %s, want %s", intent, IntentCreateShipment)
	}
}

// First group wins: a message matching both the creation and the
// cancellation vocabulary resolves to creation because that group is
// tested first. The order is fixed, not incidental.
func TestClassifyGroupOrder(t *testing.T) {
	c := NewClassifier()

	intent, _ := c.Classify("cancel the shipment")
	if intent != IntentCreateShipment {
		t.Fatalf("mixed-vocabulary message classified as %s, want %s", intent, IntentCreateShipment)
	}
}
