package amqp

import (
	"testing"
	"time"
)

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage(KindConsumptionLogged, "drink-1")

	if msg.Kind != KindConsumptionLogged {
		t.Errorf("Kind = %v, want %v", msg.Kind, KindConsumptionLogged)
	}
	if msg.DrinkID != "drink-1" {
		t.Errorf("DrinkID = %v, want drink-1", msg.DrinkID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestChangeMessageJSON(t *testing.T) {
	msg := &ChangeMessage{
		Kind:      KindCatalogChanged,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ChangeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error = %v", err)
	}
	if parsed.Kind != msg.Kind || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
}

func TestChangeMessageInvalidJSON(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte(`{"kind": 42}`)); err == nil {
		t.Error("ChangeMessageFromJSON() should fail with invalid JSON")
	}
}
