package amqp

import (
	"encoding/json"
	"time"
)

// Change kinds published after successful mutations.
const (
	KindCatalogChanged    = "catalog_changed"
	KindConsumptionLogged = "consumption_logged"
)

// ChangeMessage tells external consumers that the store mutated and reads
// should be re-issued. It intentionally carries no record payload; consumers
// fetch fresh state through the read operations.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	DrinkID   string    `json:"drinkId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(kind, drinkID string) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		DrinkID:   drinkID,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
