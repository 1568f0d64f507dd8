package events

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces that a collection's persisted
// snapshot changed. It deliberately carries no payload: consumers
// fetch the current snapshot from the persistence adapter, so a lost
// or reordered message costs nothing but staleness until the next one.
type LedgerChangedMessage struct {
	Collection string    `json:"collection"` // "records" or "categories"
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(collection string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Collection: collection,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
