package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names what changed in the entry store.
type EventType string

const (
	EventEntryCreated  EventType = "entry.created"
	EventEntryDeleted  EventType = "entry.deleted"
	EventBudgetUpdated EventType = "budget.updated"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventEntryCreated, EventEntryDeleted, EventBudgetUpdated:
		return true
	}
	return false
}

// EntryEvent is a lightweight change notification. Consumers reload the store
// instead of trusting the payload, so only identifying fields travel.
type EntryEvent struct {
	MessageID string    `json:"messageId"`
	Type      EventType `json:"type"`
	EntryID   int64     `json:"entryId,omitempty"`
	Date      string    `json:"date,omitempty"`
	TotalCost float64   `json:"totalCost,omitempty"`
	Budget    float64   `json:"budget,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryEvent creates an event with a fresh message id.
func NewEntryEvent(t EventType) *EntryEvent {
	return &EntryEvent{
		MessageID: uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryEventFromJSON decodes an event and rejects unknown types.
func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
