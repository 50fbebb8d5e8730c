package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event envelope published to the notification
// broker. All messages leaving the engine follow this format.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"event_type"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a payload that is already serialized to JSON.
func NewEnvelope(eventType, version string, payload json.RawMessage) Envelope {
	return Envelope{
		ID:        uuid.New(),
		EventType: eventType,
		Version:   version,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
