package model

import (
	"encoding/json"
	"time"
)

// NotificationEvent is a fire-and-forget fact broadcast to subscribed
// sessions. Payload is opaque to the broadcaster; never persisted.
type NotificationEvent struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload"`
	ProducedAt time.Time       `json:"producedAt"`
}
