package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/gavel/go/internal/auction/events"
)

// RoomEvent is the wire shape forwarded to WebSocket clients. It mirrors
// the broadcast envelope; the gateway relays payloads opaquely.
type RoomEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      events.Type     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}
