// Package sse streams newly emitted alerts to connected analyst clients
// using Server-Sent Events.
package sse

import (
	"time"

	"github.com/macarvajall/OFAC/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventAlertCreated announces a newly recorded alert.
	EventAlertCreated EventType = "alert.created"

	// EventHeartbeat is a connection keepalive.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one SSE payload.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// NewAlertEvent wraps an alert record for streaming.
func NewAlertEvent(alert domain.AlertRecord) Event {
	return Event{
		Type:      EventAlertCreated,
		Timestamp: time.Now().UTC(),
		Data:      alert,
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"status": "alive"},
	}
}
