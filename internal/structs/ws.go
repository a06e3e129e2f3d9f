package structs

import "time"

type EventType string

const (
	EventCheckoutSnapshot EventType = "checkout.snapshot" // sent once on connect
	EventCheckoutUpdated  EventType = "checkout.updated"
	EventCheckoutClosed   EventType = "checkout.closed"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	TS        time.Time `json:"ts"`
	// Payload is the CheckoutView for snapshot and updated events
	Payload any `json:"payload,omitempty"`
}
