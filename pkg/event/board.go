package event

import "time"

const (
	AlertsTopic        = "expo.alerts"
	DisplaysTopic      = "expo.displays"
	EventItemEscalated = "expo.item.escalated"
	EventDisplayOpened = "expo.display.opened"
	EventDisplayClosed = "expo.display.closed"
)

// ItemEscalatedEvent is published when a board item crosses into the
// urgent tier on a connected display. Consumed by pager and monitoring
// integrations; the display itself is notified over its SSE stream.
type ItemEscalatedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	DisplayID  string    `json:"display_id"`
	ItemID     string    `json:"item_id"`
	OrderID    string    `json:"order_id"`
	Station    string    `json:"station"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`

	// Denormalized data for display
	ProductName string `json:"product_name,omitempty"`
	TableLabel  string `json:"table_label,omitempty"`
}

// DisplayEvent marks a display session being opened or closed.
type DisplayEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	DisplayID  string    `json:"display_id"`
	Stations   []string  `json:"stations"`
}
