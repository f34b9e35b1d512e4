package event

import "time"

const (
	OrderItemsTopic             = "orders.items"
	EventOrderItemCreated       = "order.item.created"
	EventOrderItemUpdated       = "order.item.updated"
	EventOrderItemCancelled     = "order.item.cancelled"
	EventOrderItemStatusChanged = "order.item.status_changed"
)

// OrderItemEvent represents an order item event published by the order
// service. Expo consumes it only as a refresh nudge for displays showing
// the affected station; the poll cycle remains the source of truth.
type OrderItemEvent struct {
	EventType          string    `json:"event_type"`
	OccurredAt         time.Time `json:"occurred_at"`
	OrderID            string    `json:"order_id"`
	OrderItemID        string    `json:"order_item_id"`
	Quantity           int       `json:"quantity"`
	Notes              string    `json:"notes,omitempty"`
	RequiresProduction bool      `json:"requires_production"`
	ProductionStation  string    `json:"production_station,omitempty"`

	// Denormalized data for display
	ProductName string `json:"product_name,omitempty"`
	StationName string `json:"station_name,omitempty"`
	TableLabel  string `json:"table_label,omitempty"`
}
