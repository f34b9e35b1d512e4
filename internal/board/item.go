package board

import (
	"time"

	"github.com/google/uuid"
)

type ItemID = uuid.UUID
type OrderID = uuid.UUID
type DisplayID = uuid.UUID

// Item is the projection of an upstream order item that displays render.
// It is observed only through polls; expo never owns or persists it.
type Item struct {
	ID          ItemID    `json:"id"`
	OrderID     OrderID   `json:"order_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	// Empty for takeaway and bar-counter items.
	TableLabel string `json:"table_label,omitempty"`
}

// SameEntity reports whether other is the same logical item. An id that
// reappears with a different creation timestamp is a different entity,
// even though an upstream should never reuse ids this way.
func (i Item) SameEntity(other Item) bool {
	return i.ID == other.ID && i.CreatedAt.Equal(other.CreatedAt)
}

// StationView is one station's slice of a snapshot: the items to render
// (oldest first), when they were last fetched, and whether the most
// recent fetch for this station failed.
type StationView struct {
	Station   string    `json:"station"`
	Items     []Item    `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}

// Snapshot is the full board for one display as of one poll cycle.
// It is replaced wholesale per cycle, never merged field by field.
type Snapshot struct {
	Stations map[string]StationView `json:"stations"`
	TakenAt  time.Time              `json:"taken_at"`
}

// Find returns the item with the given id and the station holding it.
func (s Snapshot) Find(id ItemID) (Item, string, bool) {
	for code, view := range s.Stations {
		for _, item := range view.Items {
			if item.ID == id {
				return item, code, true
			}
		}
	}
	return Item{}, "", false
}
