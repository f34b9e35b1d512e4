package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/tableside/expo/internal/board"
)

// itemResource mirrors the order item JSON returned by the order service.
type itemResource struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	TableLabel  string    `json:"table_label"`
}

// DataAccess wraps the low-level order service API. Auth rides on the
// service client opaquely; nothing here inspects it.
type DataAccess struct {
	client *apt.ServiceClient
}

func NewDataAccess(client *apt.ServiceClient) *DataAccess {
	return &DataAccess{client: client}
}

// ListStationItems fetches the active items routed to one station.
func (da *DataAccess) ListStationItems(ctx context.Context, station string) ([]board.Item, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	path := "/items?station=" + url.QueryEscape(station)
	resp, err := da.client.Request(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []itemResource `json:"items"`
	}
	if err := decodeSuccessResponse(resp, &payload); err != nil {
		return nil, err
	}

	items := make([]board.Item, 0, len(payload.Items))
	for _, res := range payload.Items {
		item, err := res.toItem()
		if err != nil {
			// One malformed record should not blank the station.
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// TransitionItem issues the single status-change PATCH for an item.
func (da *DataAccess) TransitionItem(ctx context.Context, id board.ItemID, action string) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("order client not configured")
	}
	if action == "" {
		return fmt.Errorf("missing transition action")
	}

	path := fmt.Sprintf("/items/%s/%s", id.String(), action)
	if _, err := da.client.Request(ctx, "PATCH", path, nil); err != nil {
		return err
	}
	return nil
}

func (res itemResource) toItem() (board.Item, error) {
	id, err := uuid.Parse(res.ID)
	if err != nil {
		return board.Item{}, fmt.Errorf("invalid item id %q: %w", res.ID, err)
	}
	orderID, err := uuid.Parse(res.OrderID)
	if err != nil {
		return board.Item{}, fmt.Errorf("invalid order id %q: %w", res.OrderID, err)
	}

	return board.Item{
		ID:          id,
		OrderID:     orderID,
		ProductName: res.ProductName,
		Quantity:    res.Quantity,
		Notes:       res.Notes,
		Status:      res.Status,
		CreatedAt:   res.CreatedAt,
		TableLabel:  res.TableLabel,
	}, nil
}

// decodeSuccessResponse copies the dynamic response payload into dest.
func decodeSuccessResponse(resp *apt.SuccessResponse, dest interface{}) error {
	if resp == nil {
		return errors.New("nil success response")
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}

	return nil
}
