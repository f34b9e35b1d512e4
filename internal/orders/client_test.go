package orders

import (
	"context"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

func TestItemResourceToItem(t *testing.T) {
	created := time.Now().Add(-5 * time.Minute).UTC()
	validID := uuid.New()
	validOrderID := uuid.New()

	tests := []struct {
		name    string
		res     itemResource
		wantErr bool
	}{
		{
			name: "valid",
			res: itemResource{
				ID:          validID.String(),
				OrderID:     validOrderID.String(),
				ProductName: "Tiramisu",
				Quantity:    2,
				Status:      "waiting",
				CreatedAt:   created,
				TableLabel:  "T7",
			},
		},
		{
			name:    "invalidID",
			res:     itemResource{ID: "bogus", OrderID: validOrderID.String()},
			wantErr: true,
		},
		{
			name:    "invalidOrderID",
			res:     itemResource{ID: validID.String(), OrderID: "bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := tt.res.toItem()
			if (err != nil) != tt.wantErr {
				t.Fatalf("toItem() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if item.ID != validID || item.OrderID != validOrderID {
				t.Errorf("ids not mapped: %+v", item)
			}
			if item.ProductName != tt.res.ProductName || item.Quantity != tt.res.Quantity {
				t.Errorf("fields not mapped: %+v", item)
			}
			if !item.CreatedAt.Equal(created) {
				t.Errorf("created at = %v, want %v", item.CreatedAt, created)
			}
		})
	}
}

func TestDecodeSuccessResponse(t *testing.T) {
	resp := &apt.SuccessResponse{Data: map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": uuid.New().String(), "order_id": uuid.New().String(), "product_name": "Espresso"},
		},
	}}

	var payload struct {
		Items []itemResource `json:"items"`
	}
	if err := decodeSuccessResponse(resp, &payload); err != nil {
		t.Fatalf("decodeSuccessResponse() error = %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(payload.Items))
	}
	if payload.Items[0].ProductName != "Espresso" {
		t.Errorf("product name = %s, want Espresso", payload.Items[0].ProductName)
	}

	if err := decodeSuccessResponse(nil, &payload); err == nil {
		t.Error("nil response must error")
	}
}

func TestDataAccessNotConfigured(t *testing.T) {
	var da *DataAccess
	if _, err := da.ListStationItems(context.Background(), "kitchen"); err == nil {
		t.Error("nil DataAccess must error on list")
	}

	da = NewDataAccess(nil)
	if _, err := da.ListStationItems(context.Background(), "kitchen"); err == nil {
		t.Error("unconfigured DataAccess must error on list")
	}
	if err := da.TransitionItem(context.Background(), uuid.New(), "start"); err == nil {
		t.Error("unconfigured DataAccess must error on transition")
	}
}
