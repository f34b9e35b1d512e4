package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/tableside/expo/internal/board"
	"github.com/tableside/expo/pkg/event"
)

// AlertPublisher fans urgency alerts out to NATS for pagers and
// monitors. It implements board.AlertSink; the display's own SSE stream
// is notified separately.
type AlertPublisher struct {
	publisher events.Publisher
	logger    apt.Logger
}

func NewAlertPublisher(publisher events.Publisher, logger apt.Logger) *AlertPublisher {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &AlertPublisher{publisher: publisher, logger: logger}
}

func (p *AlertPublisher) Alert(ctx context.Context, displayID board.DisplayID, station string, item board.Item) {
	if p.publisher == nil {
		return
	}

	evt := event.ItemEscalatedEvent{
		EventType:   event.EventItemEscalated,
		OccurredAt:  time.Now(),
		DisplayID:   displayID.String(),
		ItemID:      item.ID.String(),
		OrderID:     item.OrderID.String(),
		Station:     station,
		Status:      item.Status,
		CreatedAt:   item.CreatedAt,
		ProductName: item.ProductName,
		TableLabel:  item.TableLabel,
	}

	data, _ := json.Marshal(evt)
	if err := p.publisher.Publish(ctx, event.AlertsTopic, data); err != nil {
		p.logger.Errorf("Failed to publish escalation event: %v", err)
	}
}
