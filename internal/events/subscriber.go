package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/tableside/expo/internal/board"
	"github.com/tableside/expo/pkg/event"
)

// OrderItemSubscriber listens on orders.items and nudges the displays
// showing the affected station. The nudge only coalesces into the poll
// cycle already governing the display; nothing is applied from the
// event payload itself.
type OrderItemSubscriber struct {
	subscriber events.Subscriber
	registry   *board.Registry
	logger     apt.Logger
}

func NewOrderItemSubscriber(subscriber events.Subscriber, registry *board.Registry, logger apt.Logger) *OrderItemSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderItemSubscriber{
		subscriber: subscriber,
		registry:   registry,
		logger:     logger,
	}
}

func (s *OrderItemSubscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting OrderItemSubscriber for topic: " + event.OrderItemsTopic)

	if err := s.subscriber.Subscribe(ctx, event.OrderItemsTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderItemsTopic, err)
	}

	s.logger.Info("OrderItemSubscriber started successfully")
	return nil
}

func (s *OrderItemSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderItemEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal event: %v", err)
		return nil
	}

	if !evt.RequiresProduction || evt.ProductionStation == "" {
		return nil
	}

	switch evt.EventType {
	case event.EventOrderItemCreated,
		event.EventOrderItemUpdated,
		event.EventOrderItemCancelled,
		event.EventOrderItemStatusChanged:
		s.registry.NudgeStation(evt.ProductionStation)
	default:
		s.logger.Infof("Unknown event type: %s", evt.EventType)
	}

	return nil
}
