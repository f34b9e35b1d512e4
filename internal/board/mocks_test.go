package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockUpstream is a test double for the order service.
type MockUpstream struct {
	mu sync.Mutex

	items map[string][]Item
	calls map[string]int

	// inFlight tracks concurrent ListStationItems calls per station,
	// maxInFlight the high watermark, for non-overlap assertions.
	inFlight    map[string]int
	maxInFlight map[string]int

	transitions []MockTransition

	ListFunc       func(ctx context.Context, station string) ([]Item, error)
	TransitionFunc func(ctx context.Context, id ItemID, action string) error
}

type MockTransition struct {
	ID     ItemID
	Action string
}

func NewMockUpstream() *MockUpstream {
	return &MockUpstream{
		items:       make(map[string][]Item),
		calls:       make(map[string]int),
		inFlight:    make(map[string]int),
		maxInFlight: make(map[string]int),
	}
}

func (m *MockUpstream) SetItems(station string, items []Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[station] = items
}

func (m *MockUpstream) Calls(station string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[station]
}

func (m *MockUpstream) MaxInFlight(station string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight[station]
}

func (m *MockUpstream) Transitions() []MockTransition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockTransition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

func (m *MockUpstream) ListStationItems(ctx context.Context, station string) ([]Item, error) {
	m.mu.Lock()
	m.calls[station]++
	m.inFlight[station]++
	if m.inFlight[station] > m.maxInFlight[station] {
		m.maxInFlight[station] = m.inFlight[station]
	}
	listFunc := m.ListFunc
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight[station]--
		m.mu.Unlock()
	}()

	if listFunc != nil {
		return listFunc(ctx, station)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]Item, len(m.items[station]))
	copy(items, m.items[station])
	return items, nil
}

func (m *MockUpstream) TransitionItem(ctx context.Context, id ItemID, action string) error {
	m.mu.Lock()
	m.transitions = append(m.transitions, MockTransition{ID: id, Action: action})
	transitionFunc := m.TransitionFunc
	m.mu.Unlock()

	if transitionFunc != nil {
		return transitionFunc(ctx, id, action)
	}
	return nil
}

// MockAlertSink records alerts in order.
type MockAlertSink struct {
	mu     sync.Mutex
	alerts []MockAlert
}

type MockAlert struct {
	DisplayID DisplayID
	Station   string
	Item      Item
}

func NewMockAlertSink() *MockAlertSink {
	return &MockAlertSink{}
}

func (m *MockAlertSink) Alert(ctx context.Context, displayID DisplayID, station string, item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, MockAlert{DisplayID: displayID, Station: station, Item: item})
}

func (m *MockAlertSink) Alerts() []MockAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// MockPublisher records published event payloads per topic.
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages[topic] = append(m.messages[topic], msg)
	return nil
}

func (m *MockPublisher) Messages(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[topic]
}

var errUpstreamDown = errors.New("upstream unavailable")

func testItem(createdAt time.Time, status string) Item {
	return Item{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		ProductName: "Margherita",
		Quantity:    1,
		Status:      status,
		CreatedAt:   createdAt,
	}
}
