package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tableside/expo/internal/board"
	"github.com/tableside/expo/pkg/enums/itemstatus"
	"github.com/tableside/expo/pkg/enums/station"
)

var demoProducts = map[string][]string{
	station.Stations.Kitchen.Name:    {"Grilled Salmon", "Beef Bourguignon", "Mushroom Risotto", "Caesar Salad"},
	station.Stations.Pizza.Name:      {"Margherita", "Quattro Stagioni", "Diavola", "Calzone"},
	station.Stations.BarCounter.Name: {"Club Sandwich", "Nachos", "Bruschetta"},
	station.Stations.BarDrinks.Name:  {"Negroni", "Aperol Spritz", "Fresh Lemonade", "Espresso Martini"},
	station.Stations.Takeaway.Name:   {"Family Pizza Box", "Pasta Box", "Burger Menu"},
}

var demoTables = []string{"T1", "T2", "T5", "T8", "T12", ""}

// Store holds the simulated order items per station. A background tick
// ages the board: new items arrive, preparing items turn ready, ready
// items get served away, so a connected display exercises every
// escalation tier and transition over a few minutes.
type Store struct {
	mu    sync.Mutex
	items map[string][]board.Item
	rng   *rand.Rand
}

func NewStore(seed int64) *Store {
	s := &Store{
		items: make(map[string][]board.Item),
		rng:   rand.New(rand.NewSource(seed)),
	}
	for _, st := range station.All {
		for i := 0; i < 2+s.rng.Intn(3); i++ {
			s.items[st.Name] = append(s.items[st.Name], s.newItem(st.Name, time.Now().Add(-time.Duration(s.rng.Intn(30))*time.Minute)))
		}
	}
	return s
}

// List returns a copy of one station's items.
func (s *Store) List(stationCode string) []board.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[stationCode]
	out := make([]board.Item, len(items))
	copy(out, items)
	return out
}

// Transition applies a status action to an item, mirroring the order
// service's strictly forward workflow.
func (s *Store) Transition(id uuid.UUID, action string) bool {
	requested, err := board.StatusForAction(action)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for stationCode, items := range s.items {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if board.ValidateTransition(items[i].Status, requested) != nil {
				return false
			}
			s.items[stationCode][i].Status = requested
			return true
		}
	}
	return false
}

// Tick ages the board by one step.
func (s *Store) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for stationCode, items := range s.items {
		kept := items[:0]
		for _, item := range items {
			switch {
			case item.Status == itemstatus.Statuses.Ready.Name && s.rng.Intn(4) == 0:
				// Served through checkout; disappears from the station.
				continue
			case item.Status == itemstatus.Statuses.Preparing.Name && s.rng.Intn(6) == 0:
				item.Status = itemstatus.Statuses.Ready.Name
			case item.Status == itemstatus.Statuses.Waiting.Name && s.rng.Intn(8) == 0:
				item.Status = itemstatus.Statuses.Preparing.Name
			}
			kept = append(kept, item)
		}
		s.items[stationCode] = kept

		if s.rng.Intn(3) == 0 {
			s.items[stationCode] = append(s.items[stationCode], s.newItem(stationCode, time.Now()))
		}
	}
}

// Run ticks the store until ctx-free shutdown via the returned stop func.
func (s *Store) Run(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
	return func() { close(done) }
}

func (s *Store) newItem(stationCode string, createdAt time.Time) board.Item {
	products := demoProducts[stationCode]
	if len(products) == 0 {
		products = []string{"Daily Special"}
	}
	return board.Item{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		ProductName: products[s.rng.Intn(len(products))],
		Quantity:    1 + s.rng.Intn(3),
		Status:      itemstatus.Statuses.Waiting.Name,
		CreatedAt:   createdAt,
		TableLabel:  demoTables[s.rng.Intn(len(demoTables))],
	}
}
