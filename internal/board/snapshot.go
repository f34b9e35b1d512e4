package board

import (
	"sort"
	"sync"
	"time"
)

// BoardState maintains the in-memory board for one display: the latest
// known items per station plus fetch bookkeeping. A successful fetch
// replaces a station's items wholesale; a failed fetch leaves the prior
// items in place and flags the station stale.
type BoardState struct {
	mu       sync.RWMutex
	stations map[string]*stationState
	order    []string
}

type stationState struct {
	items     []Item
	byID      map[ItemID]int
	fetchedAt time.Time
	stale     bool
}

// NewBoardState creates a board covering the given station codes. The
// station set is fixed for the life of the display.
func NewBoardState(stations []string) *BoardState {
	b := &BoardState{
		stations: make(map[string]*stationState, len(stations)),
		order:    make([]string, 0, len(stations)),
	}
	for _, code := range stations {
		if _, exists := b.stations[code]; exists {
			continue
		}
		b.stations[code] = &stationState{byID: make(map[ItemID]int)}
		b.order = append(b.order, code)
	}
	return b
}

// Stations returns the station codes this board covers, in display order.
func (b *BoardState) Stations() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// ApplyFetch replaces a station's items with a fresh fetch result.
// Items are ordered oldest first regardless of upstream ordering, and
// duplicate ids within one fetch keep the first occurrence only.
func (b *BoardState) ApplyFetch(station string, items []Item, fetchedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.stations[station]
	if st == nil {
		return
	}

	deduped := make([]Item, 0, len(items))
	index := make(map[ItemID]int, len(items))
	for _, item := range items {
		if _, dup := index[item.ID]; dup {
			continue
		}
		index[item.ID] = len(deduped)
		deduped = append(deduped, item)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].CreatedAt.Before(deduped[j].CreatedAt)
	})
	for i, item := range deduped {
		index[item.ID] = i
	}

	st.items = deduped
	st.byID = index
	st.fetchedAt = fetchedAt
	st.stale = false
}

// ApplyError marks a station's latest fetch as failed. Prior items stay
// displayed; only the staleness flag changes.
func (b *BoardState) ApplyError(station string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if st := b.stations[station]; st != nil {
		st.stale = true
	}
}

// Item returns the current projection of an item anywhere on the board.
func (b *BoardState) Item(id ItemID) (Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, st := range b.stations {
		if i, ok := st.byID[id]; ok {
			return st.items[i], true
		}
	}
	return Item{}, false
}

// StationView returns a copy of one station's current view.
func (b *BoardState) StationView(station string) (StationView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := b.stations[station]
	if st == nil {
		return StationView{}, false
	}
	return b.viewLocked(station, st), true
}

// Snapshot returns a deep copy of the whole board.
func (b *BoardState) Snapshot(takenAt time.Time) Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Stations: make(map[string]StationView, len(b.stations)),
		TakenAt:  takenAt,
	}
	for _, code := range b.order {
		snap.Stations[code] = b.viewLocked(code, b.stations[code])
	}
	return snap
}

func (b *BoardState) viewLocked(code string, st *stationState) StationView {
	items := make([]Item, len(st.items))
	copy(items, st.items)
	return StationView{
		Station:   code,
		Items:     items,
		FetchedAt: st.fetchedAt,
		Stale:     st.stale,
	}
}

// Count returns the number of items currently on the board.
func (b *BoardState) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, st := range b.stations {
		n += len(st.items)
	}
	return n
}
