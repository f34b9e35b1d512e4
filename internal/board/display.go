package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Upstream is the backend surface a display needs: station item lists
// and single-item transitions.
type Upstream interface {
	ItemSource
	TransitionSource
}

// StreamEvent is what a display pushes to its subscribers (SSE).
type StreamEvent struct {
	Type string // "snapshot", "alert" or "notice"
	Data interface{}
}

// BoardItemView is an item annotated for rendering: its escalation tier
// and whether a transition for it is in flight (the display disables the
// control while pending).
type BoardItemView struct {
	Item
	Tier    Tier `json:"tier"`
	Pending bool `json:"pending"`
}

// StationBoardView is one station's renderable column.
type StationBoardView struct {
	Station   string          `json:"station"`
	Items     []BoardItemView `json:"items"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"stale"`
}

// BoardView is the complete renderable board pushed per poll cycle.
type BoardView struct {
	DisplayID DisplayID                   `json:"display_id"`
	Stations  map[string]StationBoardView `json:"stations"`
	TakenAt   time.Time                   `json:"taken_at"`
	Muted     bool                        `json:"muted"`
}

// AlertView is the payload of an "alert" stream event. The browser
// plays the audio cue on receipt.
type AlertView struct {
	DisplayID DisplayID `json:"display_id"`
	Station   string    `json:"station"`
	Item      Item      `json:"item"`
}

// NoticeView is a transient, dismissible message for the operator.
type NoticeView struct {
	Message string `json:"message"`
	ItemID  string `json:"item_id,omitempty"`
}

// Display is one screen's session: its own poll loop, board state,
// alert ledger and mutation gate. Nothing here is shared across screens,
// which keeps the per-screen semantics of the original boards without
// their five divergent copies.
type Display struct {
	id       DisplayID
	settings map[string]StationSettings
	state    *BoardState
	poller   *Poller
	notifier *Notifier
	gate     *Gate
	logger   apt.Logger

	cancel context.CancelFunc

	mu          sync.RWMutex
	subscribers map[string]chan StreamEvent
	latest      BoardView
	hasLatest   bool
	lastSeen    time.Time
	closed      bool
}

// NewDisplay assembles a display session for a station set. extraSink,
// when non-nil, additionally receives urgency alerts (NATS fan-out for
// pagers); the display's own stream always gets them.
func NewDisplay(upstream Upstream, stations []string, settings map[string]StationSettings, extraSink AlertSink, logger apt.Logger) *Display {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	id := uuid.New()
	state := NewBoardState(stations)

	thresholds := make(map[string]Thresholds, len(settings))
	interval := time.Duration(0)
	for _, code := range state.Stations() {
		s, ok := settings[code]
		if !ok {
			s = DefaultSettings(code)
		}
		thresholds[code] = s.Thresholds
		if interval == 0 || s.PollInterval < interval {
			interval = s.PollInterval
		}
	}

	d := &Display{
		id:          id,
		settings:    settings,
		state:       state,
		logger:      logger.With("display_id", id.String()),
		subscribers: make(map[string]chan StreamEvent),
		lastSeen:    time.Now(),
	}

	sink := AlertSinkFunc(func(ctx context.Context, displayID DisplayID, station string, item Item) {
		d.broadcast(StreamEvent{Type: "alert", Data: AlertView{DisplayID: displayID, Station: station, Item: item}})
		if extraSink != nil {
			extraSink.Alert(ctx, displayID, station, item)
		}
	})

	d.notifier = NewNotifier(id, thresholds, sink)
	d.gate = NewGate(upstream, state, d.logger)
	d.poller = NewPoller(upstream, state, interval, d.onSnapshot, d.logger)

	return d
}

// ID returns the display's identifier.
func (d *Display) ID() DisplayID { return d.id }

// Stations returns the display's station set.
func (d *Display) Stations() []string { return d.state.Stations() }

// Start launches the poll loop. The loop stops when ctx is cancelled or
// Close is called, whichever comes first.
func (d *Display) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return
	}
	d.cancel = cancel
	d.mu.Unlock()

	go d.poller.Run(ctx)
}

// Close tears the display down: the poll timer is cancelled, in-flight
// fetches are discarded on settle, and subscriber streams end.
func (d *Display) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	cancel := d.cancel
	subs := d.subscribers
	d.subscribers = make(map[string]chan StreamEvent)
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, ch := range subs {
		close(ch)
	}
}

// Refresh requests an immediate poll cycle, coalesced with any cycle
// already in flight.
func (d *Display) Refresh() {
	d.Touch()
	d.poller.Refresh()
}

// SetMuted toggles the audible cue for this display.
func (d *Display) SetMuted(muted bool) {
	d.Touch()
	d.notifier.SetMuted(muted)
}

// Muted reports the display's mute state.
func (d *Display) Muted() bool { return d.notifier.Muted() }

// Transition runs one gated status change. Upstream failures surface to
// the operator as a transient notice on the stream; local rejections
// (duplicate click, illegal step, unknown item) stay silent per the
// board contract.
func (d *Display) Transition(ctx context.Context, id ItemID, action string) error {
	d.Touch()

	err := d.gate.RequestTransition(ctx, id, action)
	if err == nil {
		// Pull the authoritative status without waiting a full interval.
		d.poller.Refresh()
		return nil
	}

	if errors.Is(err, ErrTransitionPending) || errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrUnknownItem) {
		return err
	}

	d.broadcast(StreamEvent{Type: "notice", Data: NoticeView{
		Message: "Could not update item status. Try again.",
		ItemID:  id.String(),
	}})
	return err
}

// Pending reports whether a transition for the item is in flight.
func (d *Display) Pending(id ItemID) bool { return d.gate.Pending(id) }

// View returns the latest published board view. Before the first cycle
// completes it returns an empty board.
func (d *Display) View() BoardView {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.hasLatest {
		return d.latest
	}
	return BoardView{
		DisplayID: d.id,
		Stations:  make(map[string]StationBoardView),
		Muted:     d.notifier.Muted(),
	}
}

// Subscribe attaches a stream consumer and returns its event channel.
func (d *Display) Subscribe(subscriberID string) <-chan StreamEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan StreamEvent, 16)
	if d.closed {
		close(ch)
		return ch
	}
	d.subscribers[subscriberID] = ch
	d.lastSeen = time.Now()

	d.logger.Info("stream subscriber attached", "subscriber_id", subscriberID, "total_subscribers", len(d.subscribers))
	return ch
}

// Unsubscribe detaches a stream consumer.
func (d *Display) Unsubscribe(subscriberID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ch, ok := d.subscribers[subscriberID]; ok {
		close(ch)
		delete(d.subscribers, subscriberID)
		d.lastSeen = time.Now()
		d.logger.Info("stream subscriber detached", "subscriber_id", subscriberID, "total_subscribers", len(d.subscribers))
	}
}

// Touch marks the display as recently used, deferring idle reaping.
func (d *Display) Touch() {
	d.mu.Lock()
	d.lastSeen = time.Now()
	d.mu.Unlock()
}

// Idle reports whether the display has had no subscribers or activity
// since the given deadline.
func (d *Display) Idle(since time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers) == 0 && d.lastSeen.Before(since)
}

// onSnapshot runs on the poller goroutine once per cycle.
func (d *Display) onSnapshot(snap Snapshot) {
	d.notifier.Observe(context.Background(), snap)

	view := d.buildView(snap)

	d.mu.Lock()
	d.latest = view
	d.hasLatest = true
	d.mu.Unlock()

	d.broadcast(StreamEvent{Type: "snapshot", Data: view})
}

func (d *Display) buildView(snap Snapshot) BoardView {
	view := BoardView{
		DisplayID: d.id,
		Stations:  make(map[string]StationBoardView, len(snap.Stations)),
		TakenAt:   snap.TakenAt,
		Muted:     d.notifier.Muted(),
	}

	for code, sv := range snap.Stations {
		items := make([]BoardItemView, 0, len(sv.Items))
		for _, item := range sv.Items {
			items = append(items, BoardItemView{
				Item:    item,
				Tier:    d.notifier.TierFor(code, item),
				Pending: d.gate.Pending(item.ID),
			})
		}
		view.Stations[code] = StationBoardView{
			Station:   code,
			Items:     items,
			FetchedAt: sv.FetchedAt,
			Stale:     sv.Stale,
		}
	}
	return view
}

func (d *Display) broadcast(evt StreamEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for subscriberID, ch := range d.subscribers {
		select {
		case ch <- evt:
		default:
			// Channel full, subscriber too slow - skip this event
			d.logger.Info("subscriber channel full, dropping event", "subscriber_id", subscriberID, "event", evt.Type)
		}
	}
}
