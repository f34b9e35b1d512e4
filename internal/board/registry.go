package board

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/tableside/expo/pkg/event"
)

// ErrDisplayNotFound is returned for unknown or already closed displays.
var ErrDisplayNotFound = errors.New("display not found")

// Registry tracks the live display sessions. Idle displays (no stream
// attached, no recent activity) are reaped on a sweep interval so a
// browser that disappears without a DELETE does not leak a poll loop.
type Registry struct {
	mu       sync.RWMutex
	displays map[DisplayID]*Display

	upstream  Upstream
	config    *apt.Config
	alertSink AlertSink
	publisher events.Publisher
	logger    apt.Logger

	idleTTL time.Duration
	sweep   time.Duration
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry creates a display registry. publisher is optional; when
// set, display open/close events go out on expo.displays.
func NewRegistry(upstream Upstream, config *apt.Config, alertSink AlertSink, publisher events.Publisher, logger apt.Logger) *Registry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Registry{
		displays:  make(map[DisplayID]*Display),
		upstream:  upstream,
		config:    config,
		alertSink: alertSink,
		publisher: publisher,
		logger:    logger,
		idleTTL:   2 * time.Minute,
		sweep:     30 * time.Second,
		done:      make(chan struct{}),
	}
}

// Start begins the idle sweep. Displays created before Start are
// rejected; the registry needs its base context first.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.mu.Unlock()

	go r.sweepLoop()
	return nil
}

// Stop closes every display and halts the sweep.
func (r *Registry) Stop(ctx context.Context) error {
	close(r.done)

	r.mu.Lock()
	displays := make([]*Display, 0, len(r.displays))
	for _, d := range r.displays {
		displays = append(displays, d)
	}
	r.displays = make(map[DisplayID]*Display)
	cancel := r.cancel
	r.mu.Unlock()

	for _, d := range displays {
		d.Close()
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// Open creates and starts a display for a station set.
func (r *Registry) Open(stations []string) (*Display, error) {
	if len(stations) == 0 {
		return nil, errors.New("display needs at least one station")
	}

	settings := make(map[string]StationSettings, len(stations))
	for _, code := range stations {
		settings[code] = ResolveSettings(r.config, code)
	}

	d := NewDisplay(r.upstream, stations, settings, r.alertSink, r.logger)

	r.mu.Lock()
	if r.ctx == nil {
		r.mu.Unlock()
		return nil, errors.New("registry not started")
	}
	r.displays[d.ID()] = d
	ctx := r.ctx
	total := len(r.displays)
	r.mu.Unlock()

	d.Start(ctx)
	r.logger.Info("display opened", "display_id", d.ID().String(), "stations", len(stations), "total_displays", total)
	r.publishDisplayEvent(event.EventDisplayOpened, d)

	return d, nil
}

// Get returns a live display by id.
func (r *Registry) Get(id DisplayID) (*Display, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.displays[id]
	if !ok {
		return nil, ErrDisplayNotFound
	}
	return d, nil
}

// Close tears down one display.
func (r *Registry) Close(id DisplayID) error {
	r.mu.Lock()
	d, ok := r.displays[id]
	if ok {
		delete(r.displays, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrDisplayNotFound
	}

	d.Close()
	r.logger.Info("display closed", "display_id", id.String())
	r.publishDisplayEvent(event.EventDisplayClosed, d)
	return nil
}

// Count returns the number of live displays.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.displays)
}

// NudgeStation coalesces a refresh into every display showing the
// station. Used by the order-event subscriber; the poll cadence remains
// the consistency contract.
func (r *Registry) NudgeStation(stationCode string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.displays {
		for _, code := range d.Stations() {
			if code == stationCode {
				d.Refresh()
				break
			}
		}
	}
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.reapIdle()
		}
	}
}

func (r *Registry) reapIdle() {
	deadline := time.Now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Display
	for id, d := range r.displays {
		if d.Idle(deadline) {
			idle = append(idle, d)
			delete(r.displays, id)
		}
	}
	r.mu.Unlock()

	for _, d := range idle {
		d.Close()
		r.logger.Info("reaped idle display", "display_id", d.ID().String())
		r.publishDisplayEvent(event.EventDisplayClosed, d)
	}
}

func (r *Registry) publishDisplayEvent(eventType string, d *Display) {
	if r.publisher == nil {
		return
	}

	evt := event.DisplayEvent{
		EventType:  eventType,
		OccurredAt: time.Now(),
		DisplayID:  d.ID().String(),
		Stations:   d.Stations(),
	}

	data, _ := json.Marshal(evt)
	if err := r.publisher.Publish(context.Background(), event.DisplaysTopic, data); err != nil {
		r.logger.Errorf("Failed to publish display event: %v", err)
	}
}
