package board

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

// ItemSource is the upstream the poller fetches station items from.
type ItemSource interface {
	ListStationItems(ctx context.Context, station string) ([]Item, error)
}

// Poller drives one display's fetch cycle. It runs on a fixed delay:
// the next cycle is scheduled only after the previous one has fully
// settled, so a display never has two in-flight requests for the same
// station. Stations within a cycle are fetched concurrently and may
// settle in any order.
type Poller struct {
	source   ItemSource
	state    *BoardState
	interval time.Duration
	logger   apt.Logger

	// Buffered once: a manual refresh during a cycle collapses into at
	// most one extra cycle rather than a concurrent request.
	refresh chan struct{}

	onSnapshot func(Snapshot)
	now        func() time.Time
}

// NewPoller creates a poller over the given state. onSnapshot receives
// every published snapshot on the poller goroutine.
func NewPoller(source ItemSource, state *BoardState, interval time.Duration, onSnapshot func(Snapshot), logger apt.Logger) *Poller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{
		source:     source,
		state:      state,
		interval:   interval,
		logger:     logger,
		refresh:    make(chan struct{}, 1),
		onSnapshot: onSnapshot,
		now:        time.Now,
	}
}

// Refresh requests an immediate cycle. Safe to call from any goroutine;
// requests made while a cycle is in flight coalesce.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. It performs an immediate first cycle
// so a freshly opened display is not blank for a full interval.
func (p *Poller) Run(ctx context.Context) {
	p.cycle(ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-p.refresh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		p.cycle(ctx)
		timer.Reset(p.interval)
	}
}

// cycle fetches every station once and publishes the resulting
// snapshot. A station failure retains that station's prior items and
// never blocks the others. Results that settle after cancellation are
// dropped, not applied.
func (p *Poller) cycle(ctx context.Context) {
	stations := p.state.Stations()

	type result struct {
		station string
		items   []Item
		err     error
	}

	results := make([]result, len(stations))
	var wg sync.WaitGroup
	for i, station := range stations {
		wg.Add(1)
		go func(i int, station string) {
			defer wg.Done()
			items, err := p.source.ListStationItems(ctx, station)
			results[i] = result{station: station, items: items, err: err}
		}(i, station)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return
	}

	now := p.now()
	for _, res := range results {
		if res.err != nil {
			p.logger.Error("station fetch failed", "station", res.station, "error", res.err)
			p.state.ApplyError(res.station)
			continue
		}
		p.state.ApplyFetch(res.station, res.items, now)
	}

	if p.onSnapshot != nil {
		p.onSnapshot(p.state.Snapshot(now))
	}
}
