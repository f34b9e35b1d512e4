package board

import (
	"context"
	"sync"
	"time"
)

// AlertSink receives the one-shot cue when an item newly crosses into
// the urgent tier on a display.
type AlertSink interface {
	Alert(ctx context.Context, displayID DisplayID, station string, item Item)
}

// AlertSinkFunc adapts a function to the AlertSink interface.
type AlertSinkFunc func(ctx context.Context, displayID DisplayID, station string, item Item)

func (f AlertSinkFunc) Alert(ctx context.Context, displayID DisplayID, station string, item Item) {
	f(ctx, displayID, station, item)
}

// Notifier watches a display's snapshots and fires the alert sink once
// per item that newly crosses into urgent. Ids that leave the board are
// pruned and may re-alert if they return. The very first snapshot only
// primes the ledger: a display opened onto a backlog must not produce an
// alert storm.
type Notifier struct {
	mu         sync.Mutex
	sink       AlertSink
	displayID  DisplayID
	thresholds map[string]Thresholds
	alerted    map[ItemID]time.Time
	primed     bool
	muted      bool
	now        func() time.Time
}

// NewNotifier creates a notifier with per-station thresholds.
func NewNotifier(displayID DisplayID, thresholds map[string]Thresholds, sink AlertSink) *Notifier {
	norm := make(map[string]Thresholds, len(thresholds))
	for code, t := range thresholds {
		norm[code] = t.Normalize()
	}
	return &Notifier{
		sink:       sink,
		displayID:  displayID,
		thresholds: norm,
		alerted:    make(map[ItemID]time.Time),
		now:        time.Now,
	}
}

// SetMuted toggles the audible cue. Bookkeeping is not gated: alerts
// suppressed while muted are recorded and do not replay on unmute.
func (n *Notifier) SetMuted(muted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.muted = muted
}

// Muted reports the current mute state.
func (n *Notifier) Muted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.muted
}

// TierFor classifies an item in the context of its station.
func (n *Notifier) TierFor(station string, item Item) Tier {
	return n.thresholds[station].Normalize().Tier(item.CreatedAt, n.now())
}

// Observe processes one snapshot: records newly urgent items, fires the
// sink for those that crossed during this session, and prunes ids that
// left the board.
func (n *Notifier) Observe(ctx context.Context, snap Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	seen := make(map[ItemID]struct{})

	for code, view := range snap.Stations {
		thresholds := n.thresholds[code].Normalize()
		for _, item := range view.Items {
			seen[item.ID] = struct{}{}

			if thresholds.Tier(item.CreatedAt, now) != TierUrgent {
				continue
			}

			// An id already recorded with the same creation time stays
			// silent; a different creation time means a new logical
			// entity which alerts on its own crossing.
			if prev, ok := n.alerted[item.ID]; ok && prev.Equal(item.CreatedAt) {
				continue
			}
			n.alerted[item.ID] = item.CreatedAt

			if !n.primed || n.muted || n.sink == nil {
				continue
			}
			n.sink.Alert(ctx, n.displayID, code, item)
		}
	}

	for id := range n.alerted {
		if _, ok := seen[id]; !ok {
			delete(n.alerted, id)
		}
	}

	n.primed = true
}
