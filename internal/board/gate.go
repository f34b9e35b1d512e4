package board

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/apt"
)

// ErrTransitionPending rejects a transition while an earlier one for the
// same item has not settled yet (duplicate-click guard).
var ErrTransitionPending = errors.New("transition already in flight")

// TransitionSource issues the single upstream status-change request.
type TransitionSource interface {
	TransitionItem(ctx context.Context, id ItemID, action string) error
}

// Gate serializes status transitions per item for one display. Exactly
// one upstream call per accepted transition; nothing is applied locally,
// the authoritative status arrives with the next poll.
type Gate struct {
	mu      sync.Mutex
	pending map[ItemID]bool
	source  TransitionSource
	state   *BoardState
	logger  apt.Logger
}

// NewGate creates a gate over the display's board state.
func NewGate(source TransitionSource, state *BoardState, logger apt.Logger) *Gate {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Gate{
		pending: make(map[ItemID]bool),
		source:  source,
		state:   state,
		logger:  logger,
	}
}

// Pending reports whether a transition for the item is in flight.
func (g *Gate) Pending(id ItemID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending[id]
}

// RequestTransition validates and executes one transition action.
//
// Rejections before the lock is taken (unknown item, illegal step,
// duplicate click) make no upstream call. Once the call is issued the
// pending mark is cleared unconditionally on settle, success or failure,
// so the operator can retry manually after an upstream error.
func (g *Gate) RequestTransition(ctx context.Context, id ItemID, action string) error {
	requested, err := StatusForAction(action)
	if err != nil {
		return err
	}

	item, ok := g.state.Item(id)
	if !ok {
		return ErrUnknownItem
	}

	if err := ValidateTransition(item.Status, requested); err != nil {
		// The board only offers the legal next action, so this is a
		// stale view or a double-submitted form.
		g.logger.Error("rejected illegal transition", "item_id", id, "from", item.Status, "action", action)
		return err
	}

	g.mu.Lock()
	if g.pending[id] {
		g.mu.Unlock()
		return ErrTransitionPending
	}
	g.pending[id] = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.pending, id)
		g.mu.Unlock()
	}()

	if err := g.source.TransitionItem(ctx, id, action); err != nil {
		g.logger.Error("transition failed upstream", "item_id", id, "action", action, "error", err)
		return err
	}
	return nil
}
