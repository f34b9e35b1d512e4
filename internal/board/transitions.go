package board

import (
	"errors"
	"fmt"

	"github.com/tableside/expo/pkg/enums/itemstatus"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownAction     = errors.New("unknown transition action")
	ErrUnknownItem       = errors.New("item not on board")
)

// Actions a display can request. Each maps to the status it moves the
// item into; the state machine only ever exposes the single legal next
// step, so a mismatch is a client defect rather than a user error.
const (
	ActionStart = "start"
	ActionReady = "ready"
)

// StatusForAction maps a transition action to its target status code.
func StatusForAction(action string) (string, error) {
	switch action {
	case ActionStart:
		return itemstatus.Statuses.Preparing.Name, nil
	case ActionReady:
		return itemstatus.Statuses.Ready.Name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// ValidateTransition checks that requested is the unique legal successor
// of current. Transitions are strictly forward and single-step; there is
// no backward path from the board.
func ValidateTransition(current, requested string) error {
	next, ok := itemstatus.Next(current)
	if !ok {
		return fmt.Errorf("%w: %q has no forward transition", ErrInvalidTransition, current)
	}
	if next.Name != requested {
		return fmt.Errorf("%w: %q -> %q (expected %q)", ErrInvalidTransition, current, requested, next.Name)
	}
	return nil
}
