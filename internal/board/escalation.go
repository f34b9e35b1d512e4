package board

import "time"

// Tier is the derived urgency of a board item. It is recomputed from the
// item's creation time on every snapshot, never stored.
type Tier string

const (
	TierNormal  Tier = "normal"
	TierWarning Tier = "warning"
	TierUrgent  Tier = "urgent"
)

// Thresholds holds the per-station escalation cutoffs. WarnAfter must be
// below UrgentAfter; Normalize enforces that on misconfigured input.
type Thresholds struct {
	WarnAfter   time.Duration
	UrgentAfter time.Duration
}

// Normalize returns thresholds with a sane ordering. A zero value gets
// the kitchen defaults.
func (t Thresholds) Normalize() Thresholds {
	if t.WarnAfter <= 0 && t.UrgentAfter <= 0 {
		return Thresholds{WarnAfter: 10 * time.Minute, UrgentAfter: 20 * time.Minute}
	}
	if t.UrgentAfter <= t.WarnAfter {
		t.UrgentAfter = t.WarnAfter * 2
	}
	return t
}

// Tier classifies an item by elapsed time since creation. Elapsed time
// is floored to whole minutes; a creation time in the future (clock
// skew) clamps to zero and reads as normal.
func (t Thresholds) Tier(createdAt, now time.Time) Tier {
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		elapsed = 0
	}
	mins := elapsed / time.Minute * time.Minute

	switch {
	case mins >= t.UrgentAfter:
		return TierUrgent
	case mins >= t.WarnAfter:
		return TierWarning
	default:
		return TierNormal
	}
}
