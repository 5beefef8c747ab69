// Package urgency derives the display-urgency tier of a lifecycle entity.
// The tier is computed at render time and never stored.
package urgency

import "time"

// Tier is the derived display classification.
type Tier string

const (
	TierGreen     Tier = "green"
	TierYellow    Tier = "yellow"
	TierRed       Tier = "red"
	TierCompleted Tier = "completed"
)

// yellowWindowDays is inclusive: exactly this many days out is still yellow.
const yellowWindowDays = 5

// Classify derives the tier from the entity's due date and completion state.
// Completed entities are always "completed" regardless of due date; entities
// without a due date are green. now is taken as an argument so callers
// re-evaluate on every read rather than caching a tier.
func Classify(now time.Time, due *time.Time, completed bool) Tier {
	if completed {
		return TierCompleted
	}
	if due == nil {
		return TierGreen
	}
	days := daysUntil(now, *due)
	switch {
	case days < 0:
		return TierRed
	case days <= yellowWindowDays:
		return TierYellow
	default:
		return TierGreen
	}
}

// daysUntil is ceil((due - now) / 24h).
func daysUntil(now, due time.Time) int {
	diff := due.Sub(now)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}
