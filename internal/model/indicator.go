package model

import "time"

// Indicator is the severity shown next to an item.
type Indicator string

// Indicators.
const (
	IndicatorGreen  Indicator = "GREEN"  // in its container
	IndicatorYellow Indicator = "YELLOW" // out for up to OutWarningThreshold
	IndicatorRed    Indicator = "RED"    // out for longer
)

// OutWarningThreshold is how long an item may be out before it turns red.
const OutWarningThreshold = 14 * 24 * time.Hour

// IndicatorFor derives the indicator from an item's status and timestamps.
// An OUT item without markedOutAt is measured from createdAt.
func IndicatorFor(status Status, createdAt time.Time, markedOutAt *time.Time, now time.Time) Indicator {
	if status != StatusOut {
		return IndicatorGreen
	}
	ref := createdAt
	if markedOutAt != nil {
		ref = *markedOutAt
	}
	if now.Sub(ref) <= OutWarningThreshold {
		return IndicatorYellow
	}
	return IndicatorRed
}
