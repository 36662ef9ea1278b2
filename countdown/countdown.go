package countdown

import (
	"fmt"
	"time"

	"anarchy.ttfm/payin/transactions"
	"anarchy.ttfm/payin/utils"
)

// RefreshQuoteInterval is the default tick interval of a countdown
const RefreshQuoteInterval = time.Second

// PlaceholderClock is rendered before a countdown produced its first value
const PlaceholderClock = "00:00:00"

// Remaining computes the time left until target. An absent target counts
// as already expired so consumers never need a separate unknown branch
func Remaining(target transactions.Millis, now time.Time) (left time.Duration) {
	if target.IsZero() {
		return 0
	}
	return utils.Max(target.Time().Sub(now), 0)
}

// Format renders a duration as a zero padded HH:MM:SS clock
func Format(d time.Duration) (clock string) {
	d = utils.Max(d, 0)
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Snapshot of a countdown at a single instant
type Snapshot struct {
	// Time left until the target. Never negative
	TimeLeft time.Duration
	// Whether the target has passed
	Expired bool
	// HH:MM:SS rendering of TimeLeft
	Formatted string
}

func At(target transactions.Millis, now time.Time) (snap Snapshot) {
	snap.TimeLeft = Remaining(target, now)
	snap.Expired = snap.TimeLeft == 0
	snap.Formatted = Format(snap.TimeLeft)
	return snap
}
