package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock drives slot selection and forecast windows so tests can pin "now"
// to a known broadcast boundary via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the package clock's current time in KST.
func Now() time.Time {
	return clock.Now().In(KST)
}
