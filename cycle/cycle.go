// Package cycle implements the quota-cycle policy: leave counters live
// in a rolling window (365 days by default) measured from the ledger's
// cycle start instant. When the window elapses the counters reset.
//
// A missing or invalid cycle start is treated as expired. That fails
// open toward granting a fresh cycle, which is the conservative default
// for ledgers migrated from systems that never recorded a start date.
package cycle

import "time"

// DefaultDays is the standard cycle length.
const DefaultDays = 365

// Policy decides when a quota cycle has run out. The zero value is not
// usable; construct with Default or an explicit day count.
type Policy struct {
	Days int
}

// Default returns the standard 365-day policy.
func Default() Policy {
	return Policy{Days: DefaultDays}
}

// Expired reports whether the cycle that began at start has run its
// course as of now. A zero start (absent or unparseable upstream) is
// always expired.
func (p Policy) Expired(start, now time.Time) bool {
	if start.IsZero() {
		return true
	}
	return daysBetween(start, now) >= p.Days
}

// DaysRemaining returns how many whole days are left in the current
// cycle, never negative. A zero start yields a full cycle.
func (p Policy) DaysRemaining(start, now time.Time) int {
	if start.IsZero() {
		return p.Days
	}
	remaining := p.Days - daysBetween(start, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// daysBetween is the whole-day difference between two instants.
func daysBetween(start, now time.Time) int {
	return int(now.Sub(start).Hours() / 24)
}
