// Package calendar provides pure calendar-day utilities for the leave
// allocation engine: a UTC day value type, weekend tests, and the
// weekend-skipping working-day span generator.
//
// All dates are UTC calendar days. Using UTC everywhere avoids the
// day-boundary drift you get when a local midnight falls on a different
// calendar day than the stored instant.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// =============================================================================
// DATE - A calendar day (midnight UTC)
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	t time.Time
}

// NewDate constructs a Date for the given year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParseDate parses a YYYY-MM-DD string and panics on failure.
// For tests and fixtures only.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string        { return d.t.Format(Layout) }
func (d Date) Time() time.Time       { return d.t }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(o Date) bool    { return d.t.Before(o.t) }
func (d Date) After(o Date) bool     { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool     { return d.t.Equal(o.t) }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// IsWeekend reports whether the day is a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MarshalText implements encoding.TextMarshaler so Date works both as a
// JSON value and as a JSON map key (heatmaps are keyed by Date).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// WORKING-DAY SPAN
// =============================================================================

// NextWorkday returns the first non-weekend day on or after d.
func NextWorkday(d Date) Date {
	for d.IsWeekend() {
		d = d.AddDays(1)
	}
	return d
}

// WorkingDaySpan produces exactly count calendar dates in increasing
// order, skipping weekends. The first date is the first working day on
// or after start: a Saturday or Sunday start is advanced to the
// following Monday. Pure function of its inputs; count < 1 yields nil.
func WorkingDaySpan(start Date, count int) []Date {
	if count < 1 || start.IsZero() {
		return nil
	}
	span := make([]Date, 0, count)
	current := NextWorkday(start)
	for len(span) < count {
		if !current.IsWeekend() {
			span = append(span, current)
		}
		current = current.AddDays(1)
	}
	return span
}
