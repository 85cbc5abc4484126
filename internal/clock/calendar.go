// Package clock anchors user-facing date arithmetic to a single civil
// timezone. Storage always happens in UTC; everything a user sees or says
// ("today", "day 10 of the month", "20:00 tonight") is computed here.
package clock

import (
	"fmt"
	"time"
)

// ClampPolicy decides what happens when a day-of-month does not exist in the
// target month (day 31 in April).
type ClampPolicy int

const (
	// ClampToMonthEnd moves the day down to the month's last day.
	ClampToMonthEnd ClampPolicy = iota
	// OverflowIntoNextMonth lets the surplus days spill into the next month.
	OverflowIntoNextMonth
)

// ParseClampPolicy maps the configuration value to a ClampPolicy.
func ParseClampPolicy(s string) (ClampPolicy, error) {
	switch s {
	case "", "clamp":
		return ClampToMonthEnd, nil
	case "overflow":
		return OverflowIntoNextMonth, nil
	}
	return ClampToMonthEnd, fmt.Errorf("unknown clamp policy %q", s)
}

// Calendar performs civil-calendar arithmetic in one location.
type Calendar struct {
	loc   *time.Location
	clamp ClampPolicy
	now   func() time.Time
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithNow overrides the wall clock, mainly for tests and replays.
func WithNow(fn func() time.Time) Option {
	return func(c *Calendar) { c.now = fn }
}

// WithClamp sets the month-day clamp policy.
func WithClamp(p ClampPolicy) Option {
	return func(c *Calendar) { c.clamp = p }
}

// New creates a Calendar for loc. A nil loc means UTC.
func New(loc *time.Location, opts ...Option) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{loc: loc, clamp: ClampToMonthEnd, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the civil timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Clamp returns the configured clamp policy.
func (c *Calendar) Clamp() ClampPolicy { return c.clamp }

// Now returns the current instant in civil-local time.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// Local converts any instant to civil-local time.
func (c *Calendar) Local(t time.Time) time.Time { return t.In(c.loc) }

// ToStorage converts an instant to the UTC representation used in storage.
// The instant is unchanged; only the presentation zone moves.
func (c *Calendar) ToStorage(t time.Time) time.Time { return t.UTC() }

// StartOfDay returns civil-local midnight of the day containing t.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.loc)
}

// Today returns civil-local midnight of the current day.
func (c *Calendar) Today() time.Time { return c.StartOfDay(c.now()) }

// StartOfMonth returns civil-local midnight of the first day of t's month.
func (c *Calendar) StartOfMonth(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, c.loc)
}

// AddDays moves t by n civil days keeping its wall-clock time. Unlike
// t.Add(24h*n) this stays on the same wall clock across DST changes.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day()+n, l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), c.loc)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay applies the clamp policy to day within (year, month). Under
// OverflowIntoNextMonth the day is returned unchanged and time.Date rolls it.
func (c *Calendar) ClampDay(year int, month time.Month, day int) int {
	if day < 1 {
		return 1
	}
	if c.clamp == ClampToMonthEnd {
		if last := DaysIn(year, month); day > last {
			return last
		}
	}
	return day
}

// Date builds a civil-local instant, clamping day per policy.
func (c *Calendar) Date(year int, month time.Month, day, hour, minute int) time.Time {
	// normalize month overflow (month 13 -> January next year) before clamping
	first := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	y, m := first.Year(), first.Month()
	return time.Date(y, m, c.ClampDay(y, m, day), hour, minute, 0, 0, c.loc)
}

// AddMonths moves t by n civil months. anchorDay is the day-of-month the
// series was defined with; pass 0 to use t's own day. Anchoring keeps a
// "day 31" series on the 31st in May after being clamped to April 30.
func (c *Calendar) AddMonths(t time.Time, n, anchorDay int) time.Time {
	l := t.In(c.loc)
	if anchorDay <= 0 {
		anchorDay = l.Day()
	}
	return c.Date(l.Year(), l.Month()+time.Month(n), anchorDay, l.Hour(), l.Minute())
}

// MonthKey formats t's civil month as YYYY-MM.
func (c *Calendar) MonthKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01")
}

// ParseLocal parses a zone-less value as civil-local time.
func (c *Calendar) ParseLocal(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, c.loc)
}

// SameDay reports whether a and b fall on the same civil day.
func (c *Calendar) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}
