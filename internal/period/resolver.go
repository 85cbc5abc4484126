// Package period turns free-form period expressions ("este mês", "ontem",
// "últimos 10 dias", "25/12/2024") into half-open civil-local intervals.
package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"meugestor/internal/clock"
)

// maxTrailingDays bounds "últimos N dias" to about ten years.
const maxTrailingDays = 3660

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// UTC returns the interval with both bounds in UTC, ready for queries.
func (i Interval) UTC() Interval {
	return Interval{Start: i.Start.UTC(), End: i.End.UTC()}
}

// Contains reports whether Start <= t < End.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Variant selects which rule set a lookup uses.
type Variant int

const (
	// Summary covers ledger summaries: month, today, yesterday, week, last N days.
	Summary Variant = iota
	// Reminders adds forward-looking phrases: tomorrow and literal dates.
	Reminders
)

// Tokens match as substrings of the folded text ("semanas", "semanal").
// Folding turns "mês" into "mes", which would also match "mesmo", so that
// one token needs whole-word bounds. "7 dias" is bounded on the left so
// "últimos 17 dias" reaches the last-N-days rule.
var (
	monthRe     = regexp.MustCompile(`\bmes\b|month`)
	todayRe     = regexp.MustCompile(`hoje|today`)
	yesterdayRe = regexp.MustCompile(`ontem|yesterday`)
	weekRe      = regexp.MustCompile(`semana|week|\b7 (dias|days)`)
	lastNDaysRe = regexp.MustCompile(`(ultimos|last) (\d+) (dias|days)`)
	tomorrowRe  = regexp.MustCompile(`amanha|tomorrow`)
	dateRe      = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`)
)

// rule matches folded text and builds an interval from civil-local midnight.
type rule struct {
	name      string
	reminders bool // only consulted for the Reminders variant
	match     func(r *Resolver, text string, today time.Time) (Interval, bool)
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{name: "month", match: func(r *Resolver, text string, today time.Time) (Interval, bool) {
		if !monthRe.MatchString(text) {
			return Interval{}, false
		}
		return Interval{Start: r.cal.StartOfMonth(today), End: r.cal.AddDays(today, 1)}, true
	}},
	{name: "today", match: func(r *Resolver, text string, today time.Time) (Interval, bool) {
		if !todayRe.MatchString(text) {
			return Interval{}, false
		}
		return Interval{Start: today, End: r.cal.AddDays(today, 1)}, true
	}},
	{name: "yesterday", match: func(r *Resolver, text string, today time.Time) (Interval, bool) {
		if !yesterdayRe.MatchString(text) {
			return Interval{}, false
		}
		return Interval{Start: r.cal.AddDays(today, -1), End: today}, true
	}},
	{name: "week", match: func(r *Resolver, text string, today time.Time) (Interval, bool) {
		if !weekRe.MatchString(text) {
			return Interval{}, false
		}
		return Interval{Start: r.cal.AddDays(today, -6), End: r.cal.AddDays(today, 1)}, true
	}},
	{name: "last_n_days", match: func(r *Resolver, text string, today time.Time) (Interval, bool) {
		m := lastNDaysRe.FindStringSubmatch(text)
		if m == nil {
			return Interval{}, false
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 || n > maxTrailingDays {
			return Interval{}, false
		}
		return Interval{Start: r.cal.AddDays(today, -(n - 1)), End: r.cal.AddDays(today, 1)}, true
	}},
	{name: "tomorrow", reminders: true, match: func(r *Resolver, text string, today time.Time) (Interval, bool) {
		if !tomorrowRe.MatchString(text) {
			return Interval{}, false
		}
		return Interval{Start: r.cal.AddDays(today, 1), End: r.cal.AddDays(today, 2)}, true
	}},
	{name: "date", reminders: true, match: func(r *Resolver, text string, _ time.Time) (Interval, bool) {
		m := dateRe.FindStringSubmatch(text)
		if m == nil {
			return Interval{}, false
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, r.cal.Location())
		// reject 31/02 and friends instead of letting time.Date roll them over
		if start.Day() != day || int(start.Month()) != month || start.Year() != year {
			return Interval{}, false
		}
		return Interval{Start: start, End: r.cal.AddDays(start, 1)}, true
	}},
}

// Resolver resolves period expressions against a civil calendar.
type Resolver struct {
	cal *clock.Calendar
}

// NewResolver creates a Resolver bound to cal.
func NewResolver(cal *clock.Calendar) *Resolver {
	return &Resolver{cal: cal}
}

// Resolve maps text to an interval relative to now. The returned bounds are
// civil-local; call UTC before using them as query bounds. The boolean is
// false when no rule recognizes the text.
func (r *Resolver) Resolve(text string, now time.Time, v Variant) (Interval, bool) {
	iv, _, ok := r.resolve(text, now, v)
	return iv, ok
}

// RuleFor returns the name of the rule that would resolve text, or "".
func (r *Resolver) RuleFor(text string, now time.Time, v Variant) string {
	_, name, _ := r.resolve(text, now, v)
	return name
}

func (r *Resolver) resolve(text string, now time.Time, v Variant) (Interval, string, bool) {
	folded := Fold(text)
	if folded == "" {
		return Interval{}, "", false
	}
	today := r.cal.StartOfDay(now)
	for _, rl := range rules {
		if rl.reminders && v != Reminders {
			continue
		}
		if iv, ok := rl.match(r, folded, today); ok {
			return iv, rl.name, true
		}
	}
	return Interval{}, "", false
}

// Fold lower-cases s and strips diacritics so "MÊS" and "mes" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// IsLiteralDate reports whether text carries a dd/mm/yyyy date.
func IsLiteralDate(text string) bool {
	return dateRe.MatchString(text)
}
