package clock

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func TestCalendar_StartOfDayAndMonth(t *testing.T) {
	loc := saoPaulo(t)
	// 02:30 UTC on the 16th is still the 15th in São Paulo (UTC-3).
	instant := time.Date(2024, 3, 16, 2, 30, 0, 0, time.UTC)
	cal := New(loc, WithNow(func() time.Time { return instant }))

	wantDay := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	if got := cal.Today(); !got.Equal(wantDay) {
		t.Errorf("Today() = %v, want %v", got, wantDay)
	}
	if got := cal.StartOfMonth(instant); !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)) {
		t.Errorf("StartOfMonth() = %v", got)
	}
	if got := cal.Now(); got.Location() != loc || got.Day() != 15 {
		t.Errorf("Now() = %v, want civil-local 15th", got)
	}
}

func TestCalendar_RoundTrip(t *testing.T) {
	loc := saoPaulo(t)
	cal := New(loc)

	local := time.Date(2024, 11, 3, 23, 45, 12, 500, loc)
	stored := cal.ToStorage(local)
	if stored.Location() != time.UTC {
		t.Fatalf("expected UTC storage, got %v", stored.Location())
	}
	back := cal.Local(stored)
	if back.Year() != 2024 || back.Month() != 11 || back.Day() != 3 ||
		back.Hour() != 23 || back.Minute() != 45 || back.Second() != 12 || back.Nanosecond() != 500 {
		t.Errorf("round trip changed wall clock: %v", back)
	}
}

func TestCalendar_AddDays_DST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	cal := New(loc)

	// DST starts 2024-03-10 in New York; a civil day is 23h long there.
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, loc)
	next := cal.AddDays(start, 2)
	if next.Hour() != 0 || next.Day() != 11 {
		t.Errorf("AddDays across DST = %v, want midnight of the 11th", next)
	}
}

func TestCalendar_ClampPolicies(t *testing.T) {
	tests := []struct {
		name      string
		policy    ClampPolicy
		year      int
		month     time.Month
		day       int
		wantMonth time.Month
		wantDay   int
	}{
		{name: "clamp_april_31", policy: ClampToMonthEnd, year: 2024, month: time.April, day: 31, wantMonth: time.April, wantDay: 30},
		{name: "clamp_leap_feb_30", policy: ClampToMonthEnd, year: 2024, month: time.February, day: 30, wantMonth: time.February, wantDay: 29},
		{name: "clamp_feb_31", policy: ClampToMonthEnd, year: 2023, month: time.February, day: 31, wantMonth: time.February, wantDay: 28},
		{name: "clamp_valid_day", policy: ClampToMonthEnd, year: 2024, month: time.May, day: 31, wantMonth: time.May, wantDay: 31},
		{name: "overflow_april_31", policy: OverflowIntoNextMonth, year: 2024, month: time.April, day: 31, wantMonth: time.May, wantDay: 1},
		{name: "month_13_normalizes", policy: ClampToMonthEnd, year: 2024, month: 13, day: 31, wantMonth: time.January, wantDay: 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := New(time.UTC, WithClamp(tt.policy))
			got := cal.Date(tt.year, tt.month, tt.day, 9, 30)
			if got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
				t.Errorf("Date() = %v, want %s %d", got, tt.wantMonth, tt.wantDay)
			}
			if got.Hour() != 9 || got.Minute() != 30 {
				t.Errorf("Date() lost wall clock: %v", got)
			}
		})
	}
}

func TestCalendar_AddMonths_Anchored(t *testing.T) {
	loc := saoPaulo(t)
	cal := New(loc)

	jan31 := time.Date(2024, 1, 31, 10, 0, 0, 0, loc)
	feb := cal.AddMonths(jan31, 1, 31)
	if feb.Month() != time.February || feb.Day() != 29 {
		t.Fatalf("expected Feb 29, got %v", feb)
	}
	// Anchoring recovers the 31st after a short month.
	mar := cal.AddMonths(feb, 1, 31)
	if mar.Month() != time.March || mar.Day() != 31 {
		t.Errorf("expected Mar 31, got %v", mar)
	}
	// Without the anchor the clamped day sticks.
	drift := cal.AddMonths(feb, 1, 0)
	if drift.Day() != 29 {
		t.Errorf("expected unanchored Mar 29, got %v", drift)
	}
	dec := cal.AddMonths(time.Date(2024, 12, 15, 8, 0, 0, 0, loc), 1, 0)
	if dec.Year() != 2025 || dec.Month() != time.January {
		t.Errorf("expected January 2025, got %v", dec)
	}
}

func TestCalendar_MonthKeyAndParse(t *testing.T) {
	loc := saoPaulo(t)
	cal := New(loc)

	// 01:00 UTC on April 1st is still March in São Paulo.
	if got := cal.MonthKey(time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC)); got != "2024-03" {
		t.Errorf("MonthKey() = %s, want 2024-03", got)
	}

	parsed, err := cal.ParseLocal("2006-01-02T15:04:05", "2024-05-10T09:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseLocal() = %v, want 12:00 UTC", parsed.UTC())
	}
}

func TestParseClampPolicy(t *testing.T) {
	if p, err := ParseClampPolicy("clamp"); err != nil || p != ClampToMonthEnd {
		t.Errorf("clamp -> %v, %v", p, err)
	}
	if p, err := ParseClampPolicy("overflow"); err != nil || p != OverflowIntoNextMonth {
		t.Errorf("overflow -> %v, %v", p, err)
	}
	if _, err := ParseClampPolicy("round"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestDaysIn(t *testing.T) {
	if DaysIn(2024, time.February) != 29 || DaysIn(2023, time.February) != 28 || DaysIn(2024, time.April) != 30 {
		t.Error("unexpected month lengths")
	}
}
