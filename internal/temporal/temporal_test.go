package temporal

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDateReference_Tomorrow(t *testing.T) {
	// Property: tomorrow is now+1d for any anchor, including month and year ends.
	anchors := []time.Time{
		time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC),
	}
	for _, now := range anchors {
		f, ok := ResolveDateReference("tomorrow", now)
		if !ok {
			t.Fatalf("tomorrow failed to resolve for anchor %v", now)
		}
		if f.IsRange {
			t.Error("tomorrow should be an exact date")
		}
		want := date(now.Year(), now.Month(), now.Day()).AddDate(0, 0, 1)
		if !f.Exact.Equal(want) {
			t.Errorf("anchor %v: expected %v, got %v", now, want, f.Exact)
		}
	}
}

func TestResolveDateReference_NextWeek(t *testing.T) {
	// Wednesday 2025-06-18. Next week starts Monday 2025-06-23.
	now := time.Date(2025, 6, 18, 14, 0, 0, 0, time.UTC)
	f, ok := ResolveDateReference("next week", now)
	if !ok || !f.IsRange {
		t.Fatalf("next week should resolve to a range, got ok=%v filter=%+v", ok, f)
	}
	if !f.RangeStart.Equal(date(2025, 6, 23)) {
		t.Errorf("expected start 2025-06-23, got %v", f.RangeStart)
	}
	if !f.RangeEnd.Equal(date(2025, 6, 29)) {
		t.Errorf("expected end 2025-06-29, got %v", f.RangeEnd)
	}
	if !f.RangeStart.After(date(2025, 6, 18)) {
		t.Error("next week must start strictly after today")
	}
}

func TestResolveDateReference_NextWeekFromMonday(t *testing.T) {
	// From a Monday the next week starts a full 7 days out.
	now := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	f, _ := ResolveDateReference("next week", now)
	if !f.RangeStart.Equal(date(2025, 6, 23)) {
		t.Errorf("expected start 2025-06-23, got %v", f.RangeStart)
	}
}

func TestResolveDateReference_NextWeekFromSunday(t *testing.T) {
	now := time.Date(2025, 6, 22, 9, 0, 0, 0, time.UTC) // Sunday
	f, _ := ResolveDateReference("next week", now)
	if !f.RangeStart.Equal(date(2025, 6, 23)) {
		t.Errorf("expected start 2025-06-23 (next day), got %v", f.RangeStart)
	}
}

func TestResolveDateReference_Today(t *testing.T) {
	now := time.Date(2025, 6, 18, 22, 15, 0, 0, time.UTC)
	f, ok := ResolveDateReference("today", now)
	if !ok || f.IsRange || !f.Exact.Equal(date(2025, 6, 18)) {
		t.Errorf("today: got ok=%v filter=%+v", ok, f)
	}
}

func TestResolveDateReference_ExactAndPartialDates(t *testing.T) {
	now := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)

	f, ok := ResolveDateReference("2025-07-04", now)
	if !ok || !f.Exact.Equal(date(2025, 7, 4)) {
		t.Errorf("full date: got ok=%v filter=%+v", ok, f)
	}

	// MM-DD assumes the current year.
	f, ok = ResolveDateReference("07-04", now)
	if !ok || !f.Exact.Equal(date(2025, 7, 4)) {
		t.Errorf("partial date: got ok=%v filter=%+v", ok, f)
	}
}

func TestResolveDateReference_Unparsable(t *testing.T) {
	now := time.Now()
	for _, ref := range []string{"", "someday", "the 5th of whenever", "13-45-99"} {
		if _, ok := ResolveDateReference(ref, now); ok {
			t.Errorf("expected %q to be ignored", ref)
		}
	}
}

func TestResolveTimeReference_NamedBuckets(t *testing.T) {
	cases := []struct {
		ref      string
		min, max int
	}{
		{"morning", 5, 11},
		{"in the morning", 5, 11},
		{"afternoon", 12, 17},
		{"evening", 18, 23},
		{"night", 18, 23},
		{"late at night", 18, 23},
	}
	for _, tc := range cases {
		f, ok := ResolveTimeReference(tc.ref)
		if !ok {
			t.Errorf("%q failed to resolve", tc.ref)
			continue
		}
		if f.Min != tc.min || f.Max != tc.max {
			t.Errorf("%q: expected [%d,%d], got [%d,%d]", tc.ref, tc.min, tc.max, f.Min, f.Max)
		}
	}
}

func TestResolveTimeReference_ClockTimes(t *testing.T) {
	cases := []struct {
		ref  string
		hour int
	}{
		{"3pm", 15},
		{"3 PM", 15},
		{"15:00", 15},
		{"12am", 0},
		{"12pm", 12},
		{"9:30am", 9},
		{"7", 7},
	}
	for _, tc := range cases {
		f, ok := ResolveTimeReference(tc.ref)
		if !ok {
			t.Errorf("%q failed to resolve", tc.ref)
			continue
		}
		if f.Min != tc.hour-1 || f.Max != tc.hour+1 {
			t.Errorf("%q: expected window around %d, got [%d,%d]", tc.ref, tc.hour, f.Min, f.Max)
		}
	}
}

func TestResolveTimeReference_OutOfRangeHourStillFilters(t *testing.T) {
	// An hour past 23 keeps its window so the criterion excludes everything
	// instead of silently matching all tasks.
	f, ok := ResolveTimeReference("99:00")
	if !ok {
		t.Fatal("out-of-range hour must still resolve")
	}
	if f.Min != 98 || f.Max != 100 {
		t.Errorf("expected [98,100], got [%d,%d]", f.Min, f.Max)
	}
}

func TestResolveTimeReference_Unparsable(t *testing.T) {
	for _, ref := range []string{"", "whenever", "soonish"} {
		if _, ok := ResolveTimeReference(ref); ok {
			t.Errorf("expected %q to be ignored", ref)
		}
	}
}
