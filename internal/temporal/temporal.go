// Package temporal resolves relative date and time phrases ("tomorrow",
// "next week", "morning", "3pm") into concrete calendar filters. Every
// function takes the current instant explicitly so results are reproducible.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFilter restricts tasks to a single calendar date or an inclusive range.
// Exactly one of Exact or (RangeStart, RangeEnd) is meaningful, selected by
// IsRange. All values are truncated to midnight.
type DateFilter struct {
	Exact      time.Time
	RangeStart time.Time
	RangeEnd   time.Time
	IsRange    bool
}

// HourFilter restricts tasks to deadlines whose hour component lies in
// [Min, Max] inclusive.
type HourFilter struct {
	Min int
	Max int
}

var timePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?(?:\s*(am|pm))?`)

// ResolveDateReference turns a free-text date reference into a DateFilter
// anchored at now. The second return is false when the reference cannot be
// resolved; the caller ignores the criterion rather than erroring.
func ResolveDateReference(ref string, now time.Time) (DateFilter, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return DateFilter{}, false
	}

	today := dateOnly(now)
	lower := strings.ToLower(ref)

	switch {
	case strings.Contains(lower, "tomorrow"):
		return DateFilter{Exact: today.AddDate(0, 0, 1)}, true
	case strings.Contains(lower, "next week"):
		start := today.AddDate(0, 0, daysUntilNextWeek(now))
		return DateFilter{RangeStart: start, RangeEnd: start.AddDate(0, 0, 6), IsRange: true}, true
	case strings.Contains(lower, "today"):
		return DateFilter{Exact: today}, true
	}

	if d, err := time.ParseInLocation("2006-01-02", ref, now.Location()); err == nil {
		return DateFilter{Exact: dateOnly(d)}, true
	}

	// MM-DD without a year: assume the current year.
	if len(strings.Split(ref, "-")) == 2 {
		if d, err := time.ParseInLocation("2006-01-02", strconv.Itoa(now.Year())+"-"+ref, now.Location()); err == nil {
			return DateFilter{Exact: dateOnly(d)}, true
		}
	}

	return DateFilter{}, false
}

// ResolveTimeReference turns a free-text time reference into an HourFilter.
// Named parts of the day map to fixed buckets; an explicit clock time maps to
// a ±1 hour window around the parsed hour. An out-of-range hour still yields
// its window, which then matches nothing rather than relaxing the criterion.
func ResolveTimeReference(ref string) (HourFilter, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return HourFilter{}, false
	}

	lower := strings.ToLower(ref)
	switch {
	case strings.Contains(lower, "morning"):
		return HourFilter{Min: 5, Max: 11}, true
	case strings.Contains(lower, "afternoon"):
		return HourFilter{Min: 12, Max: 17}, true
	case strings.Contains(lower, "evening"), strings.Contains(lower, "night"):
		return HourFilter{Min: 18, Max: 23}, true
	}

	m := timePattern.FindStringSubmatch(ref)
	if m == nil {
		return HourFilter{}, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return HourFilter{}, false
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return HourFilter{Min: hour - 1, Max: hour + 1}, true
}

// daysUntilNextWeek returns the day count from now to the start of the next
// week, with weeks starting on Monday.
func daysUntilNextWeek(now time.Time) int {
	// Monday-based weekday: Monday=0 .. Sunday=6.
	wd := (int(now.Weekday()) + 6) % 7
	return 7 - wd
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
