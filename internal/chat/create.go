package chat

import (
	"strings"
	"time"

	"taskmind/internal/types"
)

// buildTask normalizes an extraction result into a persistable task, marking
// every defaulted field in the returned uncertain set. now anchors date
// defaults so the derivation is reproducible.
func buildTask(data types.ExtractionResult, ownerID *int64, now time.Time) (types.Task, *types.UncertainFields) {
	uncertain := types.NewUncertainFields(data.UncertainFields)

	dateStr := data.Date
	if dateStr == "" {
		dateStr = now.Format("2006-01-02")
		uncertain.Add("date")
	}
	dateStr = ensureFullYear(dateStr, now)

	deadline, startUncertain := deriveDeadline(dateStr, data.StartTime, now)
	if startUncertain {
		uncertain.Add("start_time")
	}

	duration := deriveDuration(data.StartTime, data.EndTime, uncertain)

	priority := data.Priority
	if priority == "" {
		priority = types.PriorityNormal
	}
	if !types.ValidPriority(priority) {
		priority = types.PriorityNormal
		uncertain.Add("priority")
	}

	title := data.Title
	if title == "" {
		title = "New Task"
	}

	return types.Task{
		Title:       title,
		Description: data.Description,
		Priority:    priority,
		Deadline:    deadline,
		Duration:    duration,
		IsDueDate:   data.IsDueDate,
		OwnerID:     ownerID,
	}, uncertain
}

// ensureFullYear rewrites a YYYY-MM-DD date whose year segment is not four
// digits to use the current year.
func ensureFullYear(dateStr string, now time.Time) string {
	parts := strings.Split(dateStr, "-")
	if len(parts) == 3 && len(parts[0]) != 4 {
		return now.Format("2006") + "-" + parts[1] + "-" + parts[2]
	}
	return dateStr
}

// deriveDeadline combines the date with the start time, trying 24-hour then
// 12-hour clock formats. Noon is the fallback when no start time was given or
// neither format parses; the second return reports that fallback.
func deriveDeadline(dateStr, startTime string, now time.Time) (time.Time, bool) {
	if startTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+startTime, now.Location()); err == nil {
			return t, false
		}
		if t, err := time.ParseInLocation("2006-01-02 3:04 PM", dateStr+" "+strings.ToUpper(startTime), now.Location()); err == nil {
			return t, false
		}
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" 12:00", now.Location())
	if err != nil {
		// Date itself is unusable; fall back to noon today.
		t = time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	}
	return t, true
}

// deriveDuration computes the task duration in minutes from the start and end
// times, marking "duration" uncertain when it had to guess.
func deriveDuration(startTime, endTime string, uncertain *types.UncertainFields) int {
	if startTime == "" || endTime == "" {
		// No end time: duration is a guess unless the extractor already
		// flagged it (or the end time) as uncertain.
		if !uncertain.Contains("duration") && !uncertain.Contains("end_time") {
			uncertain.Add("duration")
		}
		return 60
	}

	start, end, ok := parseTimePair(startTime, endTime)
	if !ok {
		uncertain.Add("duration")
		return 60
	}

	minutes := int(end.Sub(start).Minutes())
	if minutes <= 0 {
		// End before start, e.g. a slot crossing midnight.
		uncertain.Add("duration")
		return 60
	}
	return minutes
}

// parseTimePair parses both times in a consistent format: 24-hour first,
// then 12-hour with AM/PM.
func parseTimePair(startTime, endTime string) (time.Time, time.Time, bool) {
	start, err1 := time.Parse("15:04", startTime)
	end, err2 := time.Parse("15:04", endTime)
	if err1 == nil && err2 == nil {
		return start, end, true
	}

	start, err1 = time.Parse("3:04 PM", strings.ToUpper(startTime))
	end, err2 = time.Parse("3:04 PM", strings.ToUpper(endTime))
	if err1 == nil && err2 == nil {
		return start, end, true
	}
	return time.Time{}, time.Time{}, false
}
