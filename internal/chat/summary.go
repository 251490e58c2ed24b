package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"taskmind/internal/types"
)

// TaskSummary renders the task list as plain grounding context for the
// extraction and reply prompts.
func TaskSummary(tasks []types.Task) string {
	if len(tasks) == 0 {
		return "You currently have no tasks scheduled."
	}

	var b strings.Builder
	b.WriteString("Here are your current tasks:\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "- %s (Priority: %s, Deadline: %s)\n", task.Title, task.Priority, task.DeadlineString())
	}
	return b.String()
}

// FormatTaskList renders the user-visible task list: sorted by deadline,
// grouped by calendar date with Today/Tomorrow/weekday headers and a priority
// glyph per task.
func FormatTaskList(tasks []types.Task, now time.Time) string {
	if len(tasks) == 0 {
		return "You currently have no tasks scheduled."
	}

	byDate := make(map[string][]types.Task)
	for _, task := range tasks {
		key := task.Deadline.Format("2006-01-02")
		byDate[key] = append(byDate[key], task)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	var b strings.Builder
	b.WriteString("📋 **Your Updated Task List**\n\n")

	for _, dateStr := range dates {
		var header string
		switch dateStr {
		case today:
			header = "Today"
		case tomorrow:
			header = "Tomorrow"
		default:
			d, _ := time.Parse("2006-01-02", dateStr)
			header = d.Format("Monday, January 02")
		}
		fmt.Fprintf(&b, "**%s** (%s):\n", header, dateStr)

		group := byDate[dateStr]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Deadline.Before(group[j].Deadline)
		})
		for _, task := range group {
			fmt.Fprintf(&b, "- %s %s | %s (%dmin)\n",
				priorityGlyph(task.Priority), task.Deadline.Format("15:04"), task.Title, task.Duration)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func priorityGlyph(priority string) string {
	switch priority {
	case types.PriorityHigh:
		return "🔴"
	case types.PriorityNormal:
		return "🟡"
	default:
		return "🟢"
	}
}
