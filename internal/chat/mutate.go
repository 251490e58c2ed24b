package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskmind/internal/types"
)

// applyChanges applies an edit request's property map to a task with
// per-property coercion. Unparsable values keep the old field value;
// unrecognized properties are silently ignored. The returned list names the
// requested properties (sorted for deterministic output), matching what the
// caller reports back to the user.
func applyChanges(task *types.Task, changes map[string]any) []string {
	props := make([]string, 0, len(changes))
	for prop := range changes {
		props = append(props, prop)
	}
	sort.Strings(props)

	for _, prop := range props {
		value := changes[prop]
		switch prop {
		case "title":
			if s, ok := value.(string); ok {
				task.Title = s
			}
		case "description":
			if s, ok := value.(string); ok {
				task.Description = s
			}
		case "deadline":
			if s, ok := value.(string); ok {
				if t, err := time.ParseInLocation("2006-01-02 15:04", s, task.Deadline.Location()); err == nil {
					task.Deadline = t
				} else if t, err := time.ParseInLocation("2006-01-02", s, task.Deadline.Location()); err == nil {
					task.Deadline = t
				}
			}
		case "duration":
			// Duration stays positive; a zero or negative value keeps the
			// old one.
			switch v := value.(type) {
			case float64: // JSON numbers decode as float64
				if n := int(v); n > 0 {
					task.Duration = n
				}
			case int:
				if v > 0 {
					task.Duration = v
				}
			case string:
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					task.Duration = n
				}
			}
		case "is_due_date":
			switch v := value.(type) {
			case bool:
				task.IsDueDate = v
			case string:
				lower := strings.ToLower(v)
				task.IsDueDate = lower == "true" || lower == "yes" || lower == "1"
			}
		case "priority":
			if s, ok := value.(string); ok && types.ValidPriority(s) {
				task.Priority = s
			}
		}
	}
	return props
}

// mutationResult carries the outcome of the delete or edit branch into
// response composition.
type mutationResult struct {
	Success       bool
	Message       string
	Task          types.Task
	Candidates    []types.Task // populated on ambiguous matches
	MatchedTitles []string
	ChangedProps  []string // edit only
	UpdatedList   string
}

func matchedTitles(tasks []types.Task) []string {
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return titles
}

// candidateLines renders the ambiguity list surfaced when several tasks match
// a delete request.
func candidateLines(tasks []types.Task) string {
	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "- %s (due: %s)\n", t.Title, t.DeadlineString())
	}
	return strings.TrimRight(b.String(), "\n")
}
