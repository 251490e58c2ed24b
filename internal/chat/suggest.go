package chat

import (
	"context"
	"fmt"
	"time"

	"taskmind/internal/types"
)

// ScheduleGap is a free slot between scheduled tasks.
type ScheduleGap struct {
	Start time.Time
	End   time.Time
}

// Each task is assumed to occupy the two hours before its deadline when
// looking for free slots.
const taskLeadTime = 2 * time.Hour

// scheduleGaps walks the deadline-ordered task list and collects the free
// slots between now and each task's assumed start.
func scheduleGaps(tasks []types.Task, now time.Time) []ScheduleGap {
	var gaps []ScheduleGap
	lastEnd := now
	for _, task := range tasks {
		start := task.Deadline.Add(-taskLeadTime)
		if start.After(lastEnd) {
			gaps = append(gaps, ScheduleGap{Start: lastEnd, End: start})
		}
		lastEnd = task.Deadline
	}
	return gaps
}

// SuggestTask proposes a productive use of the first free slot in the owner's
// schedule. When the schedule has no free slot the fixed answer is returned
// without an inference call.
func (c *Composer) SuggestTask(ctx context.Context, ownerID *int64) (string, error) {
	tasks, err := c.store.ListTasks(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("failed to load tasks: %w", err)
	}

	gaps := scheduleGaps(tasks, c.now())
	if len(gaps) == 0 {
		return "No free slots available.", nil
	}

	gap := gaps[0]
	prompt := fmt.Sprintf("You have free time from %s to %s. Suggest a productive task based on deadlines and priorities.",
		gap.Start.Format("15:04"), gap.End.Format("15:04"))

	reply, err := c.client.CompleteWithSystem(ctx,
		"You are a helpful assistant that suggests tasks based on deadlines and priorities.", prompt)
	if err != nil {
		return "", fmt.Errorf("suggestion generation failed: %w", err)
	}
	return reply, nil
}
