// Package chat implements the conversational task pipeline: intent
// extraction in fixed priority order (delete > edit > create > none), at most
// one mutation per turn, and a deterministic confirmation block prepended to
// the generated reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskmind/internal/config"
	"taskmind/internal/extraction"
	"taskmind/internal/llm"
	"taskmind/internal/store"
	"taskmind/internal/types"
)

// Composer orchestrates one chat turn. Each turn is processed independently;
// task context is re-derived from the store on every call.
type Composer struct {
	store     *store.Store
	client    llm.Client
	extractor *extraction.Extractor
	cfg       config.ChatConfig
	logger    *zap.Logger

	// now is injectable so temporal resolution is reproducible in tests.
	now func() time.Time
}

// New creates a Composer.
func New(st *store.Store, client llm.Client, cfg config.ChatConfig, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		store:     st,
		client:    client,
		extractor: extraction.New(client),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// Chat processes one user message and returns the reply text. Mutations
// commit before the reply call, so a reply failure never masks a completed
// mutation; it surfaces as the returned error.
func (c *Composer) Chat(ctx context.Context, message string, ownerID *int64) (string, error) {
	now := c.now()

	tasks, err := c.store.ListTasks(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("failed to load tasks: %w", err)
	}
	summary := TaskSummary(tasks)

	// Intent priority: delete > edit > create > none. Extraction failures
	// collapse to the false-flag record and fall through.
	deleteReq, err := c.extractor.ExtractDeleteRequest(ctx, message, summary, now)
	if err != nil {
		c.logger.Warn("delete extraction failed", zap.Error(err))
	}

	var (
		deleteResult *mutationResult
		editResult   *mutationResult
		createResult *creationResult
	)

	switch {
	case deleteReq.IsDeleteRequest:
		res, err := c.handleDeletion(ctx, deleteReq.TaskIdentifiers, ownerID, now)
		if err != nil {
			return "", err
		}
		deleteResult = res

	default:
		editReq, err := c.extractor.ExtractEditRequest(ctx, message, summary, now)
		if err != nil {
			c.logger.Warn("edit extraction failed", zap.Error(err))
		}

		if editReq.IsEditRequest {
			res, err := c.handleEdit(ctx, editReq, ownerID, now)
			if err != nil {
				return "", err
			}
			editResult = res
			break
		}

		taskData, err := c.extractor.ExtractTask(ctx, message, now)
		if err != nil {
			c.logger.Warn("task extraction failed", zap.Error(err))
		}
		if taskData.IsTask {
			res, err := c.handleCreation(ctx, taskData, ownerID, now)
			if err != nil {
				return "", err
			}
			createResult = res
		}
	}

	systemMessage, userMessage := c.composeMessages(ctx, message, ownerID, now, deleteResult, editResult, createResult)

	reply, err := c.client.CompleteWithSystem(ctx, systemMessage, userMessage)
	if err != nil {
		// The mutation, if any, already committed; only the reply is lost.
		return "", fmt.Errorf("reply generation failed: %w", err)
	}

	switch {
	case deleteResult != nil && deleteResult.Success:
		return c.confirmationBlock("deleted", deleteResult.Task, "", deleteResult.UpdatedList) + "\n\n" + reply, nil
	case editResult != nil && editResult.Success:
		changed := fmt.Sprintf("Changed properties: %s\n\n", strings.Join(editResult.ChangedProps, ", "))
		return c.confirmationBlock("updated", editResult.Task, changed, editResult.UpdatedList) + "\n\n" + reply, nil
	case createResult != nil && createResult.Created:
		return c.confirmationBlock("created", createResult.Task, "", createResult.UpdatedList) + "\n\n" + reply, nil
	}
	return reply, nil
}

// handleDeletion runs the matcher and, on an unambiguous match, the delete —
// all inside one transaction so the match cannot race a concurrent mutation.
func (c *Composer) handleDeletion(ctx context.Context, ids types.TaskIdentifiers, ownerID *int64, now time.Time) (*mutationResult, error) {
	var result mutationResult
	err := c.store.Tx(ctx, func(tx *store.Tx) error {
		matches, err := tx.SearchTasks(ctx, ids, ownerID, now)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			result = mutationResult{Message: "No matching tasks found"}
			return nil
		}
		if len(matches) > 1 {
			result = mutationResult{
				Message:    "Multiple matching tasks found. Please be more specific.",
				Candidates: matches,
			}
			return nil
		}

		snapshot, err := tx.DeleteTask(ctx, matches[0].ID)
		if errors.Is(err, store.ErrNotFound) {
			result = mutationResult{Message: "Failed to delete task", MatchedTitles: matchedTitles(matches)}
			return nil
		}
		if err != nil {
			return err
		}

		remaining, err := tx.ListTasks(ctx, ownerID)
		if err != nil {
			return err
		}
		result = mutationResult{
			Success:     true,
			Message:     "Task deleted successfully",
			Task:        snapshot,
			UpdatedList: FormatTaskList(remaining, now),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deletion failed: %w", err)
	}
	return &result, nil
}

// handleEdit runs the matcher and applies the requested changes to the first
// candidate. Under strict_edit_match, multiple candidates are surfaced as an
// ambiguity list instead, mirroring the delete path.
func (c *Composer) handleEdit(ctx context.Context, req types.EditRequest, ownerID *int64, now time.Time) (*mutationResult, error) {
	var result mutationResult
	err := c.store.Tx(ctx, func(tx *store.Tx) error {
		matches, err := tx.SearchTasks(ctx, req.TaskIdentifiers, ownerID, now)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			result = mutationResult{Message: "No matching tasks found"}
			return nil
		}
		if c.cfg.StrictEditMatch && len(matches) > 1 {
			result = mutationResult{
				Message:    "Multiple matching tasks found. Please be more specific.",
				Candidates: matches,
			}
			return nil
		}

		task := matches[0]
		changed := applyChanges(&task, req.Changes)
		if err := tx.SaveTask(ctx, task); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				result = mutationResult{Message: "Failed to update task", MatchedTitles: matchedTitles(matches)}
				return nil
			}
			return err
		}

		all, err := tx.ListTasks(ctx, ownerID)
		if err != nil {
			return err
		}
		result = mutationResult{
			Success:       true,
			Message:       "Task updated successfully",
			Task:          task,
			MatchedTitles: matchedTitles(matches),
			ChangedProps:  changed,
			UpdatedList:   FormatTaskList(all, now),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit failed: %w", err)
	}
	return &result, nil
}

// creationResult carries the create branch outcome into response composition.
type creationResult struct {
	Created           bool
	Task              types.Task
	Uncertain         *types.UncertainFields
	NeedsConfirmation bool
	UpdatedList       string
}

func (c *Composer) handleCreation(ctx context.Context, data types.ExtractionResult, ownerID *int64, now time.Time) (*creationResult, error) {
	task, uncertain := buildTask(data, ownerID, now)

	created, err := c.store.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("creation failed: %w", err)
	}

	all, err := c.store.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &creationResult{
		Created:           true,
		Task:              created,
		Uncertain:         uncertain,
		NeedsConfirmation: uncertain.NeedsConfirmation(),
		UpdatedList:       FormatTaskList(all, now),
	}, nil
}

// composeMessages builds the system-context message and the augmented user
// message for the final reply call.
func (c *Composer) composeMessages(ctx context.Context, message string, ownerID *int64, now time.Time,
	deleteResult, editResult *mutationResult, createResult *creationResult) (string, string) {

	tasks, err := c.store.ListTasks(ctx, ownerID)
	if err != nil {
		c.logger.Warn("failed to refresh task summary", zap.Error(err))
	}

	systemMessage := "You are an AI scheduling assistant that helps users manage their tasks and time effectively. " +
		"You can suggest how to organize tasks, prioritize work, and find time for important activities." +
		fmt.Sprintf("\n\nToday is %s.", now.Format("Monday, January 02, 2006")) +
		fmt.Sprintf("\n\nCurrent schedule context: %s", TaskSummary(tasks))

	userMessage := message

	switch {
	case deleteResult != nil:
		if deleteResult.Success {
			systemMessage += "\n\nA task was just deleted successfully:"
			systemMessage += fmt.Sprintf("\nTask: %s", deleteResult.Task.Title)
			systemMessage += fmt.Sprintf("\nTask details: Priority: %s, Deadline: %s, Duration: %d minutes",
				deleteResult.Task.Priority, deleteResult.Task.DeadlineString(), deleteResult.Task.Duration)
			userMessage += "\n\n[SYSTEM: I've deleted this task for you as requested.]"
		} else {
			systemMessage += fmt.Sprintf("\n\nTask deletion attempt failed: %s", deleteResult.Message)
			if len(deleteResult.Candidates) > 1 {
				systemMessage += "\nMultiple tasks matched your description. Please be more specific about which one to delete."
				systemMessage += fmt.Sprintf("\nMatched tasks:\n%s", candidateLines(deleteResult.Candidates))
				userMessage += "\n\n[SYSTEM: I found multiple tasks that match your description. Please specify which one you want to delete.]"
			} else {
				userMessage += "\n\n[SYSTEM: I couldn't find a task matching your description. Please try again with more details about which task you want to delete.]"
			}
		}

	case editResult != nil:
		if editResult.Success {
			systemMessage += "\n\nA task was just edited successfully:"
			systemMessage += fmt.Sprintf("\nTask: %s", editResult.Task.Title)
			systemMessage += fmt.Sprintf("\nChanged properties: %s", strings.Join(editResult.ChangedProps, ", "))
			systemMessage += fmt.Sprintf("\nTask details: Priority: %s, Deadline: %s, Duration: %d minutes",
				editResult.Task.Priority, editResult.Task.DeadlineString(), editResult.Task.Duration)
			userMessage += "\n\n[SYSTEM: I've updated this task for you. Please confirm if the changes are correct.]"
		} else {
			systemMessage += fmt.Sprintf("\n\nTask edit attempt failed: %s", editResult.Message)
			switch {
			case len(editResult.Candidates) > 1:
				systemMessage += fmt.Sprintf("\nMatched tasks:\n%s", candidateLines(editResult.Candidates))
				userMessage += "\n\n[SYSTEM: I found multiple tasks that match your description. Please specify which one you want to edit.]"
			case len(editResult.MatchedTitles) == 0:
				userMessage += "\n\n[SYSTEM: I couldn't find a task matching your description. Please try again with more details about which task you want to edit.]"
			default:
				systemMessage += fmt.Sprintf("\nMatched tasks: %s", strings.Join(editResult.MatchedTitles, ", "))
				userMessage += "\n\n[SYSTEM: I found the task but couldn't update it. Please try again with clearer instructions for what you want to change.]"
			}
		}

	case createResult != nil:
		systemMessage += fmt.Sprintf("\n\nA task was just created with these details:\nTitle: %s\nDescription: %s\nPriority: %s\nDeadline: %s\nDuration: %d minutes\nIs due date: %t",
			createResult.Task.Title, createResult.Task.Description, createResult.Task.Priority,
			createResult.Task.DeadlineString(), createResult.Task.Duration, createResult.Task.IsDueDate)

		if createResult.NeedsConfirmation {
			userMessage += "\n\n[SYSTEM: I've created this task for you, but I need to confirm some details.]"
			systemMessage += "\n\nThe following fields were uncertain and need confirmation:"
			for _, field := range createResult.Uncertain.Fields() {
				switch field {
				case "duration", "end_time":
					systemMessage += "\n- Ask how long the task will take or when it ends"
				case "priority":
					systemMessage += "\n- Ask if they want to set a specific priority (Low, Normal, High)"
				case "description":
					systemMessage += "\n- Ask if they want to add more details to the description"
				case "date":
					systemMessage += "\n- Confirm if the date is correct"
				case "start_time":
					systemMessage += "\n- Confirm if the start time is correct"
				}
			}
			systemMessage += "\n\nAsk about these uncertain fields in a conversational way. Don't list them all at once - focus on 1-2 most important ones (duration and priority first)."
		} else {
			userMessage += "\n\n[SYSTEM: I've created this task for you. Please confirm if the details are correct.]"
		}
	}

	return systemMessage, userMessage
}

// confirmationBlock renders the deterministic glyph block prepended to the
// reply after a successful mutation.
func (c *Composer) confirmationBlock(verb string, task types.Task, extra, updatedList string) string {
	return fmt.Sprintf(`
✅ Task %s successfully:
📌 Title: %s
📝 Description: %s
🔥 Priority: %s
🕒 Time: %s
⏱️ Duration: %d minutes

%s%s`, verb, task.Title, task.Description, task.Priority, task.DeadlineString(), task.Duration, extra, updatedList)
}

