package extraction

import (
	"context"
	"fmt"
	"time"

	"taskmind/internal/llm"
	"taskmind/internal/types"
)

// Extractor issues the three intent-extraction calls to the inference
// service. Each call has its own prompt contract; all three share
// DecodeContract for output recovery.
type Extractor struct {
	client llm.Client
}

// New creates an Extractor backed by the given inference client.
func New(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// dateAnchors renders the literal date context embedded in every system
// prompt, so the service never has to compute relative dates itself.
func dateAnchors(now time.Time) string {
	tomorrow := now.AddDate(0, 0, 1)
	nextWeek := now.AddDate(0, 0, 7)
	return fmt.Sprintf(`CURRENT DATE INFORMATION:
TODAY'S DATE: %s (%s)
TOMORROW'S DATE: %s (%s)
NEXT WEEK STARTS: %s (%s)
CURRENT TIME: %s`,
		now.Format("2006-01-02"), now.Format("Monday, January 02, 2006"),
		tomorrow.Format("2006-01-02"), tomorrow.Format("Monday, January 02, 2006"),
		nextWeek.Format("2006-01-02"), nextWeek.Format("Monday, January 02, 2006"),
		now.Format("15:04"))
}

// ExtractTask asks the service whether the message describes a new task and,
// if so, for its structured fields. A parse failure returns the zero record
// (IsTask=false) alongside the error.
func (e *Extractor) ExtractTask(ctx context.Context, message string, now time.Time) (types.ExtractionResult, error) {
	systemPrompt := fmt.Sprintf(`You are an AI assistant that extracts task information from user messages.

%s

Extract the following details if present:
1. Title - A concise name for the task
2. Description - A brief description of what the task involves
3. Priority - Low, Normal, or High (default to Normal if not specified)
4. Date - The date for the task (use TODAY'S DATE if only time is mentioned)
5. Start time - When the task starts
6. End time - When the task ends
7. Is due date - True if this is just a deadline, False if it's a scheduled time slot

When interpreting dates:
- "Today" means %s
- "Tomorrow" means %s
- "Next week" means starting %s
- Always use the full year %d in dates

Format your response as a valid JSON object with these fields:
{
    "is_task": true/false,
    "title": "string",
    "description": "string",
    "priority": "string",
    "date": "YYYY-MM-DD",
    "start_time": "HH:MM",
    "end_time": "HH:MM",
    "is_due_date": true/false,
    "uncertain_fields": ["field1", "field2", ...]
}

For the "uncertain_fields" array, include any of these fields that weren't explicitly mentioned and required guessing:
- "priority" (if priority wasn't specified)
- "end_time" (if only start time was given)
- "duration" (if duration wasn't specified)
- "description" (if only a basic title was given)
- "date" (if date was ambiguous)

If the message doesn't contain a task, return {"is_task": false}.
If any field is missing, make a reasonable assumption or omit it from the JSON.`,
		dateAnchors(now),
		now.Format("2006-01-02"),
		now.AddDate(0, 0, 1).Format("2006-01-02"),
		now.AddDate(0, 0, 7).Format("2006-01-02"),
		now.Year())

	raw, err := e.client.CompleteWithSystem(ctx, systemPrompt, message)
	if err != nil {
		return types.ExtractionResult{}, fmt.Errorf("task extraction call failed: %w", err)
	}

	var result types.ExtractionResult
	if err := DecodeContract(raw, &result); err != nil {
		return types.ExtractionResult{}, err
	}
	return result, nil
}

// ExtractEditRequest asks the service whether the message requests an edit of
// an existing task. taskSummary grounds the prompt in the user's current task
// list so identifying keywords come out plausible.
func (e *Extractor) ExtractEditRequest(ctx context.Context, message, taskSummary string, now time.Time) (types.EditRequest, error) {
	systemPrompt := fmt.Sprintf(`You are an AI assistant that extracts task editing information from user messages.

%s

CURRENT TASKS:
%s

Extract the following details if present:
1. Task Identifiers - Words/phrases that help identify which task the user wants to edit (title keywords, date references, etc.)
2. Changes - What properties the user wants to change and their new values

Editable task properties:
- title: The name of the task
- description: Details about the task
- priority: "Low", "Normal", or "High"
- deadline: Date and time for the task
- duration: Duration in minutes
- is_due_date: Whether this is just a deadline (true) or scheduled time slot (false)

Format your response as a valid JSON object with these fields:
{
    "is_edit_request": true/false,
    "task_identifiers": {
        "title_keywords": ["keyword1", "keyword2"],
        "date_reference": "YYYY-MM-DD or relative date description",
        "time_reference": "HH:MM or description",
        "other_descriptors": ["any other identifying information"]
    },
    "changes": {
        "property_name": "new_value"
    }
}

If the message isn't asking to edit a task, return {"is_edit_request": false}.`,
		dateAnchors(now), taskSummary)

	raw, err := e.client.CompleteWithSystem(ctx, systemPrompt, message)
	if err != nil {
		return types.EditRequest{}, fmt.Errorf("edit extraction call failed: %w", err)
	}

	var result types.EditRequest
	if err := DecodeContract(raw, &result); err != nil {
		return types.EditRequest{}, err
	}
	return result, nil
}

// ExtractDeleteRequest asks the service whether the message requests deleting
// an existing task.
func (e *Extractor) ExtractDeleteRequest(ctx context.Context, message, taskSummary string, now time.Time) (types.DeleteRequest, error) {
	systemPrompt := fmt.Sprintf(`You are an AI assistant that extracts task deletion information from user messages.

%s

CURRENT TASKS:
%s

Extract the following details if present:
- Task Identifiers - Words/phrases that help identify which task the user wants to delete (title keywords, date references, etc.)

The user may use phrases like "remove", "delete", "cancel", "get rid of", or similar to indicate they want to delete a task.

Format your response as a valid JSON object with these fields:
{
    "is_delete_request": true/false,
    "task_identifiers": {
        "title_keywords": ["keyword1", "keyword2"],
        "date_reference": "YYYY-MM-DD or relative date description",
        "time_reference": "HH:MM or description",
        "other_descriptors": ["any other identifying information"]
    }
}

If the message isn't asking to delete a task, return {"is_delete_request": false}.`,
		dateAnchors(now), taskSummary)

	raw, err := e.client.CompleteWithSystem(ctx, systemPrompt, message)
	if err != nil {
		return types.DeleteRequest{}, fmt.Errorf("delete extraction call failed: %w", err)
	}

	var result types.DeleteRequest
	if err := DecodeContract(raw, &result); err != nil {
		return types.DeleteRequest{}, err
	}
	return result, nil
}
