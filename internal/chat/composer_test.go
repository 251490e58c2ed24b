package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"taskmind/internal/config"
	"taskmind/internal/store"
	"taskmind/internal/types"
)

// fakeClient plays back scripted completions in call order and records every
// prompt pair it saw.
type fakeClient struct {
	responses []string
	errs      []error
	calls     []promptPair
}

type promptPair struct {
	system string
	user   string
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, promptPair{system: systemPrompt, user: userPrompt})
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i >= len(f.responses) {
		return "", fmt.Errorf("unscripted call %d", i)
	}
	return f.responses[i], nil
}

var chatNow = time.Date(2025, 6, 18, 10, 0, 0, 0, time.Local)

const (
	notDelete = `{"is_delete_request": false}`
	notEdit   = `{"is_edit_request": false}`
	notTask   = `{"is_task": false}`
)

func newComposer(t *testing.T, client *fakeClient, cfg config.ChatConfig) (*Composer, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	c := New(st, client, cfg, nil).WithClock(func() time.Time { return chatNow })
	return c, st
}

func seedTask(t *testing.T, st *store.Store, title string, deadline time.Time) types.Task {
	t.Helper()
	task, err := st.CreateTask(context.Background(), types.Task{
		Title:    title,
		Priority: types.PriorityNormal,
		Deadline: deadline,
		Duration: 60,
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return task
}

func TestChat_DeleteScenario(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"is_delete_request": true, "task_identifiers": {"title_keywords": ["dentist"], "date_reference": "tomorrow"}}`,
		"Consider it gone!",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})

	seedTask(t, st, "Dentist appointment", time.Date(2025, 6, 19, 14, 0, 0, 0, time.Local))

	reply, err := c.Chat(context.Background(), "delete my dentist appointment tomorrow", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if !strings.Contains(reply, "✅ Task deleted successfully:") {
		t.Errorf("missing confirmation block:\n%s", reply)
	}
	if !strings.Contains(reply, "📌 Title: Dentist appointment") {
		t.Errorf("missing snapshot title:\n%s", reply)
	}
	if !strings.Contains(reply, "Consider it gone!") {
		t.Errorf("missing generated reply:\n%s", reply)
	}

	tasks, _ := st.ListTasks(context.Background(), nil)
	if len(tasks) != 0 {
		t.Errorf("task should be absent after deletion, got %d", len(tasks))
	}

	// Delete short-circuits: one extraction call plus the reply call.
	if len(client.calls) != 2 {
		t.Errorf("expected 2 inference calls, got %d", len(client.calls))
	}
	if !strings.Contains(client.calls[1].user, "[SYSTEM: I've deleted this task for you as requested.]") {
		t.Errorf("reply call missing steering suffix:\n%s", client.calls[1].user)
	}
}

func TestChat_DeleteAmbiguousLeavesStoreUntouched(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"is_delete_request": true, "task_identifiers": {"title_keywords": ["sync"]}}`,
		"I found more than one — which did you mean?",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})

	seedTask(t, st, "Team sync", time.Date(2025, 6, 19, 10, 0, 0, 0, time.Local))
	seedTask(t, st, "Team sync", time.Date(2025, 6, 19, 16, 0, 0, 0, time.Local))

	reply, err := c.Chat(context.Background(), "cancel the team sync", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if strings.Contains(reply, "✅") {
		t.Errorf("ambiguous delete must not produce a confirmation block:\n%s", reply)
	}

	tasks, _ := st.ListTasks(context.Background(), nil)
	if len(tasks) != 2 {
		t.Errorf("no deletion may occur on ambiguity, got %d tasks", len(tasks))
	}

	sys := client.calls[1].system
	if !strings.Contains(sys, "Multiple tasks matched your description") {
		t.Errorf("candidate list missing from system context:\n%s", sys)
	}
	if !strings.Contains(client.calls[1].user, "Please specify which one you want to delete.") {
		t.Errorf("steering suffix missing:\n%s", client.calls[1].user)
	}
}

func TestChat_DeleteNoMatch(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"is_delete_request": true, "task_identifiers": {"title_keywords": ["dentist"]}}`,
		"I couldn't find that one.",
	}}
	c, _ := newComposer(t, client, config.ChatConfig{})

	reply, err := c.Chat(context.Background(), "delete my dentist appointment", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if strings.Contains(reply, "✅") {
		t.Errorf("failed delete must not produce a confirmation block:\n%s", reply)
	}
	if !strings.Contains(client.calls[1].system, "Task deletion attempt failed: No matching tasks found") {
		t.Errorf("failure context missing:\n%s", client.calls[1].system)
	}
}

func TestChat_EditAppliesToFirstMatchOnly(t *testing.T) {
	client := &fakeClient{responses: []string{
		notDelete,
		`{"is_edit_request": true, "task_identifiers": {"title_keywords": ["team sync"]}, "changes": {"deadline": "2025-06-19 15:00"}}`,
		"Moved it to 3pm.",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})

	first := seedTask(t, st, "Team sync", time.Date(2025, 6, 19, 10, 0, 0, 0, time.Local))
	second := seedTask(t, st, "Team sync", time.Date(2025, 6, 19, 16, 0, 0, 0, time.Local))

	reply, err := c.Chat(context.Background(), "move team sync to 3pm", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if !strings.Contains(reply, "✅ Task updated successfully:") {
		t.Errorf("missing confirmation block:\n%s", reply)
	}
	if !strings.Contains(reply, "Changed properties: deadline") {
		t.Errorf("missing changed properties line:\n%s", reply)
	}

	ctx := context.Background()
	got1, _ := st.GetTask(ctx, first.ID)
	got2, _ := st.GetTask(ctx, second.ID)
	if got1.Deadline.Hour() != 15 {
		t.Errorf("first match must be edited, got %v", got1.Deadline)
	}
	if got2.Deadline.Hour() != 16 {
		t.Errorf("second match must be unchanged, got %v", got2.Deadline)
	}
}

func TestChat_StrictEditMatchSurfacesAmbiguity(t *testing.T) {
	client := &fakeClient{responses: []string{
		notDelete,
		`{"is_edit_request": true, "task_identifiers": {"title_keywords": ["team sync"]}, "changes": {"deadline": "2025-06-19 15:00"}}`,
		"Which one did you mean?",
	}}
	c, st := newComposer(t, client, config.ChatConfig{StrictEditMatch: true})

	first := seedTask(t, st, "Team sync", time.Date(2025, 6, 19, 10, 0, 0, 0, time.Local))
	seedTask(t, st, "Team sync", time.Date(2025, 6, 19, 16, 0, 0, 0, time.Local))

	reply, err := c.Chat(context.Background(), "move team sync to 3pm", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if strings.Contains(reply, "✅") {
		t.Errorf("strict mode must not edit on ambiguity:\n%s", reply)
	}

	got, _ := st.GetTask(context.Background(), first.ID)
	if got.Deadline.Hour() != 10 {
		t.Errorf("no task may change in strict mode, got %v", got.Deadline)
	}
	if !strings.Contains(client.calls[2].user, "Please specify which one you want to edit.") {
		t.Errorf("steering suffix missing:\n%s", client.calls[2].user)
	}
}

func TestChat_CreateRoundTripNoConfirmation(t *testing.T) {
	client := &fakeClient{responses: []string{
		notDelete,
		notEdit,
		`{"is_task": true, "title": "Dentist appointment", "description": "Routine checkup", "priority": "High", "date": "2025-06-19", "start_time": "14:00", "end_time": "15:00", "is_due_date": false, "uncertain_fields": []}`,
		"Booked it!",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})
	owner := int64(42)

	reply, err := c.Chat(context.Background(), "dentist tomorrow 2pm to 3pm, high priority, routine checkup", &owner)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if !strings.Contains(reply, "✅ Task created successfully:") {
		t.Errorf("missing confirmation block:\n%s", reply)
	}

	tasks, _ := st.ListTasks(context.Background(), &owner)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Duration != 60 || tasks[0].Priority != types.PriorityHigh {
		t.Errorf("unexpected created task: %+v", tasks[0])
	}
	if tasks[0].OwnerID == nil || *tasks[0].OwnerID != owner {
		t.Errorf("owner must be attached, got %+v", tasks[0].OwnerID)
	}

	// Fully specified: confirm-details suffix, not the uncertainty one.
	final := client.calls[3].user
	if !strings.Contains(final, "[SYSTEM: I've created this task for you. Please confirm if the details are correct.]") {
		t.Errorf("expected plain confirmation suffix:\n%s", final)
	}
	if strings.Contains(final, "need to confirm some details") {
		t.Errorf("no uncertainty suffix expected:\n%s", final)
	}
}

func TestChat_CreateWithGuessedFieldsAsksForConfirmation(t *testing.T) {
	client := &fakeClient{responses: []string{
		notDelete,
		notEdit,
		`{"is_task": true, "title": "Call mom", "date": "2025-06-19", "start_time": "18:00", "uncertain_fields": ["priority"]}`,
		"Done — how long should I block out?",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})

	_, err := c.Chat(context.Background(), "remind me to call mom tomorrow at 6", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	tasks, _ := st.ListTasks(context.Background(), nil)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	final := client.calls[3]
	if !strings.Contains(final.user, "[SYSTEM: I've created this task for you, but I need to confirm some details.]") {
		t.Errorf("expected uncertainty suffix:\n%s", final.user)
	}
	if !strings.Contains(final.system, "The following fields were uncertain and need confirmation:") {
		t.Errorf("expected uncertainty instructions:\n%s", final.system)
	}
	if !strings.Contains(final.system, "Ask if they want to set a specific priority (Low, Normal, High)") {
		t.Errorf("expected priority follow-up hint:\n%s", final.system)
	}
}

func TestChat_MalformedCreateOutputIsNotATask(t *testing.T) {
	client := &fakeClient{responses: []string{
		notDelete,
		notEdit,
		"I'm sorry, I can't produce JSON right now.",
		"Happy to chat about your schedule!",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})

	reply, err := c.Chat(context.Background(), "how does my week look?", nil)
	if err != nil {
		t.Fatalf("malformed extraction must not fail the turn: %v", err)
	}
	if reply != "Happy to chat about your schedule!" {
		t.Errorf("expected the plain reply, got:\n%s", reply)
	}

	tasks, _ := st.ListTasks(context.Background(), nil)
	if len(tasks) != 0 {
		t.Errorf("no task may be created from malformed output, got %d", len(tasks))
	}
}

func TestChat_IntentPriorityDeleteWins(t *testing.T) {
	// The delete extractor answers true; the edit and create extractors are
	// never consulted.
	client := &fakeClient{responses: []string{
		`{"is_delete_request": true, "task_identifiers": {"title_keywords": ["report"]}}`,
		"Removed.",
	}}
	c, st := newComposer(t, client, config.ChatConfig{})
	seedTask(t, st, "Quarterly report", time.Date(2025, 6, 19, 9, 0, 0, 0, time.Local))

	if _, err := c.Chat(context.Background(), "replace the report task", nil); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(client.calls) != 2 {
		t.Fatalf("delete must short-circuit edit and create, got %d calls", len(client.calls))
	}

	// Sanity: the second call is the reply, not another extraction.
	if strings.Contains(client.calls[1].system, "extracts task") {
		t.Error("second call should be reply generation")
	}
}

func TestChat_ReplyFailureDoesNotMaskMutation(t *testing.T) {
	replyErr := errors.New("inference service down")
	client := &fakeClient{
		responses: []string{
			`{"is_delete_request": true, "task_identifiers": {"title_keywords": ["dentist"]}}`,
			"",
		},
		errs: []error{nil, replyErr},
	}
	c, st := newComposer(t, client, config.ChatConfig{})
	task := seedTask(t, st, "Dentist appointment", time.Date(2025, 6, 19, 14, 0, 0, 0, time.Local))

	_, err := c.Chat(context.Background(), "delete the dentist appointment", nil)
	if err == nil {
		t.Fatal("reply failure must propagate")
	}
	if !errors.Is(err, replyErr) {
		t.Errorf("expected the reply error, got %v", err)
	}

	// The deletion committed before the reply call.
	if _, err := st.GetTask(context.Background(), task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("mutation must be durable despite reply failure, got %v", err)
	}
}

func TestChat_NoIntentPlainReply(t *testing.T) {
	client := &fakeClient{responses: []string{
		notDelete,
		notEdit,
		notTask,
		"Your week is wide open.",
	}}
	c, _ := newComposer(t, client, config.ChatConfig{})

	reply, err := c.Chat(context.Background(), "what's coming up?", nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "Your week is wide open." {
		t.Errorf("expected unmodified reply, got:\n%s", reply)
	}

	// The reply prompt carries the date anchor and schedule context.
	sys := client.calls[3].system
	if !strings.Contains(sys, "Today is Wednesday, June 18, 2025.") {
		t.Errorf("missing date line:\n%s", sys)
	}
	if !strings.Contains(sys, "Current schedule context:") {
		t.Errorf("missing schedule context:\n%s", sys)
	}
}
