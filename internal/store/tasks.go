package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taskmind/internal/temporal"
	"taskmind/internal/types"
)

const deadlineLayout = "2006-01-02 15:04:05"

// CreateTask persists a new task and returns it with its assigned id.
func (s *Store) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createTask(ctx, s.db, task)
}

// CreateTask persists a new task within the transaction.
func (t *Tx) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	return createTask(ctx, t.tx, task)
}

// GetTask returns the task with the given id, or ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id int64) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getTask(ctx, s.db, id)
}

// GetTask returns the task with the given id within the transaction.
func (t *Tx) GetTask(ctx context.Context, id int64) (types.Task, error) {
	return getTask(ctx, t.tx, id)
}

// SaveTask writes every mutable field of an existing task back to the store.
func (s *Store) SaveTask(ctx context.Context, task types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTask(ctx, s.db, task)
}

// SaveTask writes an existing task within the transaction.
func (t *Tx) SaveTask(ctx context.Context, task types.Task) error {
	return saveTask(ctx, t.tx, task)
}

// DeleteTask removes the task with the given id and returns its final
// snapshot, or ErrNotFound.
func (s *Store) DeleteTask(ctx context.Context, id int64) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteTask(ctx, s.db, id)
}

// DeleteTask removes a task within the transaction.
func (t *Tx) DeleteTask(ctx context.Context, id int64) (types.Task, error) {
	return deleteTask(ctx, t.tx, id)
}

// ListTasks returns the owner-scoped task list ordered by deadline.
// A nil ownerID lists every task.
func (s *Store) ListTasks(ctx context.Context, ownerID *int64) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listTasks(ctx, s.db, ownerID)
}

// ListTasks returns the owner-scoped task list within the transaction.
func (t *Tx) ListTasks(ctx context.Context, ownerID *int64) ([]types.Task, error) {
	return listTasks(ctx, t.tx, ownerID)
}

// SearchTasks returns the candidate tasks matching the given identifiers in
// the store's natural (insertion) order. Criteria are conjunctive across
// categories and disjunctive within title keywords; date and time references
// that cannot be resolved are ignored. OtherDescriptors is accepted but never
// filtered on. now anchors relative date resolution.
func (s *Store) SearchTasks(ctx context.Context, ids types.TaskIdentifiers, ownerID *int64, now time.Time) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return searchTasks(ctx, s.db, ids, ownerID, now)
}

// SearchTasks runs the criteria search within the transaction.
func (t *Tx) SearchTasks(ctx context.Context, ids types.TaskIdentifiers, ownerID *int64, now time.Time) ([]types.Task, error) {
	return searchTasks(ctx, t.tx, ids, ownerID, now)
}

func createTask(ctx context.Context, e execer, task types.Task) (types.Task, error) {
	if task.Priority == "" {
		task.Priority = types.PriorityNormal
	}
	if task.Duration <= 0 {
		task.Duration = 60
	}

	res, err := e.ExecContext(ctx,
		`INSERT INTO tasks (title, description, priority, deadline, duration, is_due_date, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, task.Priority,
		task.Deadline.Format(deadlineLayout), task.Duration,
		boolToInt(task.IsDueDate), task.OwnerID)
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to read task id: %w", err)
	}
	task.ID = id
	return task, nil
}

func getTask(ctx context.Context, e execer, id int64) (types.Task, error) {
	row := e.QueryRowContext(ctx, taskColumns+` WHERE id = ?`, id)
	return scanTask(row)
}

func saveTask(ctx context.Context, e execer, task types.Task) error {
	res, err := e.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, priority = ?, deadline = ?,
		 duration = ?, is_due_date = ?, user_id = ? WHERE id = ?`,
		task.Title, task.Description, task.Priority,
		task.Deadline.Format(deadlineLayout), task.Duration,
		boolToInt(task.IsDueDate), task.OwnerID, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteTask(ctx context.Context, e execer, id int64) (types.Task, error) {
	task, err := getTask(ctx, e, id)
	if err != nil {
		return types.Task{}, err
	}
	if _, err := e.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return types.Task{}, fmt.Errorf("failed to delete task: %w", err)
	}
	return task, nil
}

func listTasks(ctx context.Context, e execer, ownerID *int64) ([]types.Task, error) {
	query := taskColumns
	var args []any
	if ownerID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY deadline`

	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func searchTasks(ctx context.Context, e execer, ids types.TaskIdentifiers, ownerID *int64, now time.Time) ([]types.Task, error) {
	var conds []string
	var args []any

	if ownerID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *ownerID)
	}

	var kwConds []string
	for _, kw := range ids.TitleKeywords {
		if kw == "" {
			continue
		}
		kwConds = append(kwConds, "lower(title) LIKE '%' || lower(?) || '%'")
		args = append(args, kw)
	}
	if len(kwConds) > 0 {
		conds = append(conds, "("+strings.Join(kwConds, " OR ")+")")
	}

	if f, ok := temporal.ResolveDateReference(ids.DateReference, now); ok {
		if f.IsRange {
			conds = append(conds, "date(deadline) >= ? AND date(deadline) <= ?")
			args = append(args, f.RangeStart.Format("2006-01-02"), f.RangeEnd.Format("2006-01-02"))
		} else {
			conds = append(conds, "date(deadline) = ?")
			args = append(args, f.Exact.Format("2006-01-02"))
		}
	}

	if f, ok := temporal.ResolveTimeReference(ids.TimeReference); ok {
		conds = append(conds, "CAST(strftime('%H', deadline) AS INTEGER) >= ? AND CAST(strftime('%H', deadline) AS INTEGER) <= ?")
		args = append(args, f.Min, f.Max)
	}

	query := taskColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

const taskColumns = `SELECT id, title, description, priority, deadline, duration, is_due_date, user_id FROM tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskFrom(sc rowScanner) (types.Task, error) {
	var (
		task      types.Task
		desc      sql.NullString
		deadline  string
		isDueDate int
		ownerID   sql.NullInt64
	)
	if err := sc.Scan(&task.ID, &task.Title, &desc, &task.Priority, &deadline, &task.Duration, &isDueDate, &ownerID); err != nil {
		return types.Task{}, err
	}

	task.Description = desc.String
	task.IsDueDate = isDueDate != 0
	if ownerID.Valid {
		id := ownerID.Int64
		task.OwnerID = &id
	}

	t, err := time.ParseInLocation(deadlineLayout, deadline, time.Local)
	if err != nil {
		return types.Task{}, fmt.Errorf("corrupt deadline %q: %w", deadline, err)
	}
	task.Deadline = t
	return task, nil
}

func scanTask(row *sql.Row) (types.Task, error) {
	task, err := scanTaskFrom(row)
	if err == sql.ErrNoRows {
		return types.Task{}, ErrNotFound
	}
	if err != nil {
		return types.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]types.Task, error) {
	var tasks []types.Task
	for rows.Next() {
		task, err := scanTaskFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task rows: %w", err)
	}
	return tasks, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
