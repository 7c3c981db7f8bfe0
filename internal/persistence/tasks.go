package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SaveTask inserts or updates a task and replaces its dependency list.
// Uses ON CONFLICT to make saves idempotent. A second task with the same
// title in one project fails with ErrConflict.
func (s *SQLiteStore) SaveTask(ctx context.Context, task *Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}

	// Begin transaction with serializable isolation (BEGIN IMMEDIATE)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, task.ProjectID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("project %s: %w", task.ProjectID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check project existence: %w", err)
	}

	var due sql.NullTime
	if task.DueDate != nil {
		due = sql.NullTime{Time: task.DueDate.UTC(), Valid: true}
	}

	// Upsert task (insert or update on conflict); project and creation time never change
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, due_date, estimated_hours, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			due_date = excluded.due_date,
			estimated_hours = excluded.estimated_hours,
			is_completed = excluded.is_completed
	`, task.ID, task.ProjectID, task.Title, due, task.EstimatedHours, task.IsCompleted, task.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("task title %q already used in project: %w", task.Title, ErrConflict)
		}
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_dependencies WHERE task_id = ?`, task.ID); err != nil {
		return fmt.Errorf("failed to delete old dependencies: %w", err)
	}

	for i, dep := range task.Dependencies {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO task_dependencies (task_id, position, depends_on)
			VALUES (?, ?, ?)
		`, task.ID, i, dep)
		if err != nil {
			return fmt.Errorf("failed to insert dependency %s -> %s: %w", task.Title, dep, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTask retrieves a task by ID, including its dependencies.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, title, due_date, estimated_hours, is_completed, created_at
		FROM tasks
		WHERE id = ?
	`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, depends_on
		FROM task_dependencies
		WHERE task_id = ?
		ORDER BY position
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	deps, err := collectDependencies(rows)
	if err != nil {
		return nil, err
	}
	if d, ok := deps[task.ID]; ok {
		task.Dependencies = d
	}

	return task, nil
}

// ListTasks returns a project's tasks in creation order with their dependencies.
func (s *SQLiteStore) ListTasks(ctx context.Context, projectID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, title, due_date, estimated_hours, is_completed, created_at
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at, rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	// Load every dependency of the project in one query
	depRows, err := s.db.QueryContext(ctx, `
		SELECT d.task_id, d.depends_on
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.project_id = ?
		ORDER BY d.task_id, d.position
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer depRows.Close()

	deps, err := collectDependencies(depRows)
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		if d, ok := deps[task.ID]; ok {
			task.Dependencies = d
		}
	}

	return tasks, nil
}

// DeleteTask removes a task and its dependency rows.
func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOneRow(res, "task", taskID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	task := &Task{Dependencies: []string{}}
	var due sql.NullTime

	err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &due, &task.EstimatedHours, &task.IsCompleted, &task.CreatedAt)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		d := due.Time.UTC()
		task.DueDate = &d
	}
	task.CreatedAt = task.CreatedAt.UTC()
	return task, nil
}

// collectDependencies groups (task_id, depends_on) rows by task, keeping row order.
func collectDependencies(rows *sql.Rows) (map[string][]string, error) {
	deps := make(map[string][]string)
	for rows.Next() {
		var taskID, dep string
		if err := rows.Scan(&taskID, &dep); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps[taskID] = append(deps[taskID], dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dependencies: %w", err)
	}
	return deps, nil
}
