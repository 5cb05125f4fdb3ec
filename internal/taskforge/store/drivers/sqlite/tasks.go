package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/store"
)

type tasksRepo struct {
	db dbtx
}

const taskColumns = `id, title, description, cognitive_load, priority, state,
	is_fragmentable, user_id, created_at, updated_at`

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) (int64, error) {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, cognitive_load, priority, state,
		 is_fragmentable, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, mapStringNull(t.Description), int(t.CognitiveLoad), int(t.Priority),
		int(t.State), t.IsFragmentable, t.UserID, now, now)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

// GetTaskByIDAndOwner scopes the lookup to the owner so a foreign task is
// indistinguishable from a missing one.
func (r *tasksRepo) GetTaskByIDAndOwner(ctx context.Context, id, owner int64) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, owner)
	return scanTask(row)
}

func (r *tasksRepo) ListTasksByOwner(ctx context.Context, owner int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY priority DESC, id ASC`,
		owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, cognitive_load = ?,
		 priority = ?, state = ?, is_fragmentable = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, mapStringNull(t.Description), int(t.CognitiveLoad), int(t.Priority),
		int(t.State), t.IsFragmentable, time.Now().UTC(), t.ID, t.UserID)
	if err != nil {
		return mapConstraint(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *tasksRepo) DeleteTask(ctx context.Context, id, owner int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t    domain.Task
		desc sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &desc, &t.CognitiveLoad, &t.Priority, &t.State,
		&t.IsFragmentable, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	t.Description = mapNullString(desc)
	return t, nil
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
