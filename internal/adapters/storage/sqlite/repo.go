package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores tasks and contacts in a local sqlite file.
type Repository struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			registered INTEGER NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'todo',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			due_date TEXT,
			priority TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE TABLE IF NOT EXISTS task_assignees (
			task_id TEXT NOT NULL,
			contact_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY(task_id, contact_id),
			FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `ALTER TABLE tasks ADD COLUMN subtasks_json TEXT NOT NULL DEFAULT '[]'`); err != nil && !isDuplicateColumnErr(err) {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// CreateTask creates task.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	subtasksJSON, err := marshalSubtasks(t.Subtasks)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks(id, status, title, description, due_date, priority, category, subtasks_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		string(t.Status),
		t.Title,
		t.Description,
		nullableTS(t.DueDate),
		string(t.Priority),
		t.Category,
		subtasksJSON,
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if err = replaceAssignees(ctx, tx, t.ID, t.AssignedTo); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// UpdateTask updates state for the requested operation.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	subtasksJSON, err := marshalSubtasks(t.Subtasks)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, title = ?, description = ?, due_date = ?, priority = ?, category = ?, subtasks_json = ?, updated_at = ?
		WHERE id = ?
	`,
		string(t.Status),
		t.Title,
		t.Description,
		nullableTS(t.DueDate),
		string(t.Priority),
		t.Category,
		subtasksJSON,
		ts(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	if err = replaceAssignees(ctx, tx, t.ID, t.AssignedTo); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// UpdateTaskStatus changes only the status column of one task.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, string(status), ts(at), id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelect+` WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	assignees, err := r.assigneesByTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	task.AssignedTo = assignees[id]
	return task, nil
}

// ListTasks lists tasks.
func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelect+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	assignees, err := r.assigneesByTask(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].AssignedTo = assignees[out[i].ID]
	}
	return out, nil
}

// DeleteTask deletes task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// CreateContact creates contact.
func (r *Repository) CreateContact(ctx context.Context, c domain.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts(id, name, email, phone, color, registered, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Email, c.Phone, c.Color, boolToInt(c.Registered), c.PasswordHash, ts(c.CreatedAt), ts(c.UpdatedAt))
	return err
}

// UpdateContact updates state for the requested operation.
func (r *Repository) UpdateContact(ctx context.Context, c domain.Contact) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, email = ?, phone = ?, color = ?, registered = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Email, c.Phone, c.Color, boolToInt(c.Registered), c.PasswordHash, ts(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetContact returns contact.
func (r *Repository) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	row := r.db.QueryRowContext(ctx, contactSelect+` WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contact{}, app.ErrNotFound
	}
	return c, err
}

// ListContacts lists contacts.
func (r *Repository) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, contactSelect+` ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteContact deletes contact and its task assignments.
func (r *Repository) DeleteContact(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM task_assignees WHERE contact_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

const taskSelect = `
	SELECT id, status, title, description, due_date, priority, category, subtasks_json, created_at, updated_at
	FROM tasks`

const contactSelect = `
	SELECT id, name, email, phone, color, registered, password_hash, created_at, updated_at
	FROM contacts`

type scanner interface {
	Scan(dest ...any) error
}

type execerContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		status       string
		priority     string
		dueRaw       sql.NullString
		subtasksJSON string
		createdRaw   string
		updatedRaw   string
	)
	if err := s.Scan(&t.ID, &status, &t.Title, &t.Description, &dueRaw, &priority, &t.Category, &subtasksJSON, &createdRaw, &updatedRaw); err != nil {
		return domain.Task{}, err
	}
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.Status = parsed
	t.Priority = domain.Priority(priority)
	t.DueDate = parseNullTS(dueRaw)
	if err := json.Unmarshal([]byte(subtasksJSON), &t.Subtasks); err != nil {
		return domain.Task{}, fmt.Errorf("decode subtasks for task %s: %w", t.ID, err)
	}
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

func scanContact(s scanner) (domain.Contact, error) {
	var (
		c          domain.Contact
		registered int
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Color, &registered, &c.PasswordHash, &createdRaw, &updatedRaw); err != nil {
		return domain.Contact{}, err
	}
	c.Registered = registered != 0
	c.CreatedAt = parseTS(createdRaw)
	c.UpdatedAt = parseTS(updatedRaw)
	return c, nil
}

// assigneesByTask loads assignee ids grouped by task. An empty taskID loads all.
func (r *Repository) assigneesByTask(ctx context.Context, taskID string) (map[string][]string, error) {
	query := `SELECT task_id, contact_id FROM task_assignees`
	args := []any{}
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY task_id ASC, position ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]string{}
	for rows.Next() {
		var tid, cid string
		if err := rows.Scan(&tid, &cid); err != nil {
			return nil, err
		}
		out[tid] = append(out[tid], cid)
	}
	return out, rows.Err()
}

func replaceAssignees(ctx context.Context, execer execerContext, taskID string, contactIDs []string) error {
	if _, err := execer.ExecContext(ctx, `DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for i, cid := range contactIDs {
		if _, err := execer.ExecContext(ctx, `INSERT INTO task_assignees(task_id, contact_id, position) VALUES (?, ?, ?)`, taskID, cid, i); err != nil {
			return err
		}
	}
	return nil
}

func marshalSubtasks(subtasks []domain.Subtask) (string, error) {
	if subtasks == nil {
		subtasks = []domain.Subtask{}
	}
	raw, err := json.Marshal(subtasks)
	if err != nil {
		return "", fmt.Errorf("encode subtasks: %w", err)
	}
	return string(raw), nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

// isDuplicateColumnErr reports whether the expected condition is satisfied.
func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
