package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

const (
	CategoryTechnicalTask = "Technical Task"
	CategoryUserStory     = "User Story"
)

type Subtask struct {
	Title string
	Done  bool
}

type Task struct {
	ID          string
	Status      Status
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Category    string
	AssignedTo  []string
	Subtasks    []Subtask
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskInput struct {
	ID          string
	Status      Status
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Category    string
	AssignedTo  []string
	Subtasks    []Subtask
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !in.Status.Valid() {
		return Task{}, ErrInvalidStatus
	}
	t := Task{
		ID:        in.ID,
		Status:    in.Status,
		CreatedAt: now.UTC(),
	}
	if err := t.UpdateDetails(in, now); err != nil {
		return Task{}, err
	}
	return t, nil
}

// UpdateDetails replaces the editable fields of t. ID and Status are ignored.
func (t *Task) UpdateDetails(in TaskInput, now time.Time) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrInvalidTitle
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return ErrInvalidPriority
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = CategoryTechnicalTask
	}
	subtasks, err := normalizeSubtasks(in.Subtasks)
	if err != nil {
		return err
	}
	t.Title = title
	t.Description = strings.TrimSpace(in.Description)
	t.DueDate = normalizeDueDate(in.DueDate)
	t.Priority = in.Priority
	t.Category = category
	t.AssignedTo = normalizeAssignees(in.AssignedTo)
	t.Subtasks = subtasks
	t.UpdatedAt = now.UTC()
	return nil
}

// SetStatus moves t to another column.
func (t *Task) SetStatus(status Status, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	t.Status = status
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) ToggleSubtask(index int, now time.Time) error {
	if index < 0 || index >= len(t.Subtasks) {
		return ErrInvalidSubtask
	}
	t.Subtasks[index].Done = !t.Subtasks[index].Done
	t.UpdatedAt = now.UTC()
	return nil
}

// Unassign drops contactID from the assignees and reports whether it was present.
func (t *Task) Unassign(contactID string, now time.Time) bool {
	idx := slices.Index(t.AssignedTo, contactID)
	if idx < 0 {
		return false
	}
	t.AssignedTo = slices.Delete(t.AssignedTo, idx, idx+1)
	t.UpdatedAt = now.UTC()
	return true
}

func (t Task) SubtaskProgress() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Done {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// Matches reports whether query occurs in the title, description or category.
func (t Task) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{t.Title, t.Description, t.Category} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil || due.IsZero() {
		return nil
	}
	d := due.UTC()
	ts := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &ts
}

func normalizeAssignees(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func normalizeSubtasks(in []Subtask) ([]Subtask, error) {
	out := make([]Subtask, 0, len(in))
	for _, s := range in {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			return nil, ErrInvalidSubtask
		}
		out = append(out, s)
	}
	return out, nil
}
