package domain

import (
	"slices"
	"strings"
)

// Status identifies the board column a task belongs to.
type Status string

const (
	StatusTodo          Status = "todo"
	StatusInProgress    Status = "in-progress"
	StatusAwaitFeedback Status = "await-feedback"
	StatusDone          Status = "done"
)

var boardStatuses = []Status{StatusTodo, StatusInProgress, StatusAwaitFeedback, StatusDone}

// legacyStatuses maps the short names older document-store records use.
var legacyStatuses = map[string]Status{
	"progress": StatusInProgress,
	"feedback": StatusAwaitFeedback,
}

// Statuses returns every status in board order.
func Statuses() []Status {
	return slices.Clone(boardStatuses)
}

// ParseStatus normalizes raw input into a status.
func ParseStatus(raw string) (Status, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if s, ok := legacyStatuses[raw]; ok {
		return s, nil
	}
	s := Status(raw)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Valid reports whether s is one of the four board statuses.
func (s Status) Valid() bool {
	return slices.Contains(boardStatuses, s)
}

// Index returns the board position of s, or -1.
func (s Status) Index() int {
	return slices.Index(boardStatuses, s)
}

// Label returns the column heading for s.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusAwaitFeedback:
		return "Awaiting feedback"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// EmptyMessage is shown in a column with no tasks.
func (s Status) EmptyMessage() string {
	return "No tasks " + s.Label()
}

// Shift returns the status delta columns away from s, clamped to the board.
func (s Status) Shift(delta int) Status {
	idx := s.Index()
	if idx < 0 {
		return s
	}
	idx = max(0, min(len(boardStatuses)-1, idx+delta))
	return boardStatuses[idx]
}
