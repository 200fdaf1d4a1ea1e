package app

import (
	"context"
	"slices"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

// Summary is the dashboard overview of the board.
type Summary struct {
	Greeting      string
	Name          string
	Todo          int
	InProgress    int
	AwaitFeedback int
	Done          int
	Total         int
	Urgent        int
	// NextDeadline is the earliest due date from today on, nil when none.
	NextDeadline         *time.Time
	NextDeadlinePriority domain.Priority
}

// DeadlineLabel renders NextDeadline the way the dashboard shows it.
func (s Summary) DeadlineLabel() string {
	if s.NextDeadline == nil {
		return "No tasks"
	}
	return s.NextDeadline.Format("02.01.2006")
}

// DeadlineCaption describes DeadlineLabel.
func (s Summary) DeadlineCaption() string {
	if s.NextDeadline == nil {
		return "No deadline"
	}
	return "Upcoming Deadline"
}

// Greeting returns the salutation for an hour of the day.
func Greeting(hour int) string {
	switch {
	case hour < 6:
		return "Good night"
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// Summary counts tasks per column. A non-empty assignee scopes every count and
// the deadline lookup to tasks assigned to that contact.
func (s *Service) Summary(ctx context.Context, assignee string) (Summary, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return Summary{}, err
	}
	if assignee != "" {
		tasks = slices.DeleteFunc(tasks, func(t domain.Task) bool {
			return !slices.Contains(t.AssignedTo, assignee)
		})
	}
	now := s.clock()
	out := Summary{Greeting: Greeting(now.Hour()), Total: len(tasks)}
	if actor, ok := ActorFromContext(ctx); ok {
		out.Name = actor.Name
	}
	// Due dates are calendar dates stored at UTC midnight; today is the clock's
	// local calendar date in the same form.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, task := range tasks {
		switch task.Status {
		case domain.StatusTodo:
			out.Todo++
		case domain.StatusInProgress:
			out.InProgress++
		case domain.StatusAwaitFeedback:
			out.AwaitFeedback++
		case domain.StatusDone:
			out.Done++
		}
		if task.Priority == domain.PriorityUrgent {
			out.Urgent++
		}
		if task.DueDate == nil || task.DueDate.Before(today) {
			continue
		}
		if out.NextDeadline == nil || !task.DueDate.After(*out.NextDeadline) {
			due := *task.DueDate
			out.NextDeadline = &due
			out.NextDeadlinePriority = task.Priority
		}
	}
	return out, nil
}
