package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "join.snapshot.v1"

// Snapshot is a portable dump of the board and contacts.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Contacts   []SnapshotContact `json:"contacts"`
	Tasks      []SnapshotTask    `json:"tasks"`
}

// SnapshotContact represents snapshot contact data used by this package.
// Password hashes are never exported.
type SnapshotContact struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Color      string    `json:"color"`
	Registered bool      `json:"registered,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SnapshotSubtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          string            `json:"id"`
	Status      domain.Status     `json:"status"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Priority    domain.Priority   `json:"priority"`
	Category    string            `json:"category"`
	AssignedTo  []string          `json:"assigned_to,omitempty"`
	Subtasks    []SnapshotSubtask `json:"subtasks,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ExportSnapshot handles export snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Contacts:   make([]SnapshotContact, 0, len(contacts)),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, c := range contacts {
		snap.Contacts = append(snap.Contacts, snapshotContactFromDomain(c))
	}
	for _, t := range tasks {
		snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(t))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts every contact and task in snap.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for _, c := range snap.Contacts {
		dc := c.toDomain()
		existing, err := s.repo.GetContact(ctx, dc.ID)
		switch {
		case err == nil:
			dc.PasswordHash = existing.PasswordHash
			dc.Registered = dc.Registered || existing.Registered
			if err := s.repo.UpdateContact(ctx, dc); err != nil {
				return err
			}
		case errors.Is(err, ErrNotFound):
			if err := s.repo.CreateContact(ctx, dc); err != nil {
				return err
			}
		default:
			return err
		}
	}
	for _, t := range snap.Tasks {
		dt := t.toDomain()
		if _, err := s.repo.GetTask(ctx, dt.ID); err == nil {
			if err := s.repo.UpdateTask(ctx, dt); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateTask(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	contactIDs := map[string]struct{}{}
	for i, c := range s.Contacts {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: contacts[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: contacts[%d].name is required", ErrInvalidSnapshot, i)
		}
		if _, exists := contactIDs[c.ID]; exists {
			return fmt.Errorf("%w: duplicate contact id %q", ErrInvalidSnapshot, c.ID)
		}
		contactIDs[c.ID] = struct{}{}
	}
	taskIDs := map[string]struct{}{}
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: tasks[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("%w: tasks[%d].title is required", ErrInvalidSnapshot, i)
		}
		if !t.Status.Valid() {
			return fmt.Errorf("%w: tasks[%d].status %q", ErrInvalidSnapshot, i, t.Status)
		}
		if !t.Priority.Valid() {
			return fmt.Errorf("%w: tasks[%d].priority %q", ErrInvalidSnapshot, i, t.Priority)
		}
		if _, exists := taskIDs[t.ID]; exists {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidSnapshot, t.ID)
		}
		taskIDs[t.ID] = struct{}{}
		for _, assignee := range t.AssignedTo {
			if _, ok := contactIDs[assignee]; !ok {
				return fmt.Errorf("%w: tasks[%d] assigned to unknown contact %q", ErrInvalidSnapshot, i, assignee)
			}
		}
	}
	return nil
}

func (s *Snapshot) sort() {
	sort.Slice(s.Contacts, func(i, j int) bool { return s.Contacts[i].ID < s.Contacts[j].ID })
	sort.Slice(s.Tasks, func(i, j int) bool {
		if s.Tasks[i].Status.Index() != s.Tasks[j].Status.Index() {
			return s.Tasks[i].Status.Index() < s.Tasks[j].Status.Index()
		}
		if !s.Tasks[i].CreatedAt.Equal(s.Tasks[j].CreatedAt) {
			return s.Tasks[i].CreatedAt.Before(s.Tasks[j].CreatedAt)
		}
		return s.Tasks[i].ID < s.Tasks[j].ID
	})
}

func snapshotContactFromDomain(c domain.Contact) SnapshotContact {
	return SnapshotContact{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Color:      c.Color,
		Registered: c.Registered,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	out := SnapshotTask{
		ID:          t.ID,
		Status:      t.Status,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     copyTimePtr(t.DueDate),
		Priority:    t.Priority,
		Category:    t.Category,
		AssignedTo:  append([]string(nil), t.AssignedTo...),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, st := range t.Subtasks {
		out.Subtasks = append(out.Subtasks, SnapshotSubtask{Title: st.Title, Done: st.Done})
	}
	return out
}

func (c SnapshotContact) toDomain() domain.Contact {
	return domain.Contact{
		ID:         strings.TrimSpace(c.ID),
		Name:       strings.TrimSpace(c.Name),
		Email:      strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:      strings.TrimSpace(c.Phone),
		Color:      strings.TrimSpace(c.Color),
		Registered: c.Registered,
		CreatedAt:  c.CreatedAt.UTC(),
		UpdatedAt:  c.UpdatedAt.UTC(),
	}
}

func (t SnapshotTask) toDomain() domain.Task {
	out := domain.Task{
		ID:          strings.TrimSpace(t.ID),
		Status:      t.Status,
		Title:       strings.TrimSpace(t.Title),
		Description: t.Description,
		DueDate:     copyTimePtr(t.DueDate),
		Priority:    t.Priority,
		Category:    t.Category,
		AssignedTo:  append([]string(nil), t.AssignedTo...),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	for _, st := range t.Subtasks {
		out.Subtasks = append(out.Subtasks, domain.Subtask{Title: st.Title, Done: st.Done})
	}
	return out
}

func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := in.UTC()
	return &ts
}
