package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Hasher            PasswordHasher
	Tokens            TokenIssuer
	MinPasswordLength int
	Palette           []string
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service implements board, contact and account use cases over a Repository.
type Service struct {
	repo        Repository
	idGen       IDGenerator
	clock       Clock
	hasher      PasswordHasher
	tokens      TokenIssuer
	minPassword int
	palette     []string
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 8
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = domain.ContactPalette
	}
	return &Service{
		repo:        repo,
		idGen:       idGen,
		clock:       clock,
		hasher:      cfg.Hasher,
		tokens:      cfg.Tokens,
		minPassword: cfg.MinPasswordLength,
		palette:     slices.Clone(cfg.Palette),
	}
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.Status
	DueDate     *time.Time
	Priority    domain.Priority
	Category    string
	AssignedTo  []string
	Subtasks    []domain.Subtask
}

// CreateTask creates task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		Status:      in.Status,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Category:    in.Category,
		AssignedTo:  in.AssignedTo,
		Subtasks:    in.Subtasks,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTaskInput holds input values for update task operations.
type UpdateTaskInput struct {
	TaskID      string
	Title       string
	Description string
	DueDate     *time.Time
	Priority    domain.Priority
	Category    string
	AssignedTo  []string
	Subtasks    []domain.Subtask
}

// UpdateTask replaces the editable details of a task.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, in.TaskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.UpdateDetails(domain.TaskInput{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Category:    in.Category,
		AssignedTo:  in.AssignedTo,
		Subtasks:    in.Subtasks,
	}, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus persists a status change made on the board.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID string, status domain.Status) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.ErrInvalidID
	}
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	return s.repo.UpdateTaskStatus(ctx, taskID, status, s.clock().UTC())
}

// MoveTask sets a task's status and returns the updated task.
func (s *Service) MoveTask(ctx context.Context, taskID string, status domain.Status) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.SetStatus(status, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTaskStatus(ctx, task.ID, task.Status, task.UpdatedAt); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ToggleSubtask flips the done flag of one subtask.
func (s *Service) ToggleSubtask(ctx context.Context, taskID string, index int) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.ToggleSubtask(index, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, taskID)
}

// ListTasks returns every task in board order.
func (s *Service) ListTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	sortTasks(tasks)
	return tasks, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	return s.repo.DeleteTask(ctx, taskID)
}

// SearchTasks returns tasks whose title, description or category contains query.
func (s *Service) SearchTasks(ctx context.Context, query string) ([]domain.Task, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Matches(query) {
			out = append(out, task)
		}
	}
	return out, nil
}

// ContactInput holds input values for contact operations.
type ContactInput struct {
	Name  string
	Email string
	Phone string
	Color string
}

// CreateContact creates contact. A missing color is drawn from the palette.
func (s *Service) CreateContact(ctx context.Context, in ContactInput) (domain.Contact, error) {
	if strings.TrimSpace(in.Color) == "" {
		in.Color = s.pickColor()
	}
	contact, err := domain.NewContact(domain.ContactInput{
		ID:    s.idGen(),
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
		Color: in.Color,
	}, s.clock())
	if err != nil {
		return domain.Contact{}, err
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

// UpdateContact edits name, email, phone and color.
func (s *Service) UpdateContact(ctx context.Context, contactID string, in ContactInput) (domain.Contact, error) {
	contact, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return domain.Contact{}, err
	}
	if err := contact.Update(domain.ContactInput{
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
		Color: in.Color,
	}, s.clock()); err != nil {
		return domain.Contact{}, err
	}
	if err := s.repo.UpdateContact(ctx, contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

// DeleteContact removes a contact and unassigns it from every task.
func (s *Service) DeleteContact(ctx context.Context, contactID string) error {
	if _, err := s.repo.GetContact(ctx, contactID); err != nil {
		return err
	}
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return err
	}
	now := s.clock()
	for _, task := range tasks {
		if !task.Unassign(contactID, now) {
			continue
		}
		if err := s.repo.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("unassign contact from task %s: %w", task.ID, err)
		}
	}
	return s.repo.DeleteContact(ctx, contactID)
}

// GetContact returns one contact.
func (s *Service) GetContact(ctx context.Context, contactID string) (domain.Contact, error) {
	return s.repo.GetContact(ctx, contactID)
}

// ListContacts returns contacts sorted by name, case-insensitively.
func (s *Service) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(contacts, func(a, b domain.Contact) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return contacts, nil
}

func (s *Service) findContactByEmail(ctx context.Context, email string) (domain.Contact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	contacts, err := s.repo.ListContacts(ctx)
	if err != nil {
		return domain.Contact{}, err
	}
	for _, c := range contacts {
		if c.Email == email {
			return c, nil
		}
	}
	return domain.Contact{}, ErrNotFound
}

func (s *Service) pickColor() string {
	if len(s.palette) == 0 {
		return domain.DefaultContactColor
	}
	return s.palette[uint64(s.clock().UnixNano())%uint64(len(s.palette))]
}

// sortTasks orders tasks by board column, then creation time.
func sortTasks(tasks []domain.Task) {
	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		if d := a.Status.Index() - b.Status.Index(); d != 0 {
			return d
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
