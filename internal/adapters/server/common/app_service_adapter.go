package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board, contact, and auth APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// ListTasks returns every task in board order.
func (a *AppServiceAdapter) ListTasks(ctx context.Context) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	tasks, err := a.service.ListTasks(ctx)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	return mapDomainTasks(tasks), nil
}

// GetTask returns one task.
func (a *AppServiceAdapter) GetTask(ctx context.Context, id string) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.GetTask(ctx, strings.TrimSpace(id))
	if err != nil {
		return Task{}, mapAppError("get task", err)
	}
	return mapDomainTask(task), nil
}

// CreateTask creates one task from transport input.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	var status domain.Status
	if strings.TrimSpace(in.Status) != "" {
		parsed, err := parseStatus(in.Status)
		if err != nil {
			return Task{}, err
		}
		status = parsed
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.CreateTask(ctx, app.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     due,
		Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(in.Priority))),
		Category:    strings.TrimSpace(in.Category),
		AssignedTo:  in.AssignedTo,
		Subtasks:    toDomainSubtasks(in.Subtasks),
	})
	if err != nil {
		return Task{}, mapAppError("create task", err)
	}
	return mapDomainTask(task), nil
}

// UpdateTask applies the non-nil fields of in to one task.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, in UpdateTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	current, err := a.service.GetTask(ctx, strings.TrimSpace(in.ID))
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	update := app.UpdateTaskInput{
		TaskID:      current.ID,
		Title:       current.Title,
		Description: current.Description,
		DueDate:     current.DueDate,
		Priority:    current.Priority,
		Category:    current.Category,
		AssignedTo:  current.AssignedTo,
		Subtasks:    current.Subtasks,
	}
	if in.Title != nil {
		update.Title = *in.Title
	}
	if in.Description != nil {
		update.Description = *in.Description
	}
	if in.DueDate != nil {
		due, err := parseDueDate(*in.DueDate)
		if err != nil {
			return Task{}, err
		}
		update.DueDate = due
	}
	if in.Priority != nil {
		update.Priority = domain.Priority(strings.ToLower(strings.TrimSpace(*in.Priority)))
	}
	if in.Category != nil {
		update.Category = strings.TrimSpace(*in.Category)
	}
	if in.AssignedTo != nil {
		update.AssignedTo = *in.AssignedTo
	}
	if in.Subtasks != nil {
		update.Subtasks = toDomainSubtasks(*in.Subtasks)
	}
	var status domain.Status
	if in.Status != nil {
		if status, err = parseStatus(*in.Status); err != nil {
			return Task{}, err
		}
	}

	task, err := a.service.UpdateTask(ctx, update)
	if err != nil {
		return Task{}, mapAppError("update task", err)
	}
	if status != "" && status != task.Status {
		if task, err = a.service.MoveTask(ctx, task.ID, status); err != nil {
			return Task{}, mapAppError("update task", err)
		}
	}
	return mapDomainTask(task), nil
}

// MoveTask moves one task to another column.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return Task{}, err
	}
	task, err := a.service.MoveTask(ctx, strings.TrimSpace(in.ID), status)
	if err != nil {
		return Task{}, mapAppError("move task", err)
	}
	return mapDomainTask(task), nil
}

// ToggleSubtask flips one subtask by index.
func (a *AppServiceAdapter) ToggleSubtask(ctx context.Context, id string, index int) (Task, error) {
	if err := a.ready(); err != nil {
		return Task{}, err
	}
	task, err := a.service.ToggleSubtask(ctx, strings.TrimSpace(id), index)
	if err != nil {
		return Task{}, mapAppError("toggle subtask", err)
	}
	return mapDomainTask(task), nil
}

// DeleteTask removes one task.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return mapAppError("delete task", a.service.DeleteTask(ctx, strings.TrimSpace(id)))
}

// SearchTasks filters tasks by a free-text query.
func (a *AppServiceAdapter) SearchTasks(ctx context.Context, query string) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	tasks, err := a.service.SearchTasks(ctx, query)
	if err != nil {
		return nil, mapAppError("search tasks", err)
	}
	return mapDomainTasks(tasks), nil
}

// Summary returns the dashboard overview, scoped to assignee when set.
func (a *AppServiceAdapter) Summary(ctx context.Context, assignee string) (Summary, error) {
	if err := a.ready(); err != nil {
		return Summary{}, err
	}
	s, err := a.service.Summary(ctx, strings.TrimSpace(assignee))
	if err != nil {
		return Summary{}, mapAppError("summary", err)
	}
	out := Summary{
		Greeting:          s.Greeting,
		Name:              s.Name,
		Todo:              s.Todo,
		InProgress:        s.InProgress,
		AwaitFeedback:     s.AwaitFeedback,
		Done:              s.Done,
		Total:             s.Total,
		Urgent:            s.Urgent,
		NextDeadlineLabel: s.DeadlineLabel(),
	}
	if s.NextDeadline != nil {
		out.NextDeadline = s.NextDeadline.Format(DateLayout)
		out.NextDeadlinePriority = string(s.NextDeadlinePriority)
	}
	return out, nil
}

// ListContacts returns contacts alphabetically.
func (a *AppServiceAdapter) ListContacts(ctx context.Context) ([]Contact, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	contacts, err := a.service.ListContacts(ctx)
	if err != nil {
		return nil, mapAppError("list contacts", err)
	}
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, mapDomainContact(c))
	}
	return out, nil
}

// CreateContact creates one contact.
func (a *AppServiceAdapter) CreateContact(ctx context.Context, in ContactRequest) (Contact, error) {
	if err := a.ready(); err != nil {
		return Contact{}, err
	}
	c, err := a.service.CreateContact(ctx, toContactInput(in))
	if err != nil {
		return Contact{}, mapAppError("create contact", err)
	}
	return mapDomainContact(c), nil
}

// UpdateContact replaces one contact's details.
func (a *AppServiceAdapter) UpdateContact(ctx context.Context, id string, in ContactRequest) (Contact, error) {
	if err := a.ready(); err != nil {
		return Contact{}, err
	}
	c, err := a.service.UpdateContact(ctx, strings.TrimSpace(id), toContactInput(in))
	if err != nil {
		return Contact{}, mapAppError("update contact", err)
	}
	return mapDomainContact(c), nil
}

// DeleteContact removes one contact and its task assignments.
func (a *AppServiceAdapter) DeleteContact(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return mapAppError("delete contact", a.service.DeleteContact(ctx, strings.TrimSpace(id)))
}

// SignUp registers one contact with a password.
func (a *AppServiceAdapter) SignUp(ctx context.Context, in SignUpRequest) (Contact, error) {
	if err := a.ready(); err != nil {
		return Contact{}, err
	}
	c, err := a.service.SignUp(ctx, app.SignUpInput{Name: in.Name, Email: in.Email, Password: in.Password})
	if err != nil {
		return Contact{}, mapAppError("sign up", err)
	}
	return mapDomainContact(c), nil
}

// Login exchanges credentials for a session.
func (a *AppServiceAdapter) Login(ctx context.Context, in LoginRequest) (Session, error) {
	if err := a.ready(); err != nil {
		return Session{}, err
	}
	session, err := a.service.Login(ctx, in.Email, in.Password)
	if err != nil {
		return Session{}, mapAppError("login", err)
	}
	return mapSession(session), nil
}

// GuestLogin issues a guest session.
func (a *AppServiceAdapter) GuestLogin(ctx context.Context) (Session, error) {
	if err := a.ready(); err != nil {
		return Session{}, err
	}
	session, err := a.service.GuestLogin(ctx)
	if err != nil {
		return Session{}, mapAppError("guest login", err)
	}
	return mapSession(session), nil
}

// Authenticate verifies token and returns ctx carrying the resolved actor.
func (a *AppServiceAdapter) Authenticate(ctx context.Context, token string) (context.Context, Identity, error) {
	if err := a.ready(); err != nil {
		return ctx, Identity{}, err
	}
	actor, err := a.service.Authenticate(token)
	if err != nil {
		return ctx, Identity{}, mapAppError("authenticate", err)
	}
	return app.WithActor(ctx, actor), mapIdentity(actor), nil
}

func parseStatus(raw string) (domain.Status, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("status %q: %w", raw, errors.Join(ErrInvalidRequest, err))
	}
	return status, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("due_date %q: %w", raw, errors.Join(ErrInvalidRequest, err))
	}
	return &due, nil
}

func toDomainSubtasks(in []Subtask) []domain.Subtask {
	if in == nil {
		return nil
	}
	out := make([]domain.Subtask, 0, len(in))
	for _, s := range in {
		out = append(out, domain.Subtask{Title: s.Title, Done: s.Done})
	}
	return out
}

func toContactInput(in ContactRequest) app.ContactInput {
	return app.ContactInput{Name: in.Name, Email: in.Email, Phone: in.Phone, Color: in.Color}
}

func mapDomainTasks(tasks []domain.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, mapDomainTask(t))
	}
	return out
}

func mapDomainTask(t domain.Task) Task {
	done, total := t.SubtaskProgress()
	out := Task{
		ID:          t.ID,
		Status:      string(t.Status),
		StatusLabel: t.Status.Label(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    t.Category,
		AssignedTo:  append([]string(nil), t.AssignedTo...),
		Progress:    Progress{Done: done, Total: total},
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.UTC().Format(DateLayout)
	}
	for _, s := range t.Subtasks {
		out.Subtasks = append(out.Subtasks, Subtask{Title: s.Title, Done: s.Done})
	}
	return out
}

func mapDomainContact(c domain.Contact) Contact {
	return Contact{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Color:      c.Color,
		Initials:   c.Initials(),
		Registered: c.Registered,
	}
}

func mapIdentity(actor app.Actor) Identity {
	return Identity{ContactID: actor.ContactID, Name: actor.Name, Guest: actor.Guest()}
}

func mapSession(s app.Session) Session {
	return Session{Token: s.Token, Identity: mapIdentity(s.Actor)}
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrEmailTaken):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrUnauthenticated):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnauthorized, err))
	case errors.Is(err, app.ErrAuthUnavailable):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnavailable, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidSubtask),
		errors.Is(err, app.ErrWeakPassword),
		errors.Is(err, app.ErrInvalidSnapshot):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
