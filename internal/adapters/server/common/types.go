// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// DateLayout is the wire format for task due dates.
const DateLayout = "2006-01-02"

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a request that collides with existing state.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized reports missing or rejected credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrUnavailable reports a surface whose backing service is not configured.
var ErrUnavailable = errors.New("service unavailable")

// Subtask is one checklist entry on a task.
type Subtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Progress reports completed subtasks.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Task is the transport shape of one board card.
type Task struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	AssignedTo  []string  `json:"assigned_to,omitempty"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contact is the transport shape of one contact. Password hashes never leave the service.
type Contact struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Color      string `json:"color"`
	Initials   string `json:"initials"`
	Registered bool   `json:"registered"`
}

// Summary is the dashboard overview.
type Summary struct {
	Greeting             string `json:"greeting"`
	Name                 string `json:"name,omitempty"`
	Todo                 int    `json:"todo"`
	InProgress           int    `json:"in_progress"`
	AwaitFeedback        int    `json:"await_feedback"`
	Done                 int    `json:"done"`
	Total                int    `json:"total"`
	Urgent               int    `json:"urgent"`
	NextDeadline         string `json:"next_deadline,omitempty"`
	NextDeadlineLabel    string `json:"next_deadline_label"`
	NextDeadlinePriority string `json:"next_deadline_priority,omitempty"`
}

// Identity is the authenticated caller of one request.
type Identity struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name"`
	Guest     bool   `json:"guest"`
}

// Session pairs an identity with its bearer token.
type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

// CreateTaskRequest captures input for new tasks.
type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Category    string    `json:"category,omitempty"`
	AssignedTo  []string  `json:"assigned_to,omitempty"`
	Subtasks    []Subtask `json:"subtasks,omitempty"`
}

// UpdateTaskRequest captures a partial task update. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	ID          string     `json:"-"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	DueDate     *string    `json:"due_date,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Category    *string    `json:"category,omitempty"`
	AssignedTo  *[]string  `json:"assigned_to,omitempty"`
	Subtasks    *[]Subtask `json:"subtasks,omitempty"`
}

// MoveTaskRequest moves one task to another column.
type MoveTaskRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

// ContactRequest captures contact create and update input.
type ContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Color string `json:"color,omitempty"`
}

// SignUpRequest registers a contact that can log in.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskService captures board task operations.
type TaskService interface {
	ListTasks(context.Context) ([]Task, error)
	GetTask(context.Context, string) (Task, error)
	CreateTask(context.Context, CreateTaskRequest) (Task, error)
	UpdateTask(context.Context, UpdateTaskRequest) (Task, error)
	MoveTask(context.Context, MoveTaskRequest) (Task, error)
	ToggleSubtask(context.Context, string, int) (Task, error)
	DeleteTask(context.Context, string) error
	SearchTasks(context.Context, string) ([]Task, error)
	Summary(context.Context, string) (Summary, error)
}

// ContactService captures contact operations.
type ContactService interface {
	ListContacts(context.Context) ([]Contact, error)
	CreateContact(context.Context, ContactRequest) (Contact, error)
	UpdateContact(context.Context, string, ContactRequest) (Contact, error)
	DeleteContact(context.Context, string) error
}

// AuthService captures sign-up, login, and bearer-token verification.
type AuthService interface {
	SignUp(context.Context, SignUpRequest) (Contact, error)
	Login(context.Context, LoginRequest) (Session, error)
	GuestLogin(context.Context) (Session, error)
	Authenticate(context.Context, string) (context.Context, Identity, error)
}

// BoardService is the full surface served over HTTP.
type BoardService interface {
	TaskService
	ContactService
	AuthService
}
