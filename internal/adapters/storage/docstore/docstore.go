// Package docstore stores tasks and contacts in a remote JSON document tree
// addressed as <base>/<collection>/<id>.json.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/domain"
)

var ErrUnexpectedStatus = errors.New("unexpected document store status")

const (
	tasksCollection    = "tasks"
	contactsCollection = "contacts"
	dateLayout         = "2006-01-02"
)

// Options configures a Repository.
type Options struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
	Client    *http.Client
	Logger    *log.Logger
}

// Repository implements app.Repository over HTTP GET/PUT/PATCH/DELETE.
type Repository struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger *log.Logger
}

func New(opts Options) (*Repository, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("document store base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse document store url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("document store url must be http or https: %q", raw)
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Repository{base: base, token: strings.TrimSpace(opts.AuthToken), http: client, logger: logger}, nil
}

type subtaskDoc struct {
	Subtask string `json:"subtask"`
	Status  string `json:"status"`
}

type taskDoc struct {
	Title            string       `json:"title"`
	TaskDescription  string       `json:"taskDescription,omitempty"`
	Date             string       `json:"date,omitempty"`
	Priority         string       `json:"priority"`
	Category         string       `json:"category"`
	AssignedContacts []string     `json:"assignedContacts,omitempty"`
	AddedSubtasks    []subtaskDoc `json:"addedSubtasks,omitempty"`
	Status           string       `json:"status"`
	CreatedAt        string       `json:"createdAt,omitempty"`
	UpdatedAt        string       `json:"updatedAt,omitempty"`
}

type contactDoc struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Color        string `json:"color,omitempty"`
	Registered   bool   `json:"registered,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	return r.do(ctx, http.MethodPut, docPath(tasksCollection, t.ID), taskToDoc(t), nil)
}

func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	if _, err := r.GetTask(ctx, t.ID); err != nil {
		return err
	}
	return r.do(ctx, http.MethodPut, docPath(tasksCollection, t.ID), taskToDoc(t), nil)
}

// UpdateTaskStatus patches only the status fields of one task document.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	if _, err := r.GetTask(ctx, id); err != nil {
		return err
	}
	patch := map[string]string{
		"status":    string(status),
		"updatedAt": at.UTC().Format(time.RFC3339Nano),
	}
	return r.do(ctx, http.MethodPatch, docPath(tasksCollection, id), patch, nil)
}

func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	var doc *taskDoc
	if err := r.do(ctx, http.MethodGet, docPath(tasksCollection, id), nil, &doc); err != nil {
		return domain.Task{}, err
	}
	if doc == nil {
		return domain.Task{}, app.ErrNotFound
	}
	return doc.toDomain(id)
}

func (r *Repository) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var docs map[string]json.RawMessage
	if err := r.do(ctx, http.MethodGet, tasksCollection+".json", nil, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(docs))
	for id, raw := range docs {
		var doc taskDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			r.logger.Warn("skipping undecodable task document", "task_id", id, "err", err)
			continue
		}
		task, err := doc.toDomain(id)
		if err != nil {
			r.logger.Warn("skipping invalid task document", "task_id", id, "err", err)
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	if _, err := r.GetTask(ctx, id); err != nil {
		return err
	}
	return r.do(ctx, http.MethodDelete, docPath(tasksCollection, id), nil, nil)
}

func (r *Repository) CreateContact(ctx context.Context, c domain.Contact) error {
	return r.do(ctx, http.MethodPut, docPath(contactsCollection, c.ID), contactToDoc(c), nil)
}

func (r *Repository) UpdateContact(ctx context.Context, c domain.Contact) error {
	if _, err := r.GetContact(ctx, c.ID); err != nil {
		return err
	}
	return r.do(ctx, http.MethodPut, docPath(contactsCollection, c.ID), contactToDoc(c), nil)
}

func (r *Repository) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	var doc *contactDoc
	if err := r.do(ctx, http.MethodGet, docPath(contactsCollection, id), nil, &doc); err != nil {
		return domain.Contact{}, err
	}
	if doc == nil {
		return domain.Contact{}, app.ErrNotFound
	}
	return doc.toDomain(id), nil
}

func (r *Repository) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	var docs map[string]json.RawMessage
	if err := r.do(ctx, http.MethodGet, contactsCollection+".json", nil, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0, len(docs))
	for id, raw := range docs {
		var doc contactDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			r.logger.Warn("skipping undecodable contact document", "contact_id", id, "err", err)
			continue
		}
		out = append(out, doc.toDomain(id))
	}
	return out, nil
}

func (r *Repository) DeleteContact(ctx context.Context, id string) error {
	if _, err := r.GetContact(ctx, id); err != nil {
		return err
	}
	return r.do(ctx, http.MethodDelete, docPath(contactsCollection, id), nil, nil)
}

// Ping reads the shallow root to check reachability.
func (r *Repository) Ping(ctx context.Context) error {
	var discard json.RawMessage
	return r.do(ctx, http.MethodGet, ".json?shallow=true", nil, &discard)
}

func (r *Repository) do(ctx context.Context, method, path string, body, out any) error {
	target, err := r.base.Parse(path)
	if err != nil {
		return fmt.Errorf("build document store url: %w", err)
	}
	if r.token != "" {
		q := target.Query()
		q.Set("auth", r.token)
		target.RawQuery = q.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode %s body: %w", method, err)
		}
		reader = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, redact(target), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, redact(target), resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	return c.String()
}

func docPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id) + ".json"
}

func taskToDoc(t domain.Task) taskDoc {
	doc := taskDoc{
		Title:            t.Title,
		TaskDescription:  t.Description,
		Priority:         string(t.Priority),
		Category:         t.Category,
		AssignedContacts: t.AssignedTo,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.DueDate != nil {
		doc.Date = t.DueDate.UTC().Format(dateLayout)
	}
	for _, s := range t.Subtasks {
		status := "unchecked"
		if s.Done {
			status = "checked"
		}
		doc.AddedSubtasks = append(doc.AddedSubtasks, subtaskDoc{Subtask: s.Title, Status: status})
	}
	return doc
}

func (d taskDoc) toDomain(id string) (domain.Task, error) {
	status, err := domain.ParseStatus(d.Status)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, err)
	}
	t := domain.Task{
		ID:          id,
		Status:      status,
		Title:       d.Title,
		Description: d.TaskDescription,
		Priority:    domain.Priority(strings.ToLower(d.Priority)),
		Category:    d.Category,
		AssignedTo:  d.AssignedContacts,
		CreatedAt:   parseTime(d.CreatedAt),
		UpdatedAt:   parseTime(d.UpdatedAt),
	}
	if !t.Priority.Valid() {
		t.Priority = domain.PriorityMedium
	}
	if d.Date != "" {
		if due, err := time.Parse(dateLayout, d.Date); err == nil {
			t.DueDate = &due
		}
	}
	for _, s := range d.AddedSubtasks {
		t.Subtasks = append(t.Subtasks, domain.Subtask{Title: s.Subtask, Done: s.Status == "checked"})
	}
	return t, nil
}

func contactToDoc(c domain.Contact) contactDoc {
	return contactDoc{
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Color:        c.Color,
		Registered:   c.Registered,
		PasswordHash: c.PasswordHash,
		CreatedAt:    c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (d contactDoc) toDomain(id string) domain.Contact {
	return domain.Contact{
		ID:           id,
		Name:         d.Name,
		Email:        strings.ToLower(d.Email),
		Phone:        d.Phone,
		Color:        d.Color,
		Registered:   d.Registered,
		PasswordHash: d.PasswordHash,
		CreatedAt:    parseTime(d.CreatedAt),
		UpdatedAt:    parseTime(d.UpdatedAt),
	}
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
