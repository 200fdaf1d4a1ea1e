package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

type fakeRepo struct {
	tasks    map[string]domain.Task
	contacts map[string]domain.Contact
	failOn   string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tasks:    map[string]domain.Task{},
		contacts: map[string]domain.Contact{},
	}
}

func (f *fakeRepo) fail(op string) error {
	if f.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func (f *fakeRepo) CreateTask(_ context.Context, t domain.Task) error {
	if err := f.fail("CreateTask"); err != nil {
		return err
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) UpdateTask(_ context.Context, t domain.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeRepo) UpdateTaskStatus(_ context.Context, id string, status domain.Status, at time.Time) error {
	if err := f.fail("UpdateTaskStatus"); err != nil {
		return err
	}
	t, ok := f.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = at
	f.tasks[id] = t
	return nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) ListTasks(context.Context) ([]domain.Task, error) {
	if err := f.fail("ListTasks"); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) DeleteTask(_ context.Context, id string) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeRepo) CreateContact(_ context.Context, c domain.Contact) error {
	f.contacts[c.ID] = c
	return nil
}

func (f *fakeRepo) UpdateContact(_ context.Context, c domain.Contact) error {
	if _, ok := f.contacts[c.ID]; !ok {
		return ErrNotFound
	}
	f.contacts[c.ID] = c
	return nil
}

func (f *fakeRepo) GetContact(_ context.Context, id string) (domain.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return domain.Contact{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) ListContacts(context.Context) ([]domain.Contact, error) {
	out := make([]domain.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) DeleteContact(_ context.Context, id string) error {
	if _, ok := f.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(f.contacts, id)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(a Actor) (string, error) { return "tok|" + a.ContactID + "|" + a.Name, nil }

func (fakeTokens) Verify(token string) (Actor, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "tok" {
		return Actor{}, errors.New("bad token")
	}
	return Actor{ContactID: parts[1], Name: parts[2]}, nil
}

func newTestService(repo *fakeRepo, now time.Time) *Service {
	n := 0
	return NewService(repo, func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}, func() time.Time { return now }, ServiceConfig{Hasher: fakeHasher{}, Tokens: fakeTokens{}})
}

func TestCreateTaskAndMove(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	task, err := svc.CreateTask(context.Background(), CreateTaskInput{Title: "Design board", Priority: domain.PriorityUrgent})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.ID != "id-1" || task.Status != domain.StatusTodo {
		t.Fatalf("unexpected task %#v", task)
	}
	moved, err := svc.MoveTask(context.Background(), task.ID, domain.StatusAwaitFeedback)
	if err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if moved.Status != domain.StatusAwaitFeedback || repo.tasks[task.ID].Status != domain.StatusAwaitFeedback {
		t.Fatalf("expected await-feedback, got %#v", repo.tasks[task.ID])
	}
	if _, err := svc.MoveTask(context.Background(), "missing", domain.StatusDone); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTaskStatusValidatesAndPersists(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	task, _ := svc.CreateTask(context.Background(), CreateTaskInput{Title: "x"})

	if err := svc.UpdateTaskStatus(context.Background(), task.ID, domain.StatusDone); err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}
	if repo.tasks[task.ID].Status != domain.StatusDone {
		t.Fatalf("expected done, got %q", repo.tasks[task.ID].Status)
	}
	if err := svc.UpdateTaskStatus(context.Background(), task.ID, "backlog"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := svc.UpdateTaskStatus(context.Background(), " ", domain.StatusDone); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	repo.failOn = "UpdateTaskStatus"
	if err := svc.UpdateTaskStatus(context.Background(), task.ID, domain.StatusTodo); err == nil {
		t.Fatal("expected repository failure to propagate")
	}
}

func TestUpdateTaskAndToggleSubtask(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	task, _ := svc.CreateTask(context.Background(), CreateTaskInput{Title: "x", Subtasks: []domain.Subtask{{Title: "a"}}})

	updated, err := svc.UpdateTask(context.Background(), UpdateTaskInput{
		TaskID:   task.ID,
		Title:    "renamed",
		Category: domain.CategoryUserStory,
		Subtasks: []domain.Subtask{{Title: "a"}, {Title: "b"}},
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "renamed" || updated.Category != domain.CategoryUserStory || updated.Status != domain.StatusTodo {
		t.Fatalf("unexpected update %#v", updated)
	}
	toggled, err := svc.ToggleSubtask(context.Background(), task.ID, 1)
	if err != nil {
		t.Fatalf("ToggleSubtask() error = %v", err)
	}
	if !toggled.Subtasks[1].Done || !repo.tasks[task.ID].Subtasks[1].Done {
		t.Fatal("expected subtask toggled and persisted")
	}
	if _, err := svc.ToggleSubtask(context.Background(), task.ID, 7); !errors.Is(err, domain.ErrInvalidSubtask) {
		t.Fatalf("expected ErrInvalidSubtask, got %v", err)
	}
}

func TestListAndSearchTasks(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	ctx := context.Background()
	a, _ := svc.CreateTask(ctx, CreateTaskInput{Title: "Recipe page", Status: domain.StatusDone})
	b, _ := svc.CreateTask(ctx, CreateTaskInput{Title: "Contact form", Description: "validate email"})
	_, _ = svc.CreateTask(ctx, CreateTaskInput{Title: "HTML base", Category: domain.CategoryUserStory})

	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 3 || tasks[2].ID != a.ID {
		t.Fatalf("expected done task last, got %#v", tasks)
	}
	found, err := svc.SearchTasks(ctx, "EMAIL")
	if err != nil {
		t.Fatalf("SearchTasks() error = %v", err)
	}
	if len(found) != 1 || found[0].ID != b.ID {
		t.Fatalf("unexpected search result %#v", found)
	}
	found, _ = svc.SearchTasks(ctx, "story")
	if len(found) != 1 {
		t.Fatalf("expected category match, got %#v", found)
	}
	found, _ = svc.SearchTasks(ctx, "")
	if len(found) != 3 {
		t.Fatalf("expected empty query to return all, got %d", len(found))
	}
}

func TestContactsSortedAndDeleteUnassigns(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	ctx := context.Background()
	zoe, err := svc.CreateContact(ctx, ContactInput{Name: "zoe Zimmer", Email: "zoe@example.com"})
	if err != nil {
		t.Fatalf("CreateContact() error = %v", err)
	}
	anna, _ := svc.CreateContact(ctx, ContactInput{Name: "Anna Adler", Email: "anna@example.com", Color: "#112233"})
	if anna.Color != "#112233" || zoe.Color == "" {
		t.Fatalf("unexpected colors %q %q", anna.Color, zoe.Color)
	}
	contacts, err := svc.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if contacts[0].ID != anna.ID || contacts[1].ID != zoe.ID {
		t.Fatalf("expected alphabetical order, got %#v", contacts)
	}

	task, _ := svc.CreateTask(ctx, CreateTaskInput{Title: "pair", AssignedTo: []string{zoe.ID, anna.ID}})
	if err := svc.DeleteContact(ctx, zoe.ID); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}
	if got := repo.tasks[task.ID].AssignedTo; len(got) != 1 || got[0] != anna.ID {
		t.Fatalf("expected zoe unassigned, got %#v", got)
	}
	if err := svc.DeleteContact(ctx, zoe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	updated, err := svc.UpdateContact(ctx, anna.ID, ContactInput{Name: "Anna Berg", Email: "anna@example.com", Phone: "+49 1"})
	if err != nil {
		t.Fatalf("UpdateContact() error = %v", err)
	}
	if updated.Color != "#112233" || updated.Phone != "+49 1" {
		t.Fatalf("unexpected updated contact %#v", updated)
	}
}

func TestSignUpLoginAndAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpInput{Name: "Sofia Müller", Email: "sofia@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	contact, err := svc.SignUp(ctx, SignUpInput{Name: "Sofia Müller", Email: "Sofia@Example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if !contact.Registered || contact.PasswordHash == "" {
		t.Fatalf("expected registered contact, got %#v", contact)
	}
	if _, err := svc.SignUp(ctx, SignUpInput{Name: "Other", Email: "sofia@example.com", Password: "another pass"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := svc.Login(ctx, "sofia@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	session, err := svc.Login(ctx, " SOFIA@example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	actor, err := svc.Authenticate(session.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if actor.ContactID != contact.ID || actor.Name != "Sofia Müller" {
		t.Fatalf("unexpected actor %#v", actor)
	}
	if _, err := svc.Authenticate("garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	guest, err := svc.GuestLogin(ctx)
	if err != nil {
		t.Fatalf("GuestLogin() error = %v", err)
	}
	if !guest.Actor.Guest() || guest.Actor.Name != "Guest" {
		t.Fatalf("unexpected guest actor %#v", guest.Actor)
	}
}

func TestAuthUnavailableWithoutCollaborators(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil, ServiceConfig{})
	if _, err := svc.Login(context.Background(), "a@b.de", "password1"); !errors.Is(err, ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable, got %v", err)
	}
	if _, err := svc.Authenticate("x"); !errors.Is(err, ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable, got %v", err)
	}
}

func TestSummaryCountsAndDeadline(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 2, 21, 14, 30, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := WithActor(context.Background(), Actor{ContactID: "c1", Name: " Sofia "})
	past := now.AddDate(0, 0, -2)
	tomorrow := now.AddDate(0, 0, 1)
	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 1, 0)
	today := now
	_, _ = svc.CreateTask(ctx, CreateTaskInput{Title: "a", Priority: domain.PriorityUrgent, DueDate: &later, AssignedTo: []string{"c1"}})
	_, _ = svc.CreateTask(ctx, CreateTaskInput{Title: "b", Status: domain.StatusInProgress, DueDate: &past})
	_, _ = svc.CreateTask(ctx, CreateTaskInput{Title: "c", Status: domain.StatusDone, Priority: domain.PriorityMedium, DueDate: &today})
	_, _ = svc.CreateTask(ctx, CreateTaskInput{Title: "d", Status: domain.StatusAwaitFeedback, Priority: domain.PriorityLow, DueDate: &soon})
	_, _ = svc.CreateTask(ctx, CreateTaskInput{Title: "e", Status: domain.StatusDone, Priority: domain.PriorityMedium, DueDate: &tomorrow, AssignedTo: []string{"c1"}})

	sum, err := svc.Summary(ctx, "")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Todo != 1 || sum.InProgress != 1 || sum.AwaitFeedback != 1 || sum.Done != 2 || sum.Total != 5 || sum.Urgent != 1 {
		t.Fatalf("unexpected counts %#v", sum)
	}
	if sum.Greeting != "Good afternoon" || sum.Name != "Sofia" {
		t.Fatalf("unexpected greeting %q %q", sum.Greeting, sum.Name)
	}
	// Done tasks still count toward the upcoming deadline.
	if sum.NextDeadline == nil || sum.NextDeadline.Day() != today.Day() || sum.NextDeadlinePriority != domain.PriorityMedium {
		t.Fatalf("unexpected deadline %v %q", sum.NextDeadline, sum.NextDeadlinePriority)
	}
	if sum.DeadlineCaption() != "Upcoming Deadline" {
		t.Fatalf("unexpected caption %q", sum.DeadlineCaption())
	}

	mine, err := svc.Summary(ctx, "c1")
	if err != nil {
		t.Fatalf("Summary(c1) error = %v", err)
	}
	if mine.Todo != 1 || mine.InProgress != 0 || mine.AwaitFeedback != 0 || mine.Done != 1 || mine.Total != 2 || mine.Urgent != 1 {
		t.Fatalf("expected assignee-scoped counts, got %#v", mine)
	}
	if mine.NextDeadline == nil || mine.NextDeadline.Day() != tomorrow.Day() || mine.NextDeadlinePriority != domain.PriorityMedium {
		t.Fatalf("expected assignee-scoped deadline, got %#v", mine)
	}
	none, _ := svc.Summary(ctx, "c2")
	if none.Total != 0 || none.Todo != 0 || none.Urgent != 0 {
		t.Fatalf("expected empty counts for c2, got %#v", none)
	}
	if none.DeadlineLabel() != "No tasks" || none.DeadlineCaption() != "No deadline" {
		t.Fatalf("unexpected empty deadline %q %q", none.DeadlineLabel(), none.DeadlineCaption())
	}
}

// TestSummaryDeadlineUsesLocalCalendarDate verifies a task due on the clock's
// local date counts as upcoming even when UTC has already moved on.
func TestSummaryDeadlineUsesLocalCalendarDate(t *testing.T) {
	repo := newFakeRepo()
	zone := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2026, 2, 21, 22, 0, 0, 0, zone)
	svc := newTestService(repo, now)
	due := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateTask(context.Background(), CreateTaskInput{Title: "tonight", DueDate: &due}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	sum, err := svc.Summary(context.Background(), "")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.NextDeadline == nil || !sum.NextDeadline.Equal(due) {
		t.Fatalf("expected today's deadline, got %v", sum.NextDeadline)
	}
}

func TestGreetingBoundaries(t *testing.T) {
	cases := map[int]string{0: "Good night", 5: "Good night", 6: "Good morning", 11: "Good morning", 12: "Good afternoon", 17: "Good afternoon", 18: "Good evening", 23: "Good evening"}
	for hour, want := range cases {
		if got := Greeting(hour); got != want {
			t.Fatalf("Greeting(%d) = %q, want %q", hour, got, want)
		}
	}
}
