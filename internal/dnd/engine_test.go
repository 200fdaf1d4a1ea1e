package dnd

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// stackedRects lays the four columns out vertically, 300 wide.
func stackedRects() map[domain.Status]Rect {
	return map[domain.Status]Rect{
		domain.StatusTodo:          {X: 0, Y: 0, W: 300, H: 149},
		domain.StatusInProgress:    {X: 0, Y: 150, W: 300, H: 99},
		domain.StatusAwaitFeedback: {X: 0, Y: 250, W: 300, H: 99},
		domain.StatusDone:          {X: 0, Y: 350, W: 300, H: 149},
	}
}

func newTestEngine(t *testing.T, policy FailurePolicy, tasks ...domain.Task) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)}
	e := NewEngine(NewBoard(tasks), Options{
		FailurePolicy: policy,
		HeaderHeight:  40,
		Gap:           16,
		CardHeight:    func(domain.Task) int { return 80 },
		Clock:         clock.Now,
	})
	e.Layout(stackedRects())
	return e, clock
}

func task(id string, status domain.Status) domain.Task {
	return domain.Task{ID: id, Title: id, Status: status, Priority: domain.PriorityMedium}
}

func statusOf(t *testing.T, e *Engine, id string) domain.Status {
	t.Helper()
	got, ok := e.Board().Task(id)
	if !ok {
		t.Fatalf("task %q missing from board", id)
	}
	return got.Status
}

func TestHitTestFirstMatchInclusiveEdges(t *testing.T) {
	cols := []ColumnDescriptor{
		{Status: domain.StatusTodo, Rect: Rect{X: 0, Y: 0, W: 10, H: 10}},
		{Status: domain.StatusDone, Rect: Rect{X: 10, Y: 0, W: 10, H: 10}},
	}
	got, ok := HitTest(Point{X: 10, Y: 10}, cols)
	if !ok || got.Status != domain.StatusTodo {
		t.Fatalf("expected shared edge to resolve to first column, got %v %v", got.Status, ok)
	}
	got, ok = HitTest(Point{X: 20, Y: 0}, cols)
	if !ok || got.Status != domain.StatusDone {
		t.Fatalf("expected right edge inclusive, got %v %v", got.Status, ok)
	}
	if _, ok := HitTest(Point{X: 21, Y: 5}, cols); ok {
		t.Fatal("expected miss outside all columns")
	}
	if _, ok := HitTest(Point{X: 5, Y: -1}, cols); ok {
		t.Fatal("expected miss above all columns")
	}
}

func TestRegistryCachesUntilInvalidated(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify)
	reg := e.Registry()
	before := reg.buildCount()
	reg.Columns()
	reg.Columns()
	if reg.buildCount() != before+1 {
		t.Fatalf("expected one rebuild, got %d", reg.buildCount()-before)
	}
	e.Render()
	reg.Columns()
	if reg.buildCount() != before+2 {
		t.Fatalf("expected rebuild after render, got %d", reg.buildCount()-before)
	}
	col, ok := reg.Resolve(Point{X: 100, Y: 400})
	if !ok || col.Status != domain.StatusDone {
		t.Fatalf("expected done column, got %#v", col)
	}
}

func TestPlaceholderShowIsIdempotentAndRetargets(t *testing.T) {
	s := NewSurface(nil)
	m := NewPlaceholderManager(s, 0)
	todo := s.Column(domain.StatusTodo)
	done := s.Column(domain.StatusDone)

	m.Show(todo, 40)
	m.Show(todo, 42)
	if s.Placeholders() != 1 {
		t.Fatalf("expected one placeholder, got %d", s.Placeholders())
	}
	if m.Current().Width != DefaultPlaceholderWidth || m.Current().Height != 42 {
		t.Fatalf("unexpected placeholder size %#v", m.Current())
	}
	m.Show(done, 42)
	if s.Placeholders() != 1 || m.Current().Container().Column() != done {
		t.Fatalf("expected placeholder moved to done, got %d in %v", s.Placeholders(), m.Current().Container().Column())
	}
	m.Remove()
	m.Remove()
	if s.Placeholders() != 0 || m.Current() != nil {
		t.Fatal("expected placeholder released")
	}
}

func TestPointerDragMovesTaskToColumn(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	card := e.Surface().Card("t1")
	inProgress := e.Surface().Column(domain.StatusInProgress)
	data := &DataTransfer{}

	e.Dispatch(Event{Type: EventDragStart, Target: card, Data: data})
	if data.TaskID() != "t1" || !card.Dragging || card.Rotation != -5 {
		t.Fatalf("unexpected drag start state: payload=%q card=%#v", data.TaskID(), card)
	}
	over := e.Dispatch(Event{Type: EventDragOver, Target: inProgress, Data: data})
	if !over.Prevented || e.Placeholder() == nil {
		t.Fatalf("expected dragover to show placeholder, got %#v", over)
	}
	if e.Placeholder().Height != card.Height {
		t.Fatalf("expected placeholder height %d, got %d", card.Height, e.Placeholder().Height)
	}
	out := e.Dispatch(Event{Type: EventDrop, Target: inProgress, Data: data})
	e.Dispatch(Event{Type: EventDragEnd, Target: card, Data: data})

	if got := statusOf(t, e, "t1"); got != domain.StatusInProgress {
		t.Fatalf("expected in-progress, got %q", got)
	}
	if card.Container() != inProgress.Container() {
		t.Fatal("expected card to be a child of the in-progress container")
	}
	if e.Surface().Placeholders() != 0 {
		t.Fatal("expected no placeholder left on the surface")
	}
	if len(out.Jobs) != 1 || out.Jobs[0].Status != domain.StatusInProgress || out.Jobs[0].Previous != domain.StatusTodo {
		t.Fatalf("unexpected persist jobs %#v", out.Jobs)
	}
	if card.Dragging || card.Rotation != 0 || e.Session() != nil {
		t.Fatal("expected drag visuals and session cleared")
	}
}

func TestPointerDropUpdatesColumnMembershipOrder(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify,
		task("t1", domain.StatusTodo),
		task("t2", domain.StatusTodo),
		task("t3", domain.StatusInProgress),
	)
	data := &DataTransfer{}
	inProgress := e.Surface().Column(domain.StatusInProgress)
	e.Dispatch(Event{Type: EventDragStart, Target: e.Surface().Card("t1"), Data: data})
	e.Dispatch(Event{Type: EventDragOver, Target: e.Surface().Card("t3"), Data: data})
	e.Dispatch(Event{Type: EventDrop, Target: e.Surface().Card("t3"), Data: data})

	if todo := e.Board().ByStatus(domain.StatusTodo); len(todo) != 1 || todo[0].ID != "t2" {
		t.Fatalf("expected only t2 left in todo, got %#v", todo)
	}
	got := e.Board().ByStatus(domain.StatusInProgress)
	if len(got) != 2 || got[0].ID != "t3" || got[1].ID != "t1" {
		t.Fatalf("unexpected in-progress order %#v", got)
	}
	cards := inProgress.Container().Cards()
	if len(cards) != 2 || cards[1].TaskID != "t1" {
		t.Fatalf("unexpected in-progress cards %#v", cards)
	}
}

func TestPointerDragLeaveKeepsPlaceholderForInnerTarget(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo), task("t2", domain.StatusDone))
	data := &DataTransfer{}
	done := e.Surface().Column(domain.StatusDone)
	e.Dispatch(Event{Type: EventDragStart, Target: e.Surface().Card("t1"), Data: data})
	e.Dispatch(Event{Type: EventDragOver, Target: done, Data: data})

	e.Dispatch(Event{Type: EventDragLeave, Target: done, Related: e.Surface().Card("t2"), Data: data})
	if e.Placeholder() == nil {
		t.Fatal("expected placeholder kept when moving onto a child")
	}
	e.Dispatch(Event{Type: EventDragLeave, Target: done, Related: e.Surface().Column(domain.StatusTodo), Data: data})
	if e.Placeholder() != nil || e.Surface().Placeholders() != 0 {
		t.Fatal("expected placeholder removed when leaving the column")
	}
	e.Dispatch(Event{Type: EventDragOver, Target: done, Data: data})
	e.Dispatch(Event{Type: EventDragLeave, Target: done, Data: data})
	if e.Placeholder() != nil {
		t.Fatal("expected placeholder removed when leaving the surface")
	}
}

func TestPointerDropUnknownTaskIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	data := &DataTransfer{}
	data.SetTaskID("missing")
	done := e.Surface().Column(domain.StatusDone)
	e.Dispatch(Event{Type: EventDragOver, Target: done, Data: data})
	out := e.Dispatch(Event{Type: EventDrop, Target: done, Data: data})
	if out.Moved || len(out.Jobs) != 0 {
		t.Fatalf("expected no move, got %#v", out)
	}
	if got := statusOf(t, e, "t1"); got != domain.StatusTodo {
		t.Fatalf("expected todo, got %q", got)
	}
	if e.Surface().Placeholders() != 0 {
		t.Fatal("expected placeholder cleared")
	}
}

func TestPointerDropOutsideColumnsChangesNothing(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	data := &DataTransfer{}
	card := e.Surface().Card("t1")
	e.Dispatch(Event{Type: EventDragStart, Target: card, Data: data})
	out := e.Dispatch(Event{Type: EventDrop, Target: e.Surface().NodeAt(Point{X: 900, Y: 900}), Data: data})
	e.Dispatch(Event{Type: EventDragEnd, Target: card, Data: data})
	if out.Handled || out.Moved {
		t.Fatalf("expected drop outside columns ignored, got %#v", out)
	}
	if got := statusOf(t, e, "t1"); got != domain.StatusTodo {
		t.Fatalf("expected todo, got %q", got)
	}
}

func TestTouchLongPressMovesTaskToDone(t *testing.T) {
	e, clock := newTestEngine(t, FailureNotify, task("t2", domain.StatusTodo))
	surface := e.Surface()
	start := Point{X: 100, Y: 100}
	end := Point{X: 100, Y: 400}

	out := e.Dispatch(Event{Type: EventTouchStart, Target: surface.NodeAt(start), Point: start})
	if out.Timer == nil || out.Timer.Delay != DefaultLongPress {
		t.Fatalf("expected long-press timer, got %#v", out)
	}
	clock.Advance(600 * time.Millisecond)
	move := e.Dispatch(Event{Type: EventTouchMove, Target: surface.Card("t2"), Point: end})
	if !move.Prevented || e.Session().Phase != PhaseActive {
		t.Fatalf("expected active drag after long press, got %#v", move)
	}
	card := surface.Card("t2")
	if !card.Absolute || card.Pos != (Point{X: 0, Y: 340}) || card.ZIndex != 10 {
		t.Fatalf("unexpected dragged card %#v", card)
	}
	if e.Placeholder() == nil || e.Placeholder().Container() != surface.Column(domain.StatusDone).Container() {
		t.Fatal("expected placeholder in done column")
	}
	if !surface.Column(domain.StatusDone).Highlighted {
		t.Fatal("expected done column highlighted")
	}

	done := e.Dispatch(Event{Type: EventTouchEnd, Target: card, Point: end})
	if got := statusOf(t, e, "t2"); got != domain.StatusDone {
		t.Fatalf("expected done, got %q", got)
	}
	if len(done.Jobs) != 1 || done.Jobs[0].TaskID != "t2" {
		t.Fatalf("unexpected jobs %#v", done.Jobs)
	}
	if card.Absolute || card.Dragging || card.ZIndex != 0 {
		t.Fatalf("expected card back in flow, got %#v", card)
	}
	if surface.Placeholders() != 0 || surface.Column(domain.StatusDone).Highlighted || e.Session() != nil {
		t.Fatal("expected placeholder, highlight and session released")
	}
}

func TestTouchShortPressNeverDrags(t *testing.T) {
	e, clock := newTestEngine(t, FailureNotify, task("t2", domain.StatusTodo))
	surface := e.Surface()
	start := Point{X: 100, Y: 100}
	end := Point{X: 100, Y: 400}
	out := e.Dispatch(Event{Type: EventTouchStart, Target: surface.NodeAt(start), Point: start})

	clock.Advance(200 * time.Millisecond)
	e.Dispatch(Event{Type: EventTouchMove, Target: surface.Card("t2"), Point: end})
	if e.Session().Phase != PhaseCancelled {
		t.Fatalf("expected cancelled phase, got %v", e.Session().Phase)
	}
	clock.Advance(time.Second)
	if res := e.Elapse(out.Timer.Token); res.Handled {
		t.Fatal("expected cancelled timer to be ignored")
	}
	e.Dispatch(Event{Type: EventTouchMove, Target: surface.Card("t2"), Point: end})
	if surface.Card("t2").Absolute || surface.Placeholders() != 0 {
		t.Fatal("expected no drag visuals after cancelled press")
	}
	res := e.Dispatch(Event{Type: EventTouchEnd, Target: surface.Card("t2"), Point: end})
	if res.Moved {
		t.Fatal("expected no move for a short press")
	}
	if got := statusOf(t, e, "t2"); got != domain.StatusTodo {
		t.Fatalf("expected todo, got %q", got)
	}
}

func TestTouchTimerActivatesAndDropOutsideResets(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	surface := e.Surface()
	card := surface.Card("t1")
	start := Point{X: 10, Y: 50}
	out := e.Dispatch(Event{Type: EventTouchStart, Target: card, Point: start})
	if res := e.Elapse(out.Timer.Token); !res.Handled || !card.Dragging {
		t.Fatal("expected timer to activate the drag")
	}
	e.Dispatch(Event{Type: EventTouchMove, Target: card, Point: Point{X: 200, Y: 200}})
	if surface.Placeholders() != 1 {
		t.Fatalf("expected one placeholder, got %d", surface.Placeholders())
	}
	e.Dispatch(Event{Type: EventTouchMove, Target: card, Point: Point{X: 900, Y: 900}})
	if surface.Placeholders() != 0 {
		t.Fatal("expected placeholder removed outside all columns")
	}
	for _, col := range surface.Columns() {
		if col.Highlighted {
			t.Fatalf("expected no highlight, got %v", col.Status)
		}
	}
	res := e.Dispatch(Event{Type: EventTouchEnd, Target: card, Point: Point{X: 900, Y: 900}})
	if res.Moved || card.Absolute {
		t.Fatalf("expected no move and reset position, got %#v", res)
	}
	if got := statusOf(t, e, "t1"); got != domain.StatusTodo {
		t.Fatalf("expected todo, got %q", got)
	}
}

func TestTouchStaleTimerIgnored(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	card := e.Surface().Card("t1")
	first := e.Dispatch(Event{Type: EventTouchStart, Target: card, Point: Point{X: 10, Y: 50}})
	e.Dispatch(Event{Type: EventTouchEnd, Target: card, Point: Point{X: 10, Y: 50}})
	if res := e.Elapse(first.Timer.Token); res.Handled {
		t.Fatal("expected timer after touchend to be ignored")
	}
	second := e.Dispatch(Event{Type: EventTouchStart, Target: card, Point: Point{X: 10, Y: 50}})
	if res := e.Elapse(first.Timer.Token); res.Handled || card.Dragging {
		t.Fatal("expected stale token to be ignored")
	}
	if res := e.Elapse(second.Timer.Token); !res.Handled {
		t.Fatal("expected current token to activate")
	}
}

func TestTouchStartOutsideCardIsIgnored(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	out := e.Dispatch(Event{Type: EventTouchStart, Target: e.Surface().Column(domain.StatusDone), Point: Point{X: 10, Y: 400}})
	if out.Handled || e.Session() != nil {
		t.Fatal("expected no session without a card")
	}
}

func TestEmptyColumnMessagesToggle(t *testing.T) {
	e, clock := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	surface := e.Surface()
	todo := surface.Column(domain.StatusTodo)
	done := surface.Column(domain.StatusDone)
	if todo.ShowEmpty || !done.ShowEmpty {
		t.Fatal("expected only the empty columns to show their message")
	}
	if done.EmptyMessage != "No tasks Done" {
		t.Fatalf("unexpected empty message %q", done.EmptyMessage)
	}
	start := Point{X: 10, Y: 50}
	e.Dispatch(Event{Type: EventTouchStart, Target: surface.Card("t1"), Point: start})
	clock.Advance(DefaultLongPress)
	e.Dispatch(Event{Type: EventTouchEnd, Target: surface.Card("t1"), Point: Point{X: 10, Y: 400}})
	if !todo.ShowEmpty || done.ShowEmpty {
		t.Fatal("expected empty state to follow the move")
	}
	if todo.EmptyMessage != "No tasks To do" {
		t.Fatalf("unexpected empty message %q", todo.EmptyMessage)
	}
}

func TestAtMostOnePlaceholderDuringDrag(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	data := &DataTransfer{}
	e.Dispatch(Event{Type: EventDragStart, Target: e.Surface().Card("t1"), Data: data})
	for i := 0; i < 3; i++ {
		for _, col := range e.Surface().Columns() {
			e.Dispatch(Event{Type: EventDragOver, Target: col, Data: data})
			if n := e.Surface().Placeholders(); n != 1 {
				t.Fatalf("expected exactly one placeholder, got %d", n)
			}
		}
	}
}

func TestRenderAbandonsGesture(t *testing.T) {
	e, _ := newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	data := &DataTransfer{}
	e.Dispatch(Event{Type: EventDragStart, Target: e.Surface().Card("t1"), Data: data})
	e.Dispatch(Event{Type: EventDragOver, Target: e.Surface().Column(domain.StatusDone), Data: data})
	e.Render()
	if e.Session() != nil || e.Surface().Placeholders() != 0 {
		t.Fatal("expected render to clear gesture state")
	}
}

func TestSettleFailurePolicies(t *testing.T) {
	boom := errors.New("network down")
	move := func(e *Engine) PersistJob {
		data := &DataTransfer{}
		done := e.Surface().Column(domain.StatusDone)
		e.Dispatch(Event{Type: EventDragStart, Target: e.Surface().Card("t1"), Data: data})
		out := e.Dispatch(Event{Type: EventDrop, Target: done, Data: data})
		e.Dispatch(Event{Type: EventDragEnd, Data: data})
		if len(out.Jobs) != 1 {
			t.Fatalf("expected one job, got %#v", out.Jobs)
		}
		return out.Jobs[0]
	}

	e, _ := newTestEngine(t, FailureLog, task("t1", domain.StatusTodo))
	if n := e.Settle(PersistResult{Job: move(e), Err: boom}); n.Err != nil {
		t.Fatalf("expected log policy to stay silent, got %v", n.Err)
	}
	if got := statusOf(t, e, "t1"); got != domain.StatusDone {
		t.Fatalf("expected optimistic status kept, got %q", got)
	}

	e, _ = newTestEngine(t, FailureNotify, task("t1", domain.StatusTodo))
	n := e.Settle(PersistResult{Job: move(e), Err: boom})
	if !errors.Is(n.Err, boom) || n.Reverted {
		t.Fatalf("expected notify without revert, got %#v", n)
	}

	e, _ = newTestEngine(t, FailureRollback, task("t1", domain.StatusTodo))
	n = e.Settle(PersistResult{Job: move(e), Err: boom})
	if !n.Reverted {
		t.Fatalf("expected rollback, got %#v", n)
	}
	if got := statusOf(t, e, "t1"); got != domain.StatusTodo {
		t.Fatalf("expected todo after rollback, got %q", got)
	}
	if e.Surface().Card("t1").Container() != e.Surface().Column(domain.StatusTodo).Container() {
		t.Fatal("expected card back in the todo column")
	}
	if e.Surface().Column(domain.StatusTodo).ShowEmpty {
		t.Fatal("expected todo empty state cleared after rollback")
	}
}

func TestSettleRollbackSkipsSupersededMove(t *testing.T) {
	e, _ := newTestEngine(t, FailureRollback, task("t1", domain.StatusTodo))
	data := &DataTransfer{}
	card := e.Surface().Card("t1")
	e.Dispatch(Event{Type: EventDragStart, Target: card, Data: data})
	first := e.Dispatch(Event{Type: EventDrop, Target: e.Surface().Column(domain.StatusInProgress), Data: data})
	e.Dispatch(Event{Type: EventDragEnd, Target: card, Data: data})
	e.Dispatch(Event{Type: EventDragStart, Target: card, Data: data})
	second := e.Dispatch(Event{Type: EventDrop, Target: e.Surface().Column(domain.StatusDone), Data: data})
	e.Dispatch(Event{Type: EventDragEnd, Target: card, Data: data})

	if n := e.Settle(PersistResult{Job: second.Jobs[0]}); n.Err != nil {
		t.Fatalf("expected success to settle quietly, got %v", n.Err)
	}
	n := e.Settle(PersistResult{Job: first.Jobs[0], Err: errors.New("late failure")})
	if n.Reverted || n.Err == nil {
		t.Fatalf("expected late failure reported without rollback, got %#v", n)
	}
	if got := statusOf(t, e, "t1"); got != domain.StatusDone {
		t.Fatalf("expected latest status kept, got %q", got)
	}
}

type recordingPersister struct {
	mu    sync.Mutex
	calls map[string]domain.Status
	err   error
}

func (p *recordingPersister) UpdateTaskStatus(_ context.Context, taskID string, status domain.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]domain.Status{}
	}
	p.calls[taskID] = status
	return p.err
}

func TestPersistJobRunReportsResult(t *testing.T) {
	p := &recordingPersister{}
	job := PersistJob{TaskID: "a", Status: domain.StatusDone, Previous: domain.StatusTodo, Seq: 3}
	res := job.Run(context.Background(), p)
	if res.Err != nil || res.Job != job {
		t.Fatalf("Run() = %#v", res)
	}
	p.err = errors.New("offline")
	if res := job.Run(context.Background(), p); !errors.Is(res.Err, p.err) {
		t.Fatalf("expected offline error, got %v", res.Err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls["a"] != domain.StatusDone {
		t.Fatalf("unexpected persisted statuses %#v", p.calls)
	}
}

func TestBoardReapplyAfterReplace(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	b := NewBoard([]domain.Task{{ID: "a", Title: "A", Status: domain.StatusTodo}})
	prev, seq, ok := b.Move("a", domain.StatusDone, "", now)
	if !ok || prev != domain.StatusTodo {
		t.Fatalf("Move() = %q %d %v", prev, seq, ok)
	}

	b.Replace([]domain.Task{{ID: "a", Title: "A", Status: domain.StatusTodo}})
	if !b.Reapply("a", domain.StatusDone, seq, now) {
		t.Fatal("expected reapply of the latest commit")
	}
	if task, _ := b.Task("a"); task.Status != domain.StatusDone {
		t.Fatalf("expected reapplied status done, got %q", task.Status)
	}
	if b.Reapply("a", domain.StatusDone, seq-1, now) {
		t.Fatal("expected stale commit to be ignored")
	}
	if !b.Revert("a", domain.StatusTodo, seq, now) {
		t.Fatal("expected revert to still match the reapplied commit")
	}
	if task, _ := b.Task("a"); task.Status != domain.StatusTodo {
		t.Fatalf("expected reverted status todo, got %q", task.Status)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	if p, err := ParseFailurePolicy(""); err != nil || p != FailureNotify {
		t.Fatalf("expected notify default, got %q %v", p, err)
	}
	if p, err := ParseFailurePolicy(" Rollback "); err != nil || p != FailureRollback {
		t.Fatalf("expected rollback, got %q %v", p, err)
	}
	if _, err := ParseFailurePolicy("retry"); !errors.Is(err, ErrInvalidFailurePolicy) {
		t.Fatalf("expected ErrInvalidFailurePolicy, got %v", err)
	}
}
