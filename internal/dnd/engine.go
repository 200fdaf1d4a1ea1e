package dnd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/join/internal/domain"
)

// DefaultLongPress is how long a touch must be held before it becomes a drag.
const DefaultLongPress = 500 * time.Millisecond

// FailurePolicy decides what happens when a status write fails.
type FailurePolicy string

const (
	// FailureLog only logs the failure; the board keeps the optimistic move.
	FailureLog FailurePolicy = "log"
	// FailureNotify logs and reports the failure to the caller.
	FailureNotify FailurePolicy = "notify"
	// FailureRollback notifies and moves the card back when no newer move exists.
	FailureRollback FailurePolicy = "rollback"
)

var ErrInvalidFailurePolicy = errors.New("invalid failure policy")

// ParseFailurePolicy normalizes raw into a policy. Empty input yields FailureNotify.
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return FailureNotify, nil
	case FailureLog, FailureNotify, FailureRollback:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFailurePolicy, raw)
	}
}

// Options configures an Engine.
type Options struct {
	PlaceholderWidth int
	LongPress        time.Duration
	FailurePolicy    FailurePolicy
	EmptyMessages    map[domain.Status]string
	CardHeight       func(domain.Task) int
	HeaderHeight     int
	Gap              int
	Clock            func() time.Time
	Logger           *log.Logger
}

// Notice is what the caller should surface after a persistence result settles.
type Notice struct {
	Err      error
	TaskID   string
	Reverted bool
}

// Engine owns one board's surface, registry, placeholder and drag session.
// All methods except Board reads must run on a single goroutine.
type Engine struct {
	opts        Options
	board       *Board
	surface     *Surface
	registry    *Registry
	placeholder *PlaceholderManager
	mapper      *StatusMapper
	session     *Session
	nextToken   uint64
}

func NewEngine(board *Board, opts Options) *Engine {
	if opts.LongPress <= 0 {
		opts.LongPress = DefaultLongPress
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = FailureNotify
	}
	if opts.CardHeight == nil {
		opts.CardHeight = func(domain.Task) int { return 1 }
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	surface := NewSurface(opts.EmptyMessages)
	surface.HeaderHeight = opts.HeaderHeight
	surface.Gap = opts.Gap
	e := &Engine{
		opts:        opts,
		board:       board,
		surface:     surface,
		registry:    NewRegistry(surface),
		placeholder: NewPlaceholderManager(surface, opts.PlaceholderWidth),
		mapper:      NewStatusMapper(board, surface, opts.Clock),
	}
	e.Render()
	return e
}

func (e *Engine) Board() *Board       { return e.board }
func (e *Engine) Surface() *Surface   { return e.surface }
func (e *Engine) Registry() *Registry { return e.registry }

// Placeholder returns the live placeholder, or nil.
func (e *Engine) Placeholder() *Placeholder { return e.placeholder.Current() }

// Session returns the gesture in flight, or nil when idle.
func (e *Engine) Session() *Session { return e.session }

// Layout positions the columns and re-renders.
func (e *Engine) Layout(rects map[domain.Status]Rect) {
	for status, r := range rects {
		e.surface.SetColumnRect(status, r)
	}
	e.Render()
}

// Render rebuilds the surface from the board. Any gesture in flight is abandoned.
func (e *Engine) Render() {
	e.abandon()
	e.surface.Populate(e.board.Tasks(), e.opts.CardHeight)
	e.surface.CheckEmptyColumns()
	e.registry.Invalidate()
}

// Dispatch routes ev to the controller for its type.
func (e *Engine) Dispatch(ev Event) Outcome {
	switch ev.Type {
	case EventDragStart:
		return e.dragStart(ev)
	case EventDragOver:
		return e.dragOver(ev)
	case EventDragLeave:
		return e.dragLeave(ev)
	case EventDrop:
		return e.drop(ev)
	case EventDragEnd:
		return e.dragEnd(ev)
	case EventTouchStart:
		return e.touchStart(ev)
	case EventTouchMove:
		return e.touchMove(ev)
	case EventTouchEnd:
		return e.touchEnd(ev, true)
	case EventTouchCancel:
		return e.touchEnd(ev, false)
	default:
		return Outcome{}
	}
}

// Settle applies the failure policy to a finished persistence job.
func (e *Engine) Settle(res PersistResult) Notice {
	if res.Err == nil {
		e.opts.Logger.Debug("task status persisted", "task_id", res.Job.TaskID, "status", res.Job.Status)
		return Notice{}
	}
	e.opts.Logger.Error("persist task status failed", "task_id", res.Job.TaskID, "status", res.Job.Status, "err", res.Err)
	switch e.opts.FailurePolicy {
	case FailureLog:
		return Notice{}
	case FailureRollback:
		notice := Notice{Err: res.Err, TaskID: res.Job.TaskID}
		if e.board.Revert(res.Job.TaskID, res.Job.Previous, res.Job.Seq, e.opts.Clock()) {
			e.restoreCard(res.Job.TaskID, res.Job.Previous)
			notice.Reverted = true
			e.opts.Logger.Warn("task status rolled back", "task_id", res.Job.TaskID, "status", res.Job.Previous)
		}
		return notice
	default:
		return Notice{Err: res.Err, TaskID: res.Job.TaskID}
	}
}

func (e *Engine) restoreCard(taskID string, status domain.Status) {
	card := e.surface.Card(taskID)
	col := e.surface.Column(status)
	if card == nil || col == nil {
		return
	}
	if e.session != nil && e.session.Card == card {
		e.abandon()
	}
	col.Container().Append(card)
	e.surface.CheckEmptyColumns()
	e.surface.Reflow()
}

func (e *Engine) commit(card *Card, col *Column) Outcome {
	out := Outcome{Handled: true}
	job, ok := e.mapper.CommitMove(card.TaskID, col)
	if !ok {
		return out
	}
	e.surface.Reflow()
	out.Moved = true
	out.Jobs = append(out.Jobs, job)
	e.opts.Logger.Debug("task moved", "task_id", job.TaskID, "from", job.Previous, "to", job.Status)
	return out
}

// abandon clears all gesture visuals without committing anything.
func (e *Engine) abandon() {
	if e.session != nil && e.session.Card != nil {
		card := e.session.Card
		card.Dragging = false
		card.Rotation = 0
		card.ZIndex = 0
		card.ResetPosition()
	}
	e.placeholder.Remove()
	e.surface.SetHighlight(nil)
	e.session = nil
}
