package tui

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/join/internal/dnd"
)

// pointerPress tracks a held left button until it becomes a drag or is released.
type pointerPress struct {
	taskID   string
	start    dnd.Point
	dragging bool
	over     *dnd.Column
	data     *dnd.DataTransfer
}

func mousePoint(x, y int) dnd.Point {
	return dnd.Point{X: x, Y: y}
}

// handleMouseClick selects what was clicked and starts a press on cards.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeBoard || msg.Button != tea.MouseLeft {
		return m, nil
	}
	p := mousePoint(msg.X, msg.Y)
	m.selectAt(p)

	card, ok := m.engine.Surface().NodeAt(p).(*dnd.Card)
	if !ok || card == nil {
		m.press = nil
		return m, nil
	}
	if m.inputMode == dnd.ModeTouch {
		out := m.engine.Dispatch(dnd.Event{Type: dnd.EventTouchStart, Target: card, Point: p})
		if out.Timer == nil {
			return m, nil
		}
		token := out.Timer.Token
		return m, tea.Tick(out.Timer.Delay, func(time.Time) tea.Msg {
			return longPressMsg{token: token}
		})
	}
	m.press = &pointerPress{taskID: card.TaskID, start: p, data: &dnd.DataTransfer{}}
	return m, nil
}

// handleMouseMotion turns held-button motion into drag or touch move events.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	p := mousePoint(msg.X, msg.Y)
	if m.inputMode == dnd.ModeTouch {
		if m.engine.Session() == nil {
			return m, nil
		}
		m.engine.Dispatch(dnd.Event{Type: dnd.EventTouchMove, Point: p})
		return m, nil
	}

	press := m.press
	if press == nil || p == press.start && !press.dragging {
		return m, nil
	}
	surface := m.engine.Surface()
	if !press.dragging {
		out := m.engine.Dispatch(dnd.Event{Type: dnd.EventDragStart, Target: surface.Card(press.taskID), Point: press.start, Data: press.data})
		if !out.Handled {
			m.press = nil
			return m, nil
		}
		press.dragging = true
		m.status = "dragging " + m.taskTitle(press.taskID)
	}

	target := surface.NodeAt(p)
	col, _ := m.engine.Registry().Resolve(p)
	if press.over != nil && press.over != col {
		m.engine.Dispatch(dnd.Event{Type: dnd.EventDragLeave, Target: press.over, Related: target, Point: p, Data: press.data})
	}
	press.over = col
	if target != nil {
		m.engine.Dispatch(dnd.Event{Type: dnd.EventDragOver, Target: target, Point: p, Data: press.data})
	}
	return m, nil
}

// handleMouseRelease drops a drag or ends a touch.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	p := mousePoint(msg.X, msg.Y)
	if m.inputMode == dnd.ModeTouch {
		s := m.engine.Session()
		if s == nil {
			return m, nil
		}
		taskID := s.TaskID
		held := s.Phase != dnd.PhaseCancelled
		out := m.engine.Dispatch(dnd.Event{Type: dnd.EventTouchEnd, Point: p})
		return m, m.afterDrop(taskID, out, held && out.Handled)
	}

	press := m.press
	m.press = nil
	if press == nil || !press.dragging {
		return m, nil
	}
	surface := m.engine.Surface()
	var out dnd.Outcome
	if target := surface.NodeAt(p); target != nil {
		out = m.engine.Dispatch(dnd.Event{Type: dnd.EventDrop, Target: target, Point: p, Data: press.data})
	}
	m.engine.Dispatch(dnd.Event{Type: dnd.EventDragEnd, Point: p, Data: press.data})
	return m, m.afterDrop(press.taskID, out, true)
}

// afterDrop reports a finished gesture and persists any committed move.
func (m *Model) afterDrop(taskID string, out dnd.Outcome, dragged bool) tea.Cmd {
	if !out.Moved {
		if dragged && m.status == "dragging "+m.taskTitle(taskID) {
			m.status = "drop cancelled"
		}
		return nil
	}
	m.focusTask(taskID)
	if task, ok := m.engine.Board().Task(taskID); ok {
		m.status = fmt.Sprintf("moved %q to %s", task.Title, task.Status.Label())
	}
	return m.persist(out.Jobs)
}

// selectAt moves the keyboard cursor to the card or column under p.
func (m *Model) selectAt(p dnd.Point) {
	switch node := m.engine.Surface().NodeAt(p).(type) {
	case *dnd.Card:
		m.focusTask(node.TaskID)
	case *dnd.Column:
		for idx, col := range m.engine.Surface().Columns() {
			if col == node {
				m.selectedColumn = idx
				m.clampSelections()
				return
			}
		}
	}
}

// handleMouseWheel scrolls the cursor through the selected column or overlay list.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		return m, nil
	}
	delta := 0
	switch msg.Button {
	case tea.MouseWheelUp:
		delta = -1
	case tea.MouseWheelDown:
		delta = 1
	default:
		return m, nil
	}
	switch m.mode {
	case modeBoard:
		m.selectedTask += delta
		m.clampSelections()
	case modeSearchResults:
		m.searchIndex = clamp(m.searchIndex+delta, 0, len(m.searchMatches)-1)
	}
	return m, nil
}
