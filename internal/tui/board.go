package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/join/internal/dnd"
	"github.com/evanschultz/join/internal/domain"
)

// Board geometry in terminal cells. Column rects are in screen coordinates so
// mouse events hit-test against them directly.
const (
	boardTop           = 2
	columnGap          = 1
	columnHeaderHeight = 2
	cardGap            = 1
	minColumnWidth     = 18
	minColumnHeight    = 8
	footerHeight       = 3
)

// cardHeightFunc sizes a card: title and meta rows, plus a subtask row when shown.
func cardHeightFunc(showSubtasks bool) func(domain.Task) int {
	return func(task domain.Task) int {
		if showSubtasks && len(task.Subtasks) > 0 {
			return 3
		}
		return 2
	}
}

// columnWidth returns the width of one column including its trailing gap.
func (m Model) columnWidth() int {
	n := len(domain.Statuses())
	return max(minColumnWidth, (m.width-columnGap*(n-1))/n)
}

// columnHeight returns the board height available to columns.
func (m Model) columnHeight() int {
	return max(minColumnHeight, m.height-boardTop-footerHeight)
}

// layoutRects places the columns left to right below the header.
func (m Model) layoutRects() map[domain.Status]dnd.Rect {
	cw := m.columnWidth()
	ch := m.columnHeight()
	rects := make(map[domain.Status]dnd.Rect, len(domain.Statuses()))
	for i, status := range domain.Statuses() {
		rects[status] = dnd.Rect{X: i * (cw + columnGap), Y: boardTop, W: cw - 1, H: ch - 1}
	}
	return rects
}

// renderBoard composes columns, cards and the placeholder on one canvas.
func (m Model) renderBoard() string {
	cw := m.columnWidth()
	ch := m.columnHeight()
	width := max(m.width, len(domain.Statuses())*(cw+columnGap))
	canvas := lipgloss.NewCanvas(width, ch)

	selectedID := ""
	if task, ok := m.selectedTaskValue(); ok {
		selectedID = task.ID
	}
	var floating *dnd.Card
	for idx, col := range m.engine.Surface().Columns() {
		canvas.Compose(lipgloss.NewLayer(m.renderColumnFrame(col, idx == m.selectedColumn)).
			X(col.Rect.X).Y(col.Rect.Y - boardTop).Z(0))
		bottom := col.Rect.Bottom()
		for _, item := range col.Container().Items() {
			switch it := item.(type) {
			case *dnd.Card:
				if it.Absolute {
					floating = it
					continue
				}
				if it.Offset.Y > bottom {
					continue
				}
				canvas.Compose(lipgloss.NewLayer(m.renderCard(it, it.TaskID == selectedID)).
					X(it.Offset.X).Y(it.Offset.Y - boardTop).Z(1))
			case *dnd.Placeholder:
				if it.Offset.Y > bottom {
					continue
				}
				canvas.Compose(lipgloss.NewLayer(renderPlaceholder(it, col.Rect.W+1)).
					X(it.Offset.X).Y(it.Offset.Y - boardTop).Z(1))
			}
		}
	}
	if floating != nil {
		canvas.Compose(lipgloss.NewLayer(m.renderCard(floating, false)).
			X(max(0, floating.Pos.X)).Y(max(0, floating.Pos.Y-boardTop)).Z(1 + floating.ZIndex))
	}
	return canvas.Render()
}

// renderColumnFrame draws the column title, rule and empty-state message.
func (m Model) renderColumnFrame(col *dnd.Column, selected bool) string {
	width := col.Rect.W + 1
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	ruleColor := lipgloss.Color("239")
	if col.Highlighted {
		ruleColor = lipgloss.Color("212")
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(muted)
	if selected {
		titleStyle = titleStyle.Foreground(accent)
	}
	if col.Highlighted {
		titleStyle = titleStyle.Foreground(lipgloss.Color("212"))
	}
	count := len(col.Container().Cards())
	title := truncate(fmt.Sprintf("%s (%d)", col.Status.Label(), count), width)

	lines := []string{
		titleStyle.Render(title),
		lipgloss.NewStyle().Foreground(ruleColor).Render(strings.Repeat("─", width)),
	}
	if col.ShowEmpty {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true).Render(truncate(col.EmptyMessage, width)))
	}
	return strings.Join(lines, "\n")
}

// renderCard draws one task card.
func (m Model) renderCard(card *dnd.Card, selected bool) string {
	task, ok := m.engine.Board().Task(card.TaskID)
	if !ok {
		return ""
	}
	width := max(1, card.Width)
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	switch {
	case card.Dragging:
		titleStyle = titleStyle.Foreground(lipgloss.Color("212")).Bold(true)
	case selected:
		titleStyle = titleStyle.Foreground(lipgloss.Color("212")).Bold(true)
	}

	marker := priorityMarker(task.Priority)
	if card.Dragging {
		marker = "↻"
	}
	lines := []string{
		titleStyle.Render(truncate(marker+" "+task.Title, width)),
		metaStyle.Render(truncate(m.cardMeta(task), width)),
	}
	if card.Height >= 3 {
		done, total := task.SubtaskProgress()
		lines = append(lines, metaStyle.Render(truncate(progressBar(done, total, width-6)+fmt.Sprintf(" %d/%d", done, total), width)))
	}
	return strings.Join(lines, "\n")
}

// cardMeta is the second card row: category, due date and assignee initials.
func (m Model) cardMeta(task domain.Task) string {
	parts := make([]string, 0, 3)
	if task.Category != "" {
		parts = append(parts, task.Category)
	}
	if task.DueDate != nil {
		parts = append(parts, task.DueDate.Format("Jan 2"))
	}
	if initials := m.assigneeInitials(task); initials != "" {
		parts = append(parts, initials)
	}
	return "  " + strings.Join(parts, " · ")
}

// assigneeInitials joins the initials of each known assignee.
func (m Model) assigneeInitials(task domain.Task) string {
	if len(task.AssignedTo) == 0 {
		return ""
	}
	byID := make(map[string]domain.Contact, len(m.contacts))
	for _, c := range m.contacts {
		byID[c.ID] = c
	}
	out := make([]string, 0, len(task.AssignedTo))
	for _, id := range task.AssignedTo {
		if c, ok := byID[id]; ok {
			out = append(out, c.Initials())
		}
	}
	return strings.Join(out, " ")
}

// renderPlaceholder draws the dashed drop slot.
func renderPlaceholder(ph *dnd.Placeholder, fallbackWidth int) string {
	width := ph.Width
	if width <= 0 {
		width = fallbackWidth
	}
	height := max(1, ph.Height)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	lines := make([]string, height)
	for i := range lines {
		lines[i] = style.Render(strings.Repeat("┄", max(1, width)))
	}
	return strings.Join(lines, "\n")
}

func priorityMarker(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "▲"
	case domain.PriorityLow:
		return "▽"
	default:
		return "◆"
	}
}

// progressBar renders done/total as a fixed-width bar.
func progressBar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
