package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/evanschultz/join/internal/domain"
)

// markdownRenderer caches a glamour renderer per wrap width.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown to styled terminal text, falling back to the raw input.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	wrapWidth := max(24, width)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}
	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// taskMarkdown describes a task's details as markdown. Subtasks are drawn separately.
func taskMarkdown(task domain.Task, contacts []domain.Contact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Title)
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "- **Status:** %s\n", task.Status.Label())
	if task.Category != "" {
		fmt.Fprintf(&b, "- **Category:** %s\n", task.Category)
	}
	if task.Priority != "" {
		fmt.Fprintf(&b, "- **Priority:** %s\n", task.Priority)
	}
	if task.DueDate != nil {
		fmt.Fprintf(&b, "- **Due date:** %s\n", task.DueDate.Format("02/01/2006"))
	}
	if names := assigneeNames(task, contacts); len(names) > 0 {
		fmt.Fprintf(&b, "- **Assigned to:** %s\n", strings.Join(names, ", "))
	}
	return b.String()
}

func assigneeNames(task domain.Task, contacts []domain.Contact) []string {
	byID := make(map[string]string, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c.Name
	}
	out := make([]string, 0, len(task.AssignedTo))
	for _, id := range task.AssignedTo {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// renderTaskInfo draws the task detail overlay with a selectable subtask checklist.
func (m Model) renderTaskInfo(width int) string {
	task, ok := m.engine.Board().Task(m.infoTaskID)
	if !ok {
		return ""
	}
	innerWidth := max(24, min(width, 80)-4)
	body := m.md.render(taskMarkdown(task, m.contacts), innerWidth)

	lines := []string{body}
	if len(task.Subtasks) > 0 {
		done, total := task.SubtaskProgress()
		lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Subtasks %d/%d", done, total)))
		selected := clamp(m.infoSubtask, 0, len(task.Subtasks)-1)
		for idx, st := range task.Subtasks {
			box := "[ ]"
			if st.Done {
				box = "[x]"
			}
			cursor := "  "
			if idx == selected {
				cursor = "› "
			}
			line := truncate(fmt.Sprintf("%s%s %s", cursor, box, st.Title), innerWidth)
			if idx == selected {
				line = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Render(line)
			}
			lines = append(lines, line)
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("space toggle subtask • y copy title • esc close"))
	return overlayBox(strings.Join(lines, "\n"), innerWidth)
}
