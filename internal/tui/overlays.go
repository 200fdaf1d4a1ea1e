package tui

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/join/internal/domain"
)

// searchResultsWindow caps how many matches the results overlay lists.
const searchResultsWindow = 12

// overlayBox frames overlay content.
func overlayBox(content string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width + 4)
	}
	return style.Render(content)
}

// renderOverlay returns the overlay for the current mode, or "" on the bare board.
func (m Model) renderOverlay(maxWidth int) string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	if m.help.ShowAll && m.mode == modeBoard {
		return m.renderHelpOverlay(clamp(maxWidth, 40, 96))
	}
	switch m.mode {
	case modeAddTask:
		lines := []string{
			titleStyle.Render("New task in " + m.selectedStatus().Label()),
			m.addInput.View(),
			hintStyle.Render("enter create • esc cancel"),
		}
		return overlayBox(strings.Join(lines, "\n"), clamp(maxWidth, 24, 64))

	case modeSearch:
		lines := []string{
			titleStyle.Render("Search tasks"),
			m.searchInput.View(),
			hintStyle.Render("enter search • esc cancel"),
		}
		return overlayBox(strings.Join(lines, "\n"), clamp(maxWidth, 24, 64))

	case modeSearchResults:
		return m.renderSearchResults(clamp(maxWidth, 32, 80))

	case modeTaskInfo:
		return m.renderTaskInfo(maxWidth)

	case modeSummary:
		return m.renderSummary(clamp(maxWidth, 32, 64))

	case modeContacts:
		return m.renderContacts(clamp(maxWidth, 32, 72))
	}
	return ""
}

// renderHelpOverlay shows every binding plus the drag gestures.
func (m Model) renderHelpOverlay(width int) string {
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	gestures := []string{
		"drag a card with the mouse to move it to another column",
		"touch mode: hold a card, wait for the long press, then drag",
		"[ and ] move the selected card one column left or right",
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Render("Join help"),
		"",
		hb.View(m.keys),
		"",
		muted.Render(strings.Join(gestures, "\n")),
		muted.Render("press ? or esc to close"),
	}
	return overlayBox(strings.Join(lines, "\n"), width)
}

// renderSearchResults lists matches with a cursor.
func (m Model) renderSearchResults(width int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)

	lines := []string{titleStyle.Render(fmt.Sprintf("Results for %q", m.searchQuery))}
	start := max(0, m.searchIndex-searchResultsWindow+1)
	end := min(len(m.searchMatches), start+searchResultsWindow)
	for idx := start; idx < end; idx++ {
		task := m.searchMatches[idx]
		title := "  " + truncate(task.Title, width-20)
		if idx == m.searchIndex {
			title = selStyle.Render("› " + truncate(task.Title, width-20))
		}
		lines = append(lines, title+hintStyle.Render(" · "+task.Status.Label()))
	}
	lines = append(lines, hintStyle.Render("enter jump • esc close"))
	return overlayBox(strings.Join(lines, "\n"), width)
}

// renderSummary draws the dashboard counters.
func (m Model) renderSummary(width int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.summary == nil {
		return overlayBox(titleStyle.Render("Summary")+"\n"+hintStyle.Render("loading..."), width)
	}
	s := m.summary
	greeting := s.Greeting
	if s.Name != "" {
		greeting += ", " + s.Name
	}
	numStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	row := func(label string, n int) string {
		return fmt.Sprintf("%s %s", numStyle.Render(fmt.Sprintf("%3d", n)), label)
	}
	urgentStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	lines := []string{
		titleStyle.Render(greeting),
		"",
		row(domain.StatusTodo.Label(), s.Todo) + "    " + row(domain.StatusDone.Label(), s.Done),
		"",
		urgentStyle.Render(fmt.Sprintf("%3d", s.Urgent)) + " Urgent    " + numStyle.Render(s.DeadlineLabel()) + " " + hintStyle.Render(s.DeadlineCaption()),
		"",
		row("Tasks in board", s.Total),
		row(domain.StatusInProgress.Label(), s.InProgress),
		row(domain.StatusAwaitFeedback.Label(), s.AwaitFeedback),
		"",
		hintStyle.Render("r refresh • esc close"),
	}
	return overlayBox(strings.Join(lines, "\n"), width)
}

// renderContacts lists contacts grouped under their first letter.
func (m Model) renderContacts(width int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	groupStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))

	lines := []string{titleStyle.Render("Contacts")}
	if len(m.contacts) == 0 {
		lines = append(lines, hintStyle.Render("(no contacts yet)"))
	}
	for _, group := range groupContacts(m.contacts) {
		lines = append(lines, "", groupStyle.Render(group.letter))
		for _, c := range group.contacts {
			color := c.Color
			if color == "" {
				color = domain.DefaultContactColor
			}
			badge := lipgloss.NewStyle().
				Background(lipgloss.Color(color)).
				Foreground(lipgloss.Color("255")).
				Bold(true).
				Render(fmt.Sprintf(" %-2s ", c.Initials()))
			lines = append(lines, badge+" "+truncate(c.Name, width-24)+"  "+hintStyle.Render(truncate(c.Email, 28)))
		}
	}
	lines = append(lines, "", hintStyle.Render("esc close"))
	return overlayBox(strings.Join(lines, "\n"), width)
}

type contactGroup struct {
	letter   string
	contacts []domain.Contact
}

// groupContacts sorts contacts by name and groups them by upper-cased first letter.
func groupContacts(contacts []domain.Contact) []contactGroup {
	sorted := append([]domain.Contact(nil), contacts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	var out []contactGroup
	for _, c := range sorted {
		letter := "#"
		for _, r := range strings.TrimSpace(c.Name) {
			if unicode.IsLetter(r) {
				letter = string(unicode.ToUpper(r))
			}
			break
		}
		if len(out) == 0 || out[len(out)-1].letter != letter {
			out = append(out, contactGroup{letter: letter})
		}
		out[len(out)-1].contacts = append(out[len(out)-1].contacts, c)
	}
	return out
}
