package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/join/internal/app"
	"github.com/evanschultz/join/internal/dnd"
	"github.com/evanschultz/join/internal/domain"
)

// Service is the board surface the TUI drives.
type Service interface {
	ListTasks(context.Context) ([]domain.Task, error)
	ListContacts(context.Context) ([]domain.Contact, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	UpdateTaskStatus(context.Context, string, domain.Status) error
	ToggleSubtask(context.Context, string, int) (domain.Task, error)
	DeleteTask(context.Context, string) error
	SearchTasks(context.Context, string) ([]domain.Task, error)
	Summary(context.Context, string) (app.Summary, error)
}

// viewMode selects which surface receives key input.
type viewMode int

const (
	modeBoard viewMode = iota
	modeAddTask
	modeSearch
	modeSearchResults
	modeTaskInfo
	modeSummary
	modeContacts
)

// loadedMsg carries a full board reload.
type loadedMsg struct {
	tasks    []domain.Task
	contacts []domain.Contact
	err      error
}

// actionMsg carries the result of one service mutation.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	focusTaskID string
}

// searchResultsMsg carries search matches.
type searchResultsMsg struct {
	query   string
	matches []domain.Task
	err     error
}

// summaryMsg carries the dashboard summary.
type summaryMsg struct {
	summary app.Summary
	err     error
}

// persistedMsg carries one finished status write back onto the update loop.
type persistedMsg struct {
	result dnd.PersistResult
}

// longPressMsg fires when a held touch has waited out the long-press delay.
type longPressMsg struct {
	token uint64
}

// Model is the board TUI.
type Model struct {
	svc          Service
	engine       *dnd.Engine
	dragOpts     dnd.Options
	inputMode    dnd.Mode
	showSubtasks bool
	logger       *log.Logger
	copyText     func(string) error
	clock        func() time.Time
	viewer       string

	keys keyMap
	help help.Model
	md   *markdownRenderer

	ready  bool
	width  int
	height int
	err    error
	status string
	mode   viewMode

	selectedColumn int
	selectedTask   int
	pendingFocusID string

	contacts []domain.Contact
	summary  *app.Summary

	searchInput   textinput.Model
	addInput      textinput.Model
	searchQuery   string
	searchMatches []domain.Task
	searchIndex   int

	infoTaskID  string
	infoSubtask int

	press     *pointerPress
	inflight  int
	unsettled map[string]dnd.PersistJob
}

// NewModel constructs a board model over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "title, description, category"
	searchInput.CharLimit = 120
	addInput := textinput.New()
	addInput.Prompt = "title: "
	addInput.Placeholder = "new task title"
	addInput.CharLimit = 200

	m := Model{
		svc:          svc,
		inputMode:    dnd.ModePointer,
		showSubtasks: true,
		logger:       log.New(io.Discard),
		copyText:     clipboard.WriteAll,
		clock:        time.Now,
		keys:         newKeyMap(),
		help:         h,
		md:           &markdownRenderer{},
		status:       "loading...",
		searchInput:  searchInput,
		addInput:     addInput,
		unsettled:    map[string]dnd.PersistJob{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}

	engineOpts := m.dragOpts
	engineOpts.HeaderHeight = columnHeaderHeight
	engineOpts.Gap = cardGap
	engineOpts.CardHeight = cardHeightFunc(m.showSubtasks)
	engineOpts.Clock = m.clock
	if engineOpts.Logger == nil {
		engineOpts.Logger = m.logger
	}
	m.engine = dnd.NewEngine(dnd.NewBoard(nil), engineOpts)
	return m
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update applies one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.engine.Layout(m.layoutRects())
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.contacts = msg.contacts
		m.press = nil
		m.engine.Board().Replace(msg.tasks)
		m.reapplyUnsettled()
		m.engine.Render()
		m.clampSelections()
		if m.pendingFocusID != "" {
			m.focusTask(m.pendingFocusID)
			m.pendingFocusID = ""
		}
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.pendingFocusID = msg.focusTaskID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case persistedMsg:
		m.inflight = max(0, m.inflight-1)
		if job, ok := m.unsettled[msg.result.Job.TaskID]; ok && job.Seq == msg.result.Job.Seq {
			delete(m.unsettled, job.TaskID)
		}
		notice := m.engine.Settle(msg.result)
		if notice.Err == nil {
			return m, nil
		}
		title := notice.TaskID
		if task, ok := m.engine.Board().Task(notice.TaskID); ok {
			title = task.Title
		}
		if notice.Reverted {
			m.focusTask(notice.TaskID)
			m.status = fmt.Sprintf("could not save %q, moved back: %v", title, notice.Err)
		} else {
			m.status = fmt.Sprintf("could not save %q: %v", title, notice.Err)
		}
		return m, nil

	case longPressMsg:
		if out := m.engine.Elapse(msg.token); out.Handled {
			if s := m.engine.Session(); s != nil {
				m.status = "dragging " + m.taskTitle(s.TaskID)
			}
		}
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.status = "search failed: " + msg.err.Error()
			m.mode = modeBoard
			return m, nil
		}
		m.searchQuery = msg.query
		m.searchMatches = msg.matches
		m.searchIndex = 0
		if len(msg.matches) == 0 {
			m.mode = modeBoard
			m.status = "no matches"
			return m, nil
		}
		m.mode = modeSearchResults
		m.status = fmt.Sprintf("%d matches", len(msg.matches))
		return m, nil

	case summaryMsg:
		if msg.err != nil {
			m.status = "summary failed: " + msg.err.Error()
			m.mode = modeBoard
			return m, nil
		}
		summary := msg.summary
		m.summary = &summary
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeBoard {
			return m.handleModeKey(msg)
		}
		return m.handleBoardKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// handleBoardKey handles keys while the board has focus.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case m.help.ShowAll && key.Matches(msg, m.keys.back):
		m.help.ShowAll = false
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveLeft):
		m.selectedColumn = clamp(m.selectedColumn-1, 0, len(domain.Statuses())-1)
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.selectedColumn = clamp(m.selectedColumn+1, 0, len(domain.Statuses())-1)
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selectedTask--
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selectedTask++
		m.clampSelections()
		return m, nil
	case key.Matches(msg, m.keys.moveTaskLeft):
		return m.shiftSelected(-1)
	case key.Matches(msg, m.keys.moveTaskRight):
		return m.shiftSelected(1)
	case key.Matches(msg, m.keys.addTask):
		m.mode = modeAddTask
		m.addInput.SetValue("")
		m.status = "new task in " + m.selectedStatus().Label()
		return m, m.addInput.Focus()
	case key.Matches(msg, m.keys.taskInfo):
		task, ok := m.selectedTaskValue()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		m.infoSubtask = 0
		return m, nil
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTaskValue()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.deleteTask(task)
	case key.Matches(msg, m.keys.copyTitle):
		m.copySelectedTitle()
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		m.status = "search"
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.summary):
		m.mode = modeSummary
		m.summary = nil
		return m, m.loadSummary
	case key.Matches(msg, m.keys.contacts):
		m.mode = modeContacts
		return m, nil
	default:
		return m, nil
	}
}

// handleModeKey handles keys for overlays and inputs.
func (m Model) handleModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddTask:
		switch msg.String() {
		case "esc":
			m.addInput.Blur()
			m.mode = modeBoard
			m.status = "cancelled"
			return m, nil
		case "enter":
			title := strings.TrimSpace(m.addInput.Value())
			if title == "" {
				m.status = "title required"
				return m, nil
			}
			m.addInput.Blur()
			m.mode = modeBoard
			return m, m.createTask(title, m.selectedStatus())
		}
		var cmd tea.Cmd
		m.addInput, cmd = m.addInput.Update(msg)
		return m, cmd

	case modeSearch:
		switch msg.String() {
		case "esc":
			m.searchInput.Blur()
			m.mode = modeBoard
			m.status = "ready"
			return m, nil
		case "enter":
			m.searchInput.Blur()
			return m, m.runSearch(m.searchInput.Value())
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd

	case modeSearchResults:
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
			m.mode = modeBoard
		case key.Matches(msg, m.keys.moveUp):
			m.searchIndex = clamp(m.searchIndex-1, 0, len(m.searchMatches)-1)
		case key.Matches(msg, m.keys.moveDown):
			m.searchIndex = clamp(m.searchIndex+1, 0, len(m.searchMatches)-1)
		case msg.String() == "enter":
			if len(m.searchMatches) > 0 {
				match := m.searchMatches[clamp(m.searchIndex, 0, len(m.searchMatches)-1)]
				m.focusTask(match.ID)
				m.status = "jumped to " + match.Title
			}
			m.mode = modeBoard
		}
		return m, nil

	case modeTaskInfo:
		task, ok := m.engine.Board().Task(m.infoTaskID)
		if !ok {
			m.mode = modeBoard
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
			m.mode = modeBoard
		case key.Matches(msg, m.keys.moveUp):
			m.infoSubtask = clamp(m.infoSubtask-1, 0, len(task.Subtasks)-1)
		case key.Matches(msg, m.keys.moveDown):
			m.infoSubtask = clamp(m.infoSubtask+1, 0, len(task.Subtasks)-1)
		case key.Matches(msg, m.keys.toggleSubtask):
			if len(task.Subtasks) == 0 {
				m.status = "task has no subtasks"
				return m, nil
			}
			return m, m.toggleSubtask(task.ID, clamp(m.infoSubtask, 0, len(task.Subtasks)-1))
		case key.Matches(msg, m.keys.copyTitle):
			m.copySelectedTitle()
		}
		return m, nil

	case modeSummary:
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.summary):
			m.mode = modeBoard
		case key.Matches(msg, m.keys.reload):
			return m, m.loadSummary
		}
		return m, nil

	case modeContacts:
		if key.Matches(msg, m.keys.back) || key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.contacts) {
			m.mode = modeBoard
		}
		return m, nil
	}
	return m, nil
}

// shiftSelected moves the selected task delta columns and persists the new status.
func (m Model) shiftSelected(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskValue()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	target := task.Status.Shift(delta)
	if target == task.Status {
		m.status = fmt.Sprintf("%q is already in %s", task.Title, task.Status.Label())
		return m, nil
	}
	prev, seq, ok := m.engine.Board().Move(task.ID, target, "", m.clock())
	if !ok {
		m.status = "move failed"
		return m, nil
	}
	m.engine.Render()
	m.focusTask(task.ID)
	m.status = fmt.Sprintf("moved %q to %s", task.Title, target.Label())
	return m, m.persist([]dnd.PersistJob{{TaskID: task.ID, Status: target, Previous: prev, Seq: seq}})
}

// persist runs each job off the update loop and reports back with persistedMsg.
func (m *Model) persist(jobs []dnd.PersistJob) tea.Cmd {
	if len(jobs) == 0 {
		return nil
	}
	svc := m.svc
	cmds := make([]tea.Cmd, 0, len(jobs))
	for _, job := range jobs {
		m.inflight++
		m.unsettled[job.TaskID] = job
		cmds = append(cmds, func() tea.Msg {
			return persistedMsg{result: job.Run(context.Background(), svc)}
		})
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

// reapplyUnsettled keeps moves whose writes are still in flight on top of a reload.
func (m *Model) reapplyUnsettled() {
	now := m.clock()
	for id, job := range m.unsettled {
		if !m.engine.Board().Reapply(id, job.Status, job.Seq, now) {
			delete(m.unsettled, id)
		}
	}
}

// loadData loads tasks and contacts.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	tasks, err := m.svc.ListTasks(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	contacts, err := m.svc.ListContacts(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{tasks: tasks, contacts: contacts}
}

// loadSummary loads the dashboard summary for the viewer.
func (m Model) loadSummary() tea.Msg {
	summary, err := m.svc.Summary(context.Background(), m.viewer)
	return summaryMsg{summary: summary, err: err}
}

func (m Model) createTask(title string, status domain.Status) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.CreateTask(context.Background(), app.CreateTaskInput{Title: title, Status: status})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "created " + task.Title, reload: true, focusTaskID: task.ID}
	}
}

func (m Model) deleteTask(task domain.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.DeleteTask(context.Background(), task.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "deleted " + task.Title, reload: true}
	}
}

func (m Model) toggleSubtask(taskID string, index int) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.ToggleSubtask(context.Background(), taskID, index)
		if err != nil {
			return actionMsg{err: err}
		}
		done, total := task.SubtaskProgress()
		return actionMsg{status: fmt.Sprintf("subtasks %d/%d", done, total), reload: true, focusTaskID: taskID}
	}
}

func (m Model) runSearch(query string) tea.Cmd {
	svc := m.svc
	query = strings.TrimSpace(query)
	return func() tea.Msg {
		matches, err := svc.SearchTasks(context.Background(), query)
		return searchResultsMsg{query: query, matches: matches, err: err}
	}
}

// copySelectedTitle writes the focused task title to the clipboard.
func (m *Model) copySelectedTitle() {
	task, ok := m.selectedTaskValue()
	if m.mode == modeTaskInfo {
		task, ok = m.engine.Board().Task(m.infoTaskID)
	}
	if !ok {
		m.status = "no task selected"
		return
	}
	if err := m.copyText(task.Title); err != nil {
		m.logger.Warn("clipboard write failed", "err", err)
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + task.Title
}

// selectedStatus returns the status of the selected column.
func (m Model) selectedStatus() domain.Status {
	statuses := domain.Statuses()
	return statuses[clamp(m.selectedColumn, 0, len(statuses)-1)]
}

// columnTaskIDs lists the task ids shown in column idx, in display order.
func (m Model) columnTaskIDs(idx int) []string {
	statuses := domain.Statuses()
	if idx < 0 || idx >= len(statuses) {
		return nil
	}
	col := m.engine.Surface().Column(statuses[idx])
	if col == nil {
		return nil
	}
	cards := col.Container().Cards()
	out := make([]string, 0, len(cards))
	for _, card := range cards {
		out = append(out, card.TaskID)
	}
	return out
}

// selectedTaskValue returns the task under the keyboard cursor.
func (m Model) selectedTaskValue() (domain.Task, bool) {
	ids := m.columnTaskIDs(m.selectedColumn)
	if len(ids) == 0 {
		return domain.Task{}, false
	}
	return m.engine.Board().Task(ids[clamp(m.selectedTask, 0, len(ids)-1)])
}

// focusTask moves the cursor onto taskID.
func (m *Model) focusTask(taskID string) bool {
	for colIdx := range domain.Statuses() {
		for taskIdx, id := range m.columnTaskIDs(colIdx) {
			if id == taskID {
				m.selectedColumn = colIdx
				m.selectedTask = taskIdx
				return true
			}
		}
	}
	return false
}

// clampSelections keeps the cursor inside the board.
func (m *Model) clampSelections() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(domain.Statuses())-1)
	m.selectedTask = clamp(m.selectedTask, 0, len(m.columnTaskIDs(m.selectedColumn))-1)
}

func (m Model) taskTitle(taskID string) string {
	if task, ok := m.engine.Board().Task(taskID); ok {
		return task.Title
	}
	return taskID
}

// View renders the board and any overlay.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderView renders the full screen as a string.
func (m Model) renderView() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("join") + "  board"
	header += statusStyle.Render("  [" + m.inputMode.String() + "]")
	if m.searchQuery != "" {
		header += statusStyle.Render("  search: " + truncate(m.searchQuery, 32))
	}
	if m.inflight > 0 {
		header += statusStyle.Render(fmt.Sprintf("  saving %d…", m.inflight))
	}

	statusLine := ""
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		statusLine = statusStyle.Render(truncate(m.status, max(1, m.width)))
	}
	content := strings.Join([]string{header, "", m.renderBoard(), statusLine}, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine
	if overlay := m.renderOverlay(max(24, m.width-8)); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// clamp bounds v to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base on a canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return string(rs[:1])
	}
	return string(rs[:limit-1]) + "…"
}
