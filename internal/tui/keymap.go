package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board key bindings.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	addTask       key.Binding
	taskInfo      key.Binding
	deleteTask    key.Binding
	moveTaskLeft  key.Binding
	moveTaskRight key.Binding
	toggleSubtask key.Binding
	copyTitle     key.Binding
	search        key.Binding
	summary       key.Binding
	contacts      key.Binding
	back          key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		deleteTask:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		moveTaskLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		moveTaskRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
		toggleSubtask: key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "toggle subtask")),
		copyTitle:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		summary:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "summary")),
		contacts:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "contacts")),
		back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.taskInfo, k.moveTaskLeft, k.moveTaskRight, k.search, k.summary, k.toggleHelp, k.quit,
	}
}

// FullHelp returns every binding grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.taskInfo, k.deleteTask, k.copyTitle, k.search, k.summary, k.contacts, k.reload, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.moveTaskLeft, k.moveTaskRight},
		{k.toggleSubtask, k.back},
	}
}
