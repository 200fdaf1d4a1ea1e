package dnd

// DefaultPlaceholderWidth is the fixed placeholder width used when none is configured.
const DefaultPlaceholderWidth = 252

// PlaceholderManager owns the single drop-slot placeholder.
type PlaceholderManager struct {
	width   int
	current *Placeholder
	surface *Surface
}

func NewPlaceholderManager(surface *Surface, width int) *PlaceholderManager {
	if width <= 0 {
		width = DefaultPlaceholderWidth
	}
	return &PlaceholderManager{width: width, surface: surface}
}

// Show ensures exactly one placeholder exists, sized to height, inside col.
func (m *PlaceholderManager) Show(col *Column, height int) {
	if col == nil {
		return
	}
	if m.current == nil {
		m.current = &Placeholder{Width: m.width}
	}
	m.current.Height = height
	container := col.Container()
	if !container.Has(m.current) {
		container.Append(m.current)
		m.surface.Reflow()
	}
}

// Remove detaches and releases the placeholder. Calling it with none present is a no-op.
func (m *PlaceholderManager) Remove() {
	if m.current == nil {
		return
	}
	if parent := m.current.Container(); parent != nil {
		parent.Remove(m.current)
		m.surface.Reflow()
	}
	m.current = nil
}

// Current returns the live placeholder, or nil.
func (m *PlaceholderManager) Current() *Placeholder {
	return m.current
}
