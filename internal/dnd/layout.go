package dnd

import (
	"slices"

	"github.com/evanschultz/join/internal/domain"
)

// Node is anything an event can target on the surface.
type Node interface {
	parentNode() Node
}

// Item is a child of a Container: either a *Card or a *Placeholder.
type Item interface {
	Node
	setParent(*Container)
	height() int
}

// Card is the on-surface representation of one task.
type Card struct {
	TaskID string
	Height int
	Width  int

	// Offset is the card's position in normal layout flow.
	Offset Point
	// Pos is the card's position while Absolute is set.
	Pos      Point
	Absolute bool

	Dragging bool
	Rotation int
	ZIndex   int

	parent *Container
}

func (c *Card) parentNode() Node {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

func (c *Card) setParent(p *Container) { c.parent = p }
func (c *Card) height() int            { return c.Height }

// Container returns the container currently holding c.
func (c *Card) Container() *Container { return c.parent }

// Bounds returns the rectangle the card occupies on screen.
func (c *Card) Bounds() Rect {
	at := c.Offset
	if c.Absolute {
		at = c.Pos
	}
	return Rect{X: at.X, Y: at.Y, W: max(c.Width-1, 0), H: max(c.Height-1, 0)}
}

// ResetPosition returns the card to normal layout flow.
func (c *Card) ResetPosition() {
	c.Absolute = false
	c.Pos = Point{}
}

// Placeholder marks the candidate drop slot inside a column.
type Placeholder struct {
	Width  int
	Height int
	Offset Point

	parent *Container
}

func (p *Placeholder) parentNode() Node {
	if p.parent == nil {
		return nil
	}
	return p.parent
}

func (p *Placeholder) setParent(c *Container) { p.parent = c }
func (p *Placeholder) height() int            { return p.Height }

// Container returns the container holding p, or nil when detached.
func (p *Placeholder) Container() *Container { return p.parent }

// Container is the single task list nested in a Column.
type Container struct {
	column *Column
	items  []Item
}

func (c *Container) parentNode() Node { return c.column }

// Column returns the owning column.
func (c *Container) Column() *Column { return c.column }

// Items returns the children in order.
func (c *Container) Items() []Item {
	return slices.Clone(c.items)
}

// Cards returns the card children in order.
func (c *Container) Cards() []*Card {
	out := make([]*Card, 0, len(c.items))
	for _, item := range c.items {
		if card, ok := item.(*Card); ok {
			out = append(out, card)
		}
	}
	return out
}

// Has reports whether item is a direct child.
func (c *Container) Has(item Item) bool {
	return c.indexOf(item) >= 0
}

// Append moves item to the end of c, detaching it from any previous container.
func (c *Container) Append(item Item) {
	detach(item)
	c.items = append(c.items, item)
	item.setParent(c)
}

// InsertBefore moves item directly before ref. A ref outside c appends.
func (c *Container) InsertBefore(item, ref Item) {
	if item == ref {
		return
	}
	detach(item)
	idx := c.indexOf(ref)
	if idx < 0 {
		c.items = append(c.items, item)
	} else {
		c.items = slices.Insert(c.items, idx, item)
	}
	item.setParent(c)
}

// Remove detaches item and reports whether it was a child.
func (c *Container) Remove(item Item) bool {
	idx := c.indexOf(item)
	if idx < 0 {
		return false
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	item.setParent(nil)
	return true
}

// Next returns the item following item, or nil.
func (c *Container) Next(item Item) Item {
	idx := c.indexOf(item)
	if idx < 0 || idx+1 >= len(c.items) {
		return nil
	}
	return c.items[idx+1]
}

func (c *Container) indexOf(item Item) int {
	for i, it := range c.items {
		if it == item {
			return i
		}
	}
	return -1
}

func detach(item Item) {
	var parent *Container
	switch it := item.(type) {
	case *Card:
		parent = it.parent
	case *Placeholder:
		parent = it.parent
	}
	if parent != nil {
		parent.Remove(item)
	}
}

// Column is one of the four status columns on the board.
type Column struct {
	Status       domain.Status
	Rect         Rect
	EmptyMessage string
	ShowEmpty    bool
	Highlighted  bool

	container *Container
}

func (c *Column) parentNode() Node { return nil }

// Container returns the column's task list.
func (c *Column) Container() *Container { return c.container }

// Contains reports whether n is c or nested inside it.
func (c *Column) Contains(n Node) bool {
	for n != nil {
		if col, ok := n.(*Column); ok && col == c {
			return true
		}
		n = n.parentNode()
	}
	return false
}

// Surface is the headless board layout: columns, their task lists, and cards.
type Surface struct {
	columns []*Column
	cards   map[string]*Card

	// HeaderHeight is the space above the first card in each column.
	HeaderHeight int
	// Gap is the vertical space between stacked items.
	Gap int
}

// NewSurface builds an empty surface with one column per board status.
func NewSurface(emptyMessages map[domain.Status]string) *Surface {
	s := &Surface{cards: map[string]*Card{}}
	for _, status := range domain.Statuses() {
		msg := emptyMessages[status]
		if msg == "" {
			msg = status.EmptyMessage()
		}
		col := &Column{Status: status, EmptyMessage: msg, ShowEmpty: true}
		col.container = &Container{column: col}
		s.columns = append(s.columns, col)
	}
	return s
}

// Columns returns the columns in layout order.
func (s *Surface) Columns() []*Column {
	return slices.Clone(s.columns)
}

// Column returns the column for status.
func (s *Surface) Column(status domain.Status) *Column {
	for _, col := range s.columns {
		if col.Status == status {
			return col
		}
	}
	return nil
}

// Card looks up a card by task id.
func (s *Surface) Card(taskID string) *Card {
	return s.cards[taskID]
}

// SetColumnRect positions the column for status.
func (s *Surface) SetColumnRect(status domain.Status, r Rect) {
	if col := s.Column(status); col != nil {
		col.Rect = r
	}
}

// Populate replaces all cards with one per task, placed in the column matching its status.
func (s *Surface) Populate(tasks []domain.Task, heightOf func(domain.Task) int) {
	s.cards = make(map[string]*Card, len(tasks))
	for _, col := range s.columns {
		col.container.items = nil
		col.Highlighted = false
	}
	for _, task := range tasks {
		col := s.Column(task.Status)
		if col == nil {
			continue
		}
		card := &Card{TaskID: task.ID, Height: heightOf(task)}
		s.cards[task.ID] = card
		col.container.Append(card)
	}
	s.Reflow()
}

// Reflow recomputes in-flow offsets for every item.
func (s *Surface) Reflow() {
	for _, col := range s.columns {
		y := col.Rect.Top() + s.HeaderHeight
		for _, item := range col.container.items {
			switch it := item.(type) {
			case *Card:
				it.Offset = Point{X: col.Rect.Left(), Y: y}
				it.Width = col.Rect.W + 1
			case *Placeholder:
				it.Offset = Point{X: col.Rect.Left(), Y: y}
			}
			y += item.height() + s.Gap
		}
	}
}

// NodeAt returns the deepest node under p: an in-flow card, else a column, else nil.
func (s *Surface) NodeAt(p Point) Node {
	for _, col := range s.columns {
		for _, card := range col.container.Cards() {
			if !card.Absolute && card.Bounds().Contains(p) {
				return card
			}
		}
	}
	for _, col := range s.columns {
		if col.Rect.Contains(p) {
			return col
		}
	}
	return nil
}

// Placeholders counts placeholders attached anywhere on the surface.
func (s *Surface) Placeholders() int {
	n := 0
	for _, col := range s.columns {
		for _, item := range col.container.items {
			if _, ok := item.(*Placeholder); ok {
				n++
			}
		}
	}
	return n
}

// SetHighlight marks target as the drop zone and clears every other column.
func (s *Surface) SetHighlight(target *Column) {
	for _, col := range s.columns {
		col.Highlighted = col == target
	}
}

// CheckEmptyColumns toggles the empty-state message of every column.
func (s *Surface) CheckEmptyColumns() {
	for _, col := range s.columns {
		col.ShowEmpty = len(col.container.Cards()) == 0
	}
}

func closestCard(n Node) *Card {
	for n != nil {
		if card, ok := n.(*Card); ok {
			return card
		}
		n = n.parentNode()
	}
	return nil
}

func closestColumn(n Node) *Column {
	for n != nil {
		if col, ok := n.(*Column); ok {
			return col
		}
		n = n.parentNode()
	}
	return nil
}
