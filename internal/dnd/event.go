package dnd

// EventType names a gesture event delivered to Engine.Dispatch.
type EventType int

const (
	EventDragStart EventType = iota
	EventDragOver
	EventDragLeave
	EventDrop
	EventDragEnd
	EventTouchStart
	EventTouchMove
	EventTouchEnd
	EventTouchCancel
)

func (t EventType) String() string {
	switch t {
	case EventDragStart:
		return "dragstart"
	case EventDragOver:
		return "dragover"
	case EventDragLeave:
		return "dragleave"
	case EventDrop:
		return "drop"
	case EventDragEnd:
		return "dragend"
	case EventTouchStart:
		return "touchstart"
	case EventTouchMove:
		return "touchmove"
	case EventTouchEnd:
		return "touchend"
	case EventTouchCancel:
		return "touchcancel"
	default:
		return "unknown"
	}
}

// Event is one gesture step. Target is the node under the input; Related is the node
// being entered on drag leave. Data is shared across all pointer events of one drag.
type Event struct {
	Type    EventType
	Target  Node
	Related Node
	Point   Point
	Data    *DataTransfer
}

// Outcome reports what Dispatch did with an event.
type Outcome struct {
	Handled   bool
	Prevented bool
	Moved     bool
	Jobs      []PersistJob
	Timer     *Timer
}
