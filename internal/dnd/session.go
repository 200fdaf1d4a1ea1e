package dnd

import "time"

// Mode identifies the input family driving a session.
type Mode int

const (
	ModePointer Mode = iota
	ModeTouch
)

func (m Mode) String() string {
	if m == ModeTouch {
		return "touch"
	}
	return "pointer"
}

// Phase is the state of a drag session.
type Phase int

const (
	PhaseIdle Phase = iota
	// PhasePending is a touch held but not yet long enough to drag.
	PhasePending
	// PhaseActive is a drag in progress.
	PhaseActive
	// PhaseCancelled is a touch that moved before the long press fired.
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Session is the state of the one gesture in flight.
type Session struct {
	Mode      Mode
	Phase     Phase
	TaskID    string
	Card      *Card
	Origin    *Column
	Candidate *Column

	Start       Point
	StartOffset Point
	StartedAt   time.Time

	token uint64
}

// Token identifies the long-press timer armed for this session.
func (s *Session) Token() uint64 {
	return s.token
}

// Timer asks the caller to call Engine.Elapse(Token) after Delay.
type Timer struct {
	Token uint64
	Delay time.Duration
}

// DataTransfer carries the drag payload between pointer events of one drag.
type DataTransfer struct {
	taskID string
}

func (d *DataTransfer) SetTaskID(id string) {
	d.taskID = id
}

func (d *DataTransfer) TaskID() string {
	if d == nil {
		return ""
	}
	return d.taskID
}
