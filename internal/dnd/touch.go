package dnd

// touchZIndex raises a card above its neighbours while it follows a finger.
const touchZIndex = 10

func (e *Engine) touchStart(ev Event) Outcome {
	card := closestCard(ev.Target)
	if card == nil {
		return Outcome{}
	}
	e.abandon()
	e.nextToken++
	e.session = &Session{
		Mode:        ModeTouch,
		Phase:       PhasePending,
		TaskID:      card.TaskID,
		Card:        card,
		Origin:      closestColumn(card),
		Start:       ev.Point,
		StartOffset: card.Offset,
		StartedAt:   e.opts.Clock(),
		token:       e.nextToken,
	}
	return Outcome{Handled: true, Timer: &Timer{Token: e.nextToken, Delay: e.opts.LongPress}}
}

// Elapse fires the long-press timer identified by token. Stale tokens are ignored.
func (e *Engine) Elapse(token uint64) Outcome {
	s := e.session
	if s == nil || s.Mode != ModeTouch || s.Phase != PhasePending || s.token != token {
		return Outcome{}
	}
	e.activate()
	return Outcome{Handled: true}
}

func (e *Engine) activate() {
	s := e.session
	s.Phase = PhaseActive
	s.Card.Dragging = true
	s.Card.ZIndex = touchZIndex
}

// pendingElapsed reports whether the long press has been held long enough even if the
// timer callback has not been delivered yet.
func (e *Engine) pendingElapsed() bool {
	s := e.session
	return s.Phase == PhasePending && e.opts.Clock().Sub(s.StartedAt) >= e.opts.LongPress
}

func (e *Engine) touchMove(ev Event) Outcome {
	s := e.session
	if s == nil || s.Mode != ModeTouch {
		return Outcome{}
	}
	if e.pendingElapsed() {
		e.activate()
	}
	switch s.Phase {
	case PhasePending:
		s.Phase = PhaseCancelled
		return Outcome{Handled: true}
	case PhaseActive:
	default:
		return Outcome{}
	}

	card := s.Card
	card.Absolute = true
	card.Pos = ev.Point.Sub(s.Start).Add(s.StartOffset)
	col, ok := e.registry.Resolve(ev.Point)
	if ok {
		e.placeholder.Show(col, card.Height)
		s.Candidate = col
	} else {
		e.placeholder.Remove()
		s.Candidate = nil
	}
	e.surface.SetHighlight(col)
	return Outcome{Handled: true, Prevented: true}
}

func (e *Engine) touchEnd(ev Event, drop bool) Outcome {
	s := e.session
	if s == nil || s.Mode != ModeTouch {
		return Outcome{}
	}
	if e.pendingElapsed() {
		e.activate()
	}
	active := s.Phase == PhaseActive
	card := s.Card
	card.Dragging = false
	card.ZIndex = 0

	out := Outcome{Handled: true}
	col, ok := e.registry.Resolve(ev.Point)
	e.surface.SetHighlight(nil)
	if active && drop && ok {
		col.Container().Append(card)
		out = e.commit(card, col)
	}
	card.ResetPosition()
	e.placeholder.Remove()
	e.session = nil
	return out
}
