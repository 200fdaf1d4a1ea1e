package dnd

// dragRotation is the tilt applied to a card while it is dragged, in degrees.
const dragRotation = -5

func (e *Engine) dragStart(ev Event) Outcome {
	card := closestCard(ev.Target)
	if card == nil {
		return Outcome{}
	}
	e.abandon()
	if ev.Data != nil {
		ev.Data.SetTaskID(card.TaskID)
	}
	card.Dragging = true
	card.Rotation = dragRotation
	e.session = &Session{
		Mode:   ModePointer,
		Phase:  PhaseActive,
		TaskID: card.TaskID,
		Card:   card,
		Origin: closestColumn(card),
		Start:  ev.Point,
	}
	return Outcome{Handled: true}
}

func (e *Engine) dragOver(ev Event) Outcome {
	col := closestColumn(ev.Target)
	if col == nil {
		return Outcome{}
	}
	out := Outcome{Handled: true, Prevented: true}
	card := e.draggedCard(ev)
	if card == nil {
		return out
	}
	e.placeholder.Show(col, card.Height)
	if e.session != nil {
		e.session.Candidate = col
	}
	return out
}

func (e *Engine) dragLeave(ev Event) Outcome {
	col := closestColumn(ev.Target)
	if col == nil {
		return Outcome{}
	}
	if ev.Related != nil && col.Contains(ev.Related) {
		return Outcome{Handled: true}
	}
	e.placeholder.Remove()
	if e.session != nil && e.session.Candidate == col {
		e.session.Candidate = nil
	}
	return Outcome{Handled: true}
}

func (e *Engine) drop(ev Event) Outcome {
	col := closestColumn(ev.Target)
	if col == nil {
		return Outcome{}
	}
	defer e.placeholder.Remove()

	card := e.surface.Card(ev.Data.TaskID())
	if card == nil {
		return Outcome{Handled: true, Prevented: true}
	}
	container := col.Container()
	if ph := e.placeholder.Current(); ph != nil && container.Has(ph) {
		container.InsertBefore(card, ph)
	} else {
		container.Append(card)
	}
	out := e.commit(card, col)
	out.Prevented = true
	return out
}

func (e *Engine) dragEnd(ev Event) Outcome {
	card := closestCard(ev.Target)
	if card == nil && e.session != nil {
		card = e.session.Card
	}
	if card != nil {
		card.Dragging = false
		card.Rotation = 0
	}
	e.placeholder.Remove()
	if e.session != nil && e.session.Mode == ModePointer {
		e.session = nil
	}
	return Outcome{Handled: card != nil}
}

// draggedCard finds the card being dragged, from the session or the payload.
func (e *Engine) draggedCard(ev Event) *Card {
	if e.session != nil && e.session.Mode == ModePointer && e.session.Card != nil {
		return e.session.Card
	}
	if id := ev.Data.TaskID(); id != "" {
		return e.surface.Card(id)
	}
	return nil
}
