package dnd

import (
	"context"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

// Persister stores a task's new status.
type Persister interface {
	UpdateTaskStatus(ctx context.Context, taskID string, status domain.Status) error
}

// PersistJob is one pending status write.
type PersistJob struct {
	TaskID   string
	Status   domain.Status
	Previous domain.Status
	Seq      uint64
}

// PersistResult is the outcome of running a PersistJob.
type PersistResult struct {
	Job PersistJob
	Err error
}

// Run performs the write against p.
func (j PersistJob) Run(ctx context.Context, p Persister) PersistResult {
	return PersistResult{Job: j, Err: p.UpdateTaskStatus(ctx, j.TaskID, j.Status)}
}

// StatusMapper turns a drop column into a committed status change.
type StatusMapper struct {
	board   *Board
	surface *Surface
	clock   func() time.Time
}

func NewStatusMapper(board *Board, surface *Surface, clock func() time.Time) *StatusMapper {
	if clock == nil {
		clock = time.Now
	}
	return &StatusMapper{board: board, surface: surface, clock: clock}
}

// CommitMove records taskID as belonging to col and returns the write to persist.
// The card must already sit in col's container.
func (m *StatusMapper) CommitMove(taskID string, col *Column) (PersistJob, bool) {
	if col == nil {
		return PersistJob{}, false
	}
	beforeID := ""
	if card := m.surface.Card(taskID); card != nil && card.Container() != nil {
		for next := card.Container().Next(card); next != nil; next = card.Container().Next(next) {
			if c, ok := next.(*Card); ok {
				beforeID = c.TaskID
				break
			}
		}
	}
	prev, seq, ok := m.board.Move(taskID, col.Status, beforeID, m.clock())
	if !ok {
		return PersistJob{}, false
	}
	m.surface.CheckEmptyColumns()
	return PersistJob{TaskID: taskID, Status: col.Status, Previous: prev, Seq: seq}, true
}
