package dnd

import (
	"slices"
	"sync"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

// Board is the in-memory task list the engine mutates on commit.
type Board struct {
	mu    sync.RWMutex
	tasks []domain.Task
	seq   map[string]uint64
}

func NewBoard(tasks []domain.Task) *Board {
	return &Board{tasks: slices.Clone(tasks), seq: map[string]uint64{}}
}

// Tasks returns a snapshot of every task in board order.
func (b *Board) Tasks() []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.tasks)
}

// Task returns the task with id.
func (b *Board) Task(id string) (domain.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	idx := b.indexLocked(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	return b.tasks[idx], true
}

// ByStatus returns the tasks in one column, in board order.
func (b *Board) ByStatus(status domain.Status) []domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Task, 0)
	for _, t := range b.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Replace swaps the task list, keeping commit sequence numbers.
func (b *Board) Replace(tasks []domain.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = slices.Clone(tasks)
}

// Move sets the status of id and places it before beforeID (or last when beforeID is empty).
// It returns the previous status and the commit sequence number of this move.
func (b *Board) Move(id string, status domain.Status, beforeID string, now time.Time) (domain.Status, uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := b.indexLocked(id)
	if idx < 0 {
		return "", 0, false
	}
	task := b.tasks[idx]
	prev := task.Status
	if err := task.SetStatus(status, now); err != nil {
		return "", 0, false
	}
	b.tasks = slices.Delete(b.tasks, idx, idx+1)
	at := len(b.tasks)
	if beforeID != "" {
		if j := b.indexLocked(beforeID); j >= 0 {
			at = j
		}
	}
	b.tasks = slices.Insert(b.tasks, at, task)
	b.seq[id]++
	return prev, b.seq[id], true
}

// Revert restores status on id if seq is still the latest commit for that task.
func (b *Board) Revert(id string, status domain.Status, seq uint64, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq[id] != seq {
		return false
	}
	idx := b.indexLocked(id)
	if idx < 0 {
		return false
	}
	if err := b.tasks[idx].SetStatus(status, now); err != nil {
		return false
	}
	b.seq[id]++
	return true
}

// Reapply sets status on id again after a Replace, if seq is still the latest
// commit for that task. The sequence number is left unchanged so a later
// Revert for the same commit still applies.
func (b *Board) Reapply(id string, status domain.Status, seq uint64, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq[id] != seq {
		return false
	}
	idx := b.indexLocked(id)
	if idx < 0 {
		return false
	}
	if b.tasks[idx].Status == status {
		return true
	}
	return b.tasks[idx].SetStatus(status, now) == nil
}

func (b *Board) indexLocked(id string) int {
	return slices.IndexFunc(b.tasks, func(t domain.Task) bool { return t.ID == id })
}
