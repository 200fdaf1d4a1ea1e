package tui

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/join/internal/dnd"
)

// Option configures a Model.
type Option func(*Model)

// WithDragOptions sets the engine options used for the board. Layout fields are owned by the view.
func WithDragOptions(opts dnd.Options) Option {
	return func(m *Model) {
		m.dragOpts = opts
	}
}

// WithInputMode selects whether mouse presses behave as pointer drags or touch long presses.
func WithInputMode(mode dnd.Mode) Option {
	return func(m *Model) {
		m.inputMode = mode
	}
}

// WithShowSubtasks toggles the subtask progress row on cards.
func WithShowSubtasks(show bool) Option {
	return func(m *Model) {
		m.showSubtasks = show
	}
}

// WithLogger routes model logs to logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithClock replaces the wall clock used for in-memory moves.
func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithViewer sets the contact id the summary greets.
func WithViewer(contactID string) Option {
	return func(m *Model) {
		m.viewer = contactID
	}
}
