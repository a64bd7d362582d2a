// Package commands holds every mutation of the editor state. Each command
// records what it needs to reverse itself, and History sequences them into
// undo and redo stacks.
//
// Commands never return errors for domain conditions. A command that cannot
// apply logs why and leaves the state alone, so the stacks stay consistent.
package commands

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Command is one reversible mutation.
type Command interface {
	// Execute applies the mutation. After an Undo it applies it again.
	Execute(ctx context.Context)

	// Undo restores the state observed before the last Execute.
	Undo(ctx context.Context)

	Name() string
}

// Action tells a Listener which History operation ran.
type Action string

const (
	ActionExecute Action = "execute"
	ActionUndo    Action = "undo"
	ActionRedo    Action = "redo"
)

// Listener is called after every history operation that ran a command.
type Listener func(action Action, cmd Command)

// History keeps the undo and redo stacks. It does not lock; callers
// serialize access.
type History struct {
	undo     []Command
	redo     []Command
	limit    int
	listener Listener
}

// NewHistory returns an empty history. A positive limit caps the undo stack,
// dropping the oldest command first.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) SetListener(l Listener) {
	h.listener = l
}

// Execute runs cmd, pushes it on the undo stack and clears the redo stack.
func (h *History) Execute(ctx context.Context, cmd Command) {
	cmd.Execute(ctx)
	h.undo = append(h.undo, cmd)
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		clear(h.undo[:drop])
		h.undo = h.undo[drop:]
	}
	clear(h.redo)
	h.redo = h.redo[:0]

	logrus.WithFields(logrus.Fields{"command": cmd.Name(), "depth": len(h.undo)}).Debug("Command executed")
	h.notify(ActionExecute, cmd)
}

// Undo reverses the most recent command. It reports false when there was
// nothing to undo.
func (h *History) Undo(ctx context.Context) bool {
	if len(h.undo) == 0 {
		logrus.Info("Nothing to undo")
		return false
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo[len(h.undo)-1] = nil
	h.undo = h.undo[:len(h.undo)-1]

	cmd.Undo(ctx)
	h.redo = append(h.redo, cmd)

	logrus.WithField("command", cmd.Name()).Debug("Command undone")
	h.notify(ActionUndo, cmd)
	return true
}

// Redo re-executes the most recently undone command. It reports false when
// there was nothing to redo.
func (h *History) Redo(ctx context.Context) bool {
	if len(h.redo) == 0 {
		logrus.Info("Nothing to redo")
		return false
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo[len(h.redo)-1] = nil
	h.redo = h.redo[:len(h.redo)-1]

	cmd.Execute(ctx)
	h.undo = append(h.undo, cmd)

	logrus.WithField("command", cmd.Name()).Debug("Command redone")
	h.notify(ActionRedo, cmd)
	return true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Names lists the undo stack, oldest first.
func (h *History) Names() []string {
	names := make([]string, len(h.undo))
	for i, cmd := range h.undo {
		names[i] = cmd.Name()
	}
	return names
}

func (h *History) Clear() {
	clear(h.undo)
	clear(h.redo)
	h.undo, h.redo = h.undo[:0], h.redo[:0]
}

func (h *History) notify(action Action, cmd Command) {
	if h.listener != nil {
		h.listener(action, cmd)
	}
}
