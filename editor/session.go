// Package editor owns the live workspace and is the only path that mutates
// it. Every command, undo, redo and read runs under one lock, so a background
// capture never observes a half-applied change.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"protodraw/commands"
	"protodraw/core"
	"protodraw/memento"
	"protodraw/shapes"
	"protodraw/workspace"
)

// ErrRejected is returned by Do when a builder declines to produce a command.
var ErrRejected = errors.New("command rejected")

type (
	// Persistence is the snapshot access a session needs for explicit saves,
	// loads and the startup autoload.
	Persistence interface {
		commands.StateWriter
		commands.SnapshotSource
	}

	// BuildFunc resolves live shapes and returns the command to run. It is
	// called with the session lock held.
	BuildFunc func(ws *workspace.Workspace) (commands.Command, error)
)

// Session serializes all access to one workspace.
type Session struct {
	mu       sync.Mutex
	ws       *workspace.Workspace
	history  *commands.History
	store    Persistence
	onChange func()
}

// NewSession returns a session over an empty workspace. historyLimit caps the
// undo stack when positive.
func NewSession(store Persistence, historyLimit int) *Session {
	s := &Session{
		ws:      workspace.New(),
		history: commands.NewHistory(historyLimit),
		store:   store,
	}
	s.history.SetListener(s.changed)
	return s
}

// OnChange registers fn to run after every executed, undone or redone
// command. fn runs with the lock held and must not call back into the
// session.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Session) changed(action commands.Action, cmd commands.Command) {
	if s.onChange != nil {
		s.onChange()
	}
}

// Execute runs cmd and records it in the history.
func (s *Session) Execute(ctx context.Context, cmd commands.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Execute(ctx, cmd)
}

// Do builds a command from the current workspace and executes it within one
// lock hold, so the shapes the builder resolved cannot change in between.
func (s *Session) Do(ctx context.Context, build BuildFunc) (commands.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := build(s.ws)
	if err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, ErrRejected
	}
	s.history.Execute(ctx, cmd)
	return cmd, nil
}

// Apply runs cmd without recording it. Used for commands whose Undo is a
// no-op, like saving or the startup autoload.
func (s *Session) Apply(ctx context.Context, cmd commands.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd.Execute(ctx)
	logrus.WithField("command", cmd.Name()).Debug("Command applied outside history")
}

func (s *Session) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Undo(ctx)
}

func (s *Session) Redo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Redo(ctx)
}

// View runs fn with the lock held. fn must not keep references to live
// shapes after it returns.
func (s *Session) View(fn func(ws *workspace.Workspace)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ws)
}

// Capture takes a consistent snapshot of the workspace.
func (s *Session) Capture() *memento.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Capture()
}

// HistoryState describes the undo and redo stacks.
type HistoryState struct {
	CanUndo bool     `json:"canUndo"`
	CanRedo bool     `json:"canRedo"`
	Undo    int      `json:"undo"`
	Redo    int      `json:"redo"`
	Names   []string `json:"names"`
}

func (s *Session) History() HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	undo, redo := s.history.Len()
	return HistoryState{
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
		Undo:    undo,
		Redo:    redo,
		Names:   s.history.Names(),
	}
}

// Save writes the current state. The capture happens under the lock and the
// write outside of it.
func (s *Session) Save(ctx context.Context) (*core.Snapshot, error) {
	cmd := commands.NewSaveStateCommand(s.ws, s.store)
	s.mu.Lock()
	cmd.Capture()
	s.mu.Unlock()

	cmd.Commit(ctx)
	return cmd.Snapshot(), cmd.Err()
}

// Load replaces the workspace with the stored snapshot. The load is recorded,
// so Undo brings back the state from before it.
func (s *Session) Load(ctx context.Context) error {
	return s.LoadFrom(ctx, s.store)
}

// LoadFrom is Load with another source, such as an earlier snapshot version.
func (s *Session) LoadFrom(ctx context.Context, reader commands.StateReader) error {
	cmd := commands.NewLoadStateCommand(s.ws, reader)
	s.Execute(ctx, cmd)
	return cmd.Err()
}

// AutoLoad restores the stored snapshot if there is one. It is not recorded
// in the history. A snapshot that cannot be decoded is deleted.
func (s *Session) AutoLoad(ctx context.Context) (bool, error) {
	cmd := commands.NewAutoLoadCommand(s.ws, s.store)
	s.Apply(ctx, cmd)
	return cmd.Loaded(), cmd.Err()
}

// SeedDefaults registers the built-in prototypes and toolbar buttons. Call it
// before AutoLoad; a loaded snapshot overrides entries with the same key.
func (s *Session) SeedDefaults() {
	s.mu.Lock()
	defer s.mu.Unlock()

	style := shapes.DefaultStyle()
	defaults := []struct {
		key   string
		proto shapes.Shape
	}{
		{"rectangle", shapes.NewRectangle(0, 0, 120, 80, style)},
		{"square", shapes.NewRectangle(0, 0, 80, 80, style)},
		{"circle", shapes.NewCircle(40, 40, 40, style)},
		{"triangle", shapes.NewRegularPolygon(40, 40, 40, 3, style)},
		{"hexagon", shapes.NewRegularPolygon(40, 40, 40, 6, style)},
		{"diamond", shapes.NewPolygon([]shapes.Point{{X: 40, Y: 0}, {X: 80, Y: 40}, {X: 40, Y: 80}, {X: 0, Y: 40}}, style)},
	}
	for _, d := range defaults {
		if err := s.ws.Shapes.Register(d.key, d.proto); err != nil {
			logrus.WithError(err).WithField("key", d.key).Error("Failed to register default prototype")
			continue
		}
		s.addButton(d.key)
	}

	target := shapes.NewGroup(
		shapes.NewCircle(40, 40, 40, style),
		shapes.NewCircle(40, 40, 20, style),
	)
	if err := s.ws.Composites.Register("target", target); err != nil {
		logrus.WithError(err).Error("Failed to register default composite")
	} else {
		s.addButton("target")
	}

	logrus.WithFields(logrus.Fields{
		"shapes":     s.ws.Shapes.Len(),
		"composites": s.ws.Composites.Len(),
		"buttons":    s.ws.Toolbar.Len(),
	}).Info("Default prototypes registered")
}

func (s *Session) addButton(key string) {
	if s.ws.Toolbar.IndexOf(key) >= 0 {
		return
	}
	if err := s.ws.Toolbar.Add(key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to add toolbar button")
	}
}
