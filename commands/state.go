package commands

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"protodraw/core"
	"protodraw/memento"
	"protodraw/workspace"
)

var errNothingCaptured = errors.New("save: no state captured")

type (
	// StateWriter persists a captured application state.
	StateWriter interface {
		Write(ctx context.Context, state *memento.AppState) (*core.Snapshot, error)
	}

	// StateReader reads back the persisted application state.
	StateReader interface {
		Read(ctx context.Context) (*memento.AppState, error)
	}

	// SnapshotSource is the persisted state autoload works against.
	SnapshotSource interface {
		StateReader
		Exists(ctx context.Context) (bool, error)
		Remove(ctx context.Context) error
	}
)

// SaveStateCommand writes the whole workspace out. Saving cannot be undone;
// Undo only logs.
//
// Execute captures and writes in one go. Callers that hold a lock around the
// workspace can call Capture under it and Commit after releasing it.
type SaveStateCommand struct {
	ws       *workspace.Workspace
	writer   StateWriter
	state    *memento.AppState
	snapshot *core.Snapshot
	err      error
}

func NewSaveStateCommand(ws *workspace.Workspace, writer StateWriter) *SaveStateCommand {
	return &SaveStateCommand{ws: ws, writer: writer}
}

func (c *SaveStateCommand) Name() string { return "save state" }

// Err returns the failure of the last write, if any.
func (c *SaveStateCommand) Err() error { return c.err }

// Snapshot returns what the last successful write stored.
func (c *SaveStateCommand) Snapshot() *core.Snapshot { return c.snapshot }

func (c *SaveStateCommand) Execute(ctx context.Context) {
	c.Capture()
	c.Commit(ctx)
}

// Capture takes the state the next Commit writes. It only reads the
// workspace.
func (c *SaveStateCommand) Capture() {
	c.state = c.ws.Capture()
}

// Commit writes the captured state and forgets it. It does not touch the
// workspace.
func (c *SaveStateCommand) Commit(ctx context.Context) {
	state := c.state
	if state == nil {
		logrus.WithField("command", c.Name()).Warn("Nothing captured, save skipped")
		c.snapshot, c.err = nil, errNothingCaptured
		return
	}
	c.state = nil

	snap, err := c.writer.Write(ctx, state)
	if err != nil {
		logrus.WithError(err).WithField("state_id", state.ID()).Error("Failed to save state")
		c.snapshot, c.err = nil, err
		return
	}
	c.snapshot, c.err = snap, nil
	logrus.WithFields(logrus.Fields{"state_id": state.ID(), "snapshot_id": snap.ID}).Info("State saved successfully")
}

func (c *SaveStateCommand) Undo(ctx context.Context) {
	logrus.WithField("command", c.Name()).Debug("Saving cannot be undone")
}

// LoadStateCommand replaces the workspace with the persisted state. The
// state it replaced is kept for a single Undo.
type LoadStateCommand struct {
	ws     *workspace.Workspace
	reader StateReader
	backup *memento.AppState
	err    error
}

func NewLoadStateCommand(ws *workspace.Workspace, reader StateReader) *LoadStateCommand {
	return &LoadStateCommand{ws: ws, reader: reader}
}

func (c *LoadStateCommand) Name() string { return "load state" }

// Err returns the failure of the last Execute, if any.
func (c *LoadStateCommand) Err() error { return c.err }

// Execute captures the current state, reads the persisted one and restores
// it. On a read or decode failure the workspace is left untouched and no
// backup is kept.
func (c *LoadStateCommand) Execute(ctx context.Context) {
	backup := c.ws.Capture()

	state, err := c.reader.Read(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to load state, workspace left unchanged")
		c.backup = nil
		c.err = err
		return
	}

	c.ws.Restore(state)
	c.backup, c.err = backup, nil
	logrus.WithFields(logrus.Fields{
		"state_id": state.ID(),
		"saved_at": state.SavedAt(),
	}).Info("State loaded successfully")
}

// Undo puts back exactly the state captured by Execute, dropping prototypes
// that only the loaded state had, and discards the backup.
func (c *LoadStateCommand) Undo(ctx context.Context) {
	if c.backup == nil {
		logrus.WithField("command", c.Name()).Warn("No backup available, undo ignored")
		return
	}
	c.ws.Replace(c.backup)
	c.backup = nil
	logrus.Info("State before load restored")
}

// AutoLoadCommand loads the persisted state at startup when there is one.
// A snapshot that cannot be decoded is deleted so the next start is clean;
// one the store failed to read is kept.
type AutoLoadCommand struct {
	ws     *workspace.Workspace
	source SnapshotSource
	loaded bool
	err    error
}

func NewAutoLoadCommand(ws *workspace.Workspace, source SnapshotSource) *AutoLoadCommand {
	return &AutoLoadCommand{ws: ws, source: source}
}

func (c *AutoLoadCommand) Name() string { return "auto load" }

// Loaded reports whether the last Execute restored a snapshot.
func (c *AutoLoadCommand) Loaded() bool { return c.loaded }

// Err returns the failure of the last Execute, if any. A missing snapshot is
// not a failure.
func (c *AutoLoadCommand) Err() error { return c.err }

func (c *AutoLoadCommand) Execute(ctx context.Context) {
	c.loaded, c.err = false, nil

	exists, err := c.source.Exists(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to check for autosave snapshot")
		c.err = err
		return
	}
	if !exists {
		logrus.Info("No autosave snapshot found, starting empty")
		return
	}

	load := NewLoadStateCommand(c.ws, c.source)
	load.Execute(ctx)
	if err := load.Err(); err != nil {
		c.err = err
		if !memento.Undecodable(err) {
			logrus.WithError(err).Warn("Autosave snapshot could not be read, kept for the next start")
			return
		}
		if rerr := c.source.Remove(ctx); rerr != nil {
			logrus.WithError(rerr).Error("Failed to delete corrupt autosave snapshot")
			return
		}
		logrus.Warn("Corrupt autosave snapshot deleted")
		return
	}
	c.loaded = true
}

func (c *AutoLoadCommand) Undo(ctx context.Context) {
	logrus.WithField("command", c.Name()).Debug("Auto load cannot be undone")
}
