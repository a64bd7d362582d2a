package core

import (
	"context"
	"errors"
	"time"
)

// ErrSnapshotNotFound is returned by stores when no snapshot exists for a key or ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type (
	// Snapshot is one persisted, whole-state image of the editor.
	Snapshot struct {
		ID        string    `json:"id"`
		Key       string    `json:"key"`
		Data      []byte    `json:"data,omitempty"`      // The encoded application state.
		Thumbnail []byte    `json:"thumbnail,omitempty"` // PNG preview of the canvas, optional.
		CreatedAt time.Time `json:"createdAt"`
	}

	// SnapshotStore defines the persistence layer for editor snapshots.
	// A key names a snapshot slot (for example the autosave file name);
	// saving to a key replaces what Load returns for it.
	SnapshotStore interface {
		// Save persists the snapshot under snapshot.Key.
		Save(ctx context.Context, snapshot *Snapshot) error

		// Load returns the most recent snapshot saved under key.
		// It returns ErrSnapshotNotFound when nothing was saved.
		Load(ctx context.Context, key string) (*Snapshot, error)

		// Exists reports whether a snapshot is stored under key.
		Exists(ctx context.Context, key string) (bool, error)

		// Delete removes every snapshot stored under key.
		Delete(ctx context.Context, key string) error
	}

	// SnapshotHistory is implemented by stores that keep earlier snapshots
	// of a key instead of overwriting them.
	SnapshotHistory interface {
		// ListSnapshots returns metadata, newest first. Data is not populated.
		ListSnapshots(ctx context.Context, key string) ([]Snapshot, error)

		// GetSnapshot returns a single snapshot including its data.
		GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	}
)
