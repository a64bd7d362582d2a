// Package snapshot moves encoded application states in and out of a
// core.SnapshotStore under a single key.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"protodraw/core"
	"protodraw/memento"
)

// ErrNoHistory is returned when earlier snapshots are requested from a store
// that only keeps the latest one.
var ErrNoHistory = errors.New("snapshot store keeps no history")

// ThumbnailFunc renders a preview of the canvas part of a state.
type ThumbnailFunc func(*memento.ShapeMemento) ([]byte, error)

// Repository reads and writes the snapshot stored under Key.
type Repository struct {
	store     core.SnapshotStore
	key       string
	thumbnail ThumbnailFunc
}

type Option func(*Repository)

// WithThumbnails attaches a preview to every written snapshot.
func WithThumbnails(fn ThumbnailFunc) Option {
	return func(r *Repository) { r.thumbnail = fn }
}

func NewRepository(store core.SnapshotStore, key string, opts ...Option) *Repository {
	r := &Repository{store: store, key: key}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Key() string { return r.key }

func (r *Repository) Store() core.SnapshotStore { return r.store }

// Write encodes state and saves it. A failing thumbnail is logged and the
// snapshot is saved without one.
func (r *Repository) Write(ctx context.Context, state *memento.AppState) (*core.Snapshot, error) {
	data, err := memento.Encode(state)
	if err != nil {
		return nil, err
	}

	snap := &core.Snapshot{
		ID:        ulid.Make().String(),
		Key:       r.key,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if r.thumbnail != nil {
		thumb, err := r.thumbnail(state.Canvas())
		if err != nil {
			logrus.WithError(err).WithField("key", r.key).Warn("Failed to render snapshot thumbnail")
		} else {
			snap.Thumbnail = thumb
		}
	}

	if err := r.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot %q: %w", r.key, err)
	}
	return snap, nil
}

// Read loads and decodes the latest snapshot under the key.
func (r *Repository) Read(ctx context.Context) (*memento.AppState, error) {
	snap, err := r.store.Load(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", r.key, err)
	}
	return Decode(snap)
}

func (r *Repository) Exists(ctx context.Context) (bool, error) {
	return r.store.Exists(ctx, r.key)
}

func (r *Repository) Remove(ctx context.Context) error {
	return r.store.Delete(ctx, r.key)
}

// Decode turns a stored snapshot back into an application state.
func Decode(snap *core.Snapshot) (*memento.AppState, error) {
	state, err := memento.Decode(snap.Data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return state, nil
}

// History returns the store's history interface when it keeps earlier
// snapshots.
func (r *Repository) History() (core.SnapshotHistory, bool) {
	h, ok := r.store.(core.SnapshotHistory)
	return h, ok
}

// Version reads one specific earlier snapshot.
type Version struct {
	history core.SnapshotHistory
	id      string
}

// Version returns a reader for the snapshot with the given ID. It fails when
// the store does not keep a history.
func (r *Repository) Version(id string) (*Version, error) {
	h, ok := r.History()
	if !ok {
		return nil, ErrNoHistory
	}
	return &Version{history: h, id: id}, nil
}

func (v *Version) Read(ctx context.Context) (*memento.AppState, error) {
	snap, err := v.history.GetSnapshot(ctx, v.id)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", v.id, err)
	}
	return Decode(snap)
}
