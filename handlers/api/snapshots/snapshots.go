package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"protodraw/commands"
	"protodraw/core"
	"protodraw/snapshot"
)

type (
	SnapshotResponse struct {
		ID           string          `json:"id"`
		Key          string          `json:"key"`
		CreatedAt    time.Time       `json:"createdAt"`
		HasThumbnail bool            `json:"hasThumbnail"`
		State        json.RawMessage `json:"state,omitempty"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}

	// Versions opens earlier snapshots for reading.
	Versions interface {
		Version(id string) (*snapshot.Version, error)
	}

	// Loader replaces the editor state from a reader, recording the change
	// so it can be undone.
	Loader interface {
		LoadFrom(ctx context.Context, reader commands.StateReader) error
	}
)

// Routes mounts the history endpoints on r.
func Routes(r chi.Router, history core.SnapshotHistory, key string, versions Versions, loader Loader) {
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", HandleListSnapshots(history, key))
		r.Route("/{snapshotId}", func(r chi.Router) {
			r.Get("/", HandleGetSnapshot(history))
			r.Get("/thumbnail", HandleGetThumbnail(history))
			r.Post("/restore", HandleRestoreSnapshot(versions, loader))
		})
	})
}

func renderError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	if errors.Is(err, core.ErrSnapshotNotFound) {
		status = http.StatusNotFound
	}
	logrus.WithField("error", err).Error(msg)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// HandleListSnapshots lists the stored versions of key, newest first.
func HandleListSnapshots(history core.SnapshotHistory, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := history.ListSnapshots(r.Context(), key)
		if err != nil {
			renderError(w, r, err, "Failed to list snapshots")
			return
		}

		out := make([]SnapshotResponse, 0, len(list))
		for _, snap := range list {
			out = append(out, SnapshotResponse{ID: snap.ID, Key: snap.Key, CreatedAt: snap.CreatedAt})
		}
		render.JSON(w, r, out)
	}
}

// HandleGetSnapshot returns one snapshot with its encoded state.
func HandleGetSnapshot(history core.SnapshotHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")

		snap, err := history.GetSnapshot(r.Context(), snapshotID)
		if err != nil {
			renderError(w, r, err, "Snapshot not found")
			return
		}

		resp := SnapshotResponse{
			ID:           snap.ID,
			Key:          snap.Key,
			CreatedAt:    snap.CreatedAt,
			HasThumbnail: len(snap.Thumbnail) > 0,
		}
		if json.Valid(snap.Data) {
			resp.State = snap.Data
		} else {
			logrus.WithField("snapshot_id", snap.ID).Warn("Stored snapshot is not valid JSON")
		}
		render.JSON(w, r, resp)
	}
}

// HandleGetThumbnail serves the PNG preview stored with a snapshot.
func HandleGetThumbnail(history core.SnapshotHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")

		snap, err := history.GetSnapshot(r.Context(), snapshotID)
		if err != nil {
			renderError(w, r, err, "Snapshot not found")
			return
		}
		if len(snap.Thumbnail) == 0 {
			renderError(w, r, core.ErrSnapshotNotFound, "Snapshot has no thumbnail")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "max-age=31536000, immutable")
		if _, err := w.Write(snap.Thumbnail); err != nil {
			logrus.WithField("error", err).Warn("Failed to write thumbnail")
		}
	}
}

// HandleRestoreSnapshot loads an earlier version into the editor. The restore
// is undoable like any other load.
func HandleRestoreSnapshot(versions Versions, loader Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")

		v, err := versions.Version(snapshotID)
		if err != nil {
			renderError(w, r, err, "Snapshot history not available")
			return
		}
		if err := loader.LoadFrom(r.Context(), v); err != nil {
			renderError(w, r, err, "Failed to restore snapshot")
			return
		}

		logrus.WithField("snapshot_id", snapshotID).Info("Snapshot restored")
		w.WriteHeader(http.StatusNoContent)
	}
}
