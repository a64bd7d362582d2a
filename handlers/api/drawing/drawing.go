// Package drawing exposes the editor session over HTTP for the UI layer.
package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"protodraw/commands"
	"protodraw/core"
	"protodraw/editor"
	"protodraw/memento"
	"protodraw/registry"
	"protodraw/shapes"
	"protodraw/workspace"
)

var (
	ErrShapeNotFound = errors.New("shape not found")
	errInvalid       = errors.New("invalid request")
)

type (
	// Session is the part of editor.Session the handlers drive.
	Session interface {
		Do(ctx context.Context, build editor.BuildFunc) (commands.Command, error)
		View(fn func(ws *workspace.Workspace))
		Undo(ctx context.Context) bool
		Redo(ctx context.Context) bool
		History() editor.HistoryState
		Save(ctx context.Context) (*core.Snapshot, error)
		Load(ctx context.Context) error
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}

	CreateShapeRequest struct {
		Key string  `json:"key"`
		X   float64 `json:"x"`
		Y   float64 `json:"y"`
	}

	MoveRequest struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	ReorderRequest struct {
		Index int `json:"index"`
	}

	GroupRequest struct {
		IDs []string `json:"ids"`
	}

	RegisterPrototypeRequest struct {
		Key     string `json:"key"`
		ShapeID string `json:"shapeId"`
	}

	PrototypesResponse struct {
		Shapes     []string `json:"shapes"`
		Composites []string `json:"composites"`
	}

	HistoryResponse struct {
		Applied bool `json:"applied"`
		editor.HistoryState
	}

	SaveResponse struct {
		ID        string    `json:"id"`
		Key       string    `json:"key"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// Routes mounts every editor endpoint on r.
func Routes(r chi.Router, s Session) {
	r.Route("/shapes", func(r chi.Router) {
		r.Get("/", HandleListShapes(s))
		r.Post("/", HandleCreateShape(s))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", HandleGetShape(s))
			r.Delete("/", HandleDeleteShape(s))
			r.Post("/move", HandleMoveShape(s))
			r.Put("/style", HandleEditStyle(s))
			r.Post("/ungroup", HandleUngroup(s))
			r.Post("/reorder", HandleReorder(s))
		})
	})
	r.Post("/groups", HandleGroup(s))
	r.Get("/toolbar", HandleToolbar(s))
	r.Delete("/toolbar/{index}", HandleRemoveButton(s))
	r.Get("/prototypes", HandleListPrototypes(s))
	r.Post("/prototypes", HandleRegisterPrototype(s))
	r.Get("/history", HandleHistory(s))
	r.Post("/undo", HandleUndo(s))
	r.Post("/redo", HandleRedo(s))
	r.Post("/state/save", HandleSave(s))
	r.Post("/state/load", HandleLoad(s))
}

func renderError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	entry := logrus.WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Warn(msg)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: fmt.Sprintf("%s: %v", msg, err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrShapeNotFound),
		errors.Is(err, registry.ErrPrototypeNotFound),
		errors.Is(err, core.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalid), errors.Is(err, editor.ErrRejected):
		return http.StatusBadRequest
	case memento.Undecodable(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	return nil
}

func find(ws *workspace.Workspace, id string) (shapes.Shape, error) {
	s, _ := ws.Canvas.Find(id)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}
	return s, nil
}

// marshalShape encodes a live shape under the session lock.
func marshalShape(s Session, shape shapes.Shape) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	s.View(func(*workspace.Workspace) { data, err = shapes.Marshal(shape) })
	return data, err
}

// HandleListShapes returns the canvas, back to front.
func HandleListShapes(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			data []byte
			err  error
		)
		s.View(func(ws *workspace.Workspace) {
			data, err = json.Marshal(shapes.List(ws.Canvas.Shapes()))
		})
		if err != nil {
			renderError(w, r, err, "Failed to encode canvas")
			return
		}
		render.JSON(w, r, json.RawMessage(data))
	}
}

func HandleGetShape(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var (
			data []byte
			err  error
		)
		s.View(func(ws *workspace.Workspace) {
			var shape shapes.Shape
			if shape, err = find(ws, id); err == nil {
				data, err = shapes.Marshal(shape)
			}
		})
		if err != nil {
			renderError(w, r, err, "Failed to get shape")
			return
		}
		render.JSON(w, r, json.RawMessage(data))
	}
}

// HandleCreateShape instantiates a prototype at the requested position.
func HandleCreateShape(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateShapeRequest
		if err := decode(r, &req); err != nil {
			renderError(w, r, err, "Invalid request body")
			return
		}

		cmd, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			if !ws.Shapes.Has(req.Key) && !ws.Composites.Has(req.Key) {
				return nil, fmt.Errorf("%w: %q", registry.ErrPrototypeNotFound, req.Key)
			}
			return commands.NewCreateFromPrototypeCommand(ws, req.Key, shapes.Point{X: req.X, Y: req.Y}), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to create shape")
			return
		}

		data, err := marshalShape(s, cmd.(*commands.CreateFromPrototypeCommand).Shape())
		if err != nil {
			renderError(w, r, err, "Failed to encode shape")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, data)
	}
}

func HandleMoveShape(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MoveRequest
		if err := decode(r, &req); err != nil {
			renderError(w, r, err, "Invalid request body")
			return
		}

		_, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			shape, err := find(ws, id)
			if err != nil {
				return nil, err
			}
			return commands.NewMoveCommand(shape, shapes.Point{X: req.X, Y: req.Y}), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to move shape")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleEditStyle(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch commands.StylePatch
		if err := decode(r, &patch); err != nil {
			renderError(w, r, err, "Invalid request body")
			return
		}
		if patch.Empty() {
			renderError(w, r, fmt.Errorf("%w: empty style patch", errInvalid), "Invalid request body")
			return
		}

		_, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			shape, err := find(ws, id)
			if err != nil {
				return nil, err
			}
			return commands.NewEditShapesCommand(patch, shape), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to edit shape")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleDeleteShape(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		_, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			shape, err := find(ws, id)
			if err != nil {
				return nil, err
			}
			return commands.NewDeleteShapesCommand(ws, shape), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to delete shape")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleUngroup(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		_, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			shape, err := find(ws, id)
			if err != nil {
				return nil, err
			}
			g, ok := shape.(*shapes.Group)
			if !ok {
				return nil, fmt.Errorf("%w: %s is a %s, not a group", errInvalid, id, shape.Kind())
			}
			return commands.NewUngroupCommand(ws, g), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to ungroup")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleReorder moves a shape to a new z-index. An index past the end brings
// it to the front.
func HandleReorder(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req ReorderRequest
		if err := decode(r, &req); err != nil {
			renderError(w, r, err, "Invalid request body")
			return
		}

		_, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			shape, err := find(ws, id)
			if err != nil {
				return nil, err
			}
			return commands.NewReorderShapeCommand(ws, shape, req.Index), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to reorder shape")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGroup groups two or more canvas shapes.
func HandleGroup(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GroupRequest
		if err := decode(r, &req); err != nil {
			renderError(w, r, err, "Invalid request body")
			return
		}

		cmd, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			seen := make(map[string]bool, len(req.IDs))
			members := make([]shapes.Shape, 0, len(req.IDs))
			for _, id := range req.IDs {
				if seen[id] {
					continue
				}
				seen[id] = true
				shape, err := find(ws, id)
				if err != nil {
					return nil, err
				}
				members = append(members, shape)
			}
			if len(members) < 2 {
				return nil, fmt.Errorf("%w: a group needs at least two shapes", errInvalid)
			}
			return commands.NewGroupCommand(ws, members...), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to group shapes")
			return
		}

		data, err := marshalShape(s, cmd.(*commands.GroupCommand).Group())
		if err != nil {
			renderError(w, r, err, "Failed to encode group")
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, data)
	}
}

func HandleToolbar(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var keys []string
		s.View(func(ws *workspace.Workspace) { keys = ws.Toolbar.Keys() })
		if keys == nil {
			keys = []string{}
		}
		render.JSON(w, r, keys)
	}
}

func HandleRemoveButton(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			renderError(w, r, fmt.Errorf("%w: %v", errInvalid, err), "Invalid toolbar index")
			return
		}

		_, err = s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			if index < 0 || index >= ws.Toolbar.Len() {
				return nil, fmt.Errorf("%w: toolbar index %d out of range", errInvalid, index)
			}
			return commands.NewRemoveToolbarButtonCommand(ws, index), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to remove toolbar button")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListPrototypes(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp PrototypesResponse
		s.View(func(ws *workspace.Workspace) {
			resp.Shapes = ws.Shapes.Keys()
			resp.Composites = ws.Composites.Keys()
		})
		render.JSON(w, r, resp)
	}
}

// HandleRegisterPrototype turns a canvas shape into a prototype with a
// toolbar button. Groups go to the composite registry.
func HandleRegisterPrototype(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPrototypeRequest
		if err := decode(r, &req); err != nil {
			renderError(w, r, err, "Invalid request body")
			return
		}
		if req.Key == "" {
			renderError(w, r, fmt.Errorf("%w: key is required", errInvalid), "Invalid request body")
			return
		}

		_, err := s.Do(r.Context(), func(ws *workspace.Workspace) (commands.Command, error) {
			shape, err := find(ws, req.ShapeID)
			if err != nil {
				return nil, err
			}
			return commands.NewRegisterPrototypeCommand(ws, req.Key, shape), nil
		})
		if err != nil {
			renderError(w, r, err, "Failed to register prototype")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleHistory(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, s.History())
	}
}

func HandleUndo(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied := s.Undo(r.Context())
		render.JSON(w, r, HistoryResponse{Applied: applied, HistoryState: s.History()})
	}
}

func HandleRedo(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied := s.Redo(r.Context())
		render.JSON(w, r, HistoryResponse{Applied: applied, HistoryState: s.History()})
	}
}

func HandleSave(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Save(r.Context())
		if err != nil {
			renderError(w, r, err, "Failed to save state")
			return
		}
		logrus.WithField("snapshot_id", snap.ID).Info("State saved on request")
		render.JSON(w, r, SaveResponse{ID: snap.ID, Key: snap.Key, CreatedAt: snap.CreatedAt})
	}
}

// HandleLoad replaces the editor state with the stored snapshot. The load can
// be undone.
func HandleLoad(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Load(r.Context()); err != nil {
			renderError(w, r, err, "Failed to load state")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
