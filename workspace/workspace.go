// Package workspace bundles the four stores that make up the editor state
// and knows the order they have to be restored in.
package workspace

import (
	"github.com/sirupsen/logrus"

	"protodraw/canvas"
	"protodraw/memento"
	"protodraw/registry"
)

// Workspace is the live editor state. It does not lock; the editor session
// serializes access.
type Workspace struct {
	Canvas     *canvas.Canvas
	Toolbar    *canvas.Toolbar
	Shapes     *registry.ShapeRegistry
	Composites *registry.CompositeRegistry
}

// New returns an empty workspace whose toolbar resolves keys against both
// registries.
func New() *Workspace {
	shapes := registry.NewShapeRegistry()
	composites := registry.NewCompositeRegistry()
	return &Workspace{
		Canvas:     canvas.New(),
		Toolbar:    canvas.NewToolbar(shapes, composites),
		Shapes:     shapes,
		Composites: composites,
	}
}

// Capture takes a value snapshot of all four stores.
func (w *Workspace) Capture() *memento.AppState {
	return memento.NewAppState(
		w.Canvas.CreateMemento(),
		w.Toolbar.CreateMemento(),
		w.Shapes.CreateMemento(),
		w.Composites.CreateMemento(),
	)
}

// Restore applies state in the order canvas, composite registry, shape
// registry, toolbar. The toolbar goes last because it resolves its keys
// against the registries. Registries are merged: keys the state does not
// mention keep their prototypes. A missing part is logged and skipped; the
// other parts are still restored.
func (w *Workspace) Restore(state *memento.AppState) {
	w.restore(state, false)
}

// Replace is Restore with the registries emptied first, so afterwards they
// hold exactly what state holds. Used to roll back to a captured state.
func (w *Workspace) Replace(state *memento.AppState) {
	w.restore(state, true)
}

func (w *Workspace) restore(state *memento.AppState, replace bool) {
	if state == nil {
		logrus.Error("Restore called without a state")
		return
	}
	log := logrus.WithField("state_id", state.ID())

	if m := state.Canvas(); m != nil {
		w.Canvas.RestoreFromMemento(m)
	} else {
		log.Error("Canvas memento missing, canvas left unchanged")
	}
	switch m := state.Composites(); {
	case m == nil:
		log.Error("Composite registry memento missing, registry left unchanged")
	case replace:
		w.Composites.ReplaceFromMemento(m)
	default:
		w.Composites.RestoreFromMemento(m)
	}
	switch m := state.Prototypes(); {
	case m == nil:
		log.Error("Shape registry memento missing, registry left unchanged")
	case replace:
		w.Shapes.ReplaceFromMemento(m)
	default:
		w.Shapes.RestoreFromMemento(m)
	}
	if m := state.Toolbar(); m != nil {
		w.Toolbar.RestoreFromMemento(m)
	} else {
		log.Error("Toolbar memento missing, toolbar left unchanged")
	}
}
