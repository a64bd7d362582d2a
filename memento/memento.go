// Package memento holds value snapshots of the editor stores. A memento never
// shares a shape with the store it was taken from: constructors clone what
// they are given and accessors clone what they return.
package memento

import (
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"protodraw/shapes"
)

type (
	// ShapeMemento is the ordered canvas content.
	ShapeMemento struct {
		shapes []shapes.Shape
	}

	// ToolbarMemento is the ordered list of prototype keys behind the toolbar buttons.
	ToolbarMemento struct {
		keys []string
	}

	// PrototypeRegistryMemento is the content of the atomic shape registry.
	PrototypeRegistryMemento struct {
		prototypes map[string]shapes.Shape
	}

	// CompositeRegistryMemento is the content of the group registry.
	CompositeRegistryMemento struct {
		groups map[string]*shapes.Group
	}

	// AppState aggregates one memento per store. It is immutable once built.
	AppState struct {
		id         string
		savedAt    time.Time
		canvas     *ShapeMemento
		toolbar    *ToolbarMemento
		prototypes *PrototypeRegistryMemento
		composites *CompositeRegistryMemento
	}
)

func NewShapeMemento(list []shapes.Shape) *ShapeMemento {
	return &ShapeMemento{shapes: shapes.CloneList(list)}
}

// Shapes returns clones of the captured shapes, in canvas order.
func (m *ShapeMemento) Shapes() []shapes.Shape {
	return shapes.CloneList(m.shapes)
}

func (m *ShapeMemento) Len() int { return len(m.shapes) }

func NewToolbarMemento(keys []string) *ToolbarMemento {
	return &ToolbarMemento{keys: append([]string(nil), keys...)}
}

func (m *ToolbarMemento) Keys() []string {
	return append([]string(nil), m.keys...)
}

func NewPrototypeRegistryMemento(prototypes map[string]shapes.Shape) *PrototypeRegistryMemento {
	out := make(map[string]shapes.Shape, len(prototypes))
	for k, s := range prototypes {
		out[k] = s.Clone()
	}
	return &PrototypeRegistryMemento{prototypes: out}
}

// Prototypes returns a new map of clones.
func (m *PrototypeRegistryMemento) Prototypes() map[string]shapes.Shape {
	out := make(map[string]shapes.Shape, len(m.prototypes))
	for k, s := range m.prototypes {
		out[k] = s.Clone()
	}
	return out
}

func (m *PrototypeRegistryMemento) Keys() []string {
	return sortedKeys(m.prototypes)
}

func NewCompositeRegistryMemento(groups map[string]*shapes.Group) *CompositeRegistryMemento {
	out := make(map[string]*shapes.Group, len(groups))
	for k, g := range groups {
		out[k] = g.CloneGroup()
	}
	return &CompositeRegistryMemento{groups: out}
}

// Groups returns a new map of clones.
func (m *CompositeRegistryMemento) Groups() map[string]*shapes.Group {
	out := make(map[string]*shapes.Group, len(m.groups))
	for k, g := range m.groups {
		out[k] = g.CloneGroup()
	}
	return out
}

func (m *CompositeRegistryMemento) Keys() []string {
	return sortedKeys(m.groups)
}

// NewAppState wraps the four store mementos. Any of them may be nil for a
// partially captured state; Encode refuses such a state.
func NewAppState(canvas *ShapeMemento, toolbar *ToolbarMemento, prototypes *PrototypeRegistryMemento, composites *CompositeRegistryMemento) *AppState {
	return &AppState{
		id:         ulid.Make().String(),
		savedAt:    time.Now().UTC(),
		canvas:     canvas,
		toolbar:    toolbar,
		prototypes: prototypes,
		composites: composites,
	}
}

func (s *AppState) ID() string                            { return s.id }
func (s *AppState) SavedAt() time.Time                    { return s.savedAt }
func (s *AppState) Canvas() *ShapeMemento                 { return s.canvas }
func (s *AppState) Toolbar() *ToolbarMemento              { return s.toolbar }
func (s *AppState) Prototypes() *PrototypeRegistryMemento { return s.prototypes }
func (s *AppState) Composites() *CompositeRegistryMemento { return s.composites }
func (s *AppState) Complete() bool                        { return s.missing() == "" }

// missing names the first absent sub-memento, or returns "".
func (s *AppState) missing() string {
	switch {
	case s.canvas == nil:
		return "canvas"
	case s.toolbar == nil:
		return "toolbar"
	case s.prototypes == nil:
		return "prototypes"
	case s.composites == nil:
		return "composites"
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
