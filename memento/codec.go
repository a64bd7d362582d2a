package memento

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"protodraw/shapes"
)

const (
	// Format tags every snapshot file so foreign JSON is rejected early.
	Format = "protodraw.snapshot"

	// Version is bumped whenever the encoded shape set or layout changes.
	Version = 1
)

var (
	ErrFormat     = errors.New("not a protodraw snapshot")
	ErrVersion    = errors.New("unsupported snapshot version")
	ErrIncomplete = errors.New("incomplete snapshot")
	ErrCorrupt    = errors.New("corrupt snapshot")
)

// Undecodable reports whether err says the snapshot bytes themselves are
// bad, as opposed to the storage failing to deliver them.
func Undecodable(err error) bool {
	return errors.Is(err, ErrFormat) ||
		errors.Is(err, ErrVersion) ||
		errors.Is(err, ErrIncomplete) ||
		errors.Is(err, ErrCorrupt) ||
		errors.Is(err, shapes.ErrUnknownKind)
}

type header struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
}

type envelope struct {
	header
	ID         string       `json:"id"`
	SavedAt    time.Time    `json:"savedAt"`
	Canvas     *shapes.List `json:"canvas"`
	Toolbar    *[]string    `json:"toolbar"`
	Prototypes *shapes.Map  `json:"prototypes"`
	Composites *shapes.Map  `json:"composites"`
}

// Encode serializes a complete AppState.
func Encode(state *AppState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: nil state", ErrIncomplete)
	}
	if name := state.missing(); name != "" {
		return nil, fmt.Errorf("%w: %s memento missing", ErrIncomplete, name)
	}

	canvas := shapes.List(state.canvas.shapes)
	toolbar := append([]string{}, state.toolbar.keys...)
	prototypes := shapes.Map(state.prototypes.prototypes)
	composites := make(shapes.Map, len(state.composites.groups))
	for k, g := range state.composites.groups {
		composites[k] = g
	}

	env := envelope{
		header:     header{Format: Format, Version: Version},
		ID:         state.id,
		SavedAt:    state.savedAt,
		Canvas:     &canvas,
		Toolbar:    &toolbar,
		Prototypes: &prototypes,
		Composites: &composites,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot produced by Encode. Foreign documents, other
// versions, missing sections and unknown shape kinds are all rejected.
func Decode(data []byte) (*AppState, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if h.Format != Format {
		return nil, fmt.Errorf("%w: format %q", ErrFormat, h.Format)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	switch {
	case env.Canvas == nil:
		return nil, fmt.Errorf("%w: canvas section missing", ErrIncomplete)
	case env.Toolbar == nil:
		return nil, fmt.Errorf("%w: toolbar section missing", ErrIncomplete)
	case env.Prototypes == nil:
		return nil, fmt.Errorf("%w: prototypes section missing", ErrIncomplete)
	case env.Composites == nil:
		return nil, fmt.Errorf("%w: composites section missing", ErrIncomplete)
	}

	groups := make(map[string]*shapes.Group, len(*env.Composites))
	for k, s := range *env.Composites {
		g, ok := s.(*shapes.Group)
		if !ok {
			return nil, fmt.Errorf("%w: composite %q is a %s, not a group", ErrCorrupt, k, s.Kind())
		}
		groups[k] = g
	}

	// Decoded shapes are owned by nobody else, so they are adopted without cloning.
	return &AppState{
		id:         env.ID,
		savedAt:    env.SavedAt,
		canvas:     &ShapeMemento{shapes: []shapes.Shape(*env.Canvas)},
		toolbar:    &ToolbarMemento{keys: *env.Toolbar},
		prototypes: &PrototypeRegistryMemento{prototypes: map[string]shapes.Shape(*env.Prototypes)},
		composites: &CompositeRegistryMemento{groups: groups},
	}, nil
}
