package shapes

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding a shape whose kind has no decoder.
var ErrUnknownKind = errors.New("unknown shape kind")

// record is the wire form shared by all variants. Unused geometry fields are
// omitted.
type record struct {
	Kind     Kind     `json:"kind"`
	ID       string   `json:"id"`
	Style    Style    `json:"style"`
	Selected bool     `json:"selected,omitempty"`
	X        float64  `json:"x,omitempty"`
	Y        float64  `json:"y,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Radius   float64  `json:"radius,omitempty"`
	Sides    int      `json:"sides,omitempty"`
	Points   []Point  `json:"points,omitempty"`
	Children []record `json:"children,omitempty"`
}

type decodeFunc func(rec record) (Shape, error)

var decoders = map[Kind]decodeFunc{}

func register(kind Kind, fn decodeFunc) {
	decoders[kind] = fn
}

func fromRecord(rec record) (Shape, error) {
	decode, ok := decoders[rec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("%s without id", rec.Kind)
	}
	return decode(rec)
}

// Marshal encodes a single shape.
func Marshal(s Shape) ([]byte, error) {
	return json.Marshal(s.record())
}

// Unmarshal decodes a single shape, children included.
func Unmarshal(data []byte) (Shape, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode shape: %w", err)
	}
	return fromRecord(rec)
}

// List is an ordered run of shapes with a JSON form.
type List []Shape

func (l List) MarshalJSON() ([]byte, error) {
	recs := make([]record, len(l))
	for i, s := range l {
		recs[i] = s.record()
	}
	return json.Marshal(recs)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("decode shapes: %w", err)
	}
	out := make(List, 0, len(recs))
	for i, rec := range recs {
		s, err := fromRecord(rec)
		if err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		out = append(out, s)
	}
	*l = out
	return nil
}

// Map is a keyed set of shapes with a JSON form.
type Map map[string]Shape

func (m Map) MarshalJSON() ([]byte, error) {
	recs := make(map[string]record, len(m))
	for k, s := range m {
		recs[k] = s.record()
	}
	return json.Marshal(recs)
}

func (m *Map) UnmarshalJSON(data []byte) error {
	var recs map[string]record
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("decode shapes: %w", err)
	}
	out := make(Map, len(recs))
	for k, rec := range recs {
		s, err := fromRecord(rec)
		if err != nil {
			return fmt.Errorf("shape %q: %w", k, err)
		}
		out[k] = s
	}
	*m = out
	return nil
}

// CloneList deep-copies every shape in src.
func CloneList(src []Shape) []Shape {
	out := make([]Shape, len(src))
	for i, s := range src {
		out[i] = s.Clone()
	}
	return out
}
