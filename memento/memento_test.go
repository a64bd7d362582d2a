package memento

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"protodraw/shapes"
)

func sampleState() *AppState {
	rect := shapes.NewRectangle(10, 10, 100, 60, shapes.DefaultStyle())
	circle := shapes.NewCircle(200, 200, 25, shapes.DefaultStyle())
	house := shapes.NewGroup(
		shapes.NewRectangle(0, 20, 40, 30, shapes.DefaultStyle()),
		shapes.NewRegularPolygon(20, 10, 20, 3, shapes.DefaultStyle()),
	)

	return NewAppState(
		NewShapeMemento([]shapes.Shape{rect, circle}),
		NewToolbarMemento([]string{"rectangle", "circle", "house"}),
		NewPrototypeRegistryMemento(map[string]shapes.Shape{
			"rectangle": shapes.NewRectangle(0, 0, 80, 50, shapes.DefaultStyle()),
			"circle":    shapes.NewCircle(25, 25, 25, shapes.DefaultStyle()),
		}),
		NewCompositeRegistryMemento(map[string]*shapes.Group{"house": house}),
	)
}

func TestShapeMemento_IsValueSnapshot(t *testing.T) {
	live := []shapes.Shape{shapes.NewRectangle(0, 0, 10, 10, shapes.DefaultStyle())}
	m := NewShapeMemento(live)

	live[0].MoveTo(shapes.Point{X: 50, Y: 50})
	if got := m.Shapes()[0].Position(); got != (shapes.Point{}) {
		t.Fatalf("memento followed a live mutation: %+v", got)
	}

	out := m.Shapes()
	out[0].MoveTo(shapes.Point{X: 7, Y: 7})
	if got := m.Shapes()[0].Position(); got != (shapes.Point{}) {
		t.Fatalf("mutating an accessor result changed the memento: %+v", got)
	}
}

func TestRegistryMementos_AreValueSnapshots(t *testing.T) {
	child := shapes.NewRectangle(0, 0, 1, 1, shapes.DefaultStyle())
	group := shapes.NewGroup(child)
	cm := NewCompositeRegistryMemento(map[string]*shapes.Group{"g": group})

	child.MoveBy(5, 5)
	if got := cm.Groups()["g"].Position(); got != (shapes.Point{}) {
		t.Errorf("composite memento followed a live child mutation: %+v", got)
	}

	src := map[string]shapes.Shape{"r": shapes.NewRectangle(0, 0, 1, 1, shapes.DefaultStyle())}
	pm := NewPrototypeRegistryMemento(src)
	delete(src, "r")
	if _, ok := pm.Prototypes()["r"]; !ok {
		t.Error("prototype memento lost an entry deleted from the source map")
	}

	keys := NewToolbarMemento([]string{"a", "b"})
	k := keys.Keys()
	k[0] = "z"
	if keys.Keys()[0] != "a" {
		t.Error("toolbar memento exposed its key slice")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	state := sampleState()

	data, err := Encode(state)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if decoded.ID() != state.ID() {
		t.Errorf("ID mismatch: got %s, want %s", decoded.ID(), state.ID())
	}
	if !reflect.DeepEqual(decoded.Canvas().Shapes(), state.Canvas().Shapes()) {
		t.Error("canvas mismatch after round trip")
	}
	if !reflect.DeepEqual(decoded.Toolbar().Keys(), state.Toolbar().Keys()) {
		t.Errorf("toolbar mismatch: got %v, want %v", decoded.Toolbar().Keys(), state.Toolbar().Keys())
	}
	if !reflect.DeepEqual(decoded.Prototypes().Prototypes(), state.Prototypes().Prototypes()) {
		t.Error("prototypes mismatch after round trip")
	}
	if !reflect.DeepEqual(decoded.Composites().Groups(), state.Composites().Groups()) {
		t.Error("composites mismatch after round trip")
	}
}

func TestEncode_Incomplete(t *testing.T) {
	state := NewAppState(NewShapeMemento(nil), nil, nil, nil)
	if _, err := Encode(state); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Encode() error mismatch: got %v, want ErrIncomplete", err)
	}
	if state.Complete() {
		t.Error("Complete() should be false without a toolbar memento")
	}
}

func TestDecode_Truncated(t *testing.T) {
	data, err := Encode(sampleState())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	_, err = Decode(data[:len(data)/2])
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Decode() error mismatch: got %v, want ErrFormat", err)
	}
}

func TestDecode_Foreign(t *testing.T) {
	_, err := Decode([]byte(`{"elements":[],"appState":{}}`))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Decode() error mismatch: got %v, want ErrFormat", err)
	}
}

func TestDecode_Version(t *testing.T) {
	_, err := Decode([]byte(`{"format":"protodraw.snapshot","version":99}`))
	if !errors.Is(err, ErrVersion) {
		t.Fatalf("Decode() error mismatch: got %v, want ErrVersion", err)
	}
}

func TestDecode_MissingSection(t *testing.T) {
	doc := `{"format":"protodraw.snapshot","version":1,"canvas":[],"toolbar":[],"prototypes":{}}`
	_, err := Decode([]byte(doc))
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Decode() error mismatch: got %v, want ErrIncomplete", err)
	}
	if !strings.Contains(err.Error(), "composites") {
		t.Errorf("error should name the missing section, got %v", err)
	}
}

func TestDecode_CompositeMustBeGroup(t *testing.T) {
	doc := `{"format":"protodraw.snapshot","version":1,"canvas":[],"toolbar":[],"prototypes":{},
"composites":{"x":{"kind":"circle","id":"c1","style":{"border":"#000","fill":"#fff","rotation":0},"radius":2}}}`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatal("Decode() should reject a non-group composite")
	}
}

func TestUndecodable(t *testing.T) {
	_, unknown := Decode([]byte(`{"format":"protodraw.snapshot","version":1,"canvas":[{"kind":"star","id":"a"}],"toolbar":[],"prototypes":{},"composites":{}}`))
	_, badShape := Decode([]byte(`{"format":"protodraw.snapshot","version":1,"canvas":[{"kind":"regular_polygon","id":"a","sides":2}],"toolbar":[],"prototypes":{},"composites":{}}`))
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"unknown kind", unknown, true},
		{"invalid shape", badShape, true},
		{"wrapped format", fmt.Errorf("decode snapshot x: %w", ErrFormat), true},
		{"io failure", errors.New("connection reset by peer"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := Undecodable(tc.err); got != tc.want {
			t.Errorf("%s: Undecodable(%v) = %v, want %v", tc.name, tc.err, got, tc.want)
		}
	}
}
