package workspace

import (
	"reflect"
	"testing"

	"protodraw/memento"
	"protodraw/shapes"
)

func seeded(t *testing.T) *Workspace {
	t.Helper()
	w := New()
	if err := w.Shapes.Register("rect", shapes.NewRectangle(0, 0, 20, 10, shapes.DefaultStyle())); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	pair := shapes.NewGroup(
		shapes.NewRectangle(0, 0, 10, 10, shapes.DefaultStyle()),
		shapes.NewCircle(20, 5, 5, shapes.DefaultStyle()),
	)
	if err := w.Composites.Register("pair", pair); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	for _, key := range []string{"rect", "pair"} {
		if err := w.Toolbar.Add(key); err != nil {
			t.Fatalf("Toolbar.Add(%q) failed: %v", key, err)
		}
	}
	_ = w.Canvas.Append(shapes.NewRectangle(10, 10, 100, 60, shapes.DefaultStyle()))
	return w
}

func TestWorkspace_CaptureIsIndependent(t *testing.T) {
	w := seeded(t)
	state := w.Capture()

	w.Canvas.At(0).MoveBy(40, 40)
	_, _ = w.Toolbar.RemoveAt(0)

	if got := state.Canvas().Shapes()[0].Position(); got != (shapes.Point{X: 10, Y: 10}) {
		t.Errorf("captured canvas followed a live mutation: %+v", got)
	}
	if got := state.Toolbar().Keys(); !reflect.DeepEqual(got, []string{"rect", "pair"}) {
		t.Errorf("captured toolbar followed a live mutation: %v", got)
	}
}

func TestWorkspace_RestoreIntoFreshWorkspace(t *testing.T) {
	src := seeded(t)
	data, err := memento.Encode(src.Capture())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	state, err := memento.Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	// The fresh workspace knows none of the keys, so the toolbar can only
	// come back if the registries are restored before it.
	dst := New()
	dst.Restore(state)

	if !reflect.DeepEqual(dst.Toolbar.Keys(), src.Toolbar.Keys()) {
		t.Errorf("toolbar mismatch: got %v, want %v", dst.Toolbar.Keys(), src.Toolbar.Keys())
	}
	if !reflect.DeepEqual(dst.Canvas.Shapes(), src.Canvas.Shapes()) {
		t.Error("canvas differs after restore")
	}
	if !reflect.DeepEqual(dst.Shapes.Prototypes(), src.Shapes.Prototypes()) {
		t.Error("shape registry differs after restore")
	}
	if !reflect.DeepEqual(dst.Composites.Prototypes(), src.Composites.Prototypes()) {
		t.Error("composite registry differs after restore")
	}
}

func TestWorkspace_RestoreSkipsMissingParts(t *testing.T) {
	w := seeded(t)
	canvas := w.Canvas.CreateMemento()

	w.Canvas.At(0).MoveBy(5, 5)
	_, _ = w.Toolbar.RemoveAt(1)

	w.Restore(memento.NewAppState(canvas, nil, nil, nil))

	if got := w.Canvas.At(0).Position(); got != (shapes.Point{X: 10, Y: 10}) {
		t.Errorf("canvas was not restored: %+v", got)
	}
	if got := w.Toolbar.Keys(); !reflect.DeepEqual(got, []string{"rect"}) {
		t.Errorf("toolbar should be untouched when its memento is missing: %v", got)
	}
	if w.Shapes.Len() != 1 || w.Composites.Len() != 1 {
		t.Error("registries should be untouched when their mementos are missing")
	}
}

func TestWorkspace_ReplaceRollsBackRegistries(t *testing.T) {
	w := seeded(t)
	before := w.Capture()

	_ = w.Shapes.Register("extra", shapes.NewCircle(0, 0, 5, shapes.DefaultStyle()))
	_ = w.Composites.Register("trio", shapes.NewGroup(shapes.NewCircle(0, 0, 1, shapes.DefaultStyle())))
	_ = w.Toolbar.Add("extra")

	w.Restore(before)
	if !w.Shapes.Has("extra") {
		t.Fatal("Restore should merge and keep keys the state does not mention")
	}

	w.Replace(before)
	if want := []string{"rect"}; !reflect.DeepEqual(w.Shapes.Keys(), want) {
		t.Errorf("shape keys after Replace: got %v, want %v", w.Shapes.Keys(), want)
	}
	if want := []string{"pair"}; !reflect.DeepEqual(w.Composites.Keys(), want) {
		t.Errorf("composite keys after Replace: got %v, want %v", w.Composites.Keys(), want)
	}
	if want := []string{"rect", "pair"}; !reflect.DeepEqual(w.Toolbar.Keys(), want) {
		t.Errorf("toolbar after Replace: got %v, want %v", w.Toolbar.Keys(), want)
	}
}

func TestWorkspace_RestoreNil(t *testing.T) {
	w := seeded(t)
	w.Restore(nil)
	if w.Canvas.Len() != 1 {
		t.Error("Restore(nil) should leave the workspace unchanged")
	}
}
