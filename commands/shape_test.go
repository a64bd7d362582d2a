package commands

import (
	"context"
	"testing"

	"protodraw/shapes"
	"protodraw/workspace"
)

func TestMove_UndoRestoresBounds(t *testing.T) {
	ctx := context.Background()
	ws := workspace.New()
	h := NewHistory(0)

	rect := shapes.NewRectangle(10, 10, 100, 60, shapes.DefaultStyle())
	h.Execute(ctx, NewCreateShapeCommand(ws, rect, -1))
	original := rect.Bounds()

	h.Execute(ctx, NewMoveCommand(rect, shapes.Point{X: 50, Y: 50}))
	if got := rect.Position(); got != (shapes.Point{X: 50, Y: 50}) {
		t.Fatalf("move mismatch: got %+v", got)
	}
	h.Undo(ctx)

	if got := rect.Bounds(); got != original {
		t.Errorf("bounds after undo mismatch: got %+v, want %+v", got, original)
	}
	if want := (shapes.Rect{X: 10, Y: 10, Width: 100, Height: 60}); original != want {
		t.Errorf("unexpected original bounds %+v", original)
	}
}

func TestDelete_ReinsertsAtOriginalIndices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := NewHistory(0)
	extra := shapes.NewCircle(0, 0, 1, shapes.DefaultStyle())
	_ = f.ws.Canvas.Append(extra)

	h.Execute(ctx, NewDeleteShapesCommand(f.ws, extra, f.circle, f.rect))
	if f.ws.Canvas.Len() != 1 || f.ws.Canvas.At(0) != f.hex {
		t.Fatalf("unexpected canvas after delete, len %d", f.ws.Canvas.Len())
	}

	h.Undo(ctx)
	want := []shapes.Shape{f.rect, f.circle, f.hex, extra}
	for i, s := range want {
		if f.ws.Canvas.At(i) != s {
			t.Errorf("index %d holds %v, want %s", i, f.ws.Canvas.At(i), s.ID())
		}
	}
}

func TestDelete_MissingShapeIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stray := shapes.NewCircle(0, 0, 1, shapes.DefaultStyle())

	cmd := NewDeleteShapesCommand(f.ws, stray)
	cmd.Execute(ctx)
	if f.ws.Canvas.Len() != 3 {
		t.Errorf("deleting a shape not on canvas changed it, len %d", f.ws.Canvas.Len())
	}
	cmd.Undo(ctx)
	if f.ws.Canvas.Len() != 3 {
		t.Errorf("undo of a no-op delete changed the canvas, len %d", f.ws.Canvas.Len())
	}
}

func TestCreate_DoubleInsertIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cmd := NewCreateShapeCommand(f.ws, f.rect, -1)
	cmd.Execute(ctx)
	if f.ws.Canvas.Len() != 3 {
		t.Fatalf("a shape already on canvas was inserted again")
	}
	cmd.Undo(ctx)
	if f.ws.Canvas.IndexOf(f.rect) != 0 {
		t.Error("undo of a rejected create removed the existing shape")
	}
}

func TestCreateFromPrototype(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := NewHistory(0)

	cmd := NewCreateFromPrototypeCommand(f.ws, "pair", shapes.Point{X: 400, Y: 400})
	h.Execute(ctx, cmd)

	inst := cmd.Shape()
	if inst == nil {
		t.Fatal("Shape() is nil after Execute()")
	}
	if inst.Kind() != shapes.KindGroup || inst.Position() != (shapes.Point{X: 400, Y: 400}) {
		t.Errorf("unexpected instance %s at %+v", inst.Kind(), inst.Position())
	}
	proto, _ := f.ws.Composites.Get("pair")
	if inst.ID() == proto.ID() {
		t.Error("instance should get a fresh id")
	}
	if _, ok := cmd.place.(*CreateGroupCommand); !ok {
		t.Errorf("composite instance placed by %T, want *CreateGroupCommand", cmd.place)
	}

	h.Undo(ctx)
	if f.ws.Canvas.IndexOf(inst) >= 0 || f.ws.Canvas.Len() != 3 {
		t.Error("undo should take the instance off the canvas")
	}
	h.Redo(ctx)
	if f.ws.Canvas.IndexOf(inst) != 3 {
		t.Error("redo should bring back the same instance")
	}
}

func TestCreateFromPrototype_UnknownKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := NewHistory(0)

	cmd := NewCreateFromPrototypeCommand(f.ws, "ghost", shapes.Point{})
	h.Execute(ctx, cmd)
	if cmd.Shape() != nil || f.ws.Canvas.Len() != 3 {
		t.Error("unknown key should leave the canvas unchanged")
	}
	h.Undo(ctx)
	if f.ws.Canvas.Len() != 3 {
		t.Error("undo of a failed create changed the canvas")
	}
}

func TestEdit_GroupChildrenRestored(t *testing.T) {
	ctx := context.Background()
	red := shapes.Style{Border: shapes.RGB(255, 0, 0), Fill: shapes.White, Rotation: 15}
	blue := shapes.Style{Border: shapes.RGB(0, 0, 255), Fill: shapes.Black}
	a := shapes.NewRectangle(0, 0, 10, 10, red)
	b := shapes.NewCircle(20, 20, 5, blue)
	g := shapes.NewGroup(a, b)

	cmd := NewEditShapesCommand(StylePatch{Fill: color(shapes.RGB(0, 255, 0))}, g)
	cmd.Execute(ctx)
	if a.Style().Fill != shapes.RGB(0, 255, 0) || b.Style().Fill != shapes.RGB(0, 255, 0) {
		t.Fatal("fill was not pushed to the children")
	}
	if a.Style().Rotation != 15 {
		t.Error("children should keep their rotation")
	}

	cmd.Undo(ctx)
	if a.Style() != red || b.Style() != blue {
		t.Errorf("child styles not restored: %+v, %+v", a.Style(), b.Style())
	}
}

func TestEdit_PatchKeepsUnsetFields(t *testing.T) {
	s := shapes.Style{Border: shapes.Black, Fill: shapes.White, Rotation: 45}
	got := StylePatch{Rotation: float(90)}.Apply(s)
	if got.Border != shapes.Black || got.Fill != shapes.White || got.Rotation != 90 {
		t.Errorf("Apply() mismatch: %+v", got)
	}
	if !(StylePatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestReorder_MissingShapeIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stray := shapes.NewCircle(0, 0, 1, shapes.DefaultStyle())
	before := observe(t, f.ws)

	cmd := NewReorderShapeCommand(f.ws, stray, 0)
	cmd.Execute(ctx)
	cmd.Undo(ctx)
	if observe(t, f.ws) != before {
		t.Error("reordering a shape not on canvas changed the workspace")
	}
}
