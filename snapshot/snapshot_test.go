package snapshot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"protodraw/core"
	"protodraw/memento"
	"protodraw/shapes"
	"protodraw/stores/memory"
)

func state() *memento.AppState {
	return memento.NewAppState(
		memento.NewShapeMemento([]shapes.Shape{shapes.NewCircle(5, 5, 5, shapes.DefaultStyle())}),
		memento.NewToolbarMemento([]string{"circle"}),
		memento.NewPrototypeRegistryMemento(map[string]shapes.Shape{"circle": shapes.NewCircle(0, 0, 10, shapes.DefaultStyle())}),
		memento.NewCompositeRegistryMemento(nil),
	)
}

func TestRepository_WriteRead(t *testing.T) {
	store := memory.NewStore(5)
	repo := NewRepository(store, "auto.json")
	ctx := context.Background()

	in := state()
	snap, err := repo.Write(ctx, in)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if snap.Key != "auto.json" || len(snap.ID) != 26 {
		t.Errorf("Write() snapshot metadata mismatch: %+v", snap)
	}

	out, err := repo.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !reflect.DeepEqual(out.Canvas().Shapes(), in.Canvas().Shapes()) {
		t.Error("canvas differs after round trip")
	}
	if !reflect.DeepEqual(out.Toolbar().Keys(), in.Toolbar().Keys()) {
		t.Error("toolbar differs after round trip")
	}
}

func TestRepository_Thumbnails(t *testing.T) {
	store := memory.NewStore(5)
	ctx := context.Background()

	var seen int
	repo := NewRepository(store, "auto.json", WithThumbnails(func(m *memento.ShapeMemento) ([]byte, error) {
		seen = m.Len()
		return []byte("png"), nil
	}))
	if _, err := repo.Write(ctx, state()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	got, _ := store.Load(ctx, "auto.json")
	if string(got.Thumbnail) != "png" || seen != 1 {
		t.Errorf("thumbnail not attached: %q, saw %d shapes", got.Thumbnail, seen)
	}

	failing := NewRepository(store, "other.json", WithThumbnails(func(*memento.ShapeMemento) ([]byte, error) {
		return nil, errors.New("boom")
	}))
	if _, err := failing.Write(ctx, state()); err != nil {
		t.Fatalf("Write() should survive a thumbnail failure: %v", err)
	}
}

func TestRepository_ReadMissing(t *testing.T) {
	repo := NewRepository(memory.NewStore(5), "auto.json")
	_, err := repo.Read(context.Background())
	if !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Errorf("Read() error mismatch: got %v, want ErrSnapshotNotFound", err)
	}
}

func TestRepository_ReadCorrupt(t *testing.T) {
	store := memory.NewStore(5)
	ctx := context.Background()
	_ = store.Save(ctx, &core.Snapshot{ID: "x", Key: "auto.json", Data: []byte(`{"format":"protodraw.snapshot","vers`)})

	repo := NewRepository(store, "auto.json")
	_, err := repo.Read(ctx)
	if !errors.Is(err, memento.ErrFormat) {
		t.Errorf("Read() error mismatch: got %v, want ErrFormat", err)
	}
}

func TestRepository_ExistsRemove(t *testing.T) {
	repo := NewRepository(memory.NewStore(5), "auto.json")
	ctx := context.Background()

	if ok, _ := repo.Exists(ctx); ok {
		t.Error("Exists() should be false before writing")
	}
	_, _ = repo.Write(ctx, state())
	if ok, _ := repo.Exists(ctx); !ok {
		t.Error("Exists() should be true after writing")
	}
	if err := repo.Remove(ctx); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if ok, _ := repo.Exists(ctx); ok {
		t.Error("Exists() should be false after Remove()")
	}
}

func TestRepository_WriteIncomplete(t *testing.T) {
	repo := NewRepository(memory.NewStore(5), "auto.json")
	if _, err := repo.Write(context.Background(), memento.NewAppState(nil, nil, nil, nil)); !errors.Is(err, memento.ErrIncomplete) {
		t.Errorf("Write() error mismatch: got %v, want ErrIncomplete", err)
	}
}

type latestOnly struct{ core.SnapshotStore }

func TestRepository_Version(t *testing.T) {
	store := memory.NewStore(5)
	repo := NewRepository(store, "auto.json")
	ctx := context.Background()

	first, _ := repo.Write(ctx, state())
	next := memento.NewAppState(
		memento.NewShapeMemento(nil),
		memento.NewToolbarMemento(nil),
		memento.NewPrototypeRegistryMemento(nil),
		memento.NewCompositeRegistryMemento(nil),
	)
	if _, err := repo.Write(ctx, next); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	v, err := repo.Version(first.ID)
	if err != nil {
		t.Fatalf("Version() failed: %v", err)
	}
	old, err := v.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if old.Canvas().Len() != 1 {
		t.Errorf("expected the first snapshot, got %d shapes", old.Canvas().Len())
	}

	missing, _ := repo.Version("nope")
	if _, err := missing.Read(ctx); !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Errorf("Read() of unknown id: got %v", err)
	}

	if _, err := NewRepository(latestOnly{store}, "auto.json").Version(first.ID); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Version() without history: got %v", err)
	}
}
