package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"protodraw/autosave"
	"protodraw/commands"
	"protodraw/shapes"
	"protodraw/snapshot"
	"protodraw/stores/memory"
	"protodraw/workspace"
)

const snapshotKey = "protodraw_autosave.json"

func newSession(t *testing.T) (*Session, *snapshot.Repository) {
	t.Helper()
	repo := snapshot.NewRepository(memory.NewStore(5), snapshotKey)
	s := NewSession(repo, 0)
	s.SeedDefaults()
	return s, repo
}

func canvasLen(s *Session) int {
	var n int
	s.View(func(ws *workspace.Workspace) { n = ws.Canvas.Len() })
	return n
}

func createFrom(key string, x, y float64) BuildFunc {
	return func(ws *workspace.Workspace) (commands.Command, error) {
		return commands.NewCreateFromPrototypeCommand(ws, key, shapes.Point{X: x, Y: y}), nil
	}
}

func TestSeedDefaults(t *testing.T) {
	s, _ := newSession(t)
	s.View(func(ws *workspace.Workspace) {
		if ws.Shapes.Len() != 6 || ws.Composites.Len() != 1 {
			t.Errorf("registries: got %d shapes and %d composites", ws.Shapes.Len(), ws.Composites.Len())
		}
		if ws.Toolbar.Len() != 7 {
			t.Errorf("toolbar: got %v", ws.Toolbar.Keys())
		}
	})

	// Seeding twice must not duplicate buttons.
	s.SeedDefaults()
	s.View(func(ws *workspace.Workspace) {
		if ws.Toolbar.Len() != 7 {
			t.Errorf("toolbar after reseed: got %v", ws.Toolbar.Keys())
		}
	})
}

func TestOnChange_FiresForExecuteUndoRedo(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	var calls int
	s.OnChange(func() { calls++ })

	if _, err := s.Do(ctx, createFrom("circle", 10, 10)); err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	s.Undo(ctx)
	s.Redo(ctx)
	s.Undo(ctx)
	s.Undo(ctx) // empty, no notification

	if calls != 4 {
		t.Errorf("OnChange calls: got %d, want 4", calls)
	}
	if h := s.History(); h.CanUndo || !h.CanRedo || h.Redo != 1 {
		t.Errorf("unexpected history state %+v", h)
	}
}

func TestDo_BuilderErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	boom := errors.New("no such shape")

	_, err := s.Do(ctx, func(ws *workspace.Workspace) (commands.Command, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Do() error mismatch: got %v", err)
	}
	_, err = s.Do(ctx, func(ws *workspace.Workspace) (commands.Command, error) { return nil, nil })
	if !errors.Is(err, ErrRejected) {
		t.Errorf("Do() with nil command: got %v", err)
	}
	if s.History().CanUndo {
		t.Error("rejected commands must not enter the history")
	}
}

func TestSaveAndAutoLoad(t *testing.T) {
	ctx := context.Background()
	s, repo := newSession(t)
	_, _ = s.Do(ctx, createFrom("rectangle", 10, 10))
	_, _ = s.Do(ctx, createFrom("target", 200, 200))

	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	restored := NewSession(repo, 0)
	loaded, err := restored.AutoLoad(ctx)
	if !loaded || err != nil {
		t.Fatalf("AutoLoad() failed: loaded=%v err=%v", loaded, err)
	}
	if canvasLen(restored) != 2 {
		t.Errorf("canvas after autoload: got %d shapes", canvasLen(restored))
	}
	restored.View(func(ws *workspace.Workspace) {
		if !ws.Composites.Has("target") || ws.Toolbar.Len() != 7 {
			t.Errorf("registries not restored: toolbar %v", ws.Toolbar.Keys())
		}
	})
	if restored.History().CanUndo {
		t.Error("autoload must not be undoable")
	}
}

func TestLoad_IsUndoable(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	_, _ = s.Do(ctx, createFrom("square", 0, 0))
	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	_, _ = s.Do(ctx, createFrom("square", 50, 50))

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if canvasLen(s) != 1 {
		t.Fatalf("canvas after load: got %d", canvasLen(s))
	}
	s.Undo(ctx)
	if canvasLen(s) != 2 {
		t.Errorf("canvas after undoing the load: got %d", canvasLen(s))
	}
}

func TestCapture_ConsistentUnderConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Do(ctx, createFrom("hexagon", float64(i), float64(i)))
			if i%2 == 0 {
				s.Undo(ctx)
				s.Redo(ctx)
			}
		}(i)
	}
	for i := 0; i < 20; i++ {
		state := s.Capture()
		if state.Toolbar().Keys() == nil || !state.Complete() {
			t.Fatal("capture produced an incomplete state")
		}
	}
	wg.Wait()

	if canvasLen(s) != 20 {
		t.Errorf("canvas: got %d shapes, want 20", canvasLen(s))
	}
}

func TestAutosave_SavesLatestState(t *testing.T) {
	ctx := context.Background()
	s, repo := newSession(t)
	m := autosave.NewManager(s, repo, 20*time.Millisecond)
	s.OnChange(m.Trigger)
	m.Start()

	for i := 0; i < 3; i++ {
		_, _ = s.Do(ctx, createFrom("circle", float64(i*10), 0))
	}
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	state, err := repo.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if state.Canvas().Len() != 3 {
		t.Errorf("autosaved canvas: got %d shapes, want 3", state.Canvas().Len())
	}
}
