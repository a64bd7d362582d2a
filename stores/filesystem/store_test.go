package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"protodraw/core"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "path")
	store, err := NewStore(tempDir)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if store == nil {
		t.Fatal("NewStore() returned nil")
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Error("NewStore() did not create nested directory structure")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	store, _ := NewStore(tempDir)
	ctx := context.Background()

	in := &core.Snapshot{ID: "01A", Key: "autosave.json", Data: []byte(`{"a":1}`), Thumbnail: []byte("png")}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	out, err := store.Load(ctx, "autosave.json")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if string(out.Data) != `{"a":1}` {
		t.Errorf("Load() data mismatch: got %q", out.Data)
	}
	if string(out.Thumbnail) != "png" {
		t.Errorf("Load() thumbnail mismatch: got %q", out.Thumbnail)
	}
	if out.ID != "01A" {
		t.Errorf("Load() ID mismatch: got %q, want %q", out.ID, "01A")
	}
	if _, err := os.Stat(filepath.Join(tempDir, "autosave.json.png")); err != nil {
		t.Errorf("thumbnail file missing: %v", err)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	tempDir := t.TempDir()
	store, _ := NewStore(tempDir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, &core.Snapshot{Key: "state.json", Data: []byte("x")}); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, got %d entries", len(entries))
	}
}

func TestSave_OverwritesAndDropsStaleThumbnail(t *testing.T) {
	tempDir := t.TempDir()
	store, _ := NewStore(tempDir)
	ctx := context.Background()

	_ = store.Save(ctx, &core.Snapshot{ID: "01OLD", Key: "s.json", Data: []byte("old"), Thumbnail: []byte("png")})
	_ = store.Save(ctx, &core.Snapshot{Key: "s.json", Data: []byte("new")})

	out, err := store.Load(ctx, "s.json")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if string(out.Data) != "new" || out.Thumbnail != nil {
		t.Errorf("overwrite mismatch: data %q, thumbnail %q", out.Data, out.Thumbnail)
	}
	if out.ID != "s.json" {
		t.Errorf("stale id survived the overwrite: %q", out.ID)
	}
}

func TestLoad_NotFound(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	_, err := store.Load(context.Background(), "missing.json")
	if !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Errorf("Load() error mismatch: got %v, want ErrSnapshotNotFound", err)
	}
}

func TestExistsAndDelete(t *testing.T) {
	tempDir := t.TempDir()
	store, _ := NewStore(tempDir)
	ctx := context.Background()

	if ok, err := store.Exists(ctx, "s.json"); err != nil || ok {
		t.Fatalf("Exists() before save: %v, %v", ok, err)
	}
	_ = store.Save(ctx, &core.Snapshot{ID: "01B", Key: "s.json", Data: []byte("x"), Thumbnail: []byte("png")})
	if ok, _ := store.Exists(ctx, "s.json"); !ok {
		t.Error("Exists() should be true after saving")
	}

	if err := store.Delete(ctx, "s.json"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := store.Delete(ctx, "s.json"); err != nil {
		t.Errorf("Delete() of a missing key should succeed: %v", err)
	}
	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("Delete() left %d files behind", len(entries))
	}
}

func TestPathTraversal(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../escape.json", "a/b.json", "..", ""} {
		if err := store.Save(ctx, &core.Snapshot{Key: key, Data: []byte("x")}); err == nil {
			t.Errorf("Save() accepted key %q", key)
		}
	}
}
