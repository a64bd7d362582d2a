package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"protodraw/core"
)

const (
	thumbnailExt = ".png"
	idExt        = ".id"
)

type fsStore struct {
	basePath string
}

// NewStore creates a filesystem store rooted at basePath, creating the
// directory when needed. Each key is one file; its thumbnail sits next to it
// as <key>.png and the snapshot ID as <key>.id.
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

// path resolves key inside the base directory and refuses anything that
// would escape it.
func (s *fsStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid snapshot key %q", key)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filepath.Join(s.basePath, key))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return absFile, nil
}

func (s *fsStore) Save(ctx context.Context, snapshot *core.Snapshot) error {
	filePath, err := s.path(snapshot.Key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"key":         snapshot.Key,
		"path":        filePath,
		"data_length": len(snapshot.Data),
	})

	if err := writeAtomic(filePath, snapshot.Data); err != nil {
		log.WithError(err).Error("Failed to write snapshot file")
		return err
	}

	if err := writeSidecar(filePath+idExt, []byte(snapshot.ID)); err != nil {
		log.WithError(err).Warn("Failed to write snapshot id")
	}
	if err := writeSidecar(filePath+thumbnailExt, snapshot.Thumbnail); err != nil {
		log.WithError(err).Warn("Failed to write snapshot thumbnail")
	}

	log.Info("Snapshot saved successfully")
	return nil
}

func (s *fsStore) Load(ctx context.Context, key string) (*core.Snapshot, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("Snapshot file not found")
			return nil, fmt.Errorf("%w: key %s", core.ErrSnapshotNotFound, key)
		}
		log.WithError(err).Error("Failed to read snapshot file")
		return nil, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		log.WithError(err).Error("Failed to get file stats")
		return nil, err
	}

	// Files written before the id sidecar existed fall back to the key.
	id := key
	if b, err := os.ReadFile(filePath + idExt); err == nil && len(b) > 0 {
		id = string(b)
	}

	snap := &core.Snapshot{
		ID:        id,
		Key:       key,
		Data:      data,
		CreatedAt: info.ModTime(),
	}
	if thumb, err := os.ReadFile(filePath + thumbnailExt); err == nil {
		snap.Thumbnail = thumb
	}

	log.Info("Snapshot loaded successfully")
	return snap, nil
}

func (s *fsStore) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filePath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s *fsStore) Delete(ctx context.Context, key string) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "path": filePath})

	for _, p := range []string{filePath, filePath + thumbnailExt, filePath + idExt} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Error("Failed to delete snapshot file")
			return err
		}
	}

	log.Info("Snapshot deleted successfully")
	return nil
}

// writeSidecar writes data next to a snapshot file, or removes a stale
// sidecar when data is empty.
func writeSidecar(path string, data []byte) error {
	if len(data) > 0 {
		return writeAtomic(path, data)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory, syncs
// it and renames it over path, so readers never see a partial file.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
