package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"protodraw/core"
)

// DefaultMaxSnapshots bounds the history kept per key.
const DefaultMaxSnapshots = 10

type memStore struct {
	mu           sync.RWMutex
	snapshots    map[string][]core.Snapshot // oldest first
	maxSnapshots int
}

// NewStore creates an in-memory store keeping at most maxSnapshots per key.
func NewStore(maxSnapshots int) *memStore {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	return &memStore{
		snapshots:    make(map[string][]core.Snapshot),
		maxSnapshots: maxSnapshots,
	}
}

func (s *memStore) Save(ctx context.Context, snapshot *core.Snapshot) error {
	if snapshot.Key == "" {
		return fmt.Errorf("snapshot key is required")
	}
	log := logrus.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"key":         snapshot.Key,
		"data_length": len(snapshot.Data),
	})

	s.mu.Lock()
	list := append(s.snapshots[snapshot.Key], copySnapshot(*snapshot))
	if over := len(list) - s.maxSnapshots; over > 0 {
		list = append([]core.Snapshot(nil), list[over:]...)
	}
	s.snapshots[snapshot.Key] = list
	s.mu.Unlock()

	log.Info("Snapshot saved successfully")
	return nil
}

func (s *memStore) Load(ctx context.Context, key string) (*core.Snapshot, error) {
	s.mu.RLock()
	list := s.snapshots[key]
	s.mu.RUnlock()

	if len(list) == 0 {
		logrus.WithField("key", key).Debug("No snapshot stored for key")
		return nil, fmt.Errorf("%w: key %s", core.ErrSnapshotNotFound, key)
	}
	snap := copySnapshot(list[len(list)-1])
	return &snap, nil
}

func (s *memStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots[key]) > 0, nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.snapshots, key)
	s.mu.Unlock()

	logrus.WithField("key", key).Info("Snapshots deleted")
	return nil
}

func (s *memStore) ListSnapshots(ctx context.Context, key string) ([]core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[key]
	out := make([]core.Snapshot, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		meta := list[i]
		meta.Data = nil
		meta.Thumbnail = nil
		out = append(out, meta)
	}
	return out, nil
}

func (s *memStore) GetSnapshot(ctx context.Context, id string) (*core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range s.snapshots {
		for _, snap := range list {
			if snap.ID == id {
				out := copySnapshot(snap)
				return &out, nil
			}
		}
	}
	logrus.WithField("snapshot_id", id).Warn("Snapshot with specified ID not found")
	return nil, fmt.Errorf("%w: id %s", core.ErrSnapshotNotFound, id)
}

func copySnapshot(s core.Snapshot) core.Snapshot {
	s.Data = append([]byte(nil), s.Data...)
	if s.Thumbnail != nil {
		s.Thumbnail = append([]byte(nil), s.Thumbnail...)
	}
	return s
}
