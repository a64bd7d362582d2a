package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"protodraw/core"
)

// DefaultMaxSnapshots bounds the history kept per key.
const DefaultMaxSnapshots = 10

type sqliteStore struct {
	db           *sql.DB
	maxSnapshots int
}

// NewStore opens dataSourceName and creates the snapshots table. Every save
// adds a row; rows beyond maxSnapshots per key are pruned, oldest first.
func NewStore(dataSourceName string, maxSnapshots int) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	// Create snapshots table
	snapshotsTable := `CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		data BLOB NOT NULL,
		thumbnail BLOB
	);`
	if _, err = db.Exec(snapshotsTable); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_snapshots_key ON snapshots (key, created_at);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	return &sqliteStore{db: db, maxSnapshots: maxSnapshots}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Save(ctx context.Context, snapshot *core.Snapshot) error {
	if snapshot.Key == "" {
		return fmt.Errorf("snapshot key is required")
	}
	id := snapshot.ID
	if id == "" {
		id = ulid.Make().String()
	}
	createdAt := snapshot.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	log := logrus.WithFields(logrus.Fields{
		"snapshot_id": id,
		"key":         snapshot.Key,
		"data_length": len(snapshot.Data),
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO snapshots (id, key, created_at, data, thumbnail) VALUES (?, ?, ?, ?, ?)",
		id, snapshot.Key, createdAt.UnixMilli(), snapshot.Data, snapshot.Thumbnail)
	if err != nil {
		log.WithError(err).Error("Failed to create snapshot")
		return err
	}

	// Keep only the newest maxSnapshots rows for this key
	res, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE key = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE key = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		snapshot.Key, snapshot.Key, s.maxSnapshots)
	if err != nil {
		log.WithError(err).Error("Failed to prune old snapshots")
		return err
	}
	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit snapshot")
		return err
	}

	if pruned, _ := res.RowsAffected(); pruned > 0 {
		log = log.WithField("pruned", pruned)
	}
	log.Info("Snapshot created successfully")
	return nil
}

func (s *sqliteStore) Load(ctx context.Context, key string) (*core.Snapshot, error) {
	log := logrus.WithField("key", key)
	log.Debug("Retrieving latest snapshot")

	row := s.db.QueryRowContext(ctx,
		"SELECT id, key, created_at, data, thumbnail FROM snapshots WHERE key = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		key)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("No snapshot stored for key")
			return nil, fmt.Errorf("%w: key %s", core.ErrSnapshotNotFound, key)
		}
		log.WithError(err).Error("Failed to retrieve snapshot")
		return nil, err
	}
	return snap, nil
}

func (s *sqliteStore) Exists(ctx context.Context, key string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE key = ?", key).Scan(&count)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Error("Failed to count snapshots")
		return false, err
	}
	return count > 0, nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	log := logrus.WithField("key", key)
	result, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE key = ?", key)
	if err != nil {
		log.WithError(err).Error("Failed to delete snapshots")
		return err
	}
	rows, _ := result.RowsAffected()
	log.WithField("deleted", rows).Info("Snapshots deleted successfully")
	return nil
}

// ListSnapshots lists snapshot metadata for a key, newest first
func (s *sqliteStore) ListSnapshots(ctx context.Context, key string) ([]core.Snapshot, error) {
	log := logrus.WithField("key", key)
	log.Debug("Listing snapshots for key")

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, key, created_at FROM snapshots WHERE key = ? ORDER BY created_at DESC, id DESC",
		key)
	if err != nil {
		log.WithError(err).Error("Failed to list snapshots")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close snapshot rows")
		}
	}()

	snapshots := []core.Snapshot{}
	for rows.Next() {
		var snap core.Snapshot
		var createdAt int64
		if err := rows.Scan(&snap.ID, &snap.Key, &createdAt); err != nil {
			log.WithError(err).Error("Failed to scan snapshot")
			continue
		}
		snap.CreatedAt = time.UnixMilli(createdAt).UTC()
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Failed to iterate snapshots")
		return nil, err
	}

	log.WithField("count", len(snapshots)).Info("Snapshots listed successfully")
	return snapshots, nil
}

// GetSnapshot retrieves a specific snapshot by ID
func (s *sqliteStore) GetSnapshot(ctx context.Context, id string) (*core.Snapshot, error) {
	log := logrus.WithField("snapshot_id", id)
	log.Debug("Retrieving snapshot by ID")

	row := s.db.QueryRowContext(ctx,
		"SELECT id, key, created_at, data, thumbnail FROM snapshots WHERE id = ?", id)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Snapshot with specified ID not found")
			return nil, fmt.Errorf("%w: id %s", core.ErrSnapshotNotFound, id)
		}
		log.WithError(err).Error("Failed to retrieve snapshot")
		return nil, err
	}
	log.Info("Snapshot retrieved successfully")
	return snap, nil
}

func scanSnapshot(row *sql.Row) (*core.Snapshot, error) {
	var snap core.Snapshot
	var createdAt int64
	if err := row.Scan(&snap.ID, &snap.Key, &createdAt, &snap.Data, &snap.Thumbnail); err != nil {
		return nil, err
	}
	snap.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &snap, nil
}
