package stores

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"protodraw/config"
	"protodraw/core"
	"protodraw/stores/aws"
	"protodraw/stores/filesystem"
	"protodraw/stores/memory"
	"protodraw/stores/sqlite"
)

// GetStore builds the snapshot store selected by cfg.Type.
func GetStore(ctx context.Context, cfg config.StorageConfig) (core.SnapshotStore, error) {
	var store core.SnapshotStore
	var err error

	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		store, err = filesystem.NewStore(cfg.LocalStoragePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		storageField["maxSnapshots"] = cfg.MaxSnapshots
		store, err = sqlite.NewStore(cfg.DataSourceName, cfg.MaxSnapshots)
	case "s3":
		if cfg.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3BucketName
		store, err = aws.NewStore(ctx, cfg.S3BucketName)
	case "memory", "":
		store = memory.NewStore(cfg.MaxSnapshots)
		storageField["storageType"] = "in-memory"
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Type, err)
	}

	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
