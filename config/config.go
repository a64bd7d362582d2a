// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type (
	// Config is the full process configuration.
	Config struct {
		Listen   string `env:"LISTEN_ADDR" envDefault:":3002"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		Storage  StorageConfig
		Editor   EditorConfig
		AutoSave AutoSaveConfig
	}

	// StorageConfig selects and configures the snapshot store.
	StorageConfig struct {
		Type             string `env:"STORAGE_TYPE" envDefault:"filesystem"`
		LocalStoragePath string `env:"LOCAL_STORAGE_PATH" envDefault:"."`
		DataSourceName   string `env:"DATA_SOURCE_NAME" envDefault:"protodraw.db"`
		S3BucketName     string `env:"S3_BUCKET_NAME"`
		MaxSnapshots     int    `env:"MAX_SNAPSHOTS" envDefault:"10"`
	}

	EditorConfig struct {
		SnapshotKey   string `env:"SNAPSHOT_KEY" envDefault:"protodraw_autosave.json"`
		HistoryLimit  int    `env:"HISTORY_LIMIT" envDefault:"0"`
		ThumbnailSize int    `env:"THUMBNAIL_SIZE" envDefault:"256"`
	}

	AutoSaveConfig struct {
		Delay         time.Duration `env:"AUTOSAVE_DELAY" envDefault:"1s"`
		ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"5s"`
	}
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given .env files (".env" when none are named) into the
// environment, then parses Config. Missing .env files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
		logrus.Info("No .env file found")
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "filesystem", "sqlite":
	case "s3":
		if c.Storage.S3BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage type")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	if c.Editor.SnapshotKey == "" {
		return fmt.Errorf("SNAPSHOT_KEY must not be empty")
	}
	if c.AutoSave.Delay <= 0 {
		return fmt.Errorf("AUTOSAVE_DELAY must be positive, got %s", c.AutoSave.Delay)
	}
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative")
	}
	return nil
}
