package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"sakibee/app/config"
	"sakibee/app/repositories"
	"sakibee/app/storage"
)

// configFile is set by --config; empty means sakibee.yaml in the working directory.
var configFile string

// backupDir receives badger backups - variable to allow testing with different paths
var backupDir = "data/backups"

func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}

// openRepository connects the configured database, migrating and seeding it when new.
func openRepository(cfg *config.Config) (repositories.ContentRepository, error) {
	switch cfg.Database.Driver {
	case "badger":
		repo, err := repositories.OpenBadger(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		repo, err := repositories.OpenGorm(repositories.GormOptions{
			Driver:   cfg.Database.Driver,
			DSN:      cfg.Database.DSN,
			LogLevel: cfg.Database.GormLogLevel(),
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}

// openImageStore returns the configured image backend.
func openImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3 := cfg.Storage.S3
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:          s3.Region,
			Bucket:          s3.Bucket,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			UsePathStyle:    s3.UsePathStyle,
			CreateBucket:    s3.CreateBucket,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := storage.NewLocalStore(filepath.Join(cfg.Storage.WebRoot, "images"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// databasePath returns the file or directory holding a sqlite or badger database.
func databasePath(cfg *config.Config) (string, error) {
	dsn := cfg.Database.DSN
	switch cfg.Database.Driver {
	case "sqlite":
		path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
		if path == "" || strings.HasPrefix(path, ":memory:") {
			return "", fmt.Errorf("sqlite database %q is not stored on disk", dsn)
		}
		return path, nil
	case "badger":
		if dsn == "" {
			return "", fmt.Errorf("badger database is in memory")
		}
		return dsn, nil
	default:
		return "", fmt.Errorf("%s databases are managed outside sakibee", cfg.Database.Driver)
	}
}
