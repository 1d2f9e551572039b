package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/domain/service"
)

// StorageType represents the type of storage backend
type StorageType string

const (
	// StorageTypeFilesystem represents local filesystem storage
	StorageTypeFilesystem StorageType = "filesystem"

	// StorageTypeS3 represents AWS S3 or an S3-compatible service
	StorageTypeS3 StorageType = "s3"
)

// Factory creates storage backends based on configuration
type Factory struct {
	config *config.StorageConfig
}

// NewFactory creates a new storage factory
func NewFactory(cfg *config.StorageConfig) *Factory {
	return &Factory{config: cfg}
}

// Create creates a new storage backend based on the configuration
func (f *Factory) Create(ctx context.Context) (service.BlobStorage, error) {
	switch StorageType(strings.ToLower(f.config.Type)) {
	case StorageTypeFilesystem, "":
		return NewFilesystemStorage(f.config.BasePath)

	case StorageTypeS3:
		return NewS3Storage(ctx, S3Config{
			Bucket:       f.config.S3Bucket,
			Region:       f.config.S3Region,
			AccessKey:    f.config.S3AccessKey,
			SecretKey:    f.config.S3SecretKey,
			Endpoint:     f.config.S3Endpoint,
			UsePathStyle: f.config.S3Endpoint != "",
			Prefix:       f.config.S3Prefix,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.config.Type)
	}
}

// cleanKey normalizes a key and rejects anything escaping the root
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return cleaned, nil
}
