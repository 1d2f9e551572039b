package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/setuphub/setuphub/internal/domain/service"
)

// FilesystemStorage implements BlobStorage on the local filesystem
type FilesystemStorage struct {
	basePath string
}

// NewFilesystemStorage creates a new filesystem storage instance
func NewFilesystemStorage(basePath string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &FilesystemStorage{basePath: absPath}, nil
}

func (s *FilesystemStorage) resolve(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

// Put writes the object atomically via a temp file and rename
func (s *FilesystemStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Get reads the object; the content type is derived from the extension
func (s *FilesystemStorage) Get(_ context.Context, key string) ([]byte, string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", service.ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// Delete removes the object
func (s *FilesystemStorage) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Exists checks if the object exists
func (s *FilesystemStorage) Exists(_ context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check path existence: %w", err)
	}
	return true, nil
}

var _ service.BlobStorage = (*FilesystemStorage)(nil)
