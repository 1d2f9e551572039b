package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultMaxFileBytes = 100 * 1024 * 1024

// fileWriter is an io.WriteCloser that rotates its file by size and prunes
// old backups by count and age.
type fileWriter struct {
	filename   string
	maxBytes   int64
	maxBackups int
	maxAge     time.Duration
	compress   bool

	mu   sync.Mutex
	file *os.File
	size int64

	// now is swapped in tests
	now func() time.Time
}

func newFileWriter(cfg *Config) (*fileWriter, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("log file path is required for file output")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	maxBytes := int64(cfg.FileMaxSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}

	return &fileWriter{
		filename:   cfg.FilePath,
		maxBytes:   maxBytes,
		maxBackups: cfg.FileMaxBackups,
		maxAge:     time.Duration(cfg.FileMaxAgeDays) * 24 * time.Hour,
		compress:   cfg.FileCompress,
		now:        time.Now,
	}, nil
}

// Write implements io.Writer
func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Sync flushes the current file to disk
func (w *fileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close implements io.Closer
func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.closeFile()
}

func (w *fileWriter) open() error {
	file, err := os.OpenFile(w.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = file
	w.size = info.Size()
	return nil
}

func (w *fileWriter) closeFile() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.size = 0
	return err
}

// rotate must be called with w.mu held
func (w *fileWriter) rotate() error {
	if err := w.closeFile(); err != nil {
		return err
	}

	backup := w.backupName()
	if err := os.Rename(w.filename, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}

	go w.postRotate(backup)
	return nil
}

func (w *fileWriter) postRotate(backup string) {
	if w.compress {
		if err := gzipFile(backup); err == nil {
			_ = os.Remove(backup)
		}
	}
	w.prune()
}

func (w *fileWriter) backupName() string {
	dir, base := filepath.Split(w.filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := w.now().UTC().Format("2006-01-02T15-04-05.000")
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, stamp, ext))
}

// prune removes backups beyond maxBackups and older than maxAge
func (w *fileWriter) prune() {
	backups, err := w.listBackups()
	if err != nil {
		return
	}

	if w.maxBackups > 0 && len(backups) > w.maxBackups {
		for _, b := range backups[w.maxBackups:] {
			_ = os.Remove(b.path)
		}
		backups = backups[:w.maxBackups]
	}

	if w.maxAge > 0 {
		cutoff := w.now().Add(-w.maxAge)
		for _, b := range backups {
			if b.modTime.Before(cutoff) {
				_ = os.Remove(b.path)
			}
		}
	}
}

type backupInfo struct {
	path    string
	modTime time.Time
}

// listBackups returns rotated files, newest first
func (w *fileWriter) listBackups() ([]backupInfo, error) {
	dir, base := filepath.Split(w.filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	matches, err := filepath.Glob(filepath.Join(dir, stem+"-*"+ext+"*"))
	if err != nil {
		return nil, err
	}

	backups := make([]backupInfo, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		backups = append(backups, backupInfo{path: m, modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})
	return backups, nil
}

func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		_ = gz.Close()
		_ = dst.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

var _ io.WriteCloser = (*fileWriter)(nil)
