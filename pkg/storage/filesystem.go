package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Store reads and writes files under a base directory on an afero filesystem.
type Store struct {
	fs      afero.Fs
	baseDir string
}

// NewStore ensures the base directory exists on fsys and returns a handle.
func NewStore(fsys afero.Fs, baseDir string) (*Store, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if baseDir == "" {
		baseDir = "."
	}
	if err := fsys.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{fs: fsys, baseDir: baseDir}, nil
}

// NewLocalStore is NewStore on the host filesystem.
func NewLocalStore(baseDir string) (*Store, error) {
	return NewStore(afero.NewOsFs(), baseDir)
}

// Save writes data to filename, creating parent directories.
func (s *Store) Save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Read returns the full content of filename.
func (s *Store) Read(filename string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.resolve(filename))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file if present.
func (s *Store) Delete(filename string) error {
	if err := s.fs.Remove(s.resolve(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files older than ttl and returns their relative names.
func (s *Store) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := afero.Walk(s.fs, s.baseDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.ModTime().After(cutoff) {
			return nil
		}
		if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup: %w", err)
	}
	return deleted, nil
}

func (s *Store) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
