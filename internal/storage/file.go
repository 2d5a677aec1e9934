// Package storage provides calc.Persister backends: a JSON file on disk and
// a single row in a gorm key/value table.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chromastudio/internal/calc"
)

// FileStore keeps every snapshot in one JSON document on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore prepares a store at path, creating the parent directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the file the store writes to.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document. A missing or empty file yields an empty map.
func (s *FileStore) Load(ctx context.Context) (map[string]calc.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]calc.Snapshot{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return decode(b)
}

// Save replaces the document. The payload is written to a temporary file and
// renamed into place so a crash never leaves a truncated document.
func (s *FileStore) Save(ctx context.Context, snapshots map[string]calc.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func decode(b []byte) (map[string]calc.Snapshot, error) {
	if len(b) == 0 {
		return map[string]calc.Snapshot{}, nil
	}
	var snapshots map[string]calc.Snapshot
	if err := json.Unmarshal(b, &snapshots); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if snapshots == nil {
		snapshots = map[string]calc.Snapshot{}
	}
	return snapshots, nil
}

var (
	_ calc.Persister = (*FileStore)(nil)
	_ calc.Persister = (*GormStore)(nil)
)
