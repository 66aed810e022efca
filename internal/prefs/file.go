package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore implements Store with a single file holding the literal string
// "true" or "false". A missing file means no preference was ever saved.
// Writes go through a temp file and rename so a crash mid-write cannot leave
// a truncated value.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path, creating parent directories as
// needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("prefs: file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("prefs: create directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Get reads the persisted preference. Returns ok=false when the file does
// not exist or holds an unrecognized value.
func (s *FileStore) Get(ctx context.Context) (bool, bool, error) {
	if ctx.Err() != nil {
		return false, false, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("prefs: read %s: %w", s.path, err)
	}
	value, ok := decode(strings.TrimSpace(string(data)))
	return value, ok, nil
}

// Set writes the preference synchronously.
func (s *FileStore) Set(ctx context.Context, fahrenheit bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(encode(fahrenheit)), 0o644); err != nil {
		return fmt.Errorf("prefs: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("prefs: rename %s: %w", tmp, err)
	}
	return nil
}
