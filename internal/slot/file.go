package slot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot stores the payload in a single local file. Writes go through a
// temp file and rename so a crash mid-write cannot corrupt the slot.
type FileSlot struct {
	path string
}

// NewFile creates a file-backed slot at the given path.
func NewFile(path string) *FileSlot {
	return &FileSlot{path: path}
}

// Read returns the file contents, or ErrEmpty if the file does not exist.
func (s *FileSlot) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot file %q: %w", s.path, err)
	}
	return string(data), nil
}

// Write atomically replaces the file contents.
func (s *FileSlot) Write(_ context.Context, payload string) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp slot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp slot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp slot file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace slot file %q: %w", s.path, err)
	}
	return nil
}
