package incremental

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/ccrun/internal/log"
)

// RecordFileName is the name of the record file inside the build output root.
const RecordFileName = ".record"

// Store defines the interface for record persistence.
type Store interface {
	// Load never fails: a missing or unreadable record is an empty one.
	Load() Record
	Save(r Record) error
	Exists() bool
	Clear() error
	Path() string
}

// JSONStore implements Store using a single JSON file.
type JSONStore struct {
	dir  string
	path string
}

// NewJSONStore creates a store for the given build output root.
// The record lives at <buildRoot>/.record.
func NewJSONStore(buildRoot string) *JSONStore {
	return &JSONStore{
		dir:  buildRoot,
		path: filepath.Join(buildRoot, RecordFileName),
	}
}

// Path returns the record file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the record from disk. First run and a corrupted record are
// treated the same way: an empty record, which makes everything stale.
func (s *JSONStore) Load() Record {
	logger := log.Component("incremental")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Debug("record unreadable, starting fresh", "path", s.path, "error", err)
		}
		return NewRecord()
	}
	if len(data) == 0 {
		return NewRecord()
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		logger.Debug("record corrupt, starting fresh", "path", s.path, "error", err)
		return NewRecord()
	}
	if r == nil {
		return NewRecord()
	}
	for mode, mr := range r {
		if mr == nil {
			r[mode] = ModeRecord{}
		}
	}
	return r
}

// Save writes the record to disk atomically, creating the build output
// root if needed.
func (s *JSONStore) Save(r Record) error {
	if r == nil {
		return fmt.Errorf("cannot save nil record")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// Write to temp file first for atomic update
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename record file: %w", err)
	}

	return nil
}

// Exists returns true if the record file exists.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the record file. The build output root is left alone.
func (s *JSONStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
