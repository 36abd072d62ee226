package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

const metadataFileName = "stack-metadata.json"

// Store loads and saves the stack metadata document for one repository.
// Concurrent writers to the same document are not supported: callers must
// treat load-mutate-save as single-writer per repository (the engine
// serializes all mutations behind its own lock).
type Store struct {
	path string
}

// Open returns a Store for the repository rooted at repoRoot. The document
// lives under .git so it is never committed.
func Open(repoRoot string) *Store {
	return &Store{path: filepath.Join(repoRoot, ".git", metadataFileName)}
}

// Path returns the location of the persisted document
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file yields an empty document; an
// unreadable or unrecognized-version file is a MetadataError, which disables
// stack operations for this repository until the document is fixed or reset.
func (s *Store) Load() (*Metadata, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewMetadata(), nil
		}
		return nil, &graftonerrors.MetadataError{Path: s.path, Err: err}
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &graftonerrors.MetadataError{Path: s.path, Err: err}
	}
	if meta.Version != MetadataVersion {
		return nil, &graftonerrors.MetadataError{Path: s.path, Version: meta.Version}
	}
	if meta.Stacks == nil {
		meta.Stacks = []*Stack{}
	}
	return &meta, nil
}

// Save writes the document atomically (write to a temp file, then rename) so
// a crash mid-write never leaves a truncated document behind.
func (s *Store) Save(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stack metadata: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write stack metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace stack metadata: %w", err)
	}
	return nil
}

// Touch updates the last-sync timestamp
func (m *Metadata) Touch(now time.Time) {
	t := now.UTC()
	m.LastSync = &t
}
