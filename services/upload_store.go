package services

import (
	"fmt"
	"os"
	"path/filepath"
)

// UploadStore writes uploaded files into the uploads directory before
// ingestion picks them up.
type UploadStore struct {
	Dir string // absolute path to the uploads directory
}

// NewUploadStore resolves and creates the uploads directory.
func NewUploadStore(dir string) (*UploadStore, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for uploads dir: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create uploads dir: %w", err)
	}
	return &UploadStore{Dir: absPath}, nil
}

// sanitizeFilename keeps uploads inside the uploads directory. Base
// strips any directory components, so traversal attempts
// (e.g. "../../../etc/passwd") land inside the uploads directory.
func (s *UploadStore) sanitizeFilename(filename string) string {
	return filepath.Join(s.Dir, filepath.Base(filename))
}

// Save writes one uploaded file and returns its path on disk.
func (s *UploadStore) Save(filename string, content []byte) (string, error) {
	path := s.sanitizeFilename(filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save upload %q: %w", filename, err)
	}
	return path, nil
}
