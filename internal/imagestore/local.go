package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps item photos in a directory, one file per object key.
// Used by the self-contained server; downloads go through HMAC-signed URLs
// rather than presigned object storage.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed. An empty dir lands under
// the OS temp directory.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "freshkeep-images")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put writes the image bytes under key.
func (s *LocalStore) Put(key string, data []byte) error {
	if err := os.WriteFile(s.path(key), data, 0o640); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Fetch reads the image bytes for key.
func (s *LocalStore) Fetch(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// path flattens the key so callers cannot escape the directory.
func (s *LocalStore) path(key string) string {
	safe := strings.ReplaceAll(key, "/", "_")
	return filepath.Join(s.dir, safe)
}
