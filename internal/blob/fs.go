package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the route the media directory is served under.
const URLPrefix = "/media/"

// FSStore implements Store on the local filesystem. Objects are written to
// a media directory served by the HTTP router under URLPrefix.
type FSStore struct {
	dir string
}

// NewFSStore creates the media directory if needed and returns the store.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the backing directory, for wiring the file server route.
func (s *FSStore) Dir() string {
	return s.dir
}

// Put writes the payload under a uuid-derived name and returns its URL.
func (s *FSStore) Put(ctx context.Context, mediaType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + extensionFor(mediaType)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write media object: %w", err)
	}
	return URLPrefix + name, nil
}

func extensionFor(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
