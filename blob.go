package blogpanel

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// BlobStore is the object-storage boundary the upload pipeline writes
// through: byte writes with a content type, a visibility toggle, and public
// URL resolution.
type BlobStore interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) error
	SetPublic(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// fsBlobStore stores blobs under a local directory served by a web server or
// CDN rooted at baseURL. Content types are tracked in memory only; the
// serving layer derives them from extensions.
type fsBlobStore struct {
	dir     string
	baseURL string

	mu    sync.Mutex
	types map[string]string
}

// NewFSBlobStore creates a filesystem-backed BlobStore writing under dir,
// with public URLs formed by joining baseURL and the object path.
func NewFSBlobStore(dir, baseURL string) BlobStore {
	return &fsBlobStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		types:   make(map[string]string),
	}
}

func (s *fsBlobStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	full := filepath.Join(s.dir, filepath.FromSlash(objectPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	s.mu.Lock()
	s.types[objectPath] = contentType
	s.mu.Unlock()
	return nil
}

// SetPublic is a no-op for filesystem storage: everything under dir is served
// publicly. It still validates that the object exists so the pipeline's
// write-then-publish ordering is observable.
func (s *fsBlobStore) SetPublic(ctx context.Context, objectPath string) error {
	full := filepath.Join(s.dir, filepath.FromSlash(objectPath))
	if _, err := os.Stat(full); err != nil {
		return fmt.Errorf("publish blob: %w", err)
	}
	return nil
}

func (s *fsBlobStore) PublicURL(objectPath string) string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL + "/" + objectPath
	}
	u.Path = path.Join(u.Path, objectPath)
	return u.String()
}
