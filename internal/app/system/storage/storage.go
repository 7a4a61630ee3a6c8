// Package storage persists uploaded blobs. The local-disk implementation
// writes under a configured root and serves files back over /files.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StoredFile describes a persisted blob.
type StoredFile struct {
	Key  string // storage key, opaque to callers
	URL  string // public retrieval path
	Size int64
}

// BlobStore saves and removes uploaded files.
type BlobStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (StoredFile, error)
	Remove(ctx context.Context, key string) error
}

// Local stores blobs on disk under Root and serves them at URLPrefix.
// Keys are random UUIDs plus the original extension, so uploaded names never
// influence paths.
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal creates the root directory if needed.
func NewLocal(root, urlPrefix string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/files"
	}
	return &Local{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (l *Local) Save(ctx context.Context, originalName string, r io.Reader) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	key := uuid.NewString() + ext
	path := filepath.Join(l.root, key)

	f, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("creating blob file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("writing blob: %w", err)
	}

	return StoredFile{
		Key:  key,
		URL:  l.urlPrefix + "/" + key,
		Size: n,
	}, nil
}

func (l *Local) Remove(_ context.Context, key string) error {
	// Keys are generated UUIDs; reject anything that looks like a path.
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	err := os.Remove(filepath.Join(l.root, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Handler serves stored blobs over HTTP.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(l.urlPrefix+"/", http.FileServer(http.Dir(l.root)))
}
