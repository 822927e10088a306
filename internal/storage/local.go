package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalBackend implements Backend over a directory on the local filesystem.
// Document references are slash-separated paths relative to the base directory.
type LocalBackend struct {
	// base is the absolute root directory containing the documents.
	base string
}

// NewLocalBackend constructs a LocalBackend rooted at basePath.
func NewLocalBackend(basePath string) (*LocalBackend, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage: local backend requires a base path")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path %s: %w", basePath, err)
	}
	return &LocalBackend{base: abs}, nil
}

// ListDocuments walks the base directory recursively and returns all file
// paths relative to it, using forward slashes regardless of platform.
func (b *LocalBackend) ListDocuments(_ context.Context) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(b.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.base, path)
		if err != nil {
			return err
		}
		docs = append(docs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list local documents: %w", err)
	}
	return docs, nil
}

// GetDocument resolves ref against the base directory. The document is already
// local, so the returned Handle does not own a temporary file and its Close
// is a no-op.
func (b *LocalBackend) GetDocument(_ context.Context, ref string) (*Handle, error) {
	full := filepath.Join(b.base, filepath.FromSlash(ref))
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("storage: stat %s: %w", ref, err)
	}
	return &Handle{Path: full}, nil
}

// GetDocumentURL returns the server-relative path under which a document
// service would expose this document.
func (b *LocalBackend) GetDocumentURL(_ context.Context, ref string) (string, error) {
	return "/documents/" + ref, nil
}
