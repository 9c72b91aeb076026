// Package fs provides a filesystem-backed blob store for original
// uploaded bytes.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore keeps one file per handle under a root directory. Writes
// go to a temp file first and rename into place, so readers never see
// a partial blob.
type BlobStore struct {
	root string
}

// NewBlobStore creates a blob store rooted at dir. If dir is empty,
// defaults to ~/.veridoc/blobs.
func NewBlobStore(dir string) (*BlobStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".veridoc", "blobs")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &BlobStore{root: dir}, nil
}

// Put stores the stream under the handle, replacing any previous
// content.
func (s *BlobStore) Put(_ context.Context, handle string, r io.Reader) (int64, error) {
	path, err := s.path(handle)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("placing blob: %w", err)
	}
	return n, nil
}

// Get returns a reader for the stored bytes.
func (s *BlobStore) Get(_ context.Context, handle string) (io.ReadCloser, error) {
	path, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: blob %q", domain.ErrNotFound, handle)
		}
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	return f, nil
}

// Delete removes the stored bytes. Deleting a missing handle is not an
// error.
func (s *BlobStore) Delete(_ context.Context, handle string) error {
	path, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// path validates the handle and maps it to a file path. Handles are
// opaque IDs, never paths; anything that would escape the root is
// rejected.
func (s *BlobStore) path(handle string) (string, error) {
	if handle == "" || strings.ContainsAny(handle, `/\`) || handle == "." || handle == ".." {
		return "", fmt.Errorf("%w: invalid blob handle %q", domain.ErrInvalidInput, handle)
	}
	return filepath.Join(s.root, handle), nil
}
