package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

func TestPutGetDelete(t *testing.T) {
	s, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	ctx := context.Background()

	n, err := s.Put(ctx, "doc-1", strings.NewReader("original bytes"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != int64(len("original bytes")) {
		t.Errorf("expected %d bytes written, got %d", len("original bytes"), n)
	}

	rc, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "original bytes" {
		t.Errorf("unexpected content: %q", data)
	}

	// Put replaces.
	if _, err := s.Put(ctx, "doc-1", strings.NewReader("v2")); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	rc, _ = s.Get(ctx, "doc-1")
	data, _ = io.ReadAll(rc)
	rc.Close()
	if string(data) != "v2" {
		t.Errorf("put did not replace: %q", data)
	}

	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "doc-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	// Deleting again is fine.
	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Errorf("double delete should be a no-op, got %v", err)
	}
}

func TestInvalidHandles(t *testing.T) {
	s, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	ctx := context.Background()

	for _, handle := range []string{"", "..", "a/b", `a\b`} {
		if _, err := s.Put(ctx, handle, strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("handle %q: expected invalid input error, got %v", handle, err)
		}
	}
}
