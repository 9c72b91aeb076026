package domain

import "testing"

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("doc-1", 0)
	b := ChunkID("doc-1", 0)
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32-char id, got %d", len(a))
	}
}

func TestChunkID_DistinctInputs(t *testing.T) {
	ids := map[string]bool{
		ChunkID("doc-1", 0): true,
		ChunkID("doc-1", 1): true,
		ChunkID("doc-2", 0): true,
		// "doc-1" index 10 must not collide with "doc-11" index 0.
		ChunkID("doc-1", 10): true,
		ChunkID("doc-11", 0): true,
	}
	if len(ids) != 5 {
		t.Errorf("expected 5 distinct ids, got %d", len(ids))
	}
}

func TestBoundingBox_Union(t *testing.T) {
	t.Run("both nil", func(t *testing.T) {
		var b *BoundingBox
		if got := b.Union(nil); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("nil receiver copies other", func(t *testing.T) {
		var b *BoundingBox
		other := &BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}
		got := b.Union(other)
		if got == other {
			t.Error("expected a copy, got the same pointer")
		}
		if *got != *other {
			t.Errorf("expected %+v, got %+v", *other, *got)
		}
	})

	t.Run("covers both rectangles", func(t *testing.T) {
		a := &BoundingBox{X: 10, Y: 10, Width: 20, Height: 10}
		b := &BoundingBox{X: 50, Y: 5, Width: 10, Height: 30}
		got := a.Union(b)
		want := BoundingBox{X: 10, Y: 5, Width: 50, Height: 30}
		if *got != want {
			t.Errorf("expected %+v, got %+v", want, *got)
		}
	})
}

func TestBoundingBox_Overlaps(t *testing.T) {
	a := &BoundingBox{X: 50, Y: 100, Width: 200, Height: 20}
	b := &BoundingBox{X: 100, Y: 105, Width: 50, Height: 10}
	c := &BoundingBox{X: 500, Y: 500, Width: 10, Height: 10}

	if !a.Overlaps(b) {
		t.Error("expected overlap")
	}
	if a.Overlaps(c) {
		t.Error("expected no overlap")
	}
	if a.Overlaps(nil) {
		t.Error("nil never overlaps")
	}
}
